package sql

// TableIdentifier - identifies one relation in the warehouse. Dialects provide
// their own implementation so that escaping rules stay dialect-local.
type TableIdentifier interface {
	Schema() string
	Table() string
	EscapedTable() string
	FullyQualifiedName() string
}

// Dialect covers the escaping rules a warehouse applies to identifiers.
type Dialect interface {
	QuoteIdentifier(identifier string) string
}
