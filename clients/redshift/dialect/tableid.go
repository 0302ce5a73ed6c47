package dialect

import (
	"fmt"

	"github.com/finlake/warehouse-transfer/lib/sql"
)

var _dialect = RedshiftDialect{}

type TableIdentifier struct {
	schema string
	table  string
}

func NewTableIdentifier(schema, table string) TableIdentifier {
	return TableIdentifier{schema: schema, table: table}
}

func (ti TableIdentifier) Schema() string {
	return ti.schema
}

func (ti TableIdentifier) Table() string {
	return ti.table
}

func (ti TableIdentifier) EscapedTable() string {
	return _dialect.QuoteIdentifier(ti.table)
}

func (ti TableIdentifier) WithTable(table string) sql.TableIdentifier {
	return NewTableIdentifier(ti.schema, table)
}

func (ti TableIdentifier) FullyQualifiedName() string {
	if ti.schema == "" {
		// Temporary tables may not specify a schema.
		return ti.EscapedTable()
	}

	return fmt.Sprintf("%s.%s", ti.schema, ti.EscapedTable())
}
