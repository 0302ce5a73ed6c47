package sql

import (
	"fmt"
	"strings"
)

// QuoteIdentifier wraps an identifier in double quotes, doubling any embedded
// quote. Column and table names come from trusted schemas, but they still pass
// through here before being interpolated into a statement.
func QuoteIdentifier(identifier string) string {
	return fmt.Sprintf(`"%s"`, strings.ReplaceAll(identifier, `"`, `""`))
}

func QuoteIdentifiers(identifiers []string, dialect Dialect) []string {
	result := make([]string, len(identifiers))
	for i, identifier := range identifiers {
		result[i] = dialect.QuoteIdentifier(identifier)
	}
	return result
}

func QuoteLiteral(value string) string {
	return fmt.Sprintf("'%s'", strings.ReplaceAll(strings.ReplaceAll(value, `\`, `\\`), "'", `\'`))
}
