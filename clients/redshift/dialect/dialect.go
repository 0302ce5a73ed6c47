package dialect

import (
	"fmt"
	"strings"

	"github.com/finlake/warehouse-transfer/lib/sql"
)

type RedshiftDialect struct{}

func (RedshiftDialect) QuoteIdentifier(identifier string) string {
	// Redshift folds unquoted identifiers to lowercase; lowercase before
	// quoting so generated names stay stable either way.
	return sql.QuoteIdentifier(strings.ToLower(identifier))
}

// BuildCreateStagingTableQuery creates a transaction-scoped staging table with
// the target's schema. Redshift drops it implicitly at session end.
func (RedshiftDialect) BuildCreateStagingTableQuery(stagingTableID, targetTableID sql.TableIdentifier) string {
	return fmt.Sprintf("CREATE TEMPORARY TABLE %s (LIKE %s);",
		stagingTableID.EscapedTable(), targetTableID.FullyQualifiedName())
}

// BuildCopyStatement bulk-loads staged data into the staging table, restricted
// to the batch's declared columns. formatOptions is appended verbatim,
// e.g. `JSON 'auto' GZIP` or `DELIMITER ',' IGNOREHEADER 1 GZIP`.
func (rd RedshiftDialect) BuildCopyStatement(stagingTableID sql.TableIdentifier, columns []string, stageURI, credentialsClause, formatOptions string) string {
	parts := []string{
		fmt.Sprintf("COPY %s (%s)", stagingTableID.EscapedTable(), strings.Join(sql.QuoteIdentifiers(columns, rd), ", ")),
		fmt.Sprintf("FROM %s", sql.QuoteLiteral(stageURI)),
	}

	if credentialsClause != "" {
		parts = append(parts, credentialsClause)
	}

	if formatOptions != "" {
		parts = append(parts, formatOptions)
	}

	return strings.Join(parts, " ") + ";"
}

// BuildMergeUpdateQuery sets every non-key column on target rows whose primary
// key matches a staging row.
func (rd RedshiftDialect) BuildMergeUpdateQuery(targetTableID, stagingTableID sql.TableIdentifier, primaryKey string, columns []string) string {
	quotedPrimaryKey := rd.QuoteIdentifier(primaryKey)

	var setFragments []string
	for _, column := range columns {
		quotedColumn := rd.QuoteIdentifier(column)
		if quotedColumn == quotedPrimaryKey {
			continue
		}

		setFragments = append(setFragments, fmt.Sprintf("%s = s.%s", quotedColumn, quotedColumn))
	}

	return fmt.Sprintf("UPDATE %s AS t SET %s FROM %s AS s WHERE t.%s = s.%s;",
		targetTableID.FullyQualifiedName(),
		strings.Join(setFragments, ", "),
		stagingTableID.EscapedTable(),
		quotedPrimaryKey,
		quotedPrimaryKey,
	)
}

// BuildMergeInsertQuery inserts every staging row whose primary key has no
// match in the target (left anti-join).
func (rd RedshiftDialect) BuildMergeInsertQuery(targetTableID, stagingTableID sql.TableIdentifier, primaryKey string) string {
	quotedPrimaryKey := rd.QuoteIdentifier(primaryKey)
	return fmt.Sprintf("INSERT INTO %s SELECT s.* FROM %s AS s LEFT JOIN %s AS t ON s.%s = t.%s WHERE t.%s IS NULL;",
		targetTableID.FullyQualifiedName(),
		stagingTableID.EscapedTable(),
		targetTableID.FullyQualifiedName(),
		quotedPrimaryKey,
		quotedPrimaryKey,
		quotedPrimaryKey,
	)
}
