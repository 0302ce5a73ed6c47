package redshift

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/finlake/warehouse-transfer/clients/redshift/dialect"
)

// MergeDirective fully determines one merge operation. It carries no state
// across invocations.
type MergeDirective struct {
	Schema     string
	Table      string
	PrimaryKey string
	// StageURI locates the staged batch in the object store.
	StageURI string
	// FormatOptions is appended verbatim to the COPY statement,
	// e.g. `JSON 'auto' GZIP` or `DELIMITER ',' IGNOREHEADER 1 GZIP`.
	FormatOptions string
	// InsertOnly skips the UPDATE step; used when target rows are immutable
	// once written.
	InsertOnly bool
}

func (m MergeDirective) Validate() error {
	if m.Schema == "" {
		return fmt.Errorf("schema is required")
	}
	if m.Table == "" {
		return fmt.Errorf("table is required")
	}
	if m.PrimaryKey == "" {
		return fmt.Errorf("primary key is required")
	}
	if m.StageURI == "" {
		return fmt.Errorf("stage URI is required")
	}
	return nil
}

// Merge upserts a staged batch into the target table in three steps: create a
// staging table with the target's schema, COPY the staged data into it, then
// UPDATE matched rows (unless insert-only) and INSERT unmatched rows via a
// left anti-join on the primary key.
//
// All statements run on the caller's transaction; the caller owns commit and
// rollback, so either every step's effects apply or none do. No locking is
// taken beyond the transaction's isolation level. Two concurrent merges
// against the same table can both pass the anti-join and insert duplicate
// keys; callers needing exclusivity serialize merges externally.
func (s *Store) Merge(ctx context.Context, tx *sql.Tx, directive MergeDirective, batchColumns []string) error {
	if err := directive.Validate(); err != nil {
		return fmt.Errorf("invalid merge directive: %w", err)
	}

	if len(batchColumns) == 0 {
		return fmt.Errorf("batch has no columns")
	}

	targetTableID := dialect.NewTableIdentifier(directive.Schema, directive.Table)
	stagingTableID := dialect.NewTableIdentifier("", stagingTableName(directive.Table))

	createQuery := s.dialect().BuildCreateStagingTableQuery(stagingTableID, targetTableID)
	slog.Debug("Executing...", slog.String("query", createQuery))
	if _, err := tx.ExecContext(ctx, createQuery); err != nil {
		return fmt.Errorf("failed to create staging table: %w", err)
	}

	// The COPY statement embeds the credentials clause, so it is not logged.
	copyQuery := s.dialect().BuildCopyStatement(stagingTableID, batchColumns, directive.StageURI, s.credentialsClause, directive.FormatOptions)
	if _, err := tx.ExecContext(ctx, copyQuery); err != nil {
		return fmt.Errorf("failed to copy staged data into %q: %w", stagingTableID.Table(), err)
	}

	// A batch holding only the key column has nothing to update.
	if !directive.InsertOnly && hasNonKeyColumns(batchColumns, directive.PrimaryKey) {
		updateQuery := s.dialect().BuildMergeUpdateQuery(targetTableID, stagingTableID, directive.PrimaryKey, batchColumns)
		slog.Debug("Executing...", slog.String("query", updateQuery))
		if _, err := tx.ExecContext(ctx, updateQuery); err != nil {
			return fmt.Errorf("failed to update matched rows in %q: %w", targetTableID.FullyQualifiedName(), err)
		}
	}

	insertQuery := s.dialect().BuildMergeInsertQuery(targetTableID, stagingTableID, directive.PrimaryKey)
	slog.Debug("Executing...", slog.String("query", insertQuery))
	if _, err := tx.ExecContext(ctx, insertQuery); err != nil {
		return fmt.Errorf("failed to insert unmatched rows into %q: %w", targetTableID.FullyQualifiedName(), err)
	}

	return nil
}

func hasNonKeyColumns(batchColumns []string, primaryKey string) bool {
	rd := dialect.RedshiftDialect{}
	quotedPrimaryKey := rd.QuoteIdentifier(primaryKey)
	for _, column := range batchColumns {
		if rd.QuoteIdentifier(column) != quotedPrimaryKey {
			return true
		}
	}

	return false
}

func stagingTableName(table string) string {
	return fmt.Sprintf("%s_staging_%s", table, strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}
