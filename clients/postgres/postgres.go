package postgres

import (
	"context"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/finlake/warehouse-transfer/lib/batch"
	"github.com/finlake/warehouse-transfer/lib/config"
	"github.com/finlake/warehouse-transfer/lib/db"
	"github.com/finlake/warehouse-transfer/lib/sql"
)

type Store struct {
	db.Store
}

func LoadStore(cfg config.Postgres) (*Store, error) {
	store, err := db.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, err
	}

	return &Store{Store: store}, nil
}

// NewStore wires an existing data store in, used for tests.
func NewStore(store db.Store) *Store {
	return &Store{Store: store}
}

// ReadTable selects the whole table into a batch, with column order taken from
// the result set.
func (s *Store) ReadTable(ctx context.Context, schema, table string) (*batch.Batch, error) {
	query := fmt.Sprintf("SELECT * FROM %s.%s", sql.QuoteIdentifier(schema), sql.QuoteIdentifier(table))
	rows, err := s.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s.%s: %w", schema, table, err)
	}

	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	tableBatch, err := batch.New(columns)
	if err != nil {
		return nil, err
	}

	for rows.Next() {
		row := make([]any, len(columns))
		rowPointers := make([]any, len(columns))
		for i := range row {
			rowPointers[i] = &row[i]
		}

		if err = rows.Scan(rowPointers...); err != nil {
			return nil, err
		}

		if err = tableBatch.Append(row); err != nil {
			return nil, err
		}
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate over rows: %w", err)
	}

	return tableBatch, nil
}
