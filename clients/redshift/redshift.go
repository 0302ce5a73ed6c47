package redshift

import (
	"github.com/finlake/warehouse-transfer/clients/redshift/dialect"
	"github.com/finlake/warehouse-transfer/lib/config"
	"github.com/finlake/warehouse-transfer/lib/db"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type Store struct {
	credentialsClause string

	db.Store
}

func (s *Store) dialect() dialect.RedshiftDialect {
	return dialect.RedshiftDialect{}
}

func LoadStore(cfg config.Redshift) (*Store, error) {
	store, err := db.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, err
	}

	return &Store{
		credentialsClause: cfg.CredentialsClause,
		Store:             store,
	}, nil
}

// NewStore wires an existing data store in, used for tests.
func NewStore(store db.Store, credentialsClause string) *Store {
	return &Store{
		credentialsClause: credentialsClause,
		Store:             store,
	}
}
