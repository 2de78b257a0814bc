package order

import (
	"context"
	"database/sql"

	"github.com/warimas/backoffice/internal/audit"
	"github.com/warimas/backoffice/internal/customer"
	"github.com/warimas/backoffice/internal/db"
	"github.com/warimas/backoffice/internal/product"
)

// Tx is the set of stores bound to one open transaction.
type Tx struct {
	Orders    Repository
	Products  StockLedger
	Customers CustomerWriter
	Audit     audit.Repository
}

// Store opens transactions for the order workflow and serves plain reads.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Orders() Repository
	Audit() audit.Repository
}

type sqlStore struct {
	db *sql.DB
	tx db.Transactor
}

func NewStore(sqlDB *sql.DB) Store {
	return &sqlStore{db: sqlDB, tx: db.NewTransactor(sqlDB)}
}

func (s *sqlStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context, q db.DBTX) error {
		return fn(ctx, Tx{
			Orders:    NewRepository(q),
			Products:  product.NewRepository(q),
			Customers: customer.NewRepository(q),
			Audit:     audit.NewRepository(q),
		})
	})
}

func (s *sqlStore) Orders() Repository {
	return NewRepository(s.db)
}

func (s *sqlStore) Audit() audit.Repository {
	return audit.NewRepository(s.db)
}
