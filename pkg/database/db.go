package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, pgx.Tx, and test mocks alike, so the
// store works over a pool, inside a transaction, or against a fake.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// New creates a Store bound to the given connection source
func New(db DBTX) *Store {
	return &Store{db: db}
}

// Store provides predicate-level access to the jobs, embedding_queue and
// matches tables.
type Store struct {
	db DBTX
}
