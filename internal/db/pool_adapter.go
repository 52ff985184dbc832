package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgsanitize/pkg/sanitize"
)

// PoolAdapter adapts *pgxpool.Pool to the sanitize.DBConnection interface,
// so repositories and the bulk mutator never see pgx pool types.
//
// Thread-Safety: Safe for concurrent use (pgxpool.Pool is thread-safe).
type PoolAdapter struct {
	pool *pgxpool.Pool
}

// NewPoolAdapter creates a new PoolAdapter wrapping the given pool.
func NewPoolAdapter(pool *pgxpool.Pool) sanitize.DBConnection {
	return &PoolAdapter{pool: pool}
}

// Exec executes a statement without returning any rows.
func (p *PoolAdapter) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return p.pool.Exec(ctx, sql, args...)
}

// Query executes a statement that returns rows. pgx.Rows satisfies sanitize.Rows.
func (p *PoolAdapter) Query(ctx context.Context, sql string, args ...any) (sanitize.Rows, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// QueryRow executes a query that is expected to return at most one row.
func (p *PoolAdapter) QueryRow(ctx context.Context, sql string, args ...any) sanitize.Row {
	return p.pool.QueryRow(ctx, sql, args...)
}

// InTx runs fn in a transaction on one pooled connection.
func (p *PoolAdapter) InTx(ctx context.Context, fn func(sanitize.DBConnection) error) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		return fn(&txAdapter{tx: tx})
	})
}

// txAdapter exposes a pgx.Tx as a DBConnection. Nested InTx calls become
// savepoints.
type txAdapter struct {
	tx pgx.Tx
}

func (t *txAdapter) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.tx.Exec(ctx, sql, args...)
}

func (t *txAdapter) Query(ctx context.Context, sql string, args ...any) (sanitize.Rows, error) {
	rows, err := t.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (t *txAdapter) QueryRow(ctx context.Context, sql string, args ...any) sanitize.Row {
	return t.tx.QueryRow(ctx, sql, args...)
}

func (t *txAdapter) InTx(ctx context.Context, fn func(sanitize.DBConnection) error) error {
	return pgx.BeginFunc(ctx, t.tx, func(tx pgx.Tx) error {
		return fn(&txAdapter{tx: tx})
	})
}

// Verify the adapters implement DBConnection at compile time
var (
	_ sanitize.DBConnection = (*PoolAdapter)(nil)
	_ sanitize.DBConnection = (*txAdapter)(nil)
)
