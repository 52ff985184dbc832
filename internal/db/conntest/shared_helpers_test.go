//go:build conntest || azure

package conntest

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/pgsanitize/internal/db"
	"github.com/vvka-141/pgsanitize/pkg/sanitize"
)

func connectWithConfig(t *testing.T, config *sanitize.ConnectionConfig) *pgxpool.Pool {
	t.Helper()

	connector, err := db.NewConnector(config, nil)
	if err != nil {
		t.Fatalf("create connector: %v", err)
	}

	pool, err := connector.Connect(context.Background())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	t.Cleanup(pool.Close)
	return pool
}

func pingSucceeds(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if err := pool.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}

func queryString(t *testing.T, pool *pgxpool.Pool, sql string) string {
	t.Helper()
	var value string
	if err := pool.QueryRow(context.Background(), sql).Scan(&value); err != nil {
		t.Fatalf("query %q: %v", sql, err)
	}
	return value
}
