package testinfra

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed fixtures/*.sql
var fixtures embed.FS

// Fixture schema versions. Each version includes the ones before it.
const (
	SchemaCore         int64 = 1 // users, usermeta, comments, postmeta, options, sitemeta
	SchemaGravityForms int64 = 2 // gf_* entry tables
	SchemaWooCommerce  int64 = 3 // wc_order_addresses
)

// FixtureTablePrefix is the table prefix used by the fixture schema.
const FixtureTablePrefix = "wp_"

// ApplyWordPressSchema creates the fixture tables up to the given version.
func ApplyWordPressSchema(ctx context.Context, pool *pgxpool.Pool, version int64) error {
	db := stdlib.OpenDBFromPool(pool)
	defer func(db *sql.DB) {
		_ = db.Close()
	}(db)

	goose.SetBaseFS(fixtures)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}

	if err := goose.UpToContext(ctx, db, "fixtures", version); err != nil {
		return fmt.Errorf("apply fixture schema up to %d: %w", version, err)
	}
	return nil
}
