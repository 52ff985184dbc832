package wordpress

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/vvka-141/pgsanitize/pkg/sanitize"
)

// Well-known plugin basenames.
const (
	PluginGravityForms = "gravityforms/gravityforms.php"
	PluginWooCommerce  = "woocommerce/woocommerce.php"
)

const queryTableExists = `
	SELECT EXISTS(
		SELECT 1 FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_name = $1
	)`

// ExtensionRegistry implements sanitize.ExtensionRegistry. A plugin is
// active when it appears in the site's active_plugins option or, on a
// multisite install, in the network's active_sitewide_plugins.
type ExtensionRegistry struct {
	conn   sanitize.DBConnection
	schema Schema
}

// NewExtensionRegistry creates an ExtensionRegistry.
func NewExtensionRegistry(conn sanitize.DBConnection, schema Schema) *ExtensionRegistry {
	if conn == nil {
		panic("conn cannot be nil")
	}
	return &ExtensionRegistry{conn: conn, schema: schema}
}

// IsActive reports whether plugin is active for the site or the network.
func (r *ExtensionRegistry) IsActive(ctx context.Context, plugin string) (bool, error) {
	siteList, err := r.option(ctx, fmt.Sprintf(
		`SELECT option_value FROM %s WHERE option_name = 'active_plugins'`, r.schema.quoted("options")))
	if err != nil {
		return false, fmt.Errorf("failed to read active plugins: %w", err)
	}
	if ContainsPlugin(siteList, plugin) {
		return true, nil
	}

	hasSiteMeta, err := r.TableExists(ctx, r.schema.Table("sitemeta"))
	if err != nil || !hasSiteMeta {
		return false, err
	}

	networkList, err := r.option(ctx, fmt.Sprintf(
		`SELECT meta_value FROM %s WHERE meta_key = 'active_sitewide_plugins' ORDER BY meta_id LIMIT 1`, r.schema.quoted("sitemeta")))
	if err != nil {
		return false, fmt.Errorf("failed to read network plugins: %w", err)
	}
	return ContainsPlugin(networkList, plugin), nil
}

// TableExists reports whether table exists in the current schema.
func (r *ExtensionRegistry) TableExists(ctx context.Context, table string) (bool, error) {
	var exists bool
	if err := r.conn.QueryRow(ctx, queryTableExists, table).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", table, err)
	}
	return exists, nil
}

func (r *ExtensionRegistry) option(ctx context.Context, query string) (string, error) {
	var value *string
	err := r.conn.QueryRow(ctx, query).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if value == nil {
		return "", nil
	}
	return *value, nil
}

// ContainsPlugin reports whether a PHP-serialized plugin list mentions
// plugin as a string element or key, e.g. a:1:{i:0;s:27:"woocommerce/woocommerce.php";}.
func ContainsPlugin(serialized, plugin string) bool {
	if serialized == "" || plugin == "" {
		return false
	}
	return strings.Contains(serialized, fmt.Sprintf(`s:%d:"%s";`, len(plugin), plugin))
}

var _ sanitize.ExtensionRegistry = (*ExtensionRegistry)(nil)
