package wordpress

import (
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"

	"github.com/vvka-141/pgsanitize/pkg/sanitize"
)

var prefixPattern = regexp.MustCompile(`^[A-Za-z0-9_]*$`)

// Gravity Forms keeps submissions in legacy rg_* tables (before 2.3) and
// gf_* tables (2.3 and later).
var formTables = []string{
	"rg_incomplete_submissions",
	"rg_lead",
	"rg_lead_detail",
	"rg_lead_detail_long",
	"rg_lead_meta",
	"rg_lead_notes",
	"gf_draft_submissions",
	"gf_entry",
	"gf_entry_meta",
	"gf_entry_notes",
}

// Schema resolves table names for one table prefix.
type Schema struct {
	prefix string
}

// NewSchema validates prefix and returns a Schema.
func NewSchema(prefix string) (Schema, error) {
	if !prefixPattern.MatchString(prefix) {
		return Schema{}, fmt.Errorf("table prefix %q may only contain letters, digits and underscores: %w", prefix, sanitize.ErrInvalidConfig)
	}
	return Schema{prefix: prefix}, nil
}

// Prefix returns the table prefix.
func (s Schema) Prefix() string { return s.prefix }

// Table returns the prefixed name of table.
func (s Schema) Table(name string) string { return s.prefix + name }

func (s Schema) quoted(name string) string {
	return pgx.Identifier{s.Table(name)}.Sanitize()
}

// UserMeta describes the account attribute table.
func (s Schema) UserMeta() sanitize.AttributeTable {
	return sanitize.AttributeTable{Name: s.Table("usermeta"), IDColumn: "umeta_id", KeyColumn: "meta_key", ValueColumn: "meta_value"}
}

// PostMeta describes the content attribute table. Orders are posts.
func (s Schema) PostMeta() sanitize.AttributeTable {
	return sanitize.AttributeTable{Name: s.Table("postmeta"), IDColumn: "meta_id", KeyColumn: "meta_key", ValueColumn: "meta_value"}
}

// Options describes the site options table.
func (s Schema) Options() sanitize.AttributeTable {
	return sanitize.AttributeTable{Name: s.Table("options"), IDColumn: "option_id", KeyColumn: "option_name", ValueColumn: "option_value"}
}

// SiteMeta describes the network options table of a multisite install.
func (s Schema) SiteMeta() sanitize.AttributeTable {
	return sanitize.AttributeTable{Name: s.Table("sitemeta"), IDColumn: "meta_id", KeyColumn: "meta_key", ValueColumn: "meta_value"}
}

// OrderAddresses describes the WooCommerce order address table.
func (s Schema) OrderAddresses() sanitize.ColumnTable {
	return sanitize.ColumnTable{Name: s.Table("wc_order_addresses"), IDColumn: "id"}
}

// FormTables returns the prefixed Gravity Forms tables.
func (s Schema) FormTables() []string {
	tables := make([]string, len(formTables))
	for i, t := range formTables {
		tables[i] = s.Table(t)
	}
	return tables
}
