package stages

import (
	"context"

	"github.com/vvka-141/pgsanitize/internal/fieldmap"
	"github.com/vvka-141/pgsanitize/internal/wordpress"
	"github.com/vvka-141/pgsanitize/pkg/sanitize"
)

// Commerce replaces WooCommerce billing, shipping and card attributes on
// customers (usermeta) and orders (postmeta), plus the order address table
// when the store uses high-performance order storage.
type Commerce struct {
	mutator  sanitize.BulkMutator
	registry sanitize.ExtensionRegistry
	gen      sanitize.Generator
	schema   wordpress.Schema
	logger   sanitize.Logger
}

// NewCommerce creates the woocommerce stage.
func NewCommerce(mutator sanitize.BulkMutator, registry sanitize.ExtensionRegistry, gen sanitize.Generator, schema wordpress.Schema, logger sanitize.Logger) *Commerce {
	if mutator == nil {
		panic("mutator cannot be nil")
	}
	if registry == nil {
		panic("registry cannot be nil")
	}
	if gen == nil {
		panic("gen cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Commerce{mutator: mutator, registry: registry, gen: gen, schema: schema, logger: logger}
}

func (s *Commerce) Name() string        { return NameWooCommerce }
func (s *Commerce) Description() string { return "Sanitizing WooCommerce customer data" }

// Ready reports whether WooCommerce is active.
func (s *Commerce) Ready(ctx context.Context) (bool, error) {
	return s.registry.IsActive(ctx, wordpress.PluginWooCommerce)
}

// Run replaces every mapped attribute in both attribute tables.
func (s *Commerce) Run(ctx context.Context) (sanitize.StageResult, error) {
	result := sanitize.StageResult{Name: s.Name()}
	tables := []sanitize.AttributeTable{s.schema.UserMeta(), s.schema.PostMeta()}

	for _, key := range fieldmap.Commerce.Keys() {
		rule, _ := fieldmap.Commerce.KindFor(key)
		gen := s.generatorFor(rule.Kind)
		for _, table := range tables {
			n, err := s.mutator.ReplaceAttribute(ctx, table, fieldmap.Variants(key), gen)
			if err != nil {
				return result, err
			}
			result.Updated += n
		}
	}

	addresses := s.schema.OrderAddresses()
	exists, err := s.registry.TableExists(ctx, addresses.Name)
	if err != nil {
		return result, err
	}
	if exists {
		columns := make(map[string]func() string, fieldmap.CommerceColumns.Len())
		for _, col := range fieldmap.CommerceColumns.Keys() {
			rule, _ := fieldmap.CommerceColumns.KindFor(col)
			columns[col] = s.generatorFor(rule.Kind)
		}
		n, err := s.mutator.ReplaceColumns(ctx, addresses, columns)
		if err != nil {
			return result, err
		}
		result.Updated += n
	} else {
		s.logger.Verbose("%s: not present, skipped", addresses.Name)
	}

	s.logger.Info("%d customer and order values replaced", result.Updated)
	return result, nil
}

func (s *Commerce) generatorFor(kind sanitize.Kind) func() string {
	return func() string { return s.gen.Generate(kind) }
}

var _ sanitize.Stage = (*Commerce)(nil)
