package stages

import (
	"context"

	"github.com/vvka-141/pgsanitize/internal/wordpress"
	"github.com/vvka-141/pgsanitize/pkg/sanitize"
)

// Forms empties the Gravity Forms submission tables.
type Forms struct {
	mutator  sanitize.BulkMutator
	registry sanitize.ExtensionRegistry
	schema   wordpress.Schema
	logger   sanitize.Logger
}

// NewForms creates the gravityforms stage.
func NewForms(mutator sanitize.BulkMutator, registry sanitize.ExtensionRegistry, schema wordpress.Schema, logger sanitize.Logger) *Forms {
	if mutator == nil {
		panic("mutator cannot be nil")
	}
	if registry == nil {
		panic("registry cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Forms{mutator: mutator, registry: registry, schema: schema, logger: logger}
}

func (s *Forms) Name() string        { return NameGravityForms }
func (s *Forms) Description() string { return "Deleting Gravity Forms submissions" }

// Ready reports whether Gravity Forms is active or any of its tables exist.
// Inactive installs can still hold old submissions.
func (s *Forms) Ready(ctx context.Context) (bool, error) {
	active, err := s.registry.IsActive(ctx, wordpress.PluginGravityForms)
	if err != nil || active {
		return active, err
	}
	for _, table := range s.schema.FormTables() {
		exists, err := s.registry.TableExists(ctx, table)
		if err != nil || exists {
			return exists, err
		}
	}
	return false, nil
}

// Run truncates each submission table that exists.
func (s *Forms) Run(ctx context.Context) (sanitize.StageResult, error) {
	result := sanitize.StageResult{Name: s.Name()}

	for _, table := range s.schema.FormTables() {
		exists, err := s.registry.TableExists(ctx, table)
		if err != nil {
			return result, err
		}
		if !exists {
			s.logger.Verbose("%s: not present, skipped", table)
			continue
		}
		if err := s.mutator.Truncate(ctx, table); err != nil {
			return result, err
		}
		result.Truncated++
	}

	s.logger.Info("%d form tables truncated", result.Truncated)
	return result, nil
}

var _ sanitize.Stage = (*Forms)(nil)
