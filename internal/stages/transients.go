package stages

import (
	"context"
	"fmt"

	"github.com/vvka-141/pgsanitize/internal/wordpress"
	"github.com/vvka-141/pgsanitize/pkg/sanitize"
)

var transientPrefixes = []string{"_transient_", "_site_transient_"}

// Transients deletes cached transients from the options table, from the
// network options table when present, and from the object cache when one
// is configured.
type Transients struct {
	mutator  sanitize.BulkMutator
	registry sanitize.ExtensionRegistry
	cache    sanitize.CacheFlusher
	schema   wordpress.Schema
	logger   sanitize.Logger
}

// NewTransients creates the transients stage. cache may be nil.
func NewTransients(mutator sanitize.BulkMutator, registry sanitize.ExtensionRegistry, cache sanitize.CacheFlusher, schema wordpress.Schema, logger sanitize.Logger) *Transients {
	if mutator == nil {
		panic("mutator cannot be nil")
	}
	if registry == nil {
		panic("registry cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Transients{mutator: mutator, registry: registry, cache: cache, schema: schema, logger: logger}
}

func (s *Transients) Name() string        { return NameTransients }
func (s *Transients) Description() string { return "Deleting transients" }

// Ready always returns true.
func (s *Transients) Ready(ctx context.Context) (bool, error) { return true, nil }

// Run deletes every transient row and purges the object cache.
func (s *Transients) Run(ctx context.Context) (sanitize.StageResult, error) {
	result := sanitize.StageResult{Name: s.Name()}

	n, err := s.mutator.DeleteByPrefix(ctx, s.schema.Options(), transientPrefixes)
	if err != nil {
		return result, err
	}
	result.Deleted += n

	hasSiteMeta, err := s.registry.TableExists(ctx, s.schema.SiteMeta().Name)
	if err != nil {
		return result, err
	}
	if hasSiteMeta {
		n, err := s.mutator.DeleteByPrefix(ctx, s.schema.SiteMeta(), transientPrefixes)
		if err != nil {
			return result, err
		}
		result.Deleted += n
	}
	s.logger.Info("%d transients deleted", result.Deleted)

	if s.cache != nil {
		keys, err := s.cache.Flush(ctx)
		if err != nil {
			return result, fmt.Errorf("purge object cache: %w: %w", sanitize.ErrBulkOperation, err)
		}
		result.Deleted += keys
		s.logger.Info("%d object cache keys removed", keys)
	}
	return result, nil
}

var _ sanitize.Stage = (*Transients)(nil)
