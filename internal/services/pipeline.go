package services

import (
	"context"
	"fmt"
	"io"

	"github.com/vvka-141/pgsanitize/internal/db"
	"github.com/vvka-141/pgsanitize/internal/mutator"
	"github.com/vvka-141/pgsanitize/internal/objectcache"
	"github.com/vvka-141/pgsanitize/internal/stages"
	"github.com/vvka-141/pgsanitize/internal/synth"
	"github.com/vvka-141/pgsanitize/internal/wordpress"
	"github.com/vvka-141/pgsanitize/pkg/sanitize"
)

// SelectStages resolves requested stage names into pipeline order.
// An empty request selects every stage.
func SelectStages(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return append([]string(nil), stages.Order...), nil
	}
	want := make(map[string]bool, len(requested))
	for _, name := range requested {
		if !isKnownStage(name) {
			return nil, fmt.Errorf("%q (known stages: %v): %w", name, stages.Order, sanitize.ErrUnknownStage)
		}
		want[name] = true
	}
	out := make([]string, 0, len(want))
	for _, name := range stages.Order {
		if want[name] {
			out = append(out, name)
		}
	}
	return out, nil
}

func isKnownStage(name string) bool {
	for _, n := range stages.Order {
		if n == name {
			return true
		}
	}
	return false
}

// StageDeps are the collaborators shared by the pipeline stages.
// Cache may be nil when no object cache is configured.
type StageDeps struct {
	Accounts  sanitize.AccountStore
	Content   sanitize.ContentStore
	Mutator   sanitize.BulkMutator
	Registry  sanitize.ExtensionRegistry
	Cache     sanitize.CacheFlusher
	Generator stages.IdentityGenerator
	Hasher    stages.PasswordHasher
	Schema    wordpress.Schema
	Options   stages.Options
}

// NewStages builds every stage in pipeline order.
func NewStages(deps StageDeps, logger sanitize.Logger) []sanitize.Stage {
	return []sanitize.Stage{
		stages.NewTransients(deps.Mutator, deps.Registry, deps.Cache, deps.Schema, logger),
		stages.NewContent(deps.Content, deps.Generator, logger, deps.Options),
		stages.NewAccounts(deps.Accounts, deps.Mutator, deps.Generator, deps.Hasher, deps.Schema, logger, deps.Options),
		stages.NewForms(deps.Mutator, deps.Registry, deps.Schema, logger),
		stages.NewCommerce(deps.Mutator, deps.Registry, deps.Generator, deps.Schema, logger),
	}
}

// PipelineBuilder connects to PostgreSQL (and optionally Redis) and wires
// the stages against the live stores.
type PipelineBuilder struct {
	ConnectorFactory func(*sanitize.ConnectionConfig) (sanitize.Connector, error)
	Connection       *sanitize.ConnectionConfig
	TablePrefix      string
	Options          stages.Options
	ObjectCache      *objectcache.Config // nil disables the cache purge
	PasswordCost     int
	Logger           sanitize.Logger
}

// Build satisfies StageFactory.
func (b *PipelineBuilder) Build(ctx context.Context) ([]sanitize.Stage, func(), error) {
	schema, err := wordpress.NewSchema(b.TablePrefix)
	if err != nil {
		return nil, nil, err
	}

	connector, err := b.ConnectorFactory(b.Connection)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connector: %w", err)
	}

	b.Logger.Verbose("Connecting to %s:%d/%s", b.Connection.Host, b.Connection.Port, b.Connection.Database)
	// The Cloud SQL connector owns a dialer that outlives the pool.
	closeConnector := func() {
		if c, ok := connector.(io.Closer); ok {
			_ = c.Close()
		}
	}
	pool, err := connector.Connect(ctx)
	if err != nil {
		closeConnector()
		return nil, nil, err
	}
	cleanup := func() {
		pool.Close()
		closeConnector()
	}

	var cache sanitize.CacheFlusher
	if b.ObjectCache != nil && b.ObjectCache.ConnectionURL != "" {
		client, err := objectcache.Connect(ctx, *b.ObjectCache)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("object cache: %w", err)
		}
		cache = objectcache.NewPurger(client, *b.ObjectCache, b.Logger)
		closePool := cleanup
		cleanup = func() {
			_ = client.Close()
			closePool()
		}
	}

	conn := db.NewPoolAdapter(pool)
	deps := StageDeps{
		Accounts:  wordpress.NewAccountRepository(conn, schema),
		Content:   wordpress.NewCommentRepository(conn, schema),
		Mutator:   mutator.New(conn, b.Logger, b.Options.BatchSize),
		Registry:  wordpress.NewExtensionRegistry(conn, schema),
		Cache:     cache,
		Generator: synth.New(),
		Hasher:    synth.NewPasswordHasher(b.PasswordCost),
		Schema:    schema,
		Options:   b.Options,
	}
	return NewStages(deps, b.Logger), cleanup, nil
}
