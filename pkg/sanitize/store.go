package sanitize

import "context"

// AccountStore enumerates and updates accounts.
type AccountStore interface {
	// EachAccount calls fn for every account, reading batchSize accounts per
	// round-trip. Iteration stops at the first error returned by fn.
	EachAccount(ctx context.Context, batchSize int, fn func(Account) error) error

	// UpdateAccount rewrites an account's core fields and its existing
	// attribute entries (both key variants) as one unit: on error nothing
	// of the account has changed.
	UpdateAccount(ctx context.Context, update AccountUpdate) error
}

// ContentStore enumerates and updates content items.
type ContentStore interface {
	// EachContent calls fn for every item in the given moderation status.
	EachContent(ctx context.Context, status string, batchSize int, fn func(ContentItem) error) error

	// UpdateContent rewrites an item's author and body fields.
	UpdateContent(ctx context.Context, update ContentUpdate) error
}

// BulkMutator applies set-based changes in bounded batches.
// Every method is safe to re-run: an empty or already sanitized set is a no-op.
type BulkMutator interface {
	// ReplaceAttribute rewrites every non-empty value stored under any of the
	// key variants with a freshly generated value per row.
	ReplaceAttribute(ctx context.Context, table AttributeTable, variants []string, gen func() string) (int64, error)

	// DeleteAttribute removes every row stored under any of the key variants.
	DeleteAttribute(ctx context.Context, table AttributeTable, variants []string) (int64, error)

	// DeleteByPrefix removes every row whose key starts with any of the prefixes.
	DeleteByPrefix(ctx context.Context, table AttributeTable, prefixes []string) (int64, error)

	// ReplaceColumns rewrites the non-empty cells of the given columns, one
	// generated value per cell.
	ReplaceColumns(ctx context.Context, table ColumnTable, columns map[string]func() string) (int64, error)

	// Truncate removes every row of the table.
	Truncate(ctx context.Context, table string) error
}

// ExtensionRegistry answers prerequisite questions for optional stages.
type ExtensionRegistry interface {
	// IsActive reports whether the plugin (e.g. "woocommerce/woocommerce.php") is active.
	IsActive(ctx context.Context, plugin string) (bool, error)

	// TableExists reports whether the fully qualified table exists.
	TableExists(ctx context.Context, table string) (bool, error)
}

// CacheFlusher purges an external object cache.
type CacheFlusher interface {
	// Flush removes cached entries and returns how many keys were removed.
	Flush(ctx context.Context) (int64, error)
}

// Stage is one unit of the sanitization pipeline.
type Stage interface {
	// Name is the stable identifier used on the command line.
	Name() string

	// Description is shown as the stage heading.
	Description() string

	// Ready evaluates the stage prerequisite. Mandatory stages always return true.
	Ready(ctx context.Context) (bool, error)

	// Run executes the stage. A returned error is fatal to the pipeline.
	Run(ctx context.Context) (StageResult, error)
}

// Sanitizer runs the confirmation gate and the ordered stages.
type Sanitizer interface {
	Sanitize(ctx context.Context, cfg RunConfig) (Summary, error)
}
