package objectcache

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/vvka-141/pgsanitize/pkg/sanitize"
)

// Purger removes cached entries. With a key prefix it deletes matching keys
// with SCAN and UNLINK; without one it flushes the selected database.
type Purger struct {
	client    redis.UniversalClient
	prefix    string
	scanBatch int64
	logger    sanitize.Logger
}

// NewPurger creates a Purger. Prefix and scan batch size come from cfg.
func NewPurger(client redis.UniversalClient, cfg Config, logger sanitize.Logger) *Purger {
	if client == nil {
		panic("client cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	cfg = cfg.withDefaults()
	return &Purger{client: client, prefix: cfg.KeyPrefix, scanBatch: cfg.ScanBatchSize, logger: logger}
}

// Flush removes cached entries and returns the number of keys removed.
func (p *Purger) Flush(ctx context.Context) (int64, error) {
	if p.prefix == "" {
		return p.flushDB(ctx)
	}

	pattern := escapeGlob(p.prefix) + "*"
	var total int64
	var cursor uint64
	for {
		keys, next, err := p.client.Scan(ctx, cursor, pattern, p.scanBatch).Result()
		if err != nil {
			return total, fmt.Errorf("scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			n, err := p.client.Unlink(ctx, keys...).Result()
			if err != nil {
				return total, fmt.Errorf("unlink %d keys: %w", len(keys), err)
			}
			total += n
		}
		if next == 0 {
			break
		}
		cursor = next
	}

	p.logger.Verbose("object cache: removed %d keys matching %s", total, pattern)
	return total, nil
}

func (p *Purger) flushDB(ctx context.Context) (int64, error) {
	size, err := p.client.DBSize(ctx).Result()
	if err != nil {
		return 0, fmt.Errorf("dbsize: %w", err)
	}
	if err := p.client.FlushDB(ctx).Err(); err != nil {
		return 0, fmt.Errorf("flushdb: %w", err)
	}
	p.logger.Verbose("object cache: flushed database (%d keys)", size)
	return size, nil
}

// escapeGlob escapes the glob metacharacters understood by SCAN MATCH.
func escapeGlob(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return r.Replace(s)
}

var _ sanitize.CacheFlusher = (*Purger)(nil)
