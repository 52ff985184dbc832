package stages

import (
	"context"
	"fmt"

	"github.com/vvka-141/pgsanitize/internal/wordpress"
	"github.com/vvka-141/pgsanitize/pkg/sanitize"
)

// Content replaces the author data and body of held comments. Approved
// comments are public and left alone, as are the excluded comment types.
type Content struct {
	store  sanitize.ContentStore
	gen    sanitize.Generator
	logger sanitize.Logger
	opts   Options
}

// NewContent creates the comments stage.
func NewContent(store sanitize.ContentStore, gen sanitize.Generator, logger sanitize.Logger, opts Options) *Content {
	if store == nil {
		panic("store cannot be nil")
	}
	if gen == nil {
		panic("gen cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Content{store: store, gen: gen, logger: logger, opts: opts.withDefaults()}
}

func (s *Content) Name() string        { return NameComments }
func (s *Content) Description() string { return "Sanitizing held comments" }

// Ready always returns true.
func (s *Content) Ready(ctx context.Context) (bool, error) { return true, nil }

// Run rewrites held comments one by one. A failed record is logged and counted.
func (s *Content) Run(ctx context.Context) (sanitize.StageResult, error) {
	result := sanitize.StageResult{Name: s.Name()}

	err := s.store.EachContent(ctx, wordpress.CommentHeld, s.opts.BatchSize, func(c sanitize.ContentItem) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		result.Processed++

		if contains(s.opts.ExcludedCommentTypes, c.Type) {
			result.Preserved++
			return nil
		}

		update := sanitize.ContentUpdate{
			ID:          c.ID,
			AuthorName:  s.gen.Generate(sanitize.KindName),
			AuthorEmail: s.gen.Generate(sanitize.KindEmail),
			AuthorURL:   s.gen.Generate(sanitize.KindURL),
			Body:        s.gen.Text(sanitize.ContentTextMaxChars),
		}
		if err := s.store.UpdateContent(ctx, update); err != nil {
			result.Failed++
			s.logger.Error("comment %d: %v", c.ID, err)
			return nil
		}
		result.Updated++
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return result, err
		}
		return result, fmt.Errorf("enumerate comments: %w: %w", sanitize.ErrBulkOperation, err)
	}

	s.logger.Info("%d held comments processed: %d sanitized, %d skipped by type, %d failed",
		result.Processed, result.Updated, result.Preserved, result.Failed)
	return result, nil
}

var _ sanitize.Stage = (*Content)(nil)
