package wordpress

import (
	"context"
	"fmt"

	"github.com/vvka-141/pgsanitize/pkg/sanitize"
)

// Comment moderation states.
const (
	CommentHeld     = "0"
	CommentApproved = "1"
)

// CommentRepository implements sanitize.ContentStore over {prefix}comments.
type CommentRepository struct {
	conn   sanitize.DBConnection
	schema Schema
}

// NewCommentRepository creates a CommentRepository.
func NewCommentRepository(conn sanitize.DBConnection, schema Schema) *CommentRepository {
	if conn == nil {
		panic("conn cannot be nil")
	}
	return &CommentRepository{conn: conn, schema: schema}
}

// EachContent pages through comments in the given moderation status.
func (r *CommentRepository) EachContent(ctx context.Context, status string, batchSize int, fn func(sanitize.ContentItem) error) error {
	if batchSize <= 0 {
		batchSize = sanitize.DefaultBatchSize
	}
	query := fmt.Sprintf(`
		SELECT comment_id, COALESCE(comment_type, ''), comment_approved,
		       comment_author, comment_author_email, comment_author_url, comment_content
		FROM %s
		WHERE comment_approved = $1 AND comment_id > $2
		ORDER BY comment_id
		LIMIT $3`, r.schema.quoted("comments"))

	var lastID int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		page, err := r.readPage(ctx, query, status, lastID, batchSize)
		if err != nil {
			return fmt.Errorf("failed to read comments after id %d: %w", lastID, err)
		}
		for _, item := range page {
			if err := fn(item); err != nil {
				return err
			}
		}
		if len(page) < batchSize {
			return nil
		}
		lastID = page[len(page)-1].ID
	}
}

func (r *CommentRepository) readPage(ctx context.Context, query, status string, after int64, limit int) ([]sanitize.ContentItem, error) {
	rows, err := r.conn.Query(ctx, query, status, after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	page := make([]sanitize.ContentItem, 0, limit)
	for rows.Next() {
		var c sanitize.ContentItem
		if err := rows.Scan(&c.ID, &c.Type, &c.Status, &c.AuthorName, &c.AuthorEmail, &c.AuthorURL, &c.Body); err != nil {
			return nil, err
		}
		page = append(page, c)
	}
	return page, rows.Err()
}

// UpdateContent rewrites the author fields and body of one comment.
func (r *CommentRepository) UpdateContent(ctx context.Context, u sanitize.ContentUpdate) error {
	query := fmt.Sprintf(`
		UPDATE %s SET
			comment_author = $2,
			comment_author_email = $3,
			comment_author_url = $4,
			comment_content = $5
		WHERE comment_id = $1`, r.schema.quoted("comments"))

	tag, err := r.conn.Exec(ctx, query, u.ID, u.AuthorName, u.AuthorEmail, u.AuthorURL, u.Body)
	if err != nil {
		return fmt.Errorf("comment %d: %w: %w", u.ID, sanitize.ErrRowWrite, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("comment %d no longer exists: %w", u.ID, sanitize.ErrRowWrite)
	}
	return nil
}

var _ sanitize.ContentStore = (*CommentRepository)(nil)
