package wordpress

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/vvka-141/pgsanitize/internal/fieldmap"
	"github.com/vvka-141/pgsanitize/pkg/sanitize"
)

// AccountRepository implements sanitize.AccountStore over {prefix}users and
// {prefix}usermeta.
type AccountRepository struct {
	conn   sanitize.DBConnection
	schema Schema
}

// NewAccountRepository creates an AccountRepository.
func NewAccountRepository(conn sanitize.DBConnection, schema Schema) *AccountRepository {
	if conn == nil {
		panic("conn cannot be nil")
	}
	return &AccountRepository{conn: conn, schema: schema}
}

// EachAccount pages through accounts in id order. Each page is read fully
// before fn is called, so fn may write through the same connection.
func (r *AccountRepository) EachAccount(ctx context.Context, batchSize int, fn func(sanitize.Account) error) error {
	if batchSize <= 0 {
		batchSize = sanitize.DefaultBatchSize
	}
	query := fmt.Sprintf(`
		SELECT id, user_login, user_email, COALESCE(user_url, ''), COALESCE(display_name, '')
		FROM %s
		WHERE id > $1
		ORDER BY id
		LIMIT $2`, r.schema.quoted("users"))

	var lastID int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		page, err := r.readPage(ctx, query, lastID, batchSize)
		if err != nil {
			return fmt.Errorf("failed to read accounts after id %d: %w", lastID, err)
		}

		for _, a := range page {
			if err := fn(a); err != nil {
				return err
			}
		}

		if len(page) < batchSize {
			return nil
		}
		lastID = page[len(page)-1].ID
	}
}

func (r *AccountRepository) readPage(ctx context.Context, query string, after int64, limit int) ([]sanitize.Account, error) {
	rows, err := r.conn.Query(ctx, query, after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	page := make([]sanitize.Account, 0, limit)
	for rows.Next() {
		var a sanitize.Account
		if err := rows.Scan(&a.ID, &a.Login, &a.Email, &a.URL, &a.DisplayName); err != nil {
			return nil, err
		}
		page = append(page, a)
	}
	return page, rows.Err()
}

// UpdateAccount rewrites the core fields and the existing attribute entries
// of one account in a single transaction.
func (r *AccountRepository) UpdateAccount(ctx context.Context, u sanitize.AccountUpdate) error {
	err := r.conn.InTx(ctx, func(tx sanitize.DBConnection) error {
		if err := r.updateCore(ctx, tx, u); err != nil {
			return err
		}
		return r.updateMeta(ctx, tx, u.ID, u.Meta)
	})
	if err != nil && !errors.Is(err, sanitize.ErrRowWrite) {
		return fmt.Errorf("account %d: %w: %w", u.ID, sanitize.ErrRowWrite, err)
	}
	return err
}

func (r *AccountRepository) updateCore(ctx context.Context, conn sanitize.DBConnection, u sanitize.AccountUpdate) error {
	query := fmt.Sprintf(`
		UPDATE %s SET
			user_login = $2,
			user_nicename = $3,
			user_email = $4,
			display_name = $5,
			user_pass = $6,
			user_url = CASE WHEN $7 THEN $8 ELSE user_url END
		WHERE id = $1`, r.schema.quoted("users"))

	tag, err := conn.Exec(ctx, query, u.ID, u.Login, u.Nicename, u.Email, u.DisplayName, u.PasswordHash, u.UpdateURL, u.URL)
	if err != nil {
		return fmt.Errorf("account %d: %w: %w", u.ID, sanitize.ErrRowWrite, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account %d no longer exists: %w", u.ID, sanitize.ErrRowWrite)
	}
	return nil
}

// updateMeta rewrites the existing attribute entries of one account in a
// single statement. Both the plain and the underscore-prefixed key are
// matched; no entries are created.
func (r *AccountRepository) updateMeta(ctx context.Context, conn sanitize.DBConnection, accountID int64, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, fieldmap.NormalizeKey(k))
	}
	sort.Strings(keys)

	vals := make([]string, len(keys))
	for i, k := range keys {
		v, ok := values[k]
		if !ok {
			v = values["_"+k]
		}
		vals[i] = v
	}

	query := fmt.Sprintf(`
		UPDATE %s AS m SET meta_value = v.val
		FROM unnest($2::text[], $3::text[]) AS v(key, val)
		WHERE m.user_id = $1 AND (m.meta_key = v.key OR m.meta_key = '_' || v.key)`, r.schema.quoted("usermeta"))

	if _, err := conn.Exec(ctx, query, accountID, keys, vals); err != nil {
		return fmt.Errorf("account %d attributes: %w: %w", accountID, sanitize.ErrRowWrite, err)
	}
	return nil
}

var _ sanitize.AccountStore = (*AccountRepository)(nil)
