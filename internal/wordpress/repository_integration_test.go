package wordpress_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/pgsanitize/internal/db"
	testhelpers "github.com/vvka-141/pgsanitize/internal/testing"
	"github.com/vvka-141/pgsanitize/internal/testinfra"
	"github.com/vvka-141/pgsanitize/internal/wordpress"
	"github.com/vvka-141/pgsanitize/pkg/sanitize"
)

func newSchema(t *testing.T) wordpress.Schema {
	t.Helper()
	s, err := wordpress.NewSchema(testinfra.FixtureTablePrefix)
	require.NoError(t, err)
	return s
}

func TestAccountRepository_Integration(t *testing.T) {
	pool, _ := testhelpers.NewWordPressDB(t, testinfra.SchemaCore)
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		INSERT INTO wp_users (id, user_login, user_email, user_url, display_name) VALUES
			(1, 'alice', 'alice@corp.test', 'https://alice.test', 'Alice A'),
			(2, 'bob', 'bob@corp.test', '', 'Bob B'),
			(3, 'carol', 'carol@corp.test', '', 'Carol C');
		INSERT INTO wp_usermeta (user_id, meta_key, meta_value) VALUES
			(1, 'first_name', 'Alice'),
			(1, '_last_name', 'Anders'),
			(2, 'first_name', 'Bob');`)
	require.NoError(t, err)

	repo := wordpress.NewAccountRepository(db.NewPoolAdapter(pool), newSchema(t))

	t.Run("EachAccount pages in id order", func(t *testing.T) {
		var ids []int64
		err := repo.EachAccount(ctx, 2, func(a sanitize.Account) error {
			ids = append(ids, a.ID)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2, 3}, ids)
	})

	t.Run("UpdateAccount keeps empty URL", func(t *testing.T) {
		err := repo.UpdateAccount(ctx, sanitize.AccountUpdate{
			ID: 2, Login: "zed2", Nicename: "zed2", Email: "zed2@example.org",
			DisplayName: "Zed Z", PasswordHash: "$2a$04$x", URL: "ignored.test", UpdateURL: false,
		})
		require.NoError(t, err)

		var login, url, pass string
		require.NoError(t, pool.QueryRow(ctx, `SELECT user_login, user_url, user_pass FROM wp_users WHERE id = 2`).Scan(&login, &url, &pass))
		assert.Equal(t, "zed2", login)
		assert.Equal(t, "", url)
		assert.Equal(t, "$2a$04$x", pass)
	})

	t.Run("UpdateAccount on missing id fails", func(t *testing.T) {
		err := repo.UpdateAccount(ctx, sanitize.AccountUpdate{ID: 99})
		assert.ErrorIs(t, err, sanitize.ErrRowWrite)
	})

	t.Run("UpdateAccount updates existing meta variants only", func(t *testing.T) {
		err := repo.UpdateAccount(ctx, sanitize.AccountUpdate{
			ID: 1, Login: "xena1", Nicename: "xena1", Email: "xena1@example.com",
			DisplayName: "Xena Xu", PasswordHash: "$2a$04$y",
			Meta: map[string]string{
				"first_name": "Xena",
				"last_name":  "Xu",
				"nickname":   "never-created",
			},
		})
		require.NoError(t, err)

		assert.Equal(t, map[string]string{"first_name": "Xena", "_last_name": "Xu"}, userMeta(t, pool, 1))
	})

	t.Run("UpdateAccount rolls back core fields when meta write fails", func(t *testing.T) {
		_, err := pool.Exec(ctx, `
			CREATE FUNCTION reject_usermeta_update() RETURNS trigger LANGUAGE plpgsql AS $$
			BEGIN
				RAISE EXCEPTION 'usermeta is read-only';
			END $$;
			CREATE TRIGGER reject_usermeta_update BEFORE UPDATE ON wp_usermeta
				FOR EACH ROW EXECUTE FUNCTION reject_usermeta_update();`)
		require.NoError(t, err)
		t.Cleanup(func() {
			_, _ = pool.Exec(context.Background(), `DROP TRIGGER reject_usermeta_update ON wp_usermeta`)
		})

		err = repo.UpdateAccount(ctx, sanitize.AccountUpdate{
			ID: 2, Login: "yan2", Nicename: "yan2", Email: "yan2@example.net",
			DisplayName: "Yan Y", PasswordHash: "$2a$04$z",
			Meta: map[string]string{"first_name": "Yan"},
		})
		require.ErrorIs(t, err, sanitize.ErrRowWrite)

		var login, display string
		require.NoError(t, pool.QueryRow(ctx, `SELECT user_login, display_name FROM wp_users WHERE id = 2`).Scan(&login, &display))
		assert.Equal(t, "zed2", login, "core fields must be rolled back")
		assert.Equal(t, "Zed Z", display)
		assert.Equal(t, map[string]string{"first_name": "Bob"}, userMeta(t, pool, 2))
	})
}

func userMeta(t *testing.T, pool *pgxpool.Pool, userID int64) map[string]string {
	t.Helper()
	rows, err := pool.Query(context.Background(), `SELECT meta_key, meta_value FROM wp_usermeta WHERE user_id = $1 ORDER BY meta_key`, userID)
	require.NoError(t, err)
	defer rows.Close()
	got := map[string]string{}
	for rows.Next() {
		var k, v string
		require.NoError(t, rows.Scan(&k, &v))
		got[k] = v
	}
	require.NoError(t, rows.Err())
	return got
}

func TestCommentRepository_Integration(t *testing.T) {
	pool, _ := testhelpers.NewWordPressDB(t, testinfra.SchemaCore)
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		INSERT INTO wp_comments (comment_id, comment_author, comment_author_email, comment_content, comment_approved, comment_type) VALUES
			(1, 'Held', 'held@corp.test', 'secret', '0', 'comment'),
			(2, 'Public', 'pub@corp.test', 'hello', '1', 'comment'),
			(3, 'Ping', 'ping@corp.test', 'pingback', '0', 'pingback');`)
	require.NoError(t, err)

	repo := wordpress.NewCommentRepository(db.NewPoolAdapter(pool), newSchema(t))

	var held []sanitize.ContentItem
	require.NoError(t, repo.EachContent(ctx, wordpress.CommentHeld, 10, func(c sanitize.ContentItem) error {
		held = append(held, c)
		return nil
	}))
	require.Len(t, held, 2)
	assert.Equal(t, "comment", held[0].Type)
	assert.Equal(t, "pingback", held[1].Type)

	require.NoError(t, repo.UpdateContent(ctx, sanitize.ContentUpdate{ID: 1, AuthorName: "Anon", AuthorEmail: "a@example.com", AuthorURL: "x.test", Body: "Lorem."}))

	var author, status string
	require.NoError(t, pool.QueryRow(ctx, `SELECT comment_author, comment_approved FROM wp_comments WHERE comment_id = 1`).Scan(&author, &status))
	assert.Equal(t, "Anon", author)
	assert.Equal(t, "0", status)
}

func TestExtensionRegistry_Integration(t *testing.T) {
	pool, _ := testhelpers.NewWordPressDB(t, testinfra.SchemaGravityForms)
	ctx := context.Background()
	reg := wordpress.NewExtensionRegistry(db.NewPoolAdapter(pool), newSchema(t))

	active, err := reg.IsActive(ctx, wordpress.PluginWooCommerce)
	require.NoError(t, err)
	assert.False(t, active, "no active_plugins option means nothing is active")

	_, err = pool.Exec(ctx, `
		INSERT INTO wp_options (option_name, option_value) VALUES
			('active_plugins', 'a:1:{i:0;s:27:"woocommerce/woocommerce.php";}');
		INSERT INTO wp_sitemeta (site_id, meta_key, meta_value) VALUES
			(1, 'active_sitewide_plugins', 'a:1:{s:29:"gravityforms/gravityforms.php";i:1700000000;}');`)
	require.NoError(t, err)

	active, err = reg.IsActive(ctx, wordpress.PluginWooCommerce)
	require.NoError(t, err)
	assert.True(t, active)

	active, err = reg.IsActive(ctx, wordpress.PluginGravityForms)
	require.NoError(t, err)
	assert.True(t, active, "network-activated plugin")

	exists, err := reg.TableExists(ctx, "wp_gf_entry")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = reg.TableExists(ctx, "wp_wc_order_addresses")
	require.NoError(t, err)
	assert.False(t, exists)
}
