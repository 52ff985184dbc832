package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/pgsanitize/internal/db"
	"github.com/vvka-141/pgsanitize/internal/logging"
	"github.com/vvka-141/pgsanitize/internal/services"
	"github.com/vvka-141/pgsanitize/internal/stages"
	testhelpers "github.com/vvka-141/pgsanitize/internal/testing"
	"github.com/vvka-141/pgsanitize/internal/testinfra"
	"github.com/vvka-141/pgsanitize/pkg/sanitize"
)

type approveAll struct{}

func (approveAll) RequestApproval(context.Context, string) (bool, error) { return true, nil }

const seedSQL = `
INSERT INTO wp_users (id, user_login, user_pass, user_nicename, user_email, user_url, display_name) VALUES
	(1, 'alice', '$P$alice', 'alice', 'alice@customer.test', 'https://alice.test', 'Alice Anders'),
	(2, 'staffer', '$P$staff', 'staffer', 'staffer@staff.test', '', 'Staff Member');
INSERT INTO wp_usermeta (user_id, meta_key, meta_value) VALUES
	(1, 'first_name', 'Alice'),
	(1, 'jabber', 'alice@jabber.test'),
	(1, 'billing_phone', '555-0100'),
	(2, 'first_name', 'Staff');
INSERT INTO wp_postmeta (post_id, meta_key, meta_value) VALUES
	(100, '_billing_email', 'alice@customer.test'),
	(100, '_order_total', '19.99');
INSERT INTO wp_comments (comment_id, comment_author, comment_author_email, comment_content, comment_approved, comment_type) VALUES
	(10, 'Held Hank', 'hank@customer.test', 'call me on 555-0199', '0', 'comment'),
	(11, 'Public Pat', 'pat@customer.test', 'great post', '1', 'comment');
INSERT INTO wp_options (option_name, option_value) VALUES
	('active_plugins', 'a:2:{i:0;s:29:"gravityforms/gravityforms.php";i:1;s:27:"woocommerce/woocommerce.php";}'),
	('_transient_wc_count', '3'),
	('_site_transient_update_core', 'x'),
	('blogname', 'Shop');
INSERT INTO wp_gf_entry (form_id, ip) VALUES (1, '203.0.113.7');
INSERT INTO wp_wc_order_addresses (order_id, address_type, first_name, email, phone, address_2) VALUES
	(100, 'billing', 'Alice', 'alice@customer.test', '555-0100', '');
`

func TestPipelineBuilder_FullRunAgainstPostgres(t *testing.T) {
	pool, connStr := testhelpers.NewWordPressDB(t, testinfra.SchemaWooCommerce)
	ctx := context.Background()
	_, err := pool.Exec(ctx, seedSQL)
	require.NoError(t, err)

	conn, err := db.ParseConnectionString(connStr)
	require.NoError(t, err)

	logger := logging.NewNullLogger()
	builder := &services.PipelineBuilder{
		ConnectorFactory: func(c *sanitize.ConnectionConfig) (sanitize.Connector, error) {
			return db.NewConnector(c, logger)
		},
		Connection:  conn,
		TablePrefix: testinfra.FixtureTablePrefix,
		Options: stages.Options{
			BatchSize:            1,
			PreserveDomains:      []string{"staff.test"},
			ExcludedCommentTypes: []string{"pingback"},
		},
		PasswordCost: 4,
		Logger:       logger,
	}
	svc := services.NewSanitizeService(approveAll{}, logger, builder.Build)

	summary, err := svc.Sanitize(ctx, sanitize.RunConfig{DatabaseName: conn.Database})
	require.NoError(t, err)
	for _, name := range stages.Order {
		st, ok := summary.Stage(name)
		require.True(t, ok, name)
		assert.Equal(t, sanitize.StageCompleted, st.Status, name)
	}

	scalar := func(sql string, args ...any) string {
		t.Helper()
		var v string
		require.NoError(t, pool.QueryRow(ctx, sql, args...).Scan(&v))
		return v
	}
	count := func(sql string, args ...any) int {
		t.Helper()
		var n int
		require.NoError(t, pool.QueryRow(ctx, sql, args...).Scan(&n))
		return n
	}

	t.Run("accounts", func(t *testing.T) {
		assert.NotEqual(t, "alice", scalar(`SELECT user_login FROM wp_users WHERE id = 1`))
		assert.Regexp(t, `@example\.(com|org|net)$`, scalar(`SELECT user_email FROM wp_users WHERE id = 1`))
		assert.Regexp(t, `^\$2a\$04\$`, scalar(`SELECT user_pass FROM wp_users WHERE id = 1`))
		assert.NotEqual(t, "Alice", scalar(`SELECT meta_value FROM wp_usermeta WHERE user_id = 1 AND meta_key = 'first_name'`))
		assert.Zero(t, count(`SELECT count(*) FROM wp_usermeta WHERE meta_key = 'jabber'`))

		assert.Equal(t, "staffer@staff.test", scalar(`SELECT user_email FROM wp_users WHERE id = 2`))
		assert.Equal(t, "$P$staff", scalar(`SELECT user_pass FROM wp_users WHERE id = 2`))
	})

	t.Run("comments", func(t *testing.T) {
		assert.NotEqual(t, "Held Hank", scalar(`SELECT comment_author FROM wp_comments WHERE comment_id = 10`))
		assert.Equal(t, "0", scalar(`SELECT comment_approved FROM wp_comments WHERE comment_id = 10`))
		assert.Equal(t, "Public Pat", scalar(`SELECT comment_author FROM wp_comments WHERE comment_id = 11`))
	})

	t.Run("transients", func(t *testing.T) {
		assert.Zero(t, count(`SELECT count(*) FROM wp_options WHERE option_name LIKE '\_%transient\_%'`))
		assert.Equal(t, "Shop", scalar(`SELECT option_value FROM wp_options WHERE option_name = 'blogname'`))
	})

	t.Run("gravity forms", func(t *testing.T) {
		assert.Zero(t, count(`SELECT count(*) FROM wp_gf_entry`))
	})

	t.Run("woocommerce", func(t *testing.T) {
		assert.NotEqual(t, "555-0100", scalar(`SELECT meta_value FROM wp_usermeta WHERE meta_key = 'billing_phone'`))
		assert.NotEqual(t, "alice@customer.test", scalar(`SELECT meta_value FROM wp_postmeta WHERE meta_key = '_billing_email'`))
		assert.Equal(t, "19.99", scalar(`SELECT meta_value FROM wp_postmeta WHERE meta_key = '_order_total'`))
		assert.NotEqual(t, "Alice", scalar(`SELECT first_name FROM wp_wc_order_addresses WHERE order_id = 100`))
		assert.Empty(t, scalar(`SELECT address_2 FROM wp_wc_order_addresses WHERE order_id = 100`))
	})

	t.Run("second run is a no-op for deletions", func(t *testing.T) {
		again, err := svc.Sanitize(ctx, sanitize.RunConfig{DatabaseName: conn.Database, Stages: []string{stages.NameTransients}})
		require.NoError(t, err)
		st, _ := again.Stage(stages.NameTransients)
		assert.Zero(t, st.Deleted)
	})
}
