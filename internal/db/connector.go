package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgsanitize/internal/logging"
	"github.com/vvka-141/pgsanitize/internal/retry"
	"github.com/vvka-141/pgsanitize/pkg/sanitize"
)

// Connection pool configuration constants
const (
	// DefaultMaxConns bounds the pool. Stages run sequentially, so a small
	// pool is enough.
	DefaultMaxConns = 4

	// DefaultMinConns maintains at least one connection in the pool.
	DefaultMinConns = 1

	// DefaultMaxConnIdleTime keeps connections alive between long stages.
	DefaultMaxConnIdleTime = 30 * time.Minute
)

func configurePool(poolConfig *pgxpool.Config, logger sanitize.Logger) {
	poolConfig.MaxConns = DefaultMaxConns
	poolConfig.MinConns = DefaultMinConns
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime
	if poolConfig.ConnConfig.RuntimeParams["application_name"] == "" {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = sanitize.DefaultApplicationName
	}
	poolConfig.ConnConfig.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
		logger.Verbose("postgres %s: %s", strings.ToLower(notice.Severity), notice.Message)
	}
}

// newRetryExecutor returns the executor shared by all connectors:
// DefaultRetryMaxAttempts attempts with exponential backoff starting at
// DefaultRetryInitialDelay, capped at DefaultRetryMaxDelay.
func newRetryExecutor(logger sanitize.Logger) *retry.Executor {
	classifier := retry.NewConnectClassifier()
	strategy := retry.NewExponentialBackoff(sanitize.DefaultRetryMaxAttempts,
		retry.WithInitialDelay(sanitize.DefaultRetryInitialDelay),
		retry.WithMaxDelay(sanitize.DefaultRetryMaxDelay),
	)
	return retry.NewExecutor(classifier, strategy).WithOnRetry(func(attempt int, err error, delay time.Duration) {
		logger.Verbose("Connection attempt %d failed (%v), retrying in %v", attempt+1, err, delay.Round(time.Millisecond))
	})
}

// StandardConnector implements the Connector interface for standard
// username/password authentication with automatic retry on transient failures.
type StandardConnector struct {
	config        *sanitize.ConnectionConfig
	logger        sanitize.Logger
	retryExecutor *retry.Executor
}

// NewStandardConnector creates a new StandardConnector with the given configuration.
func NewStandardConnector(config *sanitize.ConnectionConfig, logger sanitize.Logger) *StandardConnector {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &StandardConnector{
		config:        config,
		logger:        logger,
		retryExecutor: newRetryExecutor(logger),
	}
}

// Connect establishes a connection pool using standard authentication with automatic retry.
func (c *StandardConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	connStr := BuildConnectionString(c.config)

	err := c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		poolConfig, err := pgxpool.ParseConfig(connStr)
		if err != nil {
			return fmt.Errorf("failed to parse connection config: %w", err)
		}

		configurePool(poolConfig, c.logger)

		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return wrapConnectionError(err, c.config.Host, c.config.Port, c.config.Database)
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return wrapConnectionError(err, c.config.Host, c.config.Port, c.config.Database)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return pool, nil
}

// NewConnector is a factory function that creates the appropriate Connector
// based on the ConnectionConfig's AuthMethod. A nil logger discards output.
func NewConnector(config *sanitize.ConnectionConfig, logger sanitize.Logger) (sanitize.Connector, error) {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	switch config.AuthMethod {
	case sanitize.AuthMethodStandard:
		return NewStandardConnector(config, logger), nil
	case sanitize.AuthMethodAWSIAM:
		return newAWSConnector(config, logger)
	case sanitize.AuthMethodGoogleIAM:
		return newGoogleConnector(config, logger)
	case sanitize.AuthMethodAzureEntraID:
		return newAzureConnector(config, logger)
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, sanitize.ErrUnsupportedAuthMethod)
	}
}

// connErrorHint maps a substring of a lower-cased pgx error to a hint
// template. Templates may use {addr}, {host}, {port} and {db}.
type connErrorHint struct {
	match []string
	hint  string
}

// connErrorHints are checked in order; the first match wins.
var connErrorHints = []connErrorHint{
	{[]string{"connection refused", "actively refused"}, `connection refused to {addr}

Possible causes:
  - PostgreSQL is not running (check: pg_isready -h {host} -p {port})
  - Wrong host or port
  - Firewall blocking the connection`},
	{[]string{"no such host", "no host"}, `cannot resolve host "{host}"

Possible causes:
  - Hostname is misspelled
  - DNS is not configured or reachable`},
	{[]string{"password authentication failed"}, `password authentication failed for database "{db}"

Possible causes:
  - Wrong password (check $PGPASSWORD or ~/.pgpass)
  - Wrong username`},
	{[]string{"too many connections"}, `too many connections to database "{db}"

Possible causes:
  - max_connections limit reached in postgresql.conf
  - Stale connections from an earlier run`},
	{[]string{`role "`}, `login role rejected while connecting to "{db}"

Check -U/--username (or $PGUSER). The role must exist and be allowed to log in.`},
	{[]string{"does not exist"}, `database "{db}" does not exist

pgsanitize only rewrites an existing copy. Restore the dump first, then
point -d/--database at it.`},
	{[]string{"permission denied"}, `permission denied on database "{db}"

The role needs CONNECT on the database and write access to the WordPress tables.`},
	{[]string{"timeout", "timed out"}, `connection timed out to {addr}

Possible causes:
  - Server is overloaded or unresponsive
  - Firewall silently dropping packets
  - Wrong host/port (server not listening)`},
	{[]string{"ssl", "tls"}, `SSL/TLS connection error

Possible causes:
  - Server requires SSL but --sslmode is wrong
  - Certificate verification failed (try --sslmode=require)`},
}

// wrapConnectionError wraps raw pgx connection errors with actionable guidance.
// The result chains both sanitize.ErrConnectionFailed and the original error.
func wrapConnectionError(err error, host string, port int, database string) error {
	errStr := strings.ToLower(err.Error())
	for _, h := range connErrorHints {
		for _, m := range h.match {
			if !strings.Contains(errStr, m) {
				continue
			}
			hint := strings.NewReplacer(
				"{addr}", fmt.Sprintf("%s:%d", host, port),
				"{host}", host,
				"{port}", strconv.Itoa(port),
				"{db}", database,
			).Replace(h.hint)
			return fmt.Errorf("%s\n\n%w: %w", hint, sanitize.ErrConnectionFailed, err)
		}
	}
	return fmt.Errorf("failed to connect to database: %w: %w", sanitize.ErrConnectionFailed, err)
}

// newAWSConnector creates a token-based connector with the AWS IAM token provider.
func newAWSConnector(config *sanitize.ConnectionConfig, logger sanitize.Logger) (sanitize.Connector, error) {
	endpoint := fmt.Sprintf("%s:%d", config.Host, config.Port)

	tokenProvider, err := NewAWSIAMTokenProvider(endpoint, config.AWSRegion, config.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS IAM token provider: %w: %w", sanitize.ErrInvalidConfig, err)
	}

	return NewTokenBasedConnector(config, tokenProvider, "AWS IAM", logger), nil
}

// newGoogleConnector creates a GoogleCloudSQLConnector for Google Cloud SQL IAM authentication.
func newGoogleConnector(config *sanitize.ConnectionConfig, logger sanitize.Logger) (sanitize.Connector, error) {
	if config.GoogleInstance == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires --google-instance (project:region:instance): %w", sanitize.ErrInvalidConfig)
	}
	if config.Username == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires username (-U): %w", sanitize.ErrInvalidConfig)
	}

	return NewGoogleCloudSQLConnector(config, config.GoogleInstance, logger), nil
}

// newAzureConnector creates a token-based connector with the Azure Entra ID token provider.
// If explicit credentials (tenant, client, secret) are provided, uses Service Principal auth.
// Otherwise, falls back to DefaultAzureCredential chain.
func newAzureConnector(config *sanitize.ConnectionConfig, logger sanitize.Logger) (sanitize.Connector, error) {
	var tokenProvider TokenProvider
	var err error

	if config.AzureTenantID != "" && config.AzureClientID != "" && config.AzureClientSecret != "" {
		tokenProvider, err = NewAzureServicePrincipalProvider(
			config.AzureTenantID,
			config.AzureClientID,
			config.AzureClientSecret,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Service Principal provider: %w", err)
		}
	} else {
		tokenProvider, err = NewAzureDefaultCredentialProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Default Credential provider: %w", err)
		}
	}

	return NewTokenBasedConnector(config, tokenProvider, "Azure", logger), nil
}
