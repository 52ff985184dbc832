package db

import (
	"fmt"
	"os"
	"strconv"

	"github.com/vvka-141/pgsanitize/internal/config"
	"github.com/vvka-141/pgsanitize/pkg/sanitize"
)

// GranularConnFlags represents connection parameters from CLI flags.
// These follow PostgreSQL standard flag conventions (-h, -p, -U, -d).
//
// Note: Password is NOT included as a CLI flag for security reasons.
// Use one of these methods instead:
//  1. $PGPASSWORD environment variable
//  2. .pgpass file (PostgreSQL standard)
//  3. Connection string with embedded password
type GranularConnFlags struct {
	Host     string
	Port     int
	Username string
	Database string
	SSLMode  string
}

// IsEmpty returns true if no connection-related granular flags were provided by the user.
// Database is excluded because -d may override the database of a connection string.
func (g *GranularConnFlags) IsEmpty() bool {
	return g.Host == "" && g.Port == 0 && g.Username == "" && g.SSLMode == ""
}

// AzureFlags represents Azure Entra ID CLI flags.
// The client secret only comes from AZURE_CLIENT_SECRET.
type AzureFlags struct {
	Enabled  bool
	TenantID string // Overrides AZURE_TENANT_ID
	ClientID string // Overrides AZURE_CLIENT_ID
}

func (a AzureFlags) requested() bool {
	return a.Enabled || a.TenantID != "" || a.ClientID != ""
}

// AWSFlags represents AWS RDS IAM CLI flags.
type AWSFlags struct {
	Enabled bool
	Region  string
}

// GoogleFlags represents Google Cloud SQL IAM CLI flags.
type GoogleFlags struct {
	Enabled  bool
	Instance string
}

// CloudFlags groups the cloud authentication flags. At most one provider may be selected.
type CloudFlags struct {
	Azure  AzureFlags
	AWS    AWSFlags
	Google GoogleFlags
}

// EnvVars represents PostgreSQL standard environment variables plus the
// cloud SDK variables the resolver consults.
// See: https://www.postgresql.org/docs/current/libpq-envars.html
type EnvVars struct {
	PGHOST        string
	PGPORT        string
	PGUSER        string
	PGPASSWORD    string // discouraged, use .pgpass instead
	PGDATABASE    string
	PGSSLMODE     string
	PGSSLCERT     string
	PGSSLKEY      string
	PGSSLROOTCERT string

	PGSANITIZE_CONNECTION_STRING string
	DATABASE_URL                 string // Heroku/Rails convention

	AZURE_TENANT_ID     string
	AZURE_CLIENT_ID     string
	AZURE_CLIENT_SECRET string

	AWS_REGION         string
	AWS_DEFAULT_REGION string
}

// LoadFromEnvironment loads PostgreSQL and cloud provider environment variables.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		PGHOST:                       os.Getenv("PGHOST"),
		PGPORT:                       os.Getenv("PGPORT"),
		PGUSER:                       os.Getenv("PGUSER"),
		PGPASSWORD:                   os.Getenv("PGPASSWORD"),
		PGDATABASE:                   os.Getenv("PGDATABASE"),
		PGSSLMODE:                    os.Getenv("PGSSLMODE"),
		PGSSLCERT:                    os.Getenv("PGSSLCERT"),
		PGSSLKEY:                     os.Getenv("PGSSLKEY"),
		PGSSLROOTCERT:                os.Getenv("PGSSLROOTCERT"),
		PGSANITIZE_CONNECTION_STRING: os.Getenv("PGSANITIZE_CONNECTION_STRING"),
		DATABASE_URL:                 os.Getenv("DATABASE_URL"),
		AZURE_TENANT_ID:              os.Getenv("AZURE_TENANT_ID"),
		AZURE_CLIENT_ID:              os.Getenv("AZURE_CLIENT_ID"),
		AZURE_CLIENT_SECRET:          os.Getenv("AZURE_CLIENT_SECRET"),
		AWS_REGION:                   os.Getenv("AWS_REGION"),
		AWS_DEFAULT_REGION:           os.Getenv("AWS_DEFAULT_REGION"),
	}
}

// HasAzureCredentials returns true if Azure Entra ID environment variables are set.
func (e *EnvVars) HasAzureCredentials() bool {
	return e.AZURE_TENANT_ID != "" || e.AZURE_CLIENT_ID != ""
}

// ResolveConnectionParams resolves connection parameters using PostgreSQL-standard precedence:
//
//  1. Connection string flag (--connection)
//  2. PGSANITIZE_CONNECTION_STRING, then DATABASE_URL, when no granular flags are given
//  3. Granular flags (-h, -p, -U, -d) > PG* environment > pgsanitize.yaml > defaults
//
// -d always overrides the database of a connection string. A database is required:
// there is no maintenance fallback, since every statement targets the site itself.
//
// Cloud authentication is selected by --azure, --aws or --google. Setting
// AZURE_TENANT_ID or AZURE_CLIENT_ID selects Azure when no provider flag is given.
func ResolveConnectionParams(
	connStringFlag string,
	granularFlags *GranularConnFlags,
	cloudFlags *CloudFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*sanitize.ConnectionConfig, error) {
	if granularFlags == nil {
		granularFlags = &GranularConnFlags{}
	}
	if cloudFlags == nil {
		cloudFlags = &CloudFlags{}
	}
	if envVars == nil {
		envVars = &EnvVars{}
	}
	var pc config.ConnectionConfig
	if projectConfig != nil {
		pc = projectConfig.Connection
	}

	if connStringFlag != "" && !granularFlags.IsEmpty() {
		return nil, fmt.Errorf(
			"cannot specify both --connection and granular flags (-h, -p, -U, --sslmode)\n"+
				"Choose one approach:\n"+
				"  1. Connection string: --connection \"postgresql://user@localhost:5432/wordpress\"\n"+
				"  2. Granular flags: -h localhost -p 5432 -U myuser -d wordpress\n"+
				"  3. Environment variables: export PGHOST=localhost PGUSER=myuser PGDATABASE=wordpress: %w",
			sanitize.ErrInvalidConfig,
		)
	}

	var cfg *sanitize.ConnectionConfig
	var err error
	switch {
	case connStringFlag != "":
		cfg, err = resolveFromConnectionString(connStringFlag, "--connection", envVars, pc)
	case granularFlags.IsEmpty() && envVars.PGSANITIZE_CONNECTION_STRING != "":
		cfg, err = resolveFromConnectionString(envVars.PGSANITIZE_CONNECTION_STRING, "$PGSANITIZE_CONNECTION_STRING", envVars, pc)
	case granularFlags.IsEmpty() && envVars.DATABASE_URL != "":
		cfg, err = resolveFromConnectionString(envVars.DATABASE_URL, "$DATABASE_URL", envVars, pc)
	default:
		cfg, err = resolveFromGranularParams(granularFlags, envVars, pc)
	}
	if err != nil {
		return nil, err
	}

	if granularFlags.Database != "" {
		cfg.Database = granularFlags.Database
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("no database specified: use -d, $PGDATABASE or a connection string: %w", sanitize.ErrInvalidConfig)
	}

	if err := applyCloudAuth(cfg, cloudFlags, envVars, pc); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveFromConnectionString parses a connection string and fills unset
// parameters from the environment and the project file, as libpq does.
func resolveFromConnectionString(connStr, source string, envVars *EnvVars, pc config.ConnectionConfig) (*sanitize.ConnectionConfig, error) {
	cfg, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string in %s: %w", source, err)
	}

	if cfg.Database == "" {
		cfg.Database = firstNonEmpty(envVars.PGDATABASE, pc.Database)
	}
	if cfg.Password == "" {
		cfg.Password = envVars.PGPASSWORD
	}
	cfg.SSLMode = firstNonEmpty(cfg.SSLMode, envVars.PGSSLMODE, pc.SSLMode, "prefer")
	applyCertificates(cfg, envVars, pc)
	return cfg, nil
}

// resolveFromGranularParams builds ConnectionConfig from granular flags, the
// environment and the project file, in that order.
func resolveFromGranularParams(flags *GranularConnFlags, envVars *EnvVars, pc config.ConnectionConfig) (*sanitize.ConnectionConfig, error) {
	cfg := &sanitize.ConnectionConfig{
		AuthMethod:       sanitize.AuthMethodStandard,
		AdditionalParams: make(map[string]string),
	}

	cfg.Host = firstNonEmpty(flags.Host, envVars.PGHOST, pc.Host, "localhost")

	switch {
	case flags.Port != 0:
		cfg.Port = flags.Port
	case envVars.PGPORT != "":
		port, err := strconv.Atoi(envVars.PGPORT)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("invalid $PGPORT value '%s': must be an integer between 1 and 65535: %w", envVars.PGPORT, sanitize.ErrInvalidConfig)
		}
		cfg.Port = port
	case pc.Port != 0:
		cfg.Port = pc.Port
	default:
		cfg.Port = 5432
	}

	// Username falls back to the current OS user, like psql.
	cfg.Username = firstNonEmpty(flags.Username, envVars.PGUSER, pc.Username, os.Getenv("USER"), os.Getenv("USERNAME"))
	cfg.Password = envVars.PGPASSWORD
	cfg.Database = firstNonEmpty(envVars.PGDATABASE, pc.Database)
	cfg.SSLMode = firstNonEmpty(flags.SSLMode, envVars.PGSSLMODE, pc.SSLMode, "prefer")
	applyCertificates(cfg, envVars, pc)
	return cfg, nil
}

func applyCertificates(cfg *sanitize.ConnectionConfig, envVars *EnvVars, pc config.ConnectionConfig) {
	cfg.SSLCert = firstNonEmpty(cfg.SSLCert, envVars.PGSSLCERT, pc.SSLCert)
	cfg.SSLKey = firstNonEmpty(cfg.SSLKey, envVars.PGSSLKEY, pc.SSLKey)
	cfg.SSLRootCert = firstNonEmpty(cfg.SSLRootCert, envVars.PGSSLROOTCERT, pc.SSLRootCert)
}

// applyCloudAuth selects the authentication method. Flags take precedence
// over environment variables, which take precedence over the project file.
func applyCloudAuth(cfg *sanitize.ConnectionConfig, flags *CloudFlags, env *EnvVars, pc config.ConnectionConfig) error {
	requested := 0
	for _, on := range []bool{flags.Azure.requested(), flags.AWS.Enabled, flags.Google.Enabled} {
		if on {
			requested++
		}
	}
	if requested > 1 {
		return fmt.Errorf("--azure, --aws and --google are mutually exclusive: %w", sanitize.ErrInvalidConfig)
	}

	switch {
	case flags.AWS.Enabled:
		cfg.AuthMethod = sanitize.AuthMethodAWSIAM
		cfg.AWSRegion = firstNonEmpty(flags.AWS.Region, env.AWS_REGION, env.AWS_DEFAULT_REGION, pc.AWSRegion)
		if cfg.AWSRegion == "" {
			return fmt.Errorf("--aws requires a region: use --aws-region or $AWS_REGION: %w", sanitize.ErrInvalidConfig)
		}
	case flags.Google.Enabled:
		cfg.AuthMethod = sanitize.AuthMethodGoogleIAM
		cfg.GoogleInstance = firstNonEmpty(flags.Google.Instance, pc.GoogleInstance)
		if cfg.GoogleInstance == "" {
			return fmt.Errorf("--google requires --google-instance (project:region:instance): %w", sanitize.ErrInvalidConfig)
		}
	case flags.Azure.requested() || env.HasAzureCredentials():
		cfg.AuthMethod = sanitize.AuthMethodAzureEntraID
		cfg.AzureTenantID = firstNonEmpty(flags.Azure.TenantID, env.AZURE_TENANT_ID, pc.AzureTenantID)
		cfg.AzureClientID = firstNonEmpty(flags.Azure.ClientID, env.AZURE_CLIENT_ID, pc.AzureClientID)
		cfg.AzureClientSecret = env.AZURE_CLIENT_SECRET
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
