package cli

import (
	"github.com/spf13/cobra"

	"github.com/vvka-141/pgsanitize/internal/config"
	"github.com/vvka-141/pgsanitize/internal/db"
	"github.com/vvka-141/pgsanitize/pkg/sanitize"
)

// connectionFlags holds the common connection-related flag values.
type connectionFlags struct {
	connection     string
	host           string
	port           int
	username       string
	database       string
	sslMode        string
	azure          bool
	azureTenantID  string
	azureClientID  string
	aws            bool
	awsRegion      string
	google         bool
	googleInstance string
}

func (f *connectionFlags) granular() *db.GranularConnFlags {
	return &db.GranularConnFlags{
		Host:     f.host,
		Port:     f.port,
		Username: f.username,
		Database: f.database,
		SSLMode:  f.sslMode,
	}
}

func (f *connectionFlags) cloud() *db.CloudFlags {
	return &db.CloudFlags{
		Azure:  db.AzureFlags{Enabled: f.azure, TenantID: f.azureTenantID, ClientID: f.azureClientID},
		AWS:    db.AWSFlags{Enabled: f.aws, Region: f.awsRegion},
		Google: db.GoogleFlags{Enabled: f.google, Instance: f.googleInstance},
	}
}

// addConnectionFlags registers the psql-style connection flags on cmd.
func addConnectionFlags(cmd *cobra.Command, f *connectionFlags) {
	flags := cmd.Flags()

	// Connection string flag (mutually exclusive with granular flags)
	flags.StringVar(&f.connection, "connection", "",
		"PostgreSQL connection string (URI, keyword/value or ADO.NET format).\n"+
			"Mutually exclusive with granular flags (--host, --port, --username, --sslmode).\n"+
			"Alternative: PGSANITIZE_CONNECTION_STRING or DATABASE_URL environment variable.\n"+
			"Example: postgresql://user@localhost:5432/wordpress_copy")

	// Precedence: flag > environment variable > pgsanitize.yaml > default
	flags.StringVarP(&f.host, "host", "h", "",
		"PostgreSQL server host\n"+
			"Precedence: --host > $PGHOST > localhost")
	flags.IntVarP(&f.port, "port", "p", 0,
		"PostgreSQL server port\n"+
			"Precedence: --port > $PGPORT > 5432")
	flags.StringVarP(&f.username, "username", "U", "",
		"PostgreSQL user (default: $PGUSER or current OS user)")
	flags.StringVarP(&f.database, "database", "d", "",
		"Database to sanitize (or $PGDATABASE, or the connection string's database)\n"+
			"Overrides the database of --connection")
	flags.StringVar(&f.sslMode, "sslmode", "",
		"SSL mode: disable|allow|prefer|require|verify-ca|verify-full\n"+
			"(default: prefer, or $PGSSLMODE)")
	_ = cmd.RegisterFlagCompletionFunc("sslmode", completeSSLModes)

	flags.BoolVar(&f.azure, "azure", false,
		"Enable Azure Entra ID authentication\n"+
			"Uses DefaultAzureCredential chain (Managed Identity, Azure CLI, etc.)")
	flags.StringVar(&f.azureTenantID, "azure-tenant-id", "",
		"Azure AD tenant/directory ID (overrides $AZURE_TENANT_ID)")
	flags.StringVar(&f.azureClientID, "azure-client-id", "",
		"Azure AD application/client ID (overrides $AZURE_CLIENT_ID)")

	flags.BoolVar(&f.aws, "aws", false,
		"Enable AWS RDS IAM authentication (default AWS credential chain)")
	flags.StringVar(&f.awsRegion, "aws-region", "",
		"AWS region of the RDS instance (overrides $AWS_REGION)")

	flags.BoolVar(&f.google, "google", false,
		"Enable Google Cloud SQL IAM authentication")
	flags.StringVar(&f.googleInstance, "google-instance", "",
		"Cloud SQL instance connection name (project:region:instance)")
}

// resolveConnectionFromFlags resolves the connection from flags, the
// environment and the project config.
func resolveConnectionFromFlags(flags *connectionFlags, projectCfg *config.ProjectConfig) (*sanitize.ConnectionConfig, error) {
	return db.ResolveConnectionParams(
		flags.connection,
		flags.granular(),
		flags.cloud(),
		db.LoadFromEnvironment(),
		projectCfg,
	)
}

// logConnectionVerbose logs connection details. Secrets are never printed.
func logConnectionVerbose(logger sanitize.Logger, connConfig *sanitize.ConnectionConfig) {
	logger.Verbose("Connection resolved:")
	logger.Verbose("  Host: %s", connConfig.Host)
	logger.Verbose("  Port: %d", connConfig.Port)
	logger.Verbose("  User: %s", connConfig.Username)
	logger.Verbose("  Database: %s", connConfig.Database)
	logger.Verbose("  SSL Mode: %s", connConfig.SSLMode)
	if connConfig.SSLCert != "" {
		logger.Verbose("  SSL Cert: %s", connConfig.SSLCert)
	}
	if connConfig.SSLRootCert != "" {
		logger.Verbose("  SSL Root Cert: %s", connConfig.SSLRootCert)
	}
	logger.Verbose("  Auth Method: %s", connConfig.AuthMethod)
}
