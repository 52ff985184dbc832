package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/pgsanitize/internal/config"
	"github.com/vvka-141/pgsanitize/pkg/sanitize"
)

func TestResolveConnectionParams_PGPORTEdgeCases(t *testing.T) {
	tests := []struct {
		name      string
		pgport    string
		wantPort  int
		wantError bool
	}{
		{"valid port", "5433", 5433, false},
		{"not a number", "abc", 0, true},
		{"zero", "0", 0, true},
		{"negative", "-1", 0, true},
		{"above range", "65536", 0, true},
		{"decimal", "5432.5", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ResolveConnectionParams("", &GranularConnFlags{Database: "wordpress"}, nil, &EnvVars{PGPORT: tt.pgport}, nil)
			if tt.wantError {
				assert.ErrorIs(t, err, sanitize.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPort, cfg.Port)
		})
	}
}

func TestResolveConnectionParams_PasswordFromEnvOnly(t *testing.T) {
	cfg, err := ResolveConnectionParams("", &GranularConnFlags{Host: "db", Database: "wordpress"}, nil, &EnvVars{PGPASSWORD: "s3cret"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Password)

	cfg, err = ResolveConnectionParams("postgresql://wp:inline@db/wordpress", nil, nil, &EnvVars{PGPASSWORD: "s3cret"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "inline", cfg.Password, "an embedded password wins over PGPASSWORD")
}

func TestResolveConnectionParams_EmptyDatabaseInConnectionString(t *testing.T) {
	cfg, err := ResolveConnectionParams("postgresql://wp@db:5432", nil, nil, &EnvVars{PGDATABASE: "wordpress"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "wordpress", cfg.Database)

	cfg, err = ResolveConnectionParams("postgresql://wp@db:5432", nil, nil, &EnvVars{},
		&config.ProjectConfig{Connection: config.ConnectionConfig{Database: "fromfile"}})
	require.NoError(t, err)
	assert.Equal(t, "fromfile", cfg.Database)
}

func TestResolveConnectionParams_CertificatesFromEnvironmentAndFile(t *testing.T) {
	cfg, err := ResolveConnectionParams("", &GranularConnFlags{Database: "wordpress"}, nil,
		&EnvVars{PGSSLCERT: "/env/client.crt"},
		&config.ProjectConfig{Connection: config.ConnectionConfig{SSLCert: "/file/client.crt", SSLKey: "/file/client.key", SSLRootCert: "/file/ca.crt"}},
	)
	require.NoError(t, err)

	assert.Equal(t, "/env/client.crt", cfg.SSLCert)
	assert.Equal(t, "/file/client.key", cfg.SSLKey)
	assert.Equal(t, "/file/ca.crt", cfg.SSLRootCert)
}

func TestResolveConnectionParams_CloudAuth(t *testing.T) {
	base := &GranularConnFlags{Host: "db", Username: "wp", Database: "wordpress"}

	tests := []struct {
		name       string
		cloud      *CloudFlags
		env        *EnvVars
		project    *config.ProjectConfig
		wantMethod sanitize.AuthMethod
		check      func(t *testing.T, cfg *sanitize.ConnectionConfig)
	}{
		{
			name:       "standard when nothing is requested",
			cloud:      &CloudFlags{},
			env:        &EnvVars{},
			wantMethod: sanitize.AuthMethodStandard,
		},
		{
			name:       "azure flag with environment credentials",
			cloud:      &CloudFlags{Azure: AzureFlags{Enabled: true}},
			env:        &EnvVars{AZURE_TENANT_ID: "env-tenant", AZURE_CLIENT_ID: "env-client", AZURE_CLIENT_SECRET: "secret"},
			wantMethod: sanitize.AuthMethodAzureEntraID,
			check: func(t *testing.T, cfg *sanitize.ConnectionConfig) {
				assert.Equal(t, "env-tenant", cfg.AzureTenantID)
				assert.Equal(t, "env-client", cfg.AzureClientID)
				assert.Equal(t, "secret", cfg.AzureClientSecret)
			},
		},
		{
			name:       "azure tenant flag overrides environment",
			cloud:      &CloudFlags{Azure: AzureFlags{TenantID: "flag-tenant"}},
			env:        &EnvVars{AZURE_TENANT_ID: "env-tenant"},
			wantMethod: sanitize.AuthMethodAzureEntraID,
			check: func(t *testing.T, cfg *sanitize.ConnectionConfig) {
				assert.Equal(t, "flag-tenant", cfg.AzureTenantID)
			},
		},
		{
			name:       "azure environment alone selects azure",
			cloud:      &CloudFlags{},
			env:        &EnvVars{AZURE_CLIENT_ID: "managed-identity"},
			wantMethod: sanitize.AuthMethodAzureEntraID,
		},
		{
			name:       "aws region from flag",
			cloud:      &CloudFlags{AWS: AWSFlags{Enabled: true, Region: "us-east-1"}},
			env:        &EnvVars{AWS_REGION: "eu-west-1"},
			wantMethod: sanitize.AuthMethodAWSIAM,
			check: func(t *testing.T, cfg *sanitize.ConnectionConfig) {
				assert.Equal(t, "us-east-1", cfg.AWSRegion)
			},
		},
		{
			name:       "aws region from environment",
			cloud:      &CloudFlags{AWS: AWSFlags{Enabled: true}},
			env:        &EnvVars{AWS_DEFAULT_REGION: "ap-south-1"},
			wantMethod: sanitize.AuthMethodAWSIAM,
			check: func(t *testing.T, cfg *sanitize.ConnectionConfig) {
				assert.Equal(t, "ap-south-1", cfg.AWSRegion)
			},
		},
		{
			name:       "aws flag wins over azure environment",
			cloud:      &CloudFlags{AWS: AWSFlags{Enabled: true, Region: "us-east-1"}},
			env:        &EnvVars{AZURE_TENANT_ID: "tenant"},
			wantMethod: sanitize.AuthMethodAWSIAM,
		},
		{
			name:       "google instance from project file",
			cloud:      &CloudFlags{Google: GoogleFlags{Enabled: true}},
			env:        &EnvVars{},
			project:    &config.ProjectConfig{Connection: config.ConnectionConfig{GoogleInstance: "proj:region:inst"}},
			wantMethod: sanitize.AuthMethodGoogleIAM,
			check: func(t *testing.T, cfg *sanitize.ConnectionConfig) {
				assert.Equal(t, "proj:region:inst", cfg.GoogleInstance)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ResolveConnectionParams("", base, tt.cloud, tt.env, tt.project)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMethod, cfg.AuthMethod)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestResolveConnectionParams_CloudAuthErrors(t *testing.T) {
	base := &GranularConnFlags{Host: "db", Username: "wp", Database: "wordpress"}

	tests := []struct {
		name    string
		cloud   *CloudFlags
		wantMsg string
	}{
		{"two providers", &CloudFlags{AWS: AWSFlags{Enabled: true, Region: "x"}, Google: GoogleFlags{Enabled: true, Instance: "p:r:i"}}, "mutually exclusive"},
		{"azure ids and aws", &CloudFlags{Azure: AzureFlags{ClientID: "c"}, AWS: AWSFlags{Enabled: true}}, "mutually exclusive"},
		{"aws without region", &CloudFlags{AWS: AWSFlags{Enabled: true}}, "--aws-region"},
		{"google without instance", &CloudFlags{Google: GoogleFlags{Enabled: true}}, "--google-instance"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveConnectionParams("", base, tt.cloud, &EnvVars{}, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, sanitize.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
