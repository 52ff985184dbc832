package cli

import (
	"os"
	"testing"

	"github.com/spf13/cobra"
)

var isolatedEnvVars = []string{
	"PGHOST", "PGPORT", "PGUSER", "PGPASSWORD", "PGDATABASE", "PGSSLMODE",
	"PGSSLCERT", "PGSSLKEY", "PGSSLROOTCERT",
	"PGSANITIZE_CONNECTION_STRING", "DATABASE_URL",
	"PGSANITIZE_TABLE_PREFIX", "PGSANITIZE_PRESERVE_DOMAINS", "PGSANITIZE_BATCH_SIZE",
	"PGSANITIZE_REDIS_URL", "PGSANITIZE_REDIS_PREFIX",
	"AZURE_TENANT_ID", "AZURE_CLIENT_ID", "AZURE_CLIENT_SECRET",
	"AWS_REGION", "AWS_DEFAULT_REGION",
}

// isolateEnv unsets every variable the CLI reads and runs the test from an
// empty directory so no .env or pgsanitize.yaml is picked up.
func isolateEnv(t *testing.T) string {
	t.Helper()
	for _, key := range isolatedEnvVars {
		if old, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, old) })
			os.Unsetenv(key)
		}
	}
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

// newTestStageCommand builds a stage command under a throwaway root so the
// persistent --verbose flag is available, then parses args into fresh flag
// values.
func newTestStageCommand(t *testing.T, sc stageCommand, args ...string) (*cobra.Command, *sanitizeFlagValues) {
	t.Helper()
	root := &cobra.Command{Use: "pgsanitize"}
	root.PersistentFlags().BoolP("verbose", "v", false, "")
	flags := &sanitizeFlagValues{}
	cmd := newStageCommand(sc, flags)
	root.AddCommand(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags(%v) error = %v", args, err)
	}
	return cmd, flags
}

func findCommand(t *testing.T, use string) *cobra.Command {
	t.Helper()
	for _, c := range rootCmd.Commands() {
		if c.Name() == use {
			return c
		}
	}
	t.Fatalf("command %q is not registered", use)
	return nil
}
