package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pgsanitize",
	Short: "Replace personal data in a copy of a WordPress database",
	Long: `pgsanitize rewrites a restored copy of a WordPress site's PostgreSQL
database so it can be handed to developers and testers. Account identities,
held comments and plugin data are replaced with synthetic values or removed.
Structure and non-personal content are left alone.

Never point it at production: every run asks for confirmation first.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration
  11 - Database connection failed
  12 - Confirmation declined (nothing was changed)
  13 - A bulk update, delete or truncate failed
  14 - Finished, but some records could not be sanitized`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	// -h is --host, as in psql.
	rootCmd.PersistentFlags().Bool("help", false, "Help for pgsanitize")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
