package cli

import (
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vvka-141/pgsanitize/internal/config"
	"github.com/vvka-141/pgsanitize/pkg/sanitize"
)

// loadProjectConfig loads .env into the process environment, then the
// project config. An explicit path must exist; the implicit
// ./pgsanitize.yaml is optional and yields nil when absent.
func loadProjectConfig(path string) (*config.ProjectConfig, error) {
	_ = godotenv.Load()

	if path != "" {
		cfg, err := config.LoadFile(path)
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmt.Errorf("config file %s: %w", path, sanitize.ErrInvalidConfig)
		}
		return cfg, err
	}

	cfg, err := config.Load(".")
	if errors.Is(err, config.ErrConfigNotFound) {
		return nil, nil
	}
	return cfg, err
}

// resolveSettings merges flags, PGSANITIZE_* variables and the project
// config into the run settings.
func resolveSettings(cmd *cobra.Command, flags *sanitizeFlagValues, projectCfg *config.ProjectConfig) (config.Settings, error) {
	envo, err := config.LoadEnvOverrides(nil)
	if err != nil {
		return config.Settings{}, err
	}

	var fo config.FlagOverrides
	if cmd.Flags().Changed("table-prefix") {
		fo.TablePrefix = flags.tablePrefix
	}
	if cmd.Flags().Changed("preserve-domain") {
		fo.PreserveDomains = flags.preserveDomains
	}
	if cmd.Flags().Changed("batch-size") {
		fo.BatchSize = flags.batchSize
	}

	settings, err := config.Resolve(projectCfg, envo, fo)
	if err != nil {
		return config.Settings{}, err
	}
	if cmd.Flags().Changed("timeout") {
		if flags.timeout < 0 {
			return config.Settings{}, fmt.Errorf("--timeout cannot be negative: %w", sanitize.ErrInvalidConfig)
		}
		settings.Timeout = flags.timeout
	}
	return settings, nil
}
