package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/pgsanitize/internal/config"
	"github.com/vvka-141/pgsanitize/internal/db"
	"github.com/vvka-141/pgsanitize/internal/logging"
	"github.com/vvka-141/pgsanitize/internal/objectcache"
	"github.com/vvka-141/pgsanitize/internal/services"
	"github.com/vvka-141/pgsanitize/internal/stages"
	"github.com/vvka-141/pgsanitize/internal/ui"
	"github.com/vvka-141/pgsanitize/pkg/sanitize"
)

// sanitizeFlagValues holds the flags shared by every sanitize command.
type sanitizeFlagValues struct {
	conn            connectionFlags
	yes             bool
	countdown       time.Duration
	configPath      string
	tablePrefix     string
	preserveDomains []string
	batchSize       int
	timeout         time.Duration
}

var sanitizeFlags sanitizeFlagValues

type stageCommand struct {
	use    string
	short  string
	long   string
	stages []string // nil selects every stage
}

var stageCommands = []stageCommand{
	{
		use:   "db",
		short: "Run every sanitization stage",
		long: `Run the whole pipeline in order: transients, comments, users,
Gravity Forms and WooCommerce. Plugin stages are skipped when the site
holds no data for that plugin.`,
	},
	{
		use:   stages.NameTransients,
		short: "Delete transients from the options table",
		long: `Delete every _transient_* and _site_transient_* entry from the options
table (and sitemeta on multisite), then purge the object cache if one is
configured.`,
		stages: []string{stages.NameTransients},
	},
	{
		use:   stages.NameComments,
		short: "Replace commenter identities",
		long: `Replace the author name, email, URL and body of every held (unapproved)
comment with synthetic values. Approved comments, pingbacks and other
excluded types are left alone.`,
		stages: []string{stages.NameComments},
	},
	{
		use:   stages.NameUsers,
		short: "Replace user accounts with synthetic identities",
		long: `Give every account a synthetic login, nicename, email, display name and
password, and a new URL when one was set. Existing first_name, last_name,
nickname and description meta is rewritten; facebook, googleplus, jabber,
aim and yim contact entries are deleted. Accounts whose email belongs to a
preserved domain keep their identity.`,
		stages: []string{stages.NameUsers},
	},
	{
		use:   stages.NameGravityForms,
		short: "Truncate Gravity Forms entry tables",
		long: `Truncate the Gravity Forms entry, entry meta, entry notes and draft
submission tables (current gf_* and legacy rg_* names) that exist, when the
plugin is active or its tables are present.`,
		stages: []string{stages.NameGravityForms},
	},
	{
		use:   stages.NameWooCommerce,
		short: "Replace WooCommerce customer and order data",
		long: `Replace billing and shipping details on orders and customers, in both
post meta and the HPOS order address table, when WooCommerce is active.`,
		stages: []string{stages.NameWooCommerce},
	},
}

const sanitizeHelpFooter = `

Connection:
  Flags follow psql: -h, -p, -U, -d. Or pass --connection, or set
  PGSANITIZE_CONNECTION_STRING or DATABASE_URL. PG* variables fill gaps.

Confirmation:
  You are asked to answer y or yes before anything changes. --yes skips the
  prompt; --countdown adds a grace period to cancel with Ctrl+C.
  Without a terminal, --yes is required.`

func init() {
	for _, sc := range stageCommands {
		rootCmd.AddCommand(newStageCommand(sc, &sanitizeFlags))
	}
}

func newStageCommand(sc stageCommand, flags *sanitizeFlagValues) *cobra.Command {
	cmd := &cobra.Command{
		Use:   sc.use,
		Short: sc.short,
		Long:  sc.long + sanitizeHelpFooter,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSanitize(cmd, flags, sc.stages)
		},
	}
	addSanitizeFlags(cmd, flags)
	return cmd
}

func addSanitizeFlags(cmd *cobra.Command, f *sanitizeFlagValues) {
	addConnectionFlags(cmd, &f.conn)

	flags := cmd.Flags()
	flags.BoolVarP(&f.yes, "yes", "y", false,
		"Skip the confirmation prompt")
	flags.DurationVar(&f.countdown, "countdown", 0,
		"Grace period before a --yes run starts, e.g. 10s")
	flags.StringVar(&f.configPath, "config", "",
		"Project config file (default: ./pgsanitize.yaml when present)")
	_ = cmd.RegisterFlagCompletionFunc("config", completeConfigFiles)
	flags.StringVar(&f.tablePrefix, "table-prefix", "",
		"WordPress table prefix (default: wp_, or $PGSANITIZE_TABLE_PREFIX)")
	flags.StringSliceVar(&f.preserveDomains, "preserve-domain", nil,
		"Email domain whose accounts keep their identity (repeatable)")
	flags.IntVar(&f.batchSize, "batch-size", 0,
		fmt.Sprintf("Rows per batch for bulk updates (default: %d)", sanitize.DefaultBatchSize))
	flags.DurationVar(&f.timeout, "timeout", 0,
		"Deadline for the whole run, e.g. 8h (default: none; 0 clears a configured timeout)")
}

// runPlan is everything a sanitize command resolves before touching the
// database.
type runPlan struct {
	Connection *sanitize.ConnectionConfig
	Settings   config.Settings
	Run        sanitize.RunConfig
}

func buildRunPlan(cmd *cobra.Command, flags *sanitizeFlagValues, stageNames []string) (*runPlan, error) {
	projectCfg, err := loadProjectConfig(flags.configPath)
	if err != nil {
		return nil, err
	}
	settings, err := resolveSettings(cmd, flags, projectCfg)
	if err != nil {
		return nil, err
	}
	connConfig, err := resolveConnectionFromFlags(&flags.conn, projectCfg)
	if err != nil {
		return nil, err
	}
	return &runPlan{
		Connection: connConfig,
		Settings:   settings,
		Run: sanitize.RunConfig{
			DatabaseName: connConfig.Database,
			Stages:       stageNames,
			Verbose:      getVerboseFlag(cmd),
		},
	}, nil
}

func newPipelineBuilder(plan *runPlan, logger sanitize.Logger) *services.PipelineBuilder {
	s := plan.Settings
	b := &services.PipelineBuilder{
		ConnectorFactory: func(c *sanitize.ConnectionConfig) (sanitize.Connector, error) {
			return db.NewConnector(c, logger)
		},
		Connection:  plan.Connection,
		TablePrefix: s.TablePrefix,
		Options: stages.Options{
			BatchSize:            s.BatchSize,
			ProgressEvery:        s.ProgressEvery,
			PreserveDomains:      s.PreserveDomains,
			ExcludedCommentTypes: s.ExcludedCommentTypes,
		},
		PasswordCost: s.PasswordCost,
		Logger:       logger,
	}
	if s.RedisURL != "" {
		b.ObjectCache = &objectcache.Config{ConnectionURL: s.RedisURL, KeyPrefix: s.RedisKeyPrefix}
	}
	return b
}

// runContext returns the run context. Without a positive timeout the run has
// no deadline; stages then end only on completion, failure or Ctrl+C.
func runContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(context.Background(), timeout)
	}
	return context.WithCancel(context.Background())
}

func runSanitize(cmd *cobra.Command, flags *sanitizeFlagValues, stageNames []string) error {
	verbose := getVerboseFlag(cmd)

	plan, err := buildRunPlan(cmd, flags, stageNames)
	if err != nil {
		return err
	}

	logger := logging.NewConsoleLogger(verbose)
	if verbose {
		logConnectionVerbose(logger, plan.Connection)
	}

	approver := ui.NewApprover(flags.yes, flags.countdown, verbose)
	svc := services.NewSanitizeService(approver, logger, newPipelineBuilder(plan, logger).Build)

	ctx, cancel := runContext(plan.Settings.Timeout)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\n[INTERRUPT] Received interrupt signal, stopping after the current batch...")
			cancel()
		case <-ctx.Done():
		}
	}()

	if _, err := svc.Sanitize(ctx, plan.Run); err != nil {
		return fmt.Errorf("sanitization failed: %w", err)
	}
	return nil
}
