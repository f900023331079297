package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/SHG-Insights/internal/application/session"
	"github.com/turtacn/SHG-Insights/internal/config"
	"github.com/turtacn/SHG-Insights/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SHG-Insights/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/SHG-Insights/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Output formats.
const (
	FormatText = "table"
	FormatJSON = "json"
)

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	DBPath       string
	MetricsFile  string
	Actor        string
	Timeout      time.Duration
}

// NewRootCommand creates the root cobra command with all global flags and subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "shgctl",
		Short: "SHG Insights: analytics for women's self-help groups",
		Long: "shgctl manages self-help group records and derives analytics from them:\n" +
			"feature profiles, credibility and health scores, demand matching,\n" +
			"business and geo-demand clusters, bulk-order teams and advisory answers.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./shg.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", FormatText, "output format (table, json)")
	pf.StringVar(&opts.DBPath, "db", "", "SQLite database path (overrides database.path)")
	pf.StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this textfile on exit")
	pf.StringVar(&opts.Actor, "actor", "", "actor recorded in the session (default: OS user)")
	pf.DurationVar(&opts.Timeout, "timeout", 5*time.Minute, "global operation timeout")

	cmd.AddCommand(
		newMigrateCmd(),
		newCacheCmd(),
		newSeedCmd(),
		newCreateCmd(),
		newRecordCmd(),
		newDemandCmd(),
		newFeaturesCmd(),
		newHealthCmd(),
		newCredibilityCmd(),
		newMatchCmd(),
		newTeamsCmd(),
		newClusterCmd(),
		newInsightsCmd(),
		newAdviseCmd(),
		newVersionCmd(),
	)
	return cmd
}

// persistentPreRun loads config, builds the logger and stores CLIContext.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	switch opts.OutputFormat {
	case FormatText, FormatJSON:
	default:
		return errors.InvalidParam(fmt.Sprintf("unsupported output format %q", opts.OutputFormat))
	}

	cfg, cfgPath, err := initConfig(opts)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}
	if opts.DBPath != "" {
		cfg.Database.Path = opts.DBPath
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}
	logging.SetDefault(logger)

	if cfgPath != "" && opts.LogLevel == "" {
		watchLogLevel(cfgPath, logger)
	}

	metricsFile := opts.MetricsFile
	if metricsFile == "" {
		metricsFile = cfg.Metrics.TextfilePath
	}
	collector, metrics, err := initMetrics(cfg, metricsFile, logger)
	if err != nil {
		return fmt.Errorf("metrics initialization failed: %w", err)
	}

	sess := session.New(opts.Actor)
	ctx := session.WithSession(cmd.Context(), sess)
	var cancel context.CancelFunc
	if opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
	}

	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger.With(session.Fields(ctx)...),
		Session:      sess,
		OutputFormat: opts.OutputFormat,
		MetricsFile:  metricsFile,
		collector:    collector,
		metrics:      metrics,
		cancel:       cancel,
	}
	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, cliCtx))
	return nil
}

// initConfig loads configuration with priority: flags > env > file > defaults.
// It returns the file that was read, or "" when none was.
func initConfig(opts *RootOptions) (*config.Config, string, error) {
	return config.Discover(opts.ConfigPath)
}

// initLogger creates a logger configured for CLI usage (output to stderr).
func initLogger(cfg *config.Config) (logging.Logger, error) {
	level := logging.LevelInfo
	switch strings.ToLower(cfg.Log.Level) {
	case logging.LevelDebug, logging.LevelWarn, logging.LevelError:
		level = strings.ToLower(cfg.Log.Level)
	}

	return logging.NewLogger(logging.LogConfig{
		Level:            level,
		Format:           cfg.Log.Format,
		OutputPaths:      cfg.Log.OutputPaths,
		ErrorOutputPaths: []string{"stderr"},
		EnableCaller:     cfg.Log.EnableCaller,
	})
}

// watchLogLevel applies log.level edits to the running logger.
func watchLogLevel(path string, logger logging.Logger) {
	setter, ok := logger.(logging.LevelSetter)
	if !ok {
		return
	}
	err := config.Watch(path, func(c *config.Config) {
		setter.SetLevel(c.Log.Level)
		logger.Info("Log level reloaded", logging.String("level", c.Log.Level))
	})
	if err != nil {
		logger.Warn("Config watch disabled", logging.String("path", path), logging.Err(err))
	}
}

// initMetrics builds a Prometheus registry when metrics are enabled or a
// textfile is requested, and no-op metrics otherwise.
func initMetrics(cfg *config.Config, metricsFile string, logger logging.Logger) (prometheus.MetricsCollector, *prometheus.AnalyticsMetrics, error) {
	if !cfg.Metrics.Enabled && metricsFile == "" {
		return nil, prometheus.NewNopMetrics(), nil
	}
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:   cfg.Metrics.Namespace,
		ConstLabels: map[string]string{"version": Version},
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	return collector, prometheus.NewAnalyticsMetrics(collector), nil
}

// Execute is the main entry point for the CLI application.
func Execute() error {
	return run(NewRootCommand())
}

// run executes root and releases whatever the executed command opened.
func run(root *cobra.Command) error {
	cmd, err := root.ExecuteC()
	if cmd == nil {
		cmd = root
	}
	if cliCtx, ctxErr := GetCLIContext(cmd); ctxErr == nil {
		if closeErr := cliCtx.Close(); err == nil {
			err = closeErr
		}
	}
	if err != nil {
		PrintError(cmd, err)
	}
	return err
}
