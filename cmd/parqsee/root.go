package main

import (
	"fmt"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vegasq/parqsee/cache"
	"github.com/vegasq/parqsee/internal/config"
	"github.com/vegasq/parqsee/internal/logging"
	"github.com/vegasq/parqsee/internal/metrics"
	"github.com/vegasq/parqsee/query"
	"github.com/vegasq/parqsee/service"
)

// app holds the process-wide components built before a command runs.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	cache    *cache.Cache
	svc      *service.Service
}

func (a *app) setup(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging())
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.registry = prometheus.NewRegistry()
	a.metrics = metrics.New(a.registry)
	a.cache = cache.New(
		cache.WithLogger(logger.Named("cache")),
		cache.WithMetrics(a.metrics),
		cache.WithSessionOptions(
			query.WithBatchSize(cfg.Query.BatchSize),
			query.WithLogger(logger.Named("query")),
		),
	)
	a.svc = service.New(a.cache,
		service.WithLogger(logger.Named("service")),
		service.WithMetrics(a.metrics),
	)
	return nil
}

// teardown releases what setup built. It is safe to call more than once.
func (a *app) teardown() error {
	if a.cache == nil {
		return nil
	}
	err := a.cache.Close()
	_ = a.logger.Sync()
	a.cache = nil
	return err
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}
	var configPath string

	root := &cobra.Command{
		Use:   "parqsee",
		Short: "parqsee - inspect, query and export Parquet files",
		Long: `parqsee reads Parquet files, runs SQL against them and exports row windows
to CSV or JSON. The serve command answers the same operations as
newline-delimited JSON over stdin/stdout.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup(cmd, configPath)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to a YAML config file")
	flags.String("log-level", "warn", "Log level (debug, info, warn, error)")
	flags.String("log-encoding", "console", "Log encoding (console, json)")
	flags.Int("batch-size", 1024, "Rows per scan batch")

	root.AddCommand(
		newVersionCmd(),
		newSchemaCmd(a),
		newReadCmd(a),
		newCountCmd(a),
		newSQLCmd(a),
		newExportCmd(a),
		newServeCmd(a),
	)
	return root, a
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "parqsee v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
