package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"series-explorer/src/config"
	"series-explorer/src/logger"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var version = "dev"

type options struct {
	configPath string
	logLevel   string
}

// -----------------------------------------------------------------------------

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// -----------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "series-explorer",
		Short:        "Interactive explorer for public economic time series",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "config/default.yaml", "path to config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(newExploreCmd(opts))
	root.AddCommand(newServeDataCmd(opts))
	root.AddCommand(newVersionCmd())
	return root
}

// -----------------------------------------------------------------------------

func newExploreCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "explore",
		Short: "Run the explorer: selection orchestrator, REST API and websocket push",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, appLogger, err := loadConfig(opts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runExplorer(ctx, conf, appLogger)
		},
	}
}

func newServeDataCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve-data",
		Short: "Ingest CSV and FRED series into the store and serve them over REST and gRPC health",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, appLogger, err := loadConfig(opts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runDataService(ctx, conf, appLogger)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "series-explorer", version)
		},
	}
}

// -----------------------------------------------------------------------------

// loadConfig reads the config and sets up logging for the whole process.
func loadConfig(opts *options) (*config.Config, *logger.Logger, error) {
	conf, err := config.NewConfig(opts.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading config: %w", err)
	}

	level := conf.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	levelErr := logger.Configure(level, conf.LogFormat)
	if !strings.EqualFold(level, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	appLogger := logger.NewLogger(conf.Name)
	if levelErr != nil {
		appLogger.Warning("Unknown log level %q, using info", level)
	}
	return conf, appLogger, nil
}

// -----------------------------------------------------------------------------

// waitForShutdown blocks until ctx is done or a server fails, then runs the
// stop functions in order.
func waitForShutdown(ctx context.Context, appLogger *logger.Logger, errs <-chan error, stops ...func(context.Context) error) error {
	var runErr error
	select {
	case <-ctx.Done():
		appLogger.Info("Shutting down...")
	case runErr = <-errs:
		appLogger.Error("Server failed: %v", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, stop := range stops {
		if err := stop(shutdownCtx); err != nil {
			appLogger.Warning("Shutdown step failed: %v", err)
		}
	}
	appLogger.Info("Shutdown complete.")
	return runErr
}
