package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dreamer-zq/savekit/internal/app"
	"github.com/dreamer-zq/savekit/internal/common"
	"github.com/dreamer-zq/savekit/internal/config"
	"github.com/dreamer-zq/savekit/version"
)

func main() {
	// Initialize with a basic logger first, will be reconfigured after loading config
	var err error
	logger, err = zap.NewProduction()
	if err != nil {
		panic(err)
	}

	defer func() {
		_ = logger.Sync()
	}()

	rootCmd := &cobra.Command{
		Use:   "savekit",
		Short: "SaveKit - encrypted, versioned save data node",
		Long: `SaveKit stores typed application state through a pipeline of storage
backend, serializer, cipher chain and schema migrations.

The node exposes the pipeline over HTTP. The slot commands (put, get, rm,
exists, ls) run the same pipeline locally against the configured storage.`,
		RunE: runServer,
	}

	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the SaveKit node",
		Long:  "Start the SaveKit HTTP node with the specified configuration",
		RunE:  runServer,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.AddCommand(
		startCmd,
		initCmd(),
		generateTokenCmd(),
		putCmd(),
		getCmd(),
		removeCmd(),
		existsCmd(),
		listCmd(),
		version.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
}

// loadApp loads the configuration, reconfigures the logger and assembles the pipeline
func loadApp() (*config.NodeConfig, *app.App, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	configuredLogger, err := common.NewLogger(&cfg.Logging)
	if err != nil {
		logger.Warn("Failed to create configured logger, using default", zap.Error(err))
	} else {
		logger = configuredLogger
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create application: %w", err)
	}
	return cfg, application, nil
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, application, err := loadApp()
	if err != nil {
		return err
	}
	logger.Info("Logger configured",
		zap.String("level", cfg.Logging.Level),
		zap.String("environment", cfg.Logging.Environment),
		zap.String("output", cfg.Logging.Output))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := application.Start(ctx); err != nil {
		common.LogMsgDo("close storage", application.Close)
		return fmt.Errorf("failed to start application: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	logger.Info("Shutdown signal received, stopping server...")

	cancel()
	if err := application.Stop(); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
		return err
	}

	logger.Info("Server stopped gracefully")
	return nil
}
