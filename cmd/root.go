// Package cmd provides the CLI commands for the suggestion service.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"nudge/internal/config"
	"nudge/internal/logger"
	"nudge/internal/metrics"
)

var (
	// Version is set during build
	Version = "0.1.0"
	// BuildTime is set during build
	BuildTime = "unknown"
	// Commit is set during build
	Commit = "unknown"

	cfgFile string
	debug   bool

	// rootCmd represents the base command
	rootCmd = &cobra.Command{
		Use:   "nudge",
		Short: "Command suggestion service",
		Long: `nudge serves "did you mean / what next" command suggestions over a
line-oriented TCP protocol, ranking candidates from typo correction,
sequence prediction, and template similarity.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}

			level := cfg.Logging.Level
			if debug {
				level = "debug"
			}
			if err := logger.Initialize(logger.Config{
				Level:   level,
				File:    cfg.Logging.File,
				Console: true,
			}); err != nil {
				return err
			}

			metrics.Initialize()
			return nil
		},
	}
)

// Execute runs the root command. It is called once by main.main().
func Execute() {
	rootCmd.Version = Version

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	rootCmd.SetContext(ctx)

	if err := rootCmd.Execute(); err != nil {
		logger.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/nudge/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}
