package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"credchain/internal/platform/config"
	"credchain/internal/platform/logger"
)

const programName = "credchain"

var globalFlags = struct {
	configFile string
	logLevel   string
}{}

type configKey struct{}

func configFrom(cmd *cobra.Command) *config.Config {
	cfg, _ := cmd.Context().Value(configKey{}).(*config.Config)
	return cfg
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := cfg.Log.Level
	if globalFlags.logLevel != "" {
		level = globalFlags.logLevel
	}
	log := logger.New(level).With("component", programName)
	slog.SetDefault(log)
	return log
}

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           programName,
		Short:         "Anchor academic certificates on a ledger and verify them",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&globalFlags.configFile, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&globalFlags.logLevel, "log-level", "", "override the configured log level")

	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(globalFlags.configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
		return nil
	}

	root.AddCommand(serveCommand())
	root.AddCommand(migrateCommand())
	root.AddCommand(seedCommand())
	root.AddCommand(purgeCommand())
	root.AddCommand(fingerprintCommand())
	return root
}

func main() {
	if err := rootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		os.Exit(1)
	}
}
