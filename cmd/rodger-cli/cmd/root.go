// Package cmd provides the rodger-cli commands.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"rodger/internal/backend"
	"rodger/internal/cli"
	"rodger/internal/log"
	"rodger/internal/services"
)

var (
	debug       bool
	backendFlag string
	logger      = log.Discard()
)

var rootCmd = &cobra.Command{
	Use:   "rodger-cli",
	Short: "Record and review the shop ledger from the terminal",
	Long: `rodger-cli records sales, dues and expenses from plain sentences
and queries the day-partitioned ledger and the item registry.

Example:
  rodger-cli say "Suresh ko 200 ka saman udhar"
  rodger-cli day 05-03-2026
  rodger-cli range --from 2026-03-01 --to 2026-03-31 --customer ramesh`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cli.LoadEnvFile()
		level := slog.LevelWarn
		if debug {
			level = slog.LevelDebug
		}
		logger = log.New(log.Config{
			Component: log.ComponentCLI,
			Handler:   slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
		})
		log.SetDefault(logger)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "storage backend, overrides DATA_BACKEND")

	rootCmd.AddCommand(sayCmd, parseCmd, dayCmd, rangeCmd, editCmd, removeCmd, itemsCmd)
}

// withService opens the configured ledger, runs fn and releases the storage.
func withService(ctx context.Context, fn func(*services.LedgerService) error) (err error) {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	if backendFlag != "" {
		cfg.DataBackend = backendFlag
	}
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	result, err := backend.NewFactory(logger).Create(ctx, bcfg)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer func() {
		if cerr := result.Cleanup(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(result.Service)
}
