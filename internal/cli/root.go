// Package cli holds the profitlens command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"profitlens/internal/platform/config"
	"profitlens/internal/platform/logger"
)

var version = "0.1.0"

func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "profitlens",
		Short: "ProfitLens back office: invoicing, payroll and bank accounts",
		Long: `ProfitLens serves the back-office API for small companies: invoices with
discounts and tax, monthly payroll with PF/ESI and custom deductions, and bank
accounts with running balances.

Configuration comes from the environment, optionally seeded from a .env file.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			return logger.Setup(logger.LogConfig{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stderr})
		},
	}
	root.AddCommand(newServeCommand(), newMigrateCommand(), newTokenCommand(), newCalcCommand(), newGenerateCommand())
	return root
}

func Execute() {
	log := logger.WithComponent("cmd")
	if err := NewRootCommand().Execute(); err != nil {
		log.Error().Err(err).Msg("command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
