package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"profitlens/internal/app/server"
	"profitlens/internal/domain/payroll"
	"profitlens/internal/platform/config"
	"profitlens/internal/platform/db"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			app, err := server.New(ctx, config.Load())
			if err != nil {
				return err
			}
			defer app.Close()
			return app.Run(ctx)
		},
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQL migrations and seed the default company (postgres backend)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.StoreBackend != config.BackendPostgres {
				return fmt.Errorf("migrate needs STORE_BACKEND=%s, got %q", config.BackendPostgres, cfg.StoreBackend)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx := cmd.Context()
			pool, err := db.Connect(ctx, cfg)
			if err != nil {
				return fmt.Errorf("db connect: %w", err)
			}
			defer pool.Close()
			if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			companyID, err := db.Seed(ctx, pool, cfg)
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied; default company %s\n", companyID)
			return nil
		},
	}
}

func newGenerateCommand() *cobra.Command {
	var period string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Create pending payroll records for every company for one pay period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if period == "" {
				period = payroll.PeriodOf(time.Now().UTC())
			}
			if !payroll.ValidPeriod(period) {
				return payroll.ErrInvalidPeriod
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
			defer cancel()
			app, err := server.New(ctx, config.Load())
			if err != nil {
				return err
			}
			defer app.Close()
			created, err := app.Jobs.GenerateAll(ctx, period)
			for companyID, n := range created {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", companyID, n)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&period, "period", "", "pay period YYYY-MM (default: current month)")
	return cmd
}
