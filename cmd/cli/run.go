package main

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/dvloznov/redeban-reporter/internal/app"
	"github.com/dvloznov/redeban-reporter/internal/config"
	"github.com/dvloznov/redeban-reporter/internal/logger"
	"github.com/dvloznov/redeban-reporter/internal/pipeline"
	"github.com/spf13/cobra"
)

// errRunFailed makes the process exit non-zero after the result was printed.
var errRunFailed = errors.New("run did not succeed")

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Scrape today's ledger once and send the report",
		Long: `Logs into the portal, reads the transaction ledger, sends the
summary to Telegram and prints the run result as JSON. Exits 1 when the
result is not successful, so schedulers can alert on it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log := logger.New(cfg.LogLevel)
			ctx := logger.WithContext(cmd.Context(), log)

			deps, cleanup := app.Deps(ctx, cfg, log)
			defer cleanup()

			result := pipeline.NewRunner(deps).Run(ctx)

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
			if !result.Success {
				return errRunFailed
			}
			return nil
		},
	}
}
