package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/rpggio/probill/internal/app"
	"github.com/rpggio/probill/internal/scheduler"
)

func newRecurringCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "Recurring billing",
	}

	var period string
	run := &cobra.Command{
		Use:   "run",
		Short: "Generate one period's invoices for every recurring service",
		Long: `Generate the invoices of one month for every recurring service of every
business, acting as each business's owner. Services already billed for the
period are skipped, so the command is safe to repeat.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New(c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			report, runErr := scheduler.New(a.Recurring, a.Metrics, c.logger).RunOnce(cmd.Context(), period)
			if report != nil {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			}
			return runErr
		},
	}
	run.Flags().StringVar(&period, "period", "", "billing month as YYYY-MM (defaults to the current month, UTC)")

	cmd.AddCommand(run)
	return cmd
}
