package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"asset-exporter/core/config"
	"asset-exporter/core/database"
	"asset-exporter/feature/history"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent export runs from the run ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if !cfg.Database.Enabled {
			return fmt.Errorf("run history requires database.enabled=true")
		}

		db, err := database.Connect(cmd.Context(), cfg.Database)
		if err != nil {
			return fmt.Errorf("database connection required: %w", err)
		}
		rec := history.NewRecorder(db, nil)
		w := cmd.OutOrStdout()

		if check, _ := cmd.Flags().GetBool("check"); check {
			missing, err := rec.Verify(cmd.Context())
			if err != nil {
				return err
			}
			if len(missing) > 0 {
				return fmt.Errorf("ledger schema is missing columns: %s", strings.Join(missing, ", "))
			}
			fmt.Fprintln(w, "Ledger schema OK")
			return nil
		}

		if err := rec.Migrate(cmd.Context()); err != nil {
			return fmt.Errorf("failed to migrate ledger: %w", err)
		}
		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := rec.Recent(cmd.Context(), limit)
		if err != nil {
			return err
		}
		for _, r := range runs {
			fmt.Fprintf(w, "%s  %-9s  %s  items=%d loaded=%d failed=%d  %s\n",
				r.StartedAt.Local().Format(time.DateTime), r.Status, r.ID,
				r.Items, r.AssetsLoaded, r.FailedCount,
				(time.Duration(r.ElapsedMS) * time.Millisecond).String())
			if r.Error != "" {
				fmt.Fprintf(w, "    error: %s\n", r.Error)
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 10, "Number of runs to show")
	historyCmd.Flags().Bool("check", false, "Verify the ledger schema instead of listing runs")
	RootCmd.AddCommand(historyCmd)
}
