package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrlokans/locallibrary/internal/database"
	"github.com/mrlokans/locallibrary/internal/demo"
	"github.com/mrlokans/locallibrary/internal/entities"
)

var seedToday string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill an empty catalog with public domain sample books",
	Long: `Seed adds genres, languages, publishers, authors, books and copies.
Loan due dates are relative to --today so the catalog always holds
overdue and upcoming loans. Seeding a catalog that already has books fails.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		today := entities.Today()
		if seedToday != "" {
			d, err := entities.ParseDate(seedToday)
			if err != nil {
				return fmt.Errorf("invalid --today: %w", err)
			}
			today = d
		}

		db, err := database.NewDatabase(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		result, err := demo.Seed(db.DB, today)
		if err != nil {
			return err
		}

		out, _ := json.MarshalIndent(result, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedToday, "today", "", "reference date for loan due dates (YYYY-MM-DD)")
}
