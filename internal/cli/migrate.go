package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrlokans/locallibrary/internal/admin"
	"github.com/mrlokans/locallibrary/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the catalog schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// NewDatabase migrates on open
		db, err := database.NewDatabase(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		counts, err := db.Counts()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Schema is up to date (%s)\n", db.Driver)
		for _, m := range admin.DefaultSite().Models() {
			fmt.Fprintf(cmd.OutOrStdout(), "  %-14s %d\n", m.Model, counts[m.Model])
		}
		return nil
	},
}
