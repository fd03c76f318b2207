package cmd

import (
	"github.com/spf13/cobra"

	"eventhub-backend/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, closeDB, err := openDatabase()
		if err != nil {
			return err
		}
		defer closeDB()

		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Info("Database migrated successfully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
