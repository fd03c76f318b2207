package cmd

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"eventhub-backend/internal/database"
	"eventhub-backend/internal/service"
)

var (
	adminName     string
	adminEmail    string
	adminPassword string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage admin accounts",
}

var createSuperCmd = &cobra.Command{
	Use:   "create-super",
	Short: "Create a super-admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, closeDB, err := openDatabase()
		if err != nil {
			return err
		}
		defer closeDB()

		if err := database.Migrate(db); err != nil {
			return err
		}

		svc := service.NewAuthService(db, log, newNotifier(), newTokenManager(), cfg.FrontendURL)
		admin, err := svc.CreateSuperAdmin(cmd.Context(), adminName, adminEmail, adminPassword)
		if err != nil {
			return errors.Wrap(err, "failed to create super-admin")
		}
		log.WithFields(logrus.Fields{
			"admin_id": admin.ID,
			"email":    admin.Email,
		}).Info("Super-admin created")
		return nil
	},
}

func init() {
	createSuperCmd.Flags().StringVar(&adminName, "name", "Super Admin", "display name")
	createSuperCmd.Flags().StringVar(&adminEmail, "email", "", "login email")
	createSuperCmd.Flags().StringVar(&adminPassword, "password", "", "login password (at least 6 characters)")
	_ = createSuperCmd.MarkFlagRequired("email")
	_ = createSuperCmd.MarkFlagRequired("password")

	adminCmd.AddCommand(createSuperCmd)
	rootCmd.AddCommand(adminCmd)
}
