package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrlokans/locallibrary/internal/auth"
	"github.com/mrlokans/locallibrary/internal/database"
	"github.com/mrlokans/locallibrary/internal/entities"
)

// passwordEnv supplies the password for non-interactive setups.
const passwordEnv = "SUPERUSER_PASSWORD"

var superuser struct {
	username string
	email    string
	password string
	role     string
}

var createSuperuserCmd = &cobra.Command{
	Use:   "createsuperuser",
	Short: "Create a staff account for the admin site",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		password := superuser.password
		if password == "" {
			password = os.Getenv(passwordEnv)
		}
		if password == "" {
			return fmt.Errorf("a password is required: pass --password or set %s", passwordEnv)
		}
		role := entities.UserRole(superuser.role)
		if !role.Valid() {
			return auth.ErrInvalidRole
		}

		db, err := database.NewDatabase(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		service := auth.NewService(db.DB, cfg.Auth)
		user, err := service.CreateUser(superuser.username, superuser.email, password, role)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s %q (id %d)\n", user.Role, user.Username, user.ID)
		return nil
	},
}

func init() {
	flags := createSuperuserCmd.Flags()
	flags.StringVar(&superuser.username, "username", "admin", "login name")
	flags.StringVar(&superuser.email, "email", "", "email address")
	flags.StringVar(&superuser.password, "password", "", "password (at least 12 characters); defaults to $"+passwordEnv)
	flags.StringVar(&superuser.role, "role", string(entities.UserRoleSuperuser), "superuser, librarian or viewer")
	_ = createSuperuserCmd.MarkFlagRequired("email")
}
