package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tunedrop/config"
	"tunedrop/core/auth"
	"tunedrop/db"
	"tunedrop/model"
	"tunedrop/repository"
)

var (
	adminEmail    string
	adminPassword string
	adminName     string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account directly in the database",
	Long: `Creates an admin account without going through the API. Useful for
bootstrapping a fresh deployment where no admin exists yet.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		adminEmail = strings.ToLower(strings.TrimSpace(adminEmail))
		if adminEmail == "" || adminPassword == "" {
			return fmt.Errorf("--email and --password are required")
		}
		if len(adminPassword) < 8 {
			return fmt.Errorf("password must be at least 8 characters")
		}

		cfg := config.Load()
		if err := db.ConnectDB(cfg); err != nil {
			return err
		}
		defer db.DB.Close()
		if err := db.InitDB(); err != nil {
			return err
		}

		hash, err := auth.HashPassword(adminPassword)
		if err != nil {
			return err
		}

		users := repository.NewMySQLUserRepository(db.DB)
		user := &model.User{
			Email:        adminEmail,
			PasswordHash: hash,
			DisplayName:  adminName,
			Role:         model.RoleAdmin,
			Status:       model.UserStatusActive,
			Permissions:  []string{"review_submissions", "send_emails"},
			IsActive:     true,
		}
		if user.DisplayName == "" {
			user.DisplayName = "Admin"
		}

		id, err := users.CreateUser(user)
		if err != nil {
			if errors.Is(err, repository.ErrDuplicateUser) {
				return fmt.Errorf("an account with email %s already exists", adminEmail)
			}
			return err
		}

		fmt.Fprintf(os.Stdout, "Admin account created: %s (id %d)\n", user.Email, id)
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "admin email address")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password (min 8 characters)")
	createAdminCmd.Flags().StringVar(&adminName, "name", "", "display name")
	rootCmd.AddCommand(createAdminCmd)
}
