package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iliyamo/voltride-support/internal/config"
	"github.com/iliyamo/voltride-support/internal/database"
	"github.com/iliyamo/voltride-support/internal/model"
	"github.com/iliyamo/voltride-support/internal/otp"
	"github.com/iliyamo/voltride-support/internal/repository"
	"github.com/iliyamo/voltride-support/internal/utils"
)

var (
	adminUsername string
	adminPassword string
	promotePhone  string
	promoteRevoke bool
)

// adminCmd groups admin account maintenance
var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage console accounts and roles",
	Long: `Manage console accounts and roles.

Available subcommands:
  create  - Create a username/password admin account
  promote - Grant (or with --revoke remove) the admin role for a phone user`,
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an admin account",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if strings.TrimSpace(adminUsername) == "" || len(adminPassword) < 8 {
			return errors.New("--username is required and --password must be at least 8 characters")
		}
		cfg, err := config.DatabaseOnly()
		if err != nil {
			return err
		}
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return err
		}
		defer db.Close()

		hash, err := utils.HashPassword(adminPassword, cfg.BcryptCost)
		if err != nil {
			return err
		}
		id, err := repository.NewAdminRepo(db).Create(cmd.Context(), adminUsername, hash)
		if errors.Is(err, repository.ErrDuplicate) {
			return fmt.Errorf("admin %q already exists", adminUsername)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", strings.TrimSpace(adminUsername), id)
		return nil
	},
}

var adminPromoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Grant the admin role to a phone user",
	RunE: func(cmd *cobra.Command, _ []string) error {
		phone, err := otp.NormalizePhone(promotePhone)
		if err != nil {
			return err
		}
		cfg, err := config.DatabaseOnly()
		if err != nil {
			return err
		}
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return err
		}
		defer db.Close()

		profiles := repository.NewProfileRepo(db)
		p, err := profiles.GetByPhone(cmd.Context(), phone)
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("no user with phone %s; they must sign in once first", phone)
		}
		if err != nil {
			return err
		}
		role := model.RoleAdmin
		if promoteRevoke {
			role = model.RoleUser
		}
		if err := profiles.SetRole(cmd.Context(), p.ID, role); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", phone, role)
		return nil
	},
}

func init() {
	adminCreateCmd.Flags().StringVar(&adminUsername, "username", "", "admin username")
	adminCreateCmd.Flags().StringVar(&adminPassword, "password", "", "admin password (min 8 characters)")
	_ = adminCreateCmd.MarkFlagRequired("username")
	_ = adminCreateCmd.MarkFlagRequired("password")

	adminPromoteCmd.Flags().StringVar(&promotePhone, "phone", "", "phone number of an existing user")
	adminPromoteCmd.Flags().BoolVar(&promoteRevoke, "revoke", false, "remove the admin role instead")
	_ = adminPromoteCmd.MarkFlagRequired("phone")

	adminCmd.AddCommand(adminCreateCmd, adminPromoteCmd)
}
