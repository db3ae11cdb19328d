package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliyamo/voltride-support/internal/config"
	"github.com/iliyamo/voltride-support/internal/database"
)

// migrateCmd applies the embedded schema
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the MySQL tables if they do not exist",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.DatabaseOnly()
		if err != nil {
			return err
		}
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := database.Migrate(cmd.Context(), db)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "applied %d statements\n", n)
		return nil
	},
}
