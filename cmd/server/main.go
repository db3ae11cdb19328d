// Command voltride runs the VoltRide support desk API and its maintenance
// commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "voltride",
	Short: "VoltRide support desk API",
	Long: `VoltRide support desk: OTP login, FAQ chat, scooter catalog and orders,
plus the admin console API.

Available commands:
  serve   - Run the HTTP API (optionally with the order consumer)
  consume - Run only the order event consumer
  migrate - Apply the embedded MySQL schema
  admin   - Manage admin accounts and roles`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, consumeCmd, migrateCmd, adminCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
