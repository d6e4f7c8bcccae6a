// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "docvault",
	Short: "DocVault is a role-based document management service",
	Long: `DocVault is a document management service with role-based access
control. Documents are organized into categories, protected by role
permissions and per-document grants, and served through a JSON API.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
