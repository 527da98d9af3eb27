// Command journalctl administers a journal deployment: it applies database
// migrations, mints development tokens and prints a user's insights.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"example.com/journal/internal/config"
)

func main() {
	if err := newRootCmd(config.Load()).Execute(); err != nil {
		// Cobra prints the error.
		os.Exit(1)
	}
}

func newRootCmd(cfg config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "journalctl",
		Short:         "Operate the journal service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newMigrateCmd(cfg))
	root.AddCommand(newTokenCmd(cfg))
	root.AddCommand(newInsightsCmd(cfg))
	return root
}
