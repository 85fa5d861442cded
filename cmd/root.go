// Package cmd contains all cobra command definitions for the consync CLI.
package cmd

import (
	"github.com/spf13/cobra"
)

// flags shared across commands.
var (
	flagYes            bool
	flagNonInteractive bool
	flagVerbose        bool
	flagConfigFile     string
)

var rootCmd = &cobra.Command{
	Use:   "consync",
	Short: "consync — reconcile a local Markdown tree with a Confluence space",
	Long: `consync mirrors a directory of Markdown files onto a Confluence page
hierarchy: directories become parent pages, files become leaf pages, and
repeated runs converge the remote space to match the local tree.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose (info-level) logging")
	rootCmd.PersistentFlags().StringVarP(&flagConfigFile, "config", "c", ".consync.yml", "path to the project config file")
	rootCmd.AddCommand(
		newSyncCmd(),
		newPlanCmd(),
		newValidateCmd(),
		newInitCmd(),
	)
}
