package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tunedrop",
	Short: "TuneDrop demo submission backend",
	Long: `TuneDrop is the backend for a music demo submission platform.
Artists upload demo tracks, admins review them, and decisions go out
by email. Run "tunedrop server" to start the API.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
