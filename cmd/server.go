package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tunedrop/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the TuneDrop API server",
	Run: func(cmd *cobra.Command, args []string) {
		if err := server.Start(); err != nil {
			fmt.Fprintln(os.Stderr, "server error:", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
