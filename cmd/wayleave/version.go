package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alucardeht/wayleave/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "wayleave %s (protocol %s)\n", version.Version, version.ProtocolVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
