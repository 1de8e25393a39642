package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	pos "github.com/jas0n325/captone-ui-sub006"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of pos",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pos version %s\n", strings.TrimSpace(pos.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
