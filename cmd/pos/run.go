package main

import (
	"github.com/spf13/cobra"

	"github.com/jas0n325/captone-ui-sub006/internal/cli"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the operator console",
	Long: `Starts the terminal with a line-oriented console on stdin/stdout.

Lines are keyed data unless they start with a command:
  scan <data>      barcode read
  key <text>       key listener capture
  approve|decline  payment terminal callback
  void <line>      swipe-to-void on a receipt line
  exit             stop`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := buildStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		jsonMode, _ := cmd.Flags().GetBool("json")
		plain, _ := cmd.Flags().GetBool("plain")
		style, _ := cmd.Flags().GetString("style")
		return cli.RunSession(stack, cli.RunOptions{
			JSON:  jsonMode,
			Plain: plain,
			Style: style,
			In:    cmd.InOrStdin(),
			Out:   cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	runCmd.Flags().Bool("plain", false, "Print markdown without terminal styling")
	runCmd.Flags().String("style", "", "glamour style (dark, light, notty); detected when empty")

	rootCmd.RunE = runCmd.RunE
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}
