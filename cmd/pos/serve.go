package main

import (
	"github.com/spf13/cobra"

	"github.com/jas0n325/captone-ui-sub006/internal/cli"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the terminal over HTTP",
	Long: `Starts the terminal behind an HTTP API: snapshots on /state and /business,
inputs on /input and /push/{source}, mode changes on /mode, server-sent events
on /events and Prometheus metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := buildStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = stack.Config.HTTP.Addr
		}
		return cli.Serve(stack, cli.ServeOptions{Addr: addr, Out: cmd.OutOrStdout()})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Listen address (overrides http.addr)")
}
