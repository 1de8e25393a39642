package main

import (
	"github.com/spf13/cobra"

	"github.com/jas0n325/captone-ui-sub006/internal/cli"
	"github.com/jas0n325/captone-ui-sub006/pkg/adapters/memory"
)

var engineCmd = &cobra.Command{
	Use:   "engine [script.yaml]",
	Short: "Serve the scripted domain engine over HTTP",
	Long: `Serves the in-memory scripted domain engine so terminals started with
domain.url (POS_DOMAIN_URL) can reach it like a remote business engine.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		debug, _ := cmd.Flags().GetBool("debug")
		logger, err := cli.NewLogger(cfg.Log, debug)
		if err != nil {
			return err
		}

		script := memory.DefaultScript()
		path := cfg.Domain.Script
		if len(args) > 0 {
			path = args[0]
		}
		if path != "" {
			if script, err = memory.LoadScript(path); err != nil {
				return err
			}
		}

		addr, _ := cmd.Flags().GetString("addr")
		return cli.ServeEngine(script, logger, cli.ServeOptions{Addr: addr, Out: cmd.OutOrStdout()})
	},
}

func init() {
	rootCmd.AddCommand(engineCmd)
	engineCmd.Flags().StringP("addr", "a", ":9090", "Listen address")
}
