package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jas0n325/captone-ui-sub006/internal/cli"
	"github.com/jas0n325/captone-ui-sub006/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "pos",
	Short: "pos drives a point-of-sale terminal's interaction core",
	Long: `pos turns scanner reads, keyed text and payment callbacks into business events,
tracks the terminal's interaction mode and applies the domain engine's results.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().String("terminal", "", "Terminal id (overrides terminal.id)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")
	rootCmd.PersistentFlags().Bool("debug", false, "Log every lifecycle event at debug level")
}

// loadConfig reads the configuration file and applies the command line overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if v, _ := cmd.Flags().GetString("terminal"); v != "" {
		cfg.Terminal.ID = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		cfg.Log.Format = v
	}
	return cfg, cfg.Validate()
}

// buildStack loads the configuration and wires the terminal.
func buildStack(cmd *cobra.Command) (*cli.Stack, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	debug, _ := cmd.Flags().GetBool("debug")
	logger, err := cli.NewLogger(cfg.Log, debug)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return cli.BuildStack(cfg, logger, cli.DebugOptions(logger, debug)...)
}
