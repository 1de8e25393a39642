package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jas0n325/captone-ui-sub006/pkg/adapters/classifier"
)

var validateCmd = &cobra.Command{
	Use:   "validate <rules.yaml>...",
	Short: "Check classifier rule tables",
	Long:  `Parses each rule table and reports every invalid pattern, group or missing event.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		failed := 0
		for _, path := range args {
			rs, err := classifier.LoadRules(path)
			if err != nil {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rules ok ✅\n", path, len(rs.Rules))
		}
		if failed > 0 {
			return fmt.Errorf("validation failed for %d of %d files", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
