package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the chart, grammar and configuration",
	Long: `Builds the appointment chart and reports every structural problem
(unresolved targets, missing initial states, shadowed transitions). The
configuration file and the configured grammar are checked as well.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := setup(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		c, err := loadChart()
		if err != nil {
			return err
		}
		if _, err := loadGrammar(cfg); err != nil {
			return err
		}

		fmt.Fprintf(out, "Chart %q is valid: %d states. ✅\n", c.Root().ID, c.Len())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
