package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/parley/internal/presentation/graph"
	"github.com/aretw0/parley/internal/presentation/tui"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the dialogue chart",
	Long: `Prints the appointment chart as a Mermaid stateDiagram-v2, or as a
Markdown outline rendered for the terminal with --format outline.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		raw, _ := cmd.Flags().GetBool("raw")

		c, err := loadChart()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch format {
		case "mermaid":
			fmt.Fprint(out, graph.GenerateMermaid(c, nil))
			return nil
		case "outline":
			md := graph.GenerateOutline(c)
			if raw {
				fmt.Fprint(out, md)
				return nil
			}
			render, err := tui.NewRenderer(0)
			if err != nil {
				return err
			}
			rendered, err := render(md)
			if err != nil {
				return err
			}
			fmt.Fprint(out, rendered)
			return nil
		}
		return fmt.Errorf("unknown format %q (want mermaid or outline)", format)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("format", "f", "mermaid", "Output format: mermaid or outline")
	graphCmd.Flags().Bool("raw", false, "Print the outline as plain Markdown")
}
