package cmd

import (
	"fmt"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/tormodhaugland/stencil/internal/template"
)

var namesCmd = &cobra.Command{
	Use:   "names <dir> [filter]",
	Short: "List template names",
	Long: `Loads the templates under a directory and lists their names in sorted
order. With a filter, only names matching it fuzzily are listed, best
match first.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := template.Load(cmd.Context(), args[0], templateOptions()...)
		if err != nil {
			return fmt.Errorf("failed to load templates: %w", err)
		}

		names := set.Names()
		if len(args) == 2 {
			matches := fuzzy.Find(args[1], names)
			names = make([]string, len(matches))
			for i, m := range matches {
				names[i] = m.Str
			}
		}

		if jsonOut {
			return outputJSON(names)
		}

		if len(names) == 0 {
			fmt.Println("No templates found")
			return nil
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(namesCmd)
}
