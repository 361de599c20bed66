package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tormodhaugland/stencil/internal/template"
	"github.com/tormodhaugland/stencil/internal/vars"
)

var (
	varsContext []string
	varsSet     []string
	varsMissing bool
)

var varsCmd = &cobra.Command{
	Use:   "vars <dir>",
	Short: "Report template variables",
	Long: `Lists every variable each template references, with the line it appears
on and whether the context built from --context and --set provides it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := template.Load(cmd.Context(), args[0], templateOptions()...)
		if err != nil {
			return fmt.Errorf("failed to load templates: %w", err)
		}

		ctx, err := vars.Build(varsContext, varsSet)
		if err != nil {
			return fmt.Errorf("failed to build context: %w", err)
		}

		placeholders := set.Placeholders(ctx)
		if varsMissing {
			kept := placeholders[:0]
			for _, p := range placeholders {
				if !p.Available {
					kept = append(kept, p)
				}
			}
			placeholders = kept
		}

		if jsonOut {
			if placeholders == nil {
				placeholders = []template.Placeholder{}
			}
			return outputJSON(placeholders)
		}

		if len(placeholders) == 0 {
			fmt.Println("No variables found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TEMPLATE\tLINE\tVARIABLE\tSTATUS")
		for _, p := range placeholders {
			status := "ok"
			if !p.Available {
				status = "missing"
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", p.Template, p.Line, p.Name, status)
		}
		w.Flush()

		return nil
	},
}

func init() {
	addContextFlags(varsCmd, &varsContext, &varsSet)
	varsCmd.Flags().BoolVar(&varsMissing, "missing", false, "only list variables the context does not provide")
	rootCmd.AddCommand(varsCmd)
}
