package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tormodhaugland/stencil/internal/doctor"
	"github.com/tormodhaugland/stencil/internal/state"
)

var doctorFix bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check remembered template roots",
	Long: `Checks every root listed by 'stencil recent': roots that no longer exist,
roots whose templates fail to load and roots without any template.

--fix forgets the saved explorer state of roots that no longer exist.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := state.Open(cfg.StatePath)
		if err != nil {
			return fmt.Errorf("failed to open state: %w", err)
		}
		defer store.Close()

		findings, err := doctor.Examine(cmd.Context(), store, templateOptions()...)
		if err != nil {
			return fmt.Errorf("failed to examine roots: %w", err)
		}

		removed := 0
		if doctorFix {
			removed, err = doctor.Prune(cmd.Context(), store, findings)
			if err != nil {
				return err
			}
		}

		if jsonOut {
			return outputJSON(map[string]any{"findings": findings, "removed": removed})
		}

		if len(findings) == 0 {
			fmt.Println("All remembered roots are healthy")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ROOT\tSTATUS\tDETAIL")
		for _, f := range findings {
			fmt.Fprintf(w, "%s\t%s\t%s\n", f.Root, f.Kind, f.Detail)
		}
		w.Flush()

		if doctorFix {
			fmt.Printf("\nForgot %d missing root(s)\n", removed)
		}
		return nil
	},
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "forget roots that no longer exist")
	rootCmd.AddCommand(doctorCmd)
}
