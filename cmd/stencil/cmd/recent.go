package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tormodhaugland/stencil/internal/state"
)

var (
	recentLimit  int
	recentExport string
	recentForget string
)

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recently explored template roots",
	Long: `Lists the template roots opened with 'stencil explore', most recent first.
--forget drops the saved explorer state of one root and --export writes all
saved state to a JSON file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := state.Open(cfg.StatePath)
		if err != nil {
			return fmt.Errorf("failed to open state: %w", err)
		}
		defer store.Close()

		if recentForget != "" {
			root, err := filepath.Abs(recentForget)
			if err != nil {
				return err
			}
			if err := store.Forget(cmd.Context(), root); err != nil {
				return fmt.Errorf("failed to forget %s: %w", root, err)
			}
			fmt.Printf("Forgot %s\n", root)
			return nil
		}

		if recentExport != "" {
			if err := store.Export(cmd.Context(), recentExport); err != nil {
				return fmt.Errorf("failed to export state: %w", err)
			}
			fmt.Printf("Exported state to %s\n", recentExport)
			return nil
		}

		projects, err := store.Recent(cmd.Context(), recentLimit)
		if err != nil {
			return fmt.Errorf("failed to list projects: %w", err)
		}

		if jsonOut {
			if projects == nil {
				projects = []state.Project{}
			}
			return outputJSON(projects)
		}

		if len(projects) == 0 {
			fmt.Println("No recent projects")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ROOT\tOPENED")
		for _, p := range projects {
			fmt.Fprintf(w, "%s\t%s\n", p.Root, p.OpenedAt.Local().Format(time.DateTime))
		}
		w.Flush()

		return nil
	},
}

func init() {
	recentCmd.Flags().IntVarP(&recentLimit, "limit", "n", 20, "maximum number of roots to list")
	recentCmd.Flags().StringVar(&recentExport, "export", "", "write all saved explorer state to this JSON file")
	recentCmd.Flags().StringVar(&recentForget, "forget", "", "drop the saved state of a root")
	rootCmd.AddCommand(recentCmd)
}
