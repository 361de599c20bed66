package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tormodhaugland/stencil/internal/explorer"
	"github.com/tormodhaugland/stencil/internal/tree"
)

var (
	treeAll    bool
	treeExpand []string
)

type treeRow struct {
	Path  string    `json:"path"`
	Kind  tree.Kind `json:"kind"`
	Depth int       `json:"depth"`
}

var treeCmd = &cobra.Command{
	Use:   "tree <dir>",
	Short: "Print a template tree",
	Long: `Scans a directory and prints it the way the explorer shows it: the root
and its direct children, plus the contents of every directory named with
--expand. Use --all to print the whole tree.

Entries that cannot be read are skipped and reported on stderr.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newScanner().Scan(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to scan %s: %w", args[0], err)
		}
		printWarnings(res.Warnings)

		exp := explorer.New(res.Root)
		for _, p := range treeExpand {
			path := tree.ParsePath(strings.Trim(p, "/"))
			for i := 1; i <= len(path); i++ {
				if !exp.SetExpanded(path[:i], true) {
					return fmt.Errorf("--expand %s: not a directory", p)
				}
			}
		}

		var rows []treeRow
		if treeAll {
			res.Root.Walk(func(p tree.Path, n *tree.Node, depth int) bool {
				rows = append(rows, treeRow{Path: p.String(), Kind: n.Kind, Depth: depth})
				return true
			})
		} else {
			for entry := range exp.Visible() {
				rows = append(rows, treeRow{Path: entry.Path.String(), Kind: entry.Node.Kind, Depth: entry.Depth})
			}
		}

		if jsonOut {
			return outputJSON(rows)
		}

		fmt.Println(res.Path)
		for _, r := range rows[1:] {
			name := r.Path[strings.LastIndex(r.Path, "/")+1:]
			if r.Kind == tree.Directory {
				name += "/"
			}
			fmt.Printf("%s%s\n", strings.Repeat("  ", r.Depth), name)
		}
		return nil
	},
}

func init() {
	treeCmd.Flags().BoolVar(&treeAll, "all", false, "print every entry")
	treeCmd.Flags().StringArrayVar(&treeExpand, "expand", nil, "expand a directory (repeatable, slash separated)")
	rootCmd.AddCommand(treeCmd)
}
