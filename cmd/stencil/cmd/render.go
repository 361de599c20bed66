package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/tormodhaugland/stencil/internal/pipeline"
	"github.com/tormodhaugland/stencil/internal/template"
	"github.com/tormodhaugland/stencil/internal/vars"
)

var (
	renderContext     []string
	renderSet         []string
	renderOut         string
	renderFormatGo    bool
	renderSyntaxCheck bool
)

type renderWarning struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

type renderReport struct {
	Outputs  map[string]string `json:"outputs"`
	Written  int               `json:"written,omitempty"`
	Warnings []renderWarning   `json:"warnings"`
}

var renderCmd = &cobra.Command{
	Use:   "render <dir> [name]",
	Short: "Render templates",
	Long: `Renders every template under a directory, or only the named one, against
a context built from --context files and --set overrides.

Without --out the rendered files are printed to stdout. With --out they are
written below that directory; existing files are replaced.

A template that fails to render is reported as a warning and the others are
still produced. The command exits non-zero if any warning was reported.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := template.Load(cmd.Context(), args[0], templateOptions()...)
		if err != nil {
			return fmt.Errorf("failed to load templates: %w", err)
		}

		ctx, err := vars.Build(renderContext, renderSet)
		if err != nil {
			return fmt.Errorf("failed to build context: %w", err)
		}

		opts := renderOptions(renderFormatGo, renderSyntaxCheck)
		var res *pipeline.Result
		if len(args) == 2 {
			name := args[1]
			if !set.Has(name) {
				return notFound(set, name)
			}
			res, err = pipeline.RenderOne(cmd.Context(), set, name, ctx, opts...)
			if err != nil {
				return err
			}
		} else {
			res = pipeline.RenderAll(cmd.Context(), set, ctx, opts...)
		}

		written := 0
		if renderOut != "" {
			written, err = pipeline.Write(res, renderOut)
			if err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}

		if jsonOut {
			report := renderReport{Outputs: map[string]string{}, Written: written, Warnings: []renderWarning{}}
			for path, data := range res.Outputs {
				report.Outputs[path] = string(data)
			}
			for _, w := range res.Warnings {
				report.Warnings = append(report.Warnings, renderWarning{Name: w.Name, Error: w.Err.Error()})
			}
			if err := outputJSON(report); err != nil {
				return err
			}
		} else {
			switch {
			case renderOut != "":
				fmt.Printf("Wrote %d files to %s\n", written, renderOut)
			case len(res.Outputs) == 1 && len(args) == 2:
				for _, data := range res.Outputs {
					os.Stdout.Write(data)
				}
			default:
				for _, path := range res.Paths() {
					fmt.Printf("==> %s <==\n", path)
					os.Stdout.Write(res.Outputs[path])
					if data := res.Outputs[path]; len(data) > 0 && data[len(data)-1] != '\n' {
						fmt.Println()
					}
				}
			}
			for _, w := range res.Warnings {
				fmt.Fprintf(os.Stderr, "warning: %v\n", w)
			}
		}

		if !res.OK() {
			return fmt.Errorf("%d template(s) reported warnings", len(res.Warnings))
		}
		return nil
	},
}

// notFound reports a missing template, suggesting close names.
func notFound(set *template.Set, name string) error {
	err := &template.TemplateNotFoundError{Name: name}
	matches := fuzzy.Find(name, set.Names())
	if len(matches) == 0 {
		return err
	}
	var suggestions []string
	for i, m := range matches {
		if i == 3 {
			break
		}
		suggestions = append(suggestions, m.Str)
	}
	return fmt.Errorf("%w (did you mean: %s?)", err, strings.Join(suggestions, ", "))
}

func addContextFlags(cmd *cobra.Command, files, sets *[]string) {
	cmd.Flags().StringArrayVarP(files, "context", "c", nil, "context file (.json, .yaml, .toml); repeatable, later files win")
	cmd.Flags().StringArrayVar(sets, "set", nil, "override a context value: key.path=value (repeatable)")
}

func init() {
	addContextFlags(renderCmd, &renderContext, &renderSet)
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "write rendered files below this directory")
	renderCmd.Flags().BoolVar(&renderFormatGo, "format-go", false, "format rendered .go files with gofumpt")
	renderCmd.Flags().BoolVar(&renderSyntaxCheck, "lint", false, "syntax-check rendered files with tree-sitter")
	rootCmd.AddCommand(renderCmd)
}
