package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tormodhaugland/stencil/internal/config"
	"github.com/tormodhaugland/stencil/internal/pipeline"
	"github.com/tormodhaugland/stencil/internal/template"
	"github.com/tormodhaugland/stencil/internal/tree"
)

var (
	cfgFile  string
	logLevel string
	jsonOut  bool

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "stencil",
	Short: "Browse template trees and render them into projects",
	Long: `stencil scans a directory of text templates, shows it as a navigable
tree and renders every template against a context built from JSON, YAML or
TOML files and --set overrides.

Files ending in the template extension (default .tmpl) are rendered with the
extension stripped; every other file is copied as is.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.SlogLevel()
		if logLevel != "" {
			level = config.ParseLevel(logLevel)
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/stencil/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output in JSON format")
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newScanner() *tree.Scanner {
	return tree.NewScanner(
		tree.WithExcludes(cfg.ScanExcludes()),
		tree.WithLogger(logger),
	)
}

func templateOptions() []template.Option {
	return []template.Option{
		template.WithExtensions(cfg.Templates.Extensions...),
		template.WithInclude(cfg.Templates.Include...),
		template.WithExclude(cfg.Templates.Exclude...),
		template.WithIgnoreFiles(cfg.Templates.RespectIgnoreFiles),
		template.WithHidden(cfg.Templates.IncludeHidden),
		template.WithLogger(logger),
	}
}

func renderOptions(formatGo, syntaxCheck bool) []pipeline.Option {
	opts := []pipeline.Option{pipeline.WithLogger(logger)}
	if formatGo || cfg.Render.FormatGo {
		opts = append(opts, pipeline.WithGoFormat())
	}
	if syntaxCheck || cfg.Render.SyntaxCheck {
		opts = append(opts, pipeline.WithSyntaxCheck())
	}
	if cfg.Render.Workers > 0 {
		opts = append(opts, pipeline.WithWorkers(cfg.Render.Workers))
	}
	return opts
}

func printWarnings(warnings []*tree.ScanError) {
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %v\n", w)
	}
}
