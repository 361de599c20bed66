// Package pipeline renders every template of a set into an in-memory result
// tree and writes that tree to disk.
package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
	"mvdan.cc/gofumpt/format"

	"github.com/tormodhaugland/stencil/internal/lint"
	"github.com/tormodhaugland/stencil/internal/template"
)

// Result is the rendered tree. Outputs is keyed by slash-separated output
// path. Warnings is ordered by template name.
type Result struct {
	Outputs  map[string][]byte
	Modes    map[string]fs.FileMode
	Warnings []Warning
}

// Paths returns the output paths in sorted order.
func (r *Result) Paths() []string {
	return slices.Sorted(maps.Keys(r.Outputs))
}

// OK reports whether every file rendered without warnings.
func (r *Result) OK() bool {
	return len(r.Warnings) == 0
}

type config struct {
	formatGo    bool
	syntaxCheck bool
	statics     bool
	workers     int
	logger      *slog.Logger
}

// Option configures a render.
type Option func(*config)

// WithGoFormat formats rendered .go outputs with gofumpt. A formatting
// failure becomes a warning and the unformatted output is kept.
func WithGoFormat() Option {
	return func(c *config) { c.formatGo = true }
}

// WithSyntaxCheck parses outputs of known languages and adds a warning for
// each one that contains syntax errors.
func WithSyntaxCheck() Option {
	return func(c *config) { c.syntaxCheck = true }
}

// WithoutStatics leaves non-template files out of the result.
func WithoutStatics() Option {
	return func(c *config) { c.statics = false }
}

// WithWorkers bounds the number of templates rendered in parallel.
func WithWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithLogger sets the logger warnings are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

func newConfig(opts []Option) *config {
	c := &config{statics: true, workers: runtime.GOMAXPROCS(0), logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type rendered struct {
	data     []byte
	err      error
	warnings []error
}

// RenderAll renders every template in set against vars. It never fails as a
// whole: each template that fails to render is left out of Outputs and
// reported as a Warning carrying its name. Static files are copied verbatim.
func RenderAll(ctx context.Context, set *template.Set, vars map[string]any, opts ...Option) *Result {
	cfg := newConfig(opts)
	names := set.Names()
	results := make([]rendered, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers)
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].err = err
				return nil
			}
			results[i] = renderOne(gctx, cfg, set, name, vars)
			return nil
		})
	}
	_ = g.Wait()

	res := &Result{
		Outputs: make(map[string][]byte, len(names)),
		Modes:   make(map[string]fs.FileMode, len(names)),
	}
	for i, name := range names {
		r := results[i]
		if r.err != nil {
			res.warn(cfg.logger, name, r.err)
			continue
		}
		out := set.OutputPath(name)
		res.Outputs[out] = r.data
		res.Modes[out] = set.Mode(name)
		for _, w := range r.warnings {
			res.warn(cfg.logger, name, w)
		}
	}

	if cfg.statics {
		for _, name := range set.Statics() {
			data, _ := set.Static(name)
			res.Outputs[name] = data
			res.Modes[name] = set.Mode(name)
		}
	}

	cfg.logger.Debug("render complete", "outputs", len(res.Outputs), "warnings", len(res.Warnings))
	return res
}

// RenderOne renders a single template with the same post-processing as
// RenderAll. Unlike RenderAll, a render failure is returned as an error.
func RenderOne(ctx context.Context, set *template.Set, name string, vars map[string]any, opts ...Option) (*Result, error) {
	cfg := newConfig(opts)
	r := renderOne(ctx, cfg, set, name, vars)
	if r.err != nil {
		return nil, r.err
	}

	out := set.OutputPath(name)
	res := &Result{
		Outputs: map[string][]byte{out: r.data},
		Modes:   map[string]fs.FileMode{out: set.Mode(name)},
	}
	for _, w := range r.warnings {
		res.warn(cfg.logger, name, w)
	}
	return res, nil
}

func renderOne(ctx context.Context, cfg *config, set *template.Set, name string, vars map[string]any) rendered {
	text, err := set.Render(name, vars)
	if err != nil {
		return rendered{err: err}
	}

	r := rendered{data: []byte(text)}
	out := set.OutputPath(name)

	if cfg.formatGo && strings.HasSuffix(out, ".go") {
		formatted, err := format.Source(r.data, format.Options{})
		if err != nil {
			r.warnings = append(r.warnings, fmt.Errorf("formatting %s: %w", out, err))
		} else {
			r.data = formatted
		}
	}

	if cfg.syntaxCheck {
		issues, err := lint.Check(ctx, out, r.data)
		switch {
		case err != nil:
			r.warnings = append(r.warnings, err)
		case len(issues) > 0:
			r.warnings = append(r.warnings, &SyntaxError{Path: out, Issues: issues})
		}
	}
	return r
}

func (r *Result) warn(logger *slog.Logger, name string, err error) {
	logger.Warn("render warning", "template", name, "error", err)
	r.Warnings = append(r.Warnings, Warning{Name: name, Err: err})
}
