package template

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	texttemplate "text/template"

	"github.com/boyter/gocodewalker"

	"github.com/tormodhaugland/stencil/internal/fs"
)

// DefaultExtensions are the suffixes that mark a file as a template.
var DefaultExtensions = []string{".tmpl"}

type loadConfig struct {
	extensions    []string
	include       []string
	exclude       []string
	respectIgnore bool
	includeHidden bool
	logger        *slog.Logger
}

// Option configures Load.
type Option func(*loadConfig)

// WithExtensions sets the template extensions. Empty entries are ignored and
// a missing leading dot is added.
func WithExtensions(exts ...string) Option {
	return func(c *loadConfig) {
		var out []string
		for _, e := range exts {
			if e == "" {
				continue
			}
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			out = append(out, e)
		}
		if len(out) > 0 {
			c.extensions = out
		}
	}
}

// WithInclude limits loading to files matching at least one glob.
func WithInclude(patterns ...string) Option {
	return func(c *loadConfig) { c.include = append(c.include, patterns...) }
}

// WithExclude skips files matching any glob, in addition to
// fs.DefaultTemplateExcludes.
func WithExclude(patterns ...string) Option {
	return func(c *loadConfig) { c.exclude = append(c.exclude, patterns...) }
}

// WithIgnoreFiles controls whether .gitignore and .ignore files are honoured.
func WithIgnoreFiles(respect bool) Option {
	return func(c *loadConfig) { c.respectIgnore = respect }
}

// WithHidden controls whether dot files and directories are loaded. They are
// by default; VCS metadata directories are never walked.
func WithHidden(include bool) Option {
	return func(c *loadConfig) { c.includeHidden = include }
}

// WithLogger sets the logger used for load warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *loadConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Load discovers every file under root, compiles those carrying a template
// extension and keeps the rest as static files. Compilation is all or
// nothing: if any file fails, a *LoadError listing every failure is returned
// and no set is produced. A root without templates yields an empty set.
func Load(ctx context.Context, root string, opts ...Option) (*Set, error) {
	cfg := &loadConfig{
		extensions:    DefaultExtensions,
		exclude:       slices.Clone(fs.DefaultTemplateExcludes),
		respectIgnore: true,
		includeHidden: true,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	// longest extension first so ".go.tmpl" wins over ".tmpl"
	exts := slices.Clone(cfg.extensions)
	slices.SortStableFunc(exts, func(a, b string) int { return len(b) - len(a) })

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, &SourceError{Kind: SourceUnreadable, Root: root, Err: err}
	}
	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, &SourceError{Kind: SourceNotFound, Root: abs, Err: err}
	case err != nil:
		return nil, &SourceError{Kind: SourceUnreadable, Root: abs, Err: err}
	case !info.IsDir():
		return nil, &SourceError{Kind: SourceNotADirectory, Root: abs}
	}

	files, walkErr := discover(ctx, abs, cfg)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	funcs := Funcs()
	// every file joins one namespace so {{template "name" .}} can reach any
	// other loaded template
	shared := texttemplate.New("").Option("missingkey=error").Funcs(funcs)
	matcher := fs.NewMatcher(cfg.include, cfg.exclude)
	set := &Set{
		root:       abs,
		extensions: exts,
		templates:  make(map[string]*texttemplate.Template),
		outputs:    make(map[string]string),
		sources:    make(map[string]string),
		statics:    make(map[string][]byte),
		modes:      make(map[string]os.FileMode),
	}
	var failed []FileError

	for _, rel := range files {
		if !matcher.Match(rel) {
			continue
		}
		path := filepath.Join(abs, filepath.FromSlash(rel))
		info, err := os.Stat(path)
		if err != nil {
			failed = append(failed, FileError{Name: rel, Message: err.Error()})
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			failed = append(failed, FileError{Name: rel, Message: err.Error()})
			continue
		}
		set.modes[rel] = info.Mode().Perm()

		out, isTemplate := stripExtension(rel, exts)
		if !isTemplate {
			set.statics[rel] = data
			continue
		}
		if out == "" || strings.HasSuffix(out, "/") {
			failed = append(failed, FileError{Name: rel, Message: "output name is empty"})
			continue
		}
		if other, dup := set.sources[out]; dup {
			failed = append(failed, FileError{
				Name:    rel,
				Message: fmt.Sprintf("output %s is also produced by %s", out, other),
			})
			continue
		}

		t, err := shared.New(rel).Parse(normalizeSource(string(data), funcs))
		if err != nil {
			failed = append(failed, FileError{Name: rel, Message: err.Error()})
			continue
		}
		set.templates[rel] = t
		set.outputs[rel] = out
		set.sources[out] = rel
		set.names = append(set.names, rel)
	}

	if len(failed) > 0 || walkErr != nil {
		for _, f := range failed {
			cfg.logger.Warn("template failed to load", "template", f.Name, "error", f.Message)
		}
		return nil, &LoadError{Root: abs, Files: failed, Err: walkErr}
	}

	// a rendered template takes the place of a static file at the same path
	for out, name := range set.sources {
		if _, ok := set.statics[out]; ok {
			cfg.logger.Warn("static file shadowed by template output", "static", out, "template", name)
			delete(set.statics, out)
		}
	}

	slices.Sort(set.names)
	if len(set.names) == 0 {
		cfg.logger.Warn("no templates found", "root", abs, "extensions", exts)
	}
	cfg.logger.Debug("templates loaded", "root", abs, "templates", len(set.names), "statics", len(set.statics))
	return set, nil
}

var vcsDirs = []string{".git", ".hg", ".svn"}

// discover lists every file under root as a sorted slash-separated relative
// path.
func discover(ctx context.Context, root string, cfg *loadConfig) ([]string, error) {
	queue := make(chan *gocodewalker.File, 100)
	walker := gocodewalker.NewFileWalker(root, queue)
	walker.IgnoreGitIgnore = !cfg.respectIgnore
	walker.IgnoreIgnoreFile = !cfg.respectIgnore
	walker.IncludeHidden = cfg.includeHidden
	walker.ExcludeDirectory = vcsDirs

	var mu sync.Mutex
	walkErrs := &MultiError{}
	walker.SetErrorHandler(func(e error) bool {
		cfg.logger.Warn("error reported by file walker", "root", root, "error", e)
		mu.Lock()
		walkErrs.Add(e)
		mu.Unlock()
		return true
	})

	done := make(chan error, 1)
	go func() { done <- walker.Start() }()
	stop := context.AfterFunc(ctx, walker.Terminate)
	defer stop()

	var files []string
	for f := range queue {
		rel, err := filepath.Rel(root, f.Location)
		if err != nil {
			mu.Lock()
			walkErrs.Add(err)
			mu.Unlock()
			continue
		}
		files = append(files, filepath.ToSlash(rel))
	}
	if err := <-done; err != nil {
		mu.Lock()
		walkErrs.Add(err)
		mu.Unlock()
	}

	slices.Sort(files)
	mu.Lock()
	defer mu.Unlock()
	return files, walkErrs.ErrorOrNil()
}

// stripExtension removes the first matching extension of exts from name.
func stripExtension(name string, exts []string) (string, bool) {
	for _, ext := range exts {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext), true
		}
	}
	return name, false
}
