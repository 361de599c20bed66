package tree

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/tormodhaugland/stencil/internal/fs"
)

// Result is the outcome of a successful scan. Warnings lists entries that were
// skipped because they could not be read.
type Result struct {
	Root     *Node
	Path     string
	Warnings []*ScanError
}

// Scanner walks a directory into a Node tree. It holds no mutable state and
// is safe for concurrent use.
type Scanner struct {
	fs      billy.Filesystem
	osBased bool
	exclude []string
	logger  *slog.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithFilesystem scans fsys instead of the OS filesystem.
func WithFilesystem(fsys billy.Filesystem) Option {
	return func(s *Scanner) {
		s.fs = fsys
		s.osBased = false
	}
}

// WithExcludes hides entries matching ignore-file style patterns
// (see fs.Excluded).
func WithExcludes(patterns []string) Option {
	return func(s *Scanner) { s.exclude = patterns }
}

// WithLogger sets the logger used for skipped-entry warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) { s.logger = l }
}

// NewScanner creates a Scanner over the OS filesystem unless overridden.
func NewScanner(opts ...Option) *Scanner {
	s := &Scanner{fs: osfs.New("/"), osBased: true, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan is shorthand for NewScanner(opts...).Scan(ctx, root).
func Scan(ctx context.Context, root string, opts ...Option) (*Result, error) {
	return NewScanner(opts...).Scan(ctx, root)
}

// Scan lists root recursively. Children are ordered by name. Symlinks and
// special files become File leaves and are never followed. An unreadable
// subdirectory is left out of the tree and reported in Result.Warnings; the
// root itself must be a readable directory.
func (s *Scanner) Scan(ctx context.Context, root string) (*Result, error) {
	if s.osBased {
		// the OS filesystem is rooted at "/", so relative paths must be resolved here
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, classify(root, err)
		}
		root = abs
	}

	info, err := s.fs.Stat(root)
	if err != nil {
		return nil, classify(root, err)
	}
	if !info.IsDir() {
		return nil, &ScanError{Kind: NotADirectory, Path: root}
	}

	res := &Result{Path: root}
	node, err := s.scanDir(ctx, root, rootName(root), Path{}, res)
	if err != nil {
		return nil, err
	}
	res.Root = node

	files, dirs := node.Count()
	s.logger.Debug("scan complete", "path", root, "files", files, "dirs", dirs, "warnings", len(res.Warnings))
	return res, nil
}

func (s *Scanner) scanDir(ctx context.Context, dir, name string, rel Path, res *Result) (*Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	infos, err := s.fs.ReadDir(dir)
	if err != nil {
		return nil, classify(dir, err)
	}

	children := make([]*Node, 0, len(infos))
	for _, info := range infos {
		childName := info.Name()
		childRel := rel.Child(childName)
		isDir := info.IsDir() && info.Mode()&os.ModeSymlink == 0

		if len(s.exclude) > 0 && fs.Excluded(s.exclude, childRel.Key(), isDir) {
			continue
		}

		if !isDir {
			children = append(children, NewFile(childName))
			continue
		}

		childPath := s.fs.Join(dir, childName)
		child, err := s.scanDir(ctx, childPath, childName, childRel, res)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			var scanErr *ScanError
			if !errors.As(err, &scanErr) {
				scanErr = &ScanError{Kind: ReadFailed, Path: childPath, Err: err}
			}
			s.logger.Warn("skipping unreadable entry", "path", scanErr.Path, "kind", scanErr.Kind.String(), "error", scanErr.Err)
			res.Warnings = append(res.Warnings, scanErr)
			continue
		}
		children = append(children, child)
	}

	return NewDir(name, children...), nil
}

func classify(path string, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, os.ErrNotExist):
		return &ScanError{Kind: NotFound, Path: path, Err: err}
	case errors.Is(err, os.ErrPermission):
		return &ScanError{Kind: PermissionDenied, Path: path, Err: err}
	default:
		return &ScanError{Kind: ReadFailed, Path: path, Err: err}
	}
}

func rootName(root string) string {
	name := filepath.Base(filepath.Clean(root))
	if name == "." {
		if abs, err := filepath.Abs(root); err == nil {
			name = filepath.Base(abs)
		}
	}
	return name
}
