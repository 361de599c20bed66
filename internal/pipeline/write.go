package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/tormodhaugland/stencil/internal/template"
)

// Write stores every output of res under destDir, creating directories as
// needed. Each file is replaced atomically. All paths are checked before
// anything is written; a path escaping destDir aborts the write with a
// *PathTraversalError. It returns the number of files written.
func Write(res *Result, destDir string) (int, error) {
	dest, err := filepath.Abs(destDir)
	if err != nil {
		return 0, fmt.Errorf("resolving destination: %w", err)
	}

	paths := res.Paths()
	targets := make([]string, len(paths))
	for i, p := range paths {
		target, err := safeJoin(dest, p)
		if err != nil {
			return 0, err
		}
		targets[i] = target
	}

	errs := &template.MultiError{}
	written := 0
	for i, p := range paths {
		target := targets[i]
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			errs.Add(fmt.Errorf("creating directory for %s: %w", p, err))
			continue
		}
		if err := atomic.WriteFile(target, bytes.NewReader(res.Outputs[p])); err != nil {
			errs.Add(fmt.Errorf("writing %s: %w", p, err))
			continue
		}
		mode, ok := res.Modes[p]
		if !ok {
			mode = 0o644
		}
		if err := os.Chmod(target, mode); err != nil {
			errs.Add(fmt.Errorf("setting mode of %s: %w", p, err))
			continue
		}
		written++
	}
	return written, errs.ErrorOrNil()
}

func safeJoin(dest, rel string) (string, error) {
	if rel == "" || filepath.IsAbs(rel) || strings.HasPrefix(rel, "/") {
		return "", &PathTraversalError{Path: rel, Dest: dest}
	}
	target := filepath.Join(dest, filepath.FromSlash(rel))
	r, err := filepath.Rel(dest, target)
	if err != nil || r == "." || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", &PathTraversalError{Path: rel, Dest: dest}
	}
	return target, nil
}
