package pipeline

import (
	"fmt"
	"strings"

	"github.com/tormodhaugland/stencil/internal/lint"
)

// Warning attributes a non-fatal failure to one template or static file.
type Warning struct {
	Name string
	Err  error
}

func (w Warning) Error() string {
	return fmt.Sprintf("%s: %v", w.Name, w.Err)
}

func (w Warning) Unwrap() error {
	return w.Err
}

// PathTraversalError indicates an output path that would be written outside
// the destination directory.
type PathTraversalError struct {
	Path string
	Dest string
}

func (e *PathTraversalError) Error() string {
	return fmt.Sprintf("path traversal detected: %s is outside %s", e.Path, e.Dest)
}

// SyntaxError reports a rendered output that does not parse.
type SyntaxError struct {
	Path   string
	Issues []lint.Issue
}

func (e *SyntaxError) Error() string {
	if len(e.Issues) == 1 {
		return fmt.Sprintf("syntax error in %s: %s", e.Path, e.Issues[0].Error())
	}
	msgs := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		msgs[i] = is.Error()
	}
	return fmt.Sprintf("%d syntax errors in %s:\n  - %s", len(e.Issues), e.Path, strings.Join(msgs, "\n  - "))
}
