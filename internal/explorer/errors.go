package explorer

import (
	"errors"
	"fmt"

	"github.com/tormodhaugland/stencil/internal/tree"
)

// SelectionErrorKind classifies a rejected selection.
type SelectionErrorKind int

const (
	// NotAFile means the path names a directory.
	NotAFile SelectionErrorKind = iota
	// NotFound means the path names nothing in the current tree.
	NotFound
)

func (k SelectionErrorKind) String() string {
	switch k {
	case NotAFile:
		return "not a file"
	case NotFound:
		return "not found"
	default:
		return "unknown"
	}
}

var (
	// ErrNotAFile matches a SelectionError of kind NotAFile.
	ErrNotAFile = errors.New("not a file")
	// ErrNotFound matches a SelectionError of kind NotFound.
	ErrNotFound = errors.New("not found")
	// ErrNoTree is returned by Handle operations that need an opened tree.
	ErrNoTree = errors.New("no tree opened")
)

// SelectionError is returned when Select is given a path that does not name
// a file. The selection is left unchanged.
type SelectionError struct {
	Kind SelectionErrorKind
	Path tree.Path
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("cannot select %s: %s", e.Path, e.Kind)
}

func (e *SelectionError) Is(target error) bool {
	switch e.Kind {
	case NotAFile:
		return target == ErrNotAFile
	case NotFound:
		return target == ErrNotFound
	}
	return false
}
