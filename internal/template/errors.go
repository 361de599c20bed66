// Package template loads a directory of template files, compiles them
// eagerly and renders them against a context of variables.
package template

import (
	"errors"
	"fmt"
	"strings"
)

// TemplateNotFoundError indicates a template does not exist in the set.
type TemplateNotFoundError struct {
	Name string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("template not found: %s", e.Name)
}

// SourceErrorKind classifies why a template root could not be used.
type SourceErrorKind int

const (
	SourceNotFound SourceErrorKind = iota
	SourceNotADirectory
	SourceUnreadable
)

var (
	ErrSourceNotFound      = errors.New("template root not found")
	ErrSourceNotADirectory = errors.New("template root is not a directory")
	ErrSourceUnreadable    = errors.New("template root is unreadable")
)

// SourceError indicates the template root itself is unusable.
type SourceError struct {
	Kind SourceErrorKind
	Root string
	Err  error
}

func (e *SourceError) Error() string {
	var msg string
	switch e.Kind {
	case SourceNotFound:
		msg = "template root not found"
	case SourceNotADirectory:
		msg = "template root is not a directory"
	default:
		msg = "template root is unreadable"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", msg, e.Root, e.Err)
	}
	return fmt.Sprintf("%s: %s", msg, e.Root)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

func (e *SourceError) Is(target error) bool {
	switch target {
	case ErrSourceNotFound:
		return e.Kind == SourceNotFound
	case ErrSourceNotADirectory:
		return e.Kind == SourceNotADirectory
	case ErrSourceUnreadable:
		return e.Kind == SourceUnreadable
	}
	return false
}

// FileError describes one template that failed to load.
type FileError struct {
	Name    string
	Message string
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

// LoadError aggregates every file that failed to load. A set is only
// returned when no file failed.
type LoadError struct {
	Root  string
	Files []FileError
	// Err holds failures of the directory walk itself, if any.
	Err error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "loading templates from %s", e.Root)
	switch len(e.Files) {
	case 0:
	case 1:
		fmt.Fprintf(&b, ": %s", e.Files[0].Error())
	default:
		fmt.Fprintf(&b, ": %d files failed:", len(e.Files))
		for _, f := range e.Files {
			b.WriteString("\n  - ")
			b.WriteString(f.Error())
		}
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// RenderError indicates the engine failed while executing a template, for
// example on a missing key or a type mismatch.
type RenderError struct {
	Template string
	Message  string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("rendering %s: %s", e.Template, e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// MultiError collects multiple errors.
type MultiError struct {
	Errors []error
}

func (e *MultiError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var msgs []string
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d errors:\n  - %s", len(e.Errors), strings.Join(msgs, "\n  - "))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e *MultiError) Unwrap() []error {
	return e.Errors
}

// Add appends an error to the collection.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if any errors were collected.
func (e *MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ErrorOrNil returns nil if no errors, otherwise returns the MultiError.
func (e *MultiError) ErrorOrNil() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}
