package tree

import (
	"errors"
	"fmt"
)

// ScanErrorKind classifies scan failures.
type ScanErrorKind int

const (
	// NotFound: the root path does not exist.
	NotFound ScanErrorKind = iota
	// NotADirectory: the root path is not a directory.
	NotADirectory
	// PermissionDenied: fatal for the root, a skipped entry anywhere else.
	PermissionDenied
	// ReadFailed: any other listing failure.
	ReadFailed
)

func (k ScanErrorKind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case NotADirectory:
		return "not a directory"
	case PermissionDenied:
		return "permission denied"
	case ReadFailed:
		return "read failed"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is against a *ScanError.
var (
	ErrNotFound         = errors.New("not found")
	ErrNotADirectory    = errors.New("not a directory")
	ErrPermissionDenied = errors.New("permission denied")
)

// ScanError reports a scan failure for a filesystem path. Entry-level
// instances are collected as warnings in Result.Warnings.
type ScanError struct {
	Kind ScanErrorKind
	Path string // filesystem path
	Err  error
}

func (e *ScanError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scan %s: %s: %v", e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("scan %s: %s", e.Path, e.Kind)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// Is matches the package sentinels by kind.
func (e *ScanError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == NotFound
	case ErrNotADirectory:
		return e.Kind == NotADirectory
	case ErrPermissionDenied:
		return e.Kind == PermissionDenied
	}
	return false
}
