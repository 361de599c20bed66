// Package doctor finds remembered template roots that can no longer be
// explored and optionally forgets them.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/tormodhaugland/stencil/internal/state"
	"github.com/tormodhaugland/stencil/internal/template"
)

// Store is the part of the state store the doctor needs.
type Store interface {
	Recent(ctx context.Context, limit int) ([]state.Project, error)
	Forget(ctx context.Context, root string) error
}

type FindingKind int

const (
	// MissingRoot means the directory no longer exists or is not a directory.
	MissingRoot FindingKind = iota
	// BrokenTemplates means the directory exists but its templates fail to load.
	BrokenTemplates
	// NoTemplates means the directory loads but holds no template files.
	NoTemplates
)

func (k FindingKind) String() string {
	switch k {
	case MissingRoot:
		return "missing"
	case BrokenTemplates:
		return "broken"
	case NoTemplates:
		return "empty"
	default:
		return "unknown"
	}
}

func (k FindingKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

type Finding struct {
	Root   string      `json:"root"`
	Kind   FindingKind `json:"kind"`
	Detail string      `json:"detail"`
}

// Examine checks every remembered root. Roots that load cleanly produce no
// finding.
func Examine(ctx context.Context, store Store, opts ...template.Option) ([]Finding, error) {
	projects, err := store.Recent(ctx, 0)
	if err != nil {
		return nil, err
	}

	findings := make([]Finding, 0)
	for _, p := range projects {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f, ok := examineRoot(ctx, p.Root, opts); ok {
			findings = append(findings, f)
		}
	}
	return findings, nil
}

func examineRoot(ctx context.Context, root string, opts []template.Option) (Finding, bool) {
	info, err := os.Stat(root)
	if err != nil {
		return Finding{Root: root, Kind: MissingRoot, Detail: err.Error()}, true
	}
	if !info.IsDir() {
		return Finding{Root: root, Kind: MissingRoot, Detail: "not a directory"}, true
	}

	set, err := template.Load(ctx, root, opts...)
	if err != nil {
		var srcErr *template.SourceError
		if errors.As(err, &srcErr) && srcErr.Kind == template.SourceNotFound {
			return Finding{Root: root, Kind: MissingRoot, Detail: err.Error()}, true
		}
		return Finding{Root: root, Kind: BrokenTemplates, Detail: err.Error()}, true
	}
	if set.Len() == 0 {
		return Finding{Root: root, Kind: NoTemplates, Detail: fmt.Sprintf("%d static files, no templates", len(set.Statics()))}, true
	}
	return Finding{}, false
}

// Prune forgets the roots of MissingRoot findings and returns how many were
// removed. Other findings are left alone since the directory may be fixed.
func Prune(ctx context.Context, store Store, findings []Finding) (int, error) {
	removed := 0
	for _, f := range findings {
		if f.Kind != MissingRoot {
			continue
		}
		if err := store.Forget(ctx, f.Root); err != nil {
			return removed, fmt.Errorf("forgetting %s: %w", f.Root, err)
		}
		removed++
	}
	return removed, nil
}
