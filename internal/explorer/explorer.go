// Package explorer holds the interactive state of a directory tree: which
// directories are expanded and which file is selected. The state survives
// re-scans by matching paths.
package explorer

import (
	"iter"
	"slices"

	"github.com/tormodhaugland/stencil/internal/tree"
)

// Entry is one row of the visible sequence.
type Entry struct {
	Path  tree.Path
	Node  *tree.Node
	Depth int
}

// Explorer wraps one root directory with its expansion and selection state.
// It is not safe for concurrent use; see Handle.
type Explorer struct {
	root     *tree.Node
	expanded map[string]struct{}
	selected tree.Path
	hasSel   bool
}

// New returns an Explorer over root with only the root expanded.
func New(root *tree.Node) *Explorer {
	e := &Explorer{}
	e.ReplaceTree(root)
	return e
}

// Root returns the current tree.
func (e *Explorer) Root() *tree.Node { return e.root }

// ReplaceTree installs a new tree. The expansion set is reset to the root and
// the selection is kept only if it still names a file.
func (e *Explorer) ReplaceTree(root *tree.Node) {
	e.root = root
	e.expanded = map[string]struct{}{}
	if root.IsDir() {
		e.expanded[tree.Path{}.Key()] = struct{}{}
	}
	if e.hasSel && !root.Lookup(e.selected).IsFile() {
		e.ClearSelection()
	}
}

// Merge installs a re-scanned tree, keeping every expanded path that still
// names a directory and the selection if it still names a file. Everything
// else is dropped.
func (e *Explorer) Merge(root *tree.Node) {
	kept := make(map[string]struct{}, len(e.expanded))
	for key := range e.expanded {
		if root.Lookup(tree.ParsePath(key)).IsDir() {
			kept[key] = struct{}{}
		}
	}
	e.root = root
	e.expanded = kept
	if e.hasSel && !root.Lookup(e.selected).IsFile() {
		e.ClearSelection()
	}
}

// ToggleExpand flips the expansion of the directory at p. It reports false
// and changes nothing when p does not name a directory.
func (e *Explorer) ToggleExpand(p tree.Path) bool {
	if !e.root.Lookup(p).IsDir() {
		return false
	}
	key := p.Key()
	if _, ok := e.expanded[key]; ok {
		delete(e.expanded, key)
	} else {
		e.expanded[key] = struct{}{}
	}
	return true
}

// SetExpanded expands or collapses the directory at p.
func (e *Explorer) SetExpanded(p tree.Path, expanded bool) bool {
	if !e.root.Lookup(p).IsDir() {
		return false
	}
	if expanded {
		e.expanded[p.Key()] = struct{}{}
	} else {
		delete(e.expanded, p.Key())
	}
	return true
}

// IsExpanded reports whether p is in the expansion set.
func (e *Explorer) IsExpanded(p tree.Path) bool {
	_, ok := e.expanded[p.Key()]
	return ok
}

// Select makes the file at p the selection. Directories and unknown paths
// are rejected with a *SelectionError and leave the state unchanged.
func (e *Explorer) Select(p tree.Path) error {
	n := e.root.Lookup(p)
	switch {
	case n == nil:
		return &SelectionError{Kind: NotFound, Path: p.Clone()}
	case !n.IsFile():
		return &SelectionError{Kind: NotAFile, Path: p.Clone()}
	}
	e.selected = p.Clone()
	e.hasSel = true
	return nil
}

// ClearSelection removes the selection, if any.
func (e *Explorer) ClearSelection() {
	e.selected = nil
	e.hasSel = false
}

// Selected returns the selected path.
func (e *Explorer) Selected() (tree.Path, bool) {
	if !e.hasSel {
		return nil, false
	}
	return e.selected.Clone(), true
}

// Expanded returns the expanded paths sorted by key.
func (e *Explorer) Expanded() []tree.Path {
	keys := make([]string, 0, len(e.expanded))
	for k := range e.expanded {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]tree.Path, len(keys))
	for i, k := range keys {
		out[i] = tree.ParsePath(k)
	}
	return out
}

// Visible yields the rows a view should draw: a pre-order walk from the root
// that descends into a directory only when it is expanded. Each call walks
// the current tree afresh.
func (e *Explorer) Visible() iter.Seq[Entry] {
	root := e.root
	expanded := e.expanded
	return func(yield func(Entry) bool) {
		if root == nil {
			return
		}
		var walk func(p tree.Path, n *tree.Node, depth int) bool
		walk = func(p tree.Path, n *tree.Node, depth int) bool {
			if !yield(Entry{Path: p, Node: n, Depth: depth}) {
				return false
			}
			if !n.IsDir() {
				return true
			}
			if _, ok := expanded[p.Key()]; !ok {
				return true
			}
			for _, c := range n.Children {
				if !walk(p.Child(c.Name), c, depth+1) {
					return false
				}
			}
			return true
		}
		walk(tree.Path{}, root, 0)
	}
}

// VisibleSlice collects Visible into a slice.
func (e *Explorer) VisibleSlice() []Entry {
	return slices.Collect(e.Visible())
}
