package explorer

import "github.com/tormodhaugland/stencil/internal/tree"

// State is the persistable part of an Explorer. The tree itself is never
// stored; it is rescanned from Root.
type State struct {
	Root     string     `json:"root"`
	Expanded [][]string `json:"expanded"`
	Selected []string   `json:"selected,omitempty"`
}

// State snapshots the expansion and selection. root is the filesystem path
// the tree was scanned from.
func (e *Explorer) State(root string) State {
	st := State{Root: root, Expanded: [][]string{}}
	for _, p := range e.Expanded() {
		st.Expanded = append(st.Expanded, []string(p))
	}
	if sel, ok := e.Selected(); ok {
		st.Selected = []string(sel)
		if st.Selected == nil {
			st.Selected = []string{}
		}
	}
	return st
}

// Restore applies a saved State to the current tree. Paths that do not
// resolve to a directory (expansion) or a file (selection) are ignored.
// The root stays expanded only if the saved state had it expanded.
func (e *Explorer) Restore(st State) {
	e.expanded = map[string]struct{}{}
	for _, raw := range st.Expanded {
		p := tree.Path(raw)
		if e.root.Lookup(p).IsDir() {
			e.expanded[p.Key()] = struct{}{}
		}
	}
	e.ClearSelection()
	if st.Selected != nil {
		_ = e.Select(tree.Path(st.Selected))
	}
}
