// Package tree models a scanned filesystem subtree as an immutable tree of
// named nodes addressed by name paths.
package tree

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Kind distinguishes leaves from directories.
type Kind int

const (
	File Kind = iota
	Directory
)

func (k Kind) String() string {
	switch k {
	case File:
		return "file"
	case Directory:
		return "dir"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "file":
		*k = File
	case "dir":
		*k = Directory
	default:
		return fmt.Errorf("unknown node kind %q", text)
	}
	return nil
}

// Node is one filesystem entry. Directory children are sorted by name and
// unique within their parent. A Node is not modified once a scan returns it.
type Node struct {
	Name     string  `json:"name"`
	Kind     Kind    `json:"kind"`
	Children []*Node `json:"children,omitempty"`
}

// NewFile returns a leaf node.
func NewFile(name string) *Node {
	return &Node{Name: name, Kind: File}
}

// NewDir returns a directory node holding children in name order.
// Duplicate names keep the first occurrence.
func NewDir(name string, children ...*Node) *Node {
	seen := make(map[string]bool, len(children))
	kept := make([]*Node, 0, len(children))
	for _, c := range children {
		if c == nil || seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		kept = append(kept, c)
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].Name < kept[j].Name })
	return &Node{Name: name, Kind: Directory, Children: kept}
}

// IsDir reports whether n is a directory.
func (n *Node) IsDir() bool { return n != nil && n.Kind == Directory }

// IsFile reports whether n is a leaf.
func (n *Node) IsFile() bool { return n != nil && n.Kind == File }

// Child returns the direct child with the given name, or nil.
func (n *Node) Child(name string) *Node {
	if !n.IsDir() {
		return nil
	}
	// children are sorted, so a binary search is enough
	i := sort.Search(len(n.Children), func(i int) bool { return n.Children[i].Name >= name })
	if i < len(n.Children) && n.Children[i].Name == name {
		return n.Children[i]
	}
	return nil
}

// Lookup resolves p relative to n. The empty path resolves to n itself.
func (n *Node) Lookup(p Path) *Node {
	cur := n
	for _, name := range p {
		cur = cur.Child(name)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Walk visits n and every descendant in pre-order. Returning false from fn
// skips the children of the visited node.
func (n *Node) Walk(fn func(p Path, node *Node, depth int) bool) {
	var visit func(p Path, node *Node, depth int)
	visit = func(p Path, node *Node, depth int) {
		if !fn(p, node, depth) {
			return
		}
		for _, c := range node.Children {
			visit(p.Child(c.Name), c, depth+1)
		}
	}
	if n != nil {
		visit(Path{}, n, 0)
	}
}

// Count returns the number of files and directories below and including n.
func (n *Node) Count() (files, dirs int) {
	n.Walk(func(_ Path, node *Node, _ int) bool {
		if node.IsDir() {
			dirs++
		} else {
			files++
		}
		return true
	})
	return files, dirs
}

// UnmarshalJSON restores the sorted-children invariant for trees decoded from
// foreign JSON.
func (n *Node) UnmarshalJSON(data []byte) error {
	type plain Node
	var raw plain
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Kind == Directory {
		*n = *NewDir(raw.Name, raw.Children...)
		return nil
	}
	if len(raw.Children) > 0 {
		return fmt.Errorf("file node %q has children", raw.Name)
	}
	*n = Node{Name: raw.Name, Kind: File}
	return nil
}
