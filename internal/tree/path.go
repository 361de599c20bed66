package tree

import "strings"

// Path is the sequence of names from the root to a node. The root itself is
// the empty path. Paths are compared by value and keyed by Key.
type Path []string

// ParsePath is the inverse of Path.Key.
func ParsePath(key string) Path {
	if key == "" {
		return Path{}
	}
	return Path(strings.Split(key, "/"))
}

// Key returns a string uniquely identifying p. Entry names never contain a
// slash, so joining on it is unambiguous.
func (p Path) Key() string {
	return strings.Join(p, "/")
}

func (p Path) String() string {
	if len(p) == 0 {
		return "/"
	}
	return p.Key()
}

// IsRoot reports whether p is the root path.
func (p Path) IsRoot() bool { return len(p) == 0 }

// Child returns a new path extending p by name. p is not modified.
func (p Path) Child(name string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, name)
}

// Parent returns the path of p's parent; the root is its own parent.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return Path{}
	}
	return append(Path{}, p[:len(p)-1]...)
}

// Equal reports whether p and o name the same node.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether p equals prefix or lies below it.
func (p Path) HasPrefix(prefix Path) bool {
	return len(p) >= len(prefix) && p[:len(prefix)].Equal(prefix)
}

// Clone returns a copy of p that shares no memory with it.
func (p Path) Clone() Path {
	return append(Path{}, p...)
}
