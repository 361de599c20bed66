package template

import (
	"slices"
	"strconv"
	"strings"
	"text/template/parse"
)

// Placeholder is one variable referenced by a template.
type Placeholder struct {
	Template  string `json:"template"`
	Name      string `json:"name"`
	Line      int    `json:"line"`
	Available bool   `json:"available"`
}

// Variables returns the top-level context keys the named template reads,
// sorted and without duplicates. References inside range and with blocks are
// relative to a different dot and are not reported, except through $.
func (s *Set) Variables(name string) ([]string, error) {
	t, ok := s.templates[name]
	if !ok {
		return nil, &TemplateNotFoundError{Name: name}
	}
	var refs []fieldRef
	if t.Tree != nil {
		collectRefs(t.Tree.Root, &refs)
	}

	names := make([]string, 0, len(refs))
	for _, r := range refs {
		names = append(names, r.path[0])
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}

// Placeholders reports, for every template, each referenced context key and
// whether ctx provides it. Nested references such as .user.name are
// reported by their full dotted path and checked against nested maps.
func (s *Set) Placeholders(ctx map[string]any) []Placeholder {
	var out []Placeholder
	for _, name := range s.names {
		t := s.templates[name]
		if t.Tree == nil {
			continue
		}
		var refs []fieldRef
		collectRefs(t.Tree.Root, &refs)

		seen := make(map[string]bool)
		for _, r := range refs {
			key := strings.Join(r.path, ".")
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, Placeholder{
				Template:  name,
				Name:      key,
				Line:      lineOf(t.Tree, r.node),
				Available: lookupPath(ctx, r.path),
			})
		}
	}
	return out
}

type fieldRef struct {
	path   []string
	node   parse.Node
	dollar bool
}

func collectRefs(node parse.Node, refs *[]fieldRef) {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, c := range n.Nodes {
			collectRefs(c, refs)
		}
	case *parse.ActionNode:
		collectRefs(n.Pipe, refs)
	case *parse.IfNode:
		collectRefs(n.Pipe, refs)
		collectRefs(n.List, refs)
		collectRefs(n.ElseList, refs)
	case *parse.RangeNode:
		collectRefs(n.Pipe, refs)
		collectDollarRefs(n.List, refs)
		collectRefs(n.ElseList, refs)
	case *parse.WithNode:
		collectRefs(n.Pipe, refs)
		collectDollarRefs(n.List, refs)
		collectRefs(n.ElseList, refs)
	case *parse.TemplateNode:
		collectRefs(n.Pipe, refs)
	case *parse.PipeNode:
		if n == nil {
			return
		}
		for _, cmd := range n.Cmds {
			collectRefs(cmd, refs)
		}
	case *parse.CommandNode:
		for _, arg := range n.Args {
			collectRefs(arg, refs)
		}
	case *parse.FieldNode:
		*refs = append(*refs, fieldRef{path: n.Ident, node: n})
	case *parse.VariableNode:
		if len(n.Ident) > 1 && n.Ident[0] == "$" {
			*refs = append(*refs, fieldRef{path: n.Ident[1:], node: n, dollar: true})
		}
	case *parse.ChainNode:
		collectRefs(n.Node, refs)
	}
}

// collectDollarRefs walks a block whose dot is rebound, keeping only $.x
// references.
func collectDollarRefs(node parse.Node, refs *[]fieldRef) {
	var inner []fieldRef
	collectRefs(node, &inner)
	for _, r := range inner {
		if r.dollar {
			*refs = append(*refs, r)
		}
	}
}

// lineOf returns the 1-based line of n in the template source.
func lineOf(t *parse.Tree, n parse.Node) int {
	location, _ := t.ErrorContext(n)
	// location is "name:line:col"
	parts := strings.Split(location, ":")
	if len(parts) < 3 {
		return 0
	}
	line, err := strconv.Atoi(parts[len(parts)-2])
	if err != nil {
		return 0
	}
	return line
}

// lookupPath reports whether ctx holds a value at the dotted path.
func lookupPath(ctx map[string]any, path []string) bool {
	var cur any = ctx
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return false
		}
		cur, ok = m[key]
		if !ok {
			return false
		}
	}
	return true
}
