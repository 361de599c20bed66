package template

import (
	"bytes"
	"io/fs"
	"maps"
	"slices"
	texttemplate "text/template"
)

// Set is an immutable collection of compiled templates loaded from one
// source root, plus the non-template files found beside them. It is safe for
// concurrent use.
type Set struct {
	root       string
	extensions []string
	templates  map[string]*texttemplate.Template
	outputs    map[string]string // template name -> output path
	sources    map[string]string // output path -> template name
	statics    map[string][]byte
	modes      map[string]fs.FileMode
	names      []string
}

// Root returns the absolute source directory the set was loaded from.
func (s *Set) Root() string { return s.root }

// Extensions returns the template extensions the set was loaded with.
func (s *Set) Extensions() []string { return slices.Clone(s.extensions) }

// Names returns the template names in sorted order. A name is the template's
// slash-separated path relative to Root, extension included.
func (s *Set) Names() []string { return slices.Clone(s.names) }

// Len returns the number of templates.
func (s *Set) Len() int { return len(s.names) }

// Has reports whether name is a template in the set.
func (s *Set) Has(name string) bool {
	_, ok := s.templates[name]
	return ok
}

// Render executes the named template against ctx.
func (s *Set) Render(name string, ctx map[string]any) (string, error) {
	t, ok := s.templates[name]
	if !ok {
		return "", &TemplateNotFoundError{Name: name}
	}
	if ctx == nil {
		ctx = map[string]any{}
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, ctx); err != nil {
		return "", &RenderError{Template: name, Message: err.Error(), Err: err}
	}
	return buf.String(), nil
}

// OutputPath maps a template name to the relative path of its rendered
// output by stripping the template extension. Names that are not in the set
// are returned with the longest matching extension stripped.
func (s *Set) OutputPath(name string) string {
	if out, ok := s.outputs[name]; ok {
		return out
	}
	out, _ := stripExtension(name, s.extensions)
	return out
}

// SourceName is the inverse of OutputPath for templates in the set.
func (s *Set) SourceName(output string) (string, bool) {
	name, ok := s.sources[output]
	return name, ok
}

// Statics returns the sorted relative paths of the non-template files.
func (s *Set) Statics() []string {
	return slices.Sorted(maps.Keys(s.statics))
}

// Static returns the content of a non-template file.
func (s *Set) Static(name string) ([]byte, bool) {
	data, ok := s.statics[name]
	return data, ok
}

// Mode returns the permission bits of a template or static source file, or
// 0o644 when name is unknown.
func (s *Set) Mode(name string) fs.FileMode {
	if m, ok := s.modes[name]; ok {
		return m
	}
	return 0o644
}
