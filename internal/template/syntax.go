package template

import (
	"reflect"
	"regexp"
	texttemplate "text/template"
)

// bareRefPattern matches {{name}} and {{user.name}} placeholders written
// without the leading dot, with optional trim markers.
var bareRefPattern = regexp.MustCompile(`\{\{(-\s+|\s*)([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*)(\s+-|\s*)\}\}`)

// keywords can never be a field name in an action.
var keywords = map[string]bool{
	"if": true, "else": true, "end": true, "range": true, "with": true,
	"define": true, "template": true, "block": true, "break": true,
	"continue": true, "nil": true, "true": true, "false": true,
}

// argFreeBuiltins are builtin functions that are valid on their own.
// Builtins that need arguments, such as len or eq, are treated as fields
// when written bare.
var argFreeBuiltins = map[string]bool{
	"print": true, "println": true, "html": true, "js": true, "urlquery": true,
}

// normalizeSource rewrites bare placeholders into field references so that
// "Hello, {{name}}!" means "Hello, {{.name}}!". Keywords are left alone, as
// is a lone function that can be called without arguments. A name shared
// with a function that needs arguments, such as {{title}}, is a field.
func normalizeSource(src string, funcs texttemplate.FuncMap) string {
	matches := bareRefPattern.FindAllStringSubmatchIndex(src, -1)
	if len(matches) == 0 {
		return src
	}

	out := make([]byte, 0, len(src)+len(matches))
	last := 0
	for _, m := range matches {
		ident := src[m[4]:m[5]]
		head := ident
		for i := 0; i < len(ident); i++ {
			if ident[i] == '.' {
				head = ident[:i]
				break
			}
		}
		if keywords[head] {
			continue
		}
		if head == ident && callableAlone(head, funcs) {
			continue
		}
		out = append(out, src[last:m[4]]...)
		out = append(out, '.')
		out = append(out, ident...)
		last = m[5]
	}
	out = append(out, src[last:]...)
	return string(out)
}

func callableAlone(name string, funcs texttemplate.FuncMap) bool {
	if argFreeBuiltins[name] {
		return true
	}
	fn, ok := funcs[name]
	if !ok {
		return false
	}
	t := reflect.TypeOf(fn)
	if t.Kind() != reflect.Func {
		return false
	}
	return t.NumIn() == 0 || (t.IsVariadic() && t.NumIn() == 1)
}
