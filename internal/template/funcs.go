package template

import (
	"fmt"
	"reflect"
	"strings"
	texttemplate "text/template"
	"unicode"
)

// Funcs returns the functions available to every template.
func Funcs() texttemplate.FuncMap {
	return texttemplate.FuncMap{
		"upper":   strings.ToUpper,
		"lower":   strings.ToLower,
		"title":   title,
		"trim":    strings.TrimSpace,
		"replace": replace,
		"default": defaultValue,
		"get":     get,
		"join":    join,
		"snake":   func(s string) string { return joinWords(s, "_") },
		"kebab":   func(s string) string { return joinWords(s, "-") },
		"camel":   camel,
	}
}

// replace takes the subject last so it reads naturally in a pipeline:
// {{ .name | replace "-" "_" }}.
func replace(old, new, s string) string {
	return strings.ReplaceAll(s, old, new)
}

func title(s string) string {
	rs := []rune(s)
	start := true
	for i, r := range rs {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if start {
				rs[i] = unicode.ToUpper(r)
			}
			start = false
		} else {
			start = true
		}
	}
	return string(rs)
}

// defaultValue returns def when val is empty. Templates run with
// missingkey=error, so a key absent from the context fails before default
// sees it; read such keys with get: {{ get . "x" | default "y" }}.
func defaultValue(def, val any) any {
	if val == nil {
		return def
	}
	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array, reflect.String:
		if v.Len() == 0 {
			return def
		}
		return val
	}
	if v.IsZero() {
		return def
	}
	return val
}

// get looks up a dotted key path in ctx and returns nil when any segment is
// missing instead of failing the render.
func get(ctx any, path string) any {
	cur := ctx
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		if cur, ok = m[seg]; !ok {
			return nil
		}
	}
	return cur
}

func join(sep string, items any) (string, error) {
	switch v := items.(type) {
	case []string:
		return strings.Join(v, sep), nil
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, sep), nil
	case string:
		return v, nil
	default:
		return "", fmt.Errorf("join: cannot join %T", items)
	}
}

func camel(s string) string {
	ws := words(s)
	for i, w := range ws {
		w = strings.ToLower(w)
		if i > 0 {
			rs := []rune(w)
			rs[0] = unicode.ToUpper(rs[0])
			w = string(rs)
		}
		ws[i] = w
	}
	return strings.Join(ws, "")
}

func joinWords(s, sep string) string {
	ws := words(s)
	for i, w := range ws {
		ws[i] = strings.ToLower(w)
	}
	return strings.Join(ws, sep)
}

// words splits an identifier-like string on punctuation, spaces and case
// changes: "HTTPServer-name" becomes [HTTP Server name].
func words(s string) []string {
	var out []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			out = append(out, string(cur))
			cur = cur[:0]
		}
	}

	rs := []rune(s)
	for i, r := range rs {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case unicode.IsUpper(r) && len(cur) > 0:
			prev := rs[i-1]
			nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || nextLower {
				flush()
			}
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()
	return out
}
