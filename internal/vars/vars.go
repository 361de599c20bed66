// Package vars builds the render context: context files are decoded and
// deep-merged in order, then key=value overrides are applied on top.
package vars

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"gopkg.in/yaml.v3"
)

// Build loads each context file in order, merges them and applies the
// overrides. Later files win over earlier ones; overrides win over files.
func Build(files []string, overrides []string) (map[string]any, error) {
	ctx := map[string]any{}
	for _, f := range files {
		m, err := LoadFile(f)
		if err != nil {
			return nil, err
		}
		ctx = Merge(ctx, m)
	}
	if err := Apply(ctx, overrides); err != nil {
		return nil, err
	}
	return ctx, nil
}

// LoadFile decodes a JSON, YAML or TOML file into a map, choosing the format
// by extension.
func LoadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading context file: %w", err)
	}

	var m map[string]any
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		m, err = decodeJSONMap(data)
	case ".yaml", ".yml":
		m, err = decodeYAMLMap(data)
	case ".toml":
		m, err = decodeTOMLMap(data)
	default:
		return nil, fmt.Errorf("context file %s: unsupported format %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("context file %s: %w", path, err)
	}
	return m, nil
}

// Merge returns base with overlay merged in. Nested maps are merged key by
// key; any other value in overlay replaces the one in base. Neither input is
// modified.
func Merge(base, overlay map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v
	}

	for k, ov := range overlay {
		if bv, ok := merged[k]; ok {
			bm, bok := bv.(map[string]any)
			om, ook := ov.(map[string]any)
			if bok && ook {
				merged[k] = Merge(bm, om)
				continue
			}
		}
		merged[k] = ov
	}

	return merged
}

// Apply sets each "key.path=value" assignment in ctx, creating intermediate
// maps as needed.
func Apply(ctx map[string]any, assignments []string) error {
	for _, a := range assignments {
		path, value, err := ParseAssignment(a)
		if err != nil {
			return err
		}
		if err := set(ctx, path, value); err != nil {
			return fmt.Errorf("applying %q: %w", a, err)
		}
	}
	return nil
}

// ParseAssignment splits "key.path=value" into its path and typed value.
// Values are decoded as booleans, integers, floats, or JSON arrays and
// objects when they look like one; anything else is a string.
func ParseAssignment(s string) ([]string, any, error) {
	key, raw, ok := strings.Cut(s, "=")
	if !ok {
		return nil, nil, fmt.Errorf("invalid assignment %q: expected key=value", s)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil, fmt.Errorf("invalid assignment %q: empty key", s)
	}
	path := strings.Split(key, ".")
	for _, seg := range path {
		if seg == "" {
			return nil, nil, fmt.Errorf("invalid assignment %q: empty path segment", s)
		}
	}
	return path, parseValue(raw), nil
}

func parseValue(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.Atoi(raw); err == nil {
		return i
	}
	// ParseFloat also accepts "inf", "nan", hex and underscores; keep those as text
	if strings.ContainsAny(raw, "0123456789") && !strings.ContainsAny(raw, "xXpP_iInN") {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	}
	if strings.HasPrefix(raw, "[") || strings.HasPrefix(raw, "{") {
		if v, err := oj.ParseString(raw); err == nil {
			return v
		}
	}
	return raw
}

// set stores value at path through a JSONPath built from the segments; jp
// creates any missing intermediate maps. A scalar sitting where a map is
// needed is dropped first so the path can be built through it.
func set(ctx map[string]any, path []string, value any) error {
	cur := ctx
	for _, seg := range path[:len(path)-1] {
		v, ok := cur[seg]
		if !ok {
			break
		}
		next, isMap := v.(map[string]any)
		if !isMap {
			delete(cur, seg)
			break
		}
		cur = next
	}

	x := jp.R()
	for _, seg := range path {
		x = x.C(seg)
	}
	return x.Set(ctx, value)
}

func decodeJSONMap(data []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return map[string]any{}, nil
	}

	var m map[string]any
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("expected JSON object")
	}
	return m, nil
}

func decodeYAMLMap(data []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return map[string]any{}, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(trimmed))
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("expected YAML object")
	}
	return m, nil
}

func decodeTOMLMap(data []byte) (map[string]any, error) {
	m := map[string]any{}
	if _, err := toml.Decode(string(data), &m); err != nil {
		return nil, fmt.Errorf("invalid TOML: %w", err)
	}
	return m, nil
}
