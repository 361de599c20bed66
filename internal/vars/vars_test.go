package vars

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile_Formats(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"ctx.json", `{"name": "demo", "owner": {"login": "ada"}}`},
		{"ctx.yaml", "name: demo\nowner:\n  login: ada\n"},
		{"ctx.yml", "name: demo\nowner:\n  login: ada\n"},
		{"ctx.toml", "name = \"demo\"\n[owner]\nlogin = \"ada\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := LoadFile(writeFile(t, dir, tt.name, tt.content))
			require.NoError(t, err)
			assert.Equal(t, "demo", m["name"])
			owner, ok := m["owner"].(map[string]any)
			require.True(t, ok, "owner should decode as a nested map")
			assert.Equal(t, "ada", owner["login"])
		})
	}
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(writeFile(t, dir, "ctx.ini", "a=b"))
	assert.ErrorContains(t, err, "unsupported format")

	_, err = LoadFile(writeFile(t, dir, "bad.json", "{"))
	assert.ErrorContains(t, err, "invalid JSON")

	_, err = LoadFile(writeFile(t, dir, "list.yaml", "- a\n- b\n"))
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestLoadFile_Empty(t *testing.T) {
	m, err := LoadFile(writeFile(t, t.TempDir(), "empty.yaml", "  \n"))

	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestMerge(t *testing.T) {
	base := map[string]any{
		"name": "base",
		"db":   map[string]any{"host": "localhost", "port": 5432},
		"tags": []any{"a"},
	}
	overlay := map[string]any{
		"db":   map[string]any{"port": 6543},
		"tags": []any{"b"},
	}

	merged := Merge(base, overlay)

	assert.Equal(t, map[string]any{
		"name": "base",
		"db":   map[string]any{"host": "localhost", "port": 6543},
		"tags": []any{"b"},
	}, merged)
	// inputs are untouched
	assert.Equal(t, 5432, base["db"].(map[string]any)["port"])
}

func TestParseAssignment(t *testing.T) {
	tests := []struct {
		in       string
		wantPath []string
		want     any
	}{
		{"name=demo", []string{"name"}, "demo"},
		{"a.b.c=x=y", []string{"a", "b", "c"}, "x=y"},
		{"debug=true", []string{"debug"}, true},
		{"port=8080", []string{"port"}, 8080},
		{"ratio=0.5", []string{"ratio"}, 0.5},
		{"mode=nan", []string{"mode"}, "nan"},
		{"id=0x1F", []string{"id"}, "0x1F"},
		{"tags=[\"a\",\"b\"]", []string{"tags"}, []any{"a", "b"}},
		{"empty=", []string{"empty"}, ""},
	}

	for _, tt := range tests {
		path, value, err := ParseAssignment(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.wantPath, path, tt.in)
		assert.Equal(t, tt.want, value, tt.in)
	}
}

func TestParseAssignment_Invalid(t *testing.T) {
	for _, in := range []string{"novalue", "=x", "a..b=1", ".a=1"} {
		_, _, err := ParseAssignment(in)
		assert.Error(t, err, in)
	}
}

func TestApply(t *testing.T) {
	ctx := map[string]any{
		"owner": map[string]any{"login": "ada", "id": 1},
		"name":  "scalar",
	}

	err := Apply(ctx, []string{"owner.login=grace", "name.first=G", "new.deep.key=1"})

	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"owner": map[string]any{"login": "grace", "id": 1},
		"name":  map[string]any{"first": "G"},
		"new":   map[string]any{"deep": map[string]any{"key": 1}},
	}, ctx)
}

func TestApply_BuildsMissingAndScalarPaths(t *testing.T) {
	ctx := map[string]any{
		"a": map[string]any{"b": "scalar", "keep": true},
	}

	err := Apply(ctx, []string{"a.b.c.d=x", "x.y.z=2.5"})

	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"a": map[string]any{
			"b":    map[string]any{"c": map[string]any{"d": "x"}},
			"keep": true,
		},
		"x": map[string]any{"y": map[string]any{"z": 2.5}},
	}, ctx)
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "a.yaml", "name: one\nlicense: MIT\n")
	second := writeFile(t, dir, "b.json", `{"name": "two"}`)

	ctx, err := Build([]string{first, second}, []string{"year=2026"})

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "two", "license": "MIT", "year": 2026}, ctx)
}
