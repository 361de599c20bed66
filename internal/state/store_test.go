package state

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tormodhaugland/stencil/internal/explorer"
	"github.com/tormodhaugland/stencil/internal/tree"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clock := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	e := explorer.New(tree.NewDir("proj",
		tree.NewDir("src", tree.NewDir("lib", tree.NewFile("a.go.tmpl"))),
		tree.NewFile("README.md"),
	))
	e.ToggleExpand(tree.Path{"src"})
	e.ToggleExpand(tree.Path{"src", "lib"})
	require.NoError(t, e.Select(tree.Path{"src", "lib", "a.go.tmpl"}))
	want := e.State("/work/proj")

	require.NoError(t, s.Save(ctx, want))
	got, ok, err := s.Load(ctx, "/work/proj")

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	restored := explorer.New(e.Root())
	restored.Restore(got)
	assert.Equal(t, e.Expanded(), restored.Expanded())
}

func TestSaveReplaces(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, explorer.State{
		Root:     "/p",
		Expanded: [][]string{{}, {"a"}, {"b"}},
		Selected: []string{"a", "x"},
	}))
	require.NoError(t, s.Save(ctx, explorer.State{
		Root:     "/p",
		Expanded: [][]string{{}},
	}))

	got, ok, err := s.Load(ctx, "/p")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, [][]string{{}}, got.Expanded)
	assert.Nil(t, got.Selected)
}

func TestLoadUnknown(t *testing.T) {
	s := openStore(t)

	_, ok, err := s.Load(context.Background(), "/never")

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveRequiresRoot(t *testing.T) {
	s := openStore(t)

	assert.Error(t, s.Save(context.Background(), explorer.State{}))
}

func TestRecentAndForget(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	for _, root := range []string{"/a", "/b", "/c"} {
		require.NoError(t, s.Save(ctx, explorer.State{Root: root, Expanded: [][]string{{}}}))
	}
	// reopening moves a root to the front
	require.NoError(t, s.Save(ctx, explorer.State{Root: "/a", Expanded: [][]string{{}}}))

	recent, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	var roots []string
	for _, p := range recent {
		roots = append(roots, p.Root)
	}
	assert.Equal(t, []string{"/a", "/c", "/b"}, roots)

	limited, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	require.NoError(t, s.Forget(ctx, "/c"))
	_, ok, err := s.Load(ctx, "/c")
	require.NoError(t, err)
	assert.False(t, ok)

	var count int
	require.NoError(t, s.conn.QueryRow("SELECT COUNT(*) FROM expanded WHERE root_path = ?", "/c").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), explorer.State{Root: "/p", Expanded: [][]string{{"x"}}}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, ok, err := s.Load(context.Background(), "/p")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, [][]string{{"x"}}, got.Expanded)
}

func TestExport(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, explorer.State{Root: "/one", Expanded: [][]string{{}}}))
	require.NoError(t, s.Save(ctx, explorer.State{Root: "/two", Expanded: [][]string{{}}, Selected: []string{"f"}}))
	out := filepath.Join(t.TempDir(), "states.json")

	require.NoError(t, s.Export(ctx, out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var states []explorer.State
	require.NoError(t, json.Unmarshal(data, &states))
	require.Len(t, states, 2)
	assert.Equal(t, "/two", states[0].Root)
	assert.Equal(t, []string{"f"}, states[0].Selected)
}
