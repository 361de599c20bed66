package explorer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tormodhaugland/stencil/internal/tree"
)

// fixture:
//
//	project/
//	  README.md
//	  src/
//	    lib/
//	      util.go.tmpl
//	    main.go.tmpl
func fixture() *tree.Node {
	return tree.NewDir("project",
		tree.NewFile("README.md"),
		tree.NewDir("src",
			tree.NewDir("lib", tree.NewFile("util.go.tmpl")),
			tree.NewFile("main.go.tmpl"),
		),
	)
}

func keys(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Path.String()
	}
	return out
}

func p(key string) tree.Path { return tree.ParsePath(key) }

func TestReplaceTree_ShowsRootAndDirectChildren(t *testing.T) {
	e := New(tree.NewDir("empty"))
	e.ReplaceTree(fixture())

	got := e.VisibleSlice()
	assert.Equal(t, []string{"/", "README.md", "src"}, keys(got))
	assert.Equal(t, 0, got[0].Depth)
	assert.Equal(t, 1, got[1].Depth)
	assert.Equal(t, []tree.Path{{}}, e.Expanded())
}

func TestReplaceTree_ResetsExpansion(t *testing.T) {
	e := New(fixture())
	require.True(t, e.ToggleExpand(p("src")))

	e.ReplaceTree(fixture())

	assert.False(t, e.IsExpanded(p("src")))
	assert.True(t, e.IsExpanded(tree.Path{}))
}

func TestReplaceTree_SelectionKeptOnlyIfStillAFile(t *testing.T) {
	e := New(fixture())
	require.NoError(t, e.Select(p("src/main.go.tmpl")))

	e.ReplaceTree(fixture())
	sel, ok := e.Selected()
	require.True(t, ok)
	assert.Equal(t, p("src/main.go.tmpl"), sel)

	e.ReplaceTree(tree.NewDir("project", tree.NewFile("README.md")))
	_, ok = e.Selected()
	assert.False(t, ok)
}

func TestToggleExpand(t *testing.T) {
	e := New(fixture())

	assert.True(t, e.ToggleExpand(p("src")))
	assert.Equal(t,
		[]string{"/", "README.md", "src", "src/lib", "src/main.go.tmpl"},
		keys(e.VisibleSlice()))

	assert.True(t, e.ToggleExpand(p("src/lib")))
	got := e.VisibleSlice()
	assert.Equal(t,
		[]string{"/", "README.md", "src", "src/lib", "src/lib/util.go.tmpl", "src/main.go.tmpl"},
		keys(got))
	assert.Equal(t, 3, got[4].Depth)

	assert.True(t, e.ToggleExpand(p("src")))
	assert.Equal(t, []string{"/", "README.md", "src"}, keys(e.VisibleSlice()))
	// collapsing a parent keeps the child's own state
	assert.True(t, e.IsExpanded(p("src/lib")))
}

func TestToggleExpand_IgnoresFilesAndUnknownPaths(t *testing.T) {
	e := New(fixture())

	assert.False(t, e.ToggleExpand(p("README.md")))
	assert.False(t, e.ToggleExpand(p("nope")))
	assert.Equal(t, []tree.Path{{}}, e.Expanded())
}

func TestToggleExpand_CollapseRoot(t *testing.T) {
	e := New(fixture())
	require.True(t, e.ToggleExpand(tree.Path{}))

	assert.Equal(t, []string{"/"}, keys(e.VisibleSlice()))
}

func TestSelect(t *testing.T) {
	e := New(fixture())

	require.NoError(t, e.Select(p("README.md")))
	sel, ok := e.Selected()
	require.True(t, ok)
	assert.Equal(t, p("README.md"), sel)
}

func TestSelect_DirectoryIsRejected(t *testing.T) {
	e := New(fixture())
	require.NoError(t, e.Select(p("README.md")))

	err := e.Select(p("src"))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotAFile)
	var selErr *SelectionError
	require.ErrorAs(t, err, &selErr)
	assert.Equal(t, NotAFile, selErr.Kind)
	sel, _ := e.Selected()
	assert.Equal(t, p("README.md"), sel)
}

func TestSelect_UnknownPathIsRejected(t *testing.T) {
	e := New(fixture())

	err := e.Select(p("src/missing.tmpl"))

	assert.ErrorIs(t, err, ErrNotFound)
	_, ok := e.Selected()
	assert.False(t, ok)
}

func TestClearSelection(t *testing.T) {
	e := New(fixture())
	require.NoError(t, e.Select(p("README.md")))

	e.ClearSelection()

	_, ok := e.Selected()
	assert.False(t, ok)
}

func TestMerge_KeepsSurvivingState(t *testing.T) {
	e := New(fixture())
	require.True(t, e.ToggleExpand(p("src")))
	require.NoError(t, e.Select(p("src/main.go.tmpl")))

	// same paths plus a new file
	rescanned := tree.NewDir("project",
		tree.NewFile("README.md"),
		tree.NewFile("go.mod.tmpl"),
		tree.NewDir("src",
			tree.NewDir("lib", tree.NewFile("util.go.tmpl")),
			tree.NewFile("main.go.tmpl"),
		),
	)
	e.Merge(rescanned)

	assert.True(t, e.IsExpanded(p("src")))
	sel, ok := e.Selected()
	require.True(t, ok)
	assert.Equal(t, p("src/main.go.tmpl"), sel)
	assert.Equal(t,
		[]string{"/", "README.md", "go.mod.tmpl", "src", "src/lib", "src/main.go.tmpl"},
		keys(e.VisibleSlice()))
}

func TestMerge_PrunesRemovedSelection(t *testing.T) {
	e := New(fixture())
	require.NoError(t, e.Select(p("src/main.go.tmpl")))

	e.Merge(tree.NewDir("project",
		tree.NewFile("README.md"),
		tree.NewDir("src", tree.NewDir("lib", tree.NewFile("util.go.tmpl"))),
	))

	_, ok := e.Selected()
	assert.False(t, ok)
}

func TestMerge_DropsPathsThatChangedKind(t *testing.T) {
	e := New(fixture())
	require.True(t, e.ToggleExpand(p("src")))
	require.True(t, e.ToggleExpand(p("src/lib")))
	require.NoError(t, e.Select(p("README.md")))

	e.Merge(tree.NewDir("project",
		tree.NewDir("README.md", tree.NewFile("x")),
		tree.NewDir("src", tree.NewFile("lib")),
	))

	assert.Equal(t, []tree.Path{{}, p("src")}, e.Expanded())
	_, ok := e.Selected()
	assert.False(t, ok)
}

func TestMerge_RootStaysCollapsed(t *testing.T) {
	e := New(fixture())
	require.True(t, e.ToggleExpand(tree.Path{}))

	e.Merge(fixture())

	assert.False(t, e.IsExpanded(tree.Path{}))
}

func TestVisible_StopsEarly(t *testing.T) {
	e := New(fixture())
	require.True(t, e.ToggleExpand(p("src")))

	var seen []string
	for entry := range e.Visible() {
		seen = append(seen, entry.Path.String())
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"/", "README.md"}, seen)
}

func TestStateRoundTrip(t *testing.T) {
	e := New(fixture())
	require.True(t, e.ToggleExpand(p("src")))
	require.True(t, e.ToggleExpand(p("src/lib")))
	require.NoError(t, e.Select(p("src/lib/util.go.tmpl")))

	data, err := json.Marshal(e.State("/work/project"))
	require.NoError(t, err)

	var st State
	require.NoError(t, json.Unmarshal(data, &st))
	assert.Equal(t, "/work/project", st.Root)

	restored := New(fixture())
	restored.Restore(st)

	assert.Equal(t, e.Expanded(), restored.Expanded())
	assert.Equal(t, keys(e.VisibleSlice()), keys(restored.VisibleSlice()))
	sel, ok := restored.Selected()
	require.True(t, ok)
	assert.Equal(t, p("src/lib/util.go.tmpl"), sel)
}

func TestRestore_IgnoresStalePaths(t *testing.T) {
	e := New(fixture())

	e.Restore(State{
		Expanded: [][]string{{}, {"gone"}, {"README.md"}},
		Selected: []string{"src"},
	})

	assert.Equal(t, []tree.Path{{}}, e.Expanded())
	_, ok := e.Selected()
	assert.False(t, ok)
}
