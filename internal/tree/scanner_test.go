package tree

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memTree(t *testing.T, files ...string) billy.Filesystem {
	t.Helper()
	fsys := memfs.New()
	for _, f := range files {
		if f[len(f)-1] == '/' {
			require.NoError(t, fsys.MkdirAll(f, 0o755))
			continue
		}
		require.NoError(t, util.WriteFile(fsys, f, []byte("x"), 0o644))
	}
	return fsys
}

// deniedFS fails ReadDir for one directory with a permission error.
type deniedFS struct {
	billy.Filesystem
	deny string
}

func (d deniedFS) ReadDir(path string) ([]os.FileInfo, error) {
	if filepath.Clean(path) == d.deny {
		return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrPermission}
	}
	return d.Filesystem.ReadDir(path)
}

func names(n *Node) []string {
	out := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		out = append(out, c.Name)
	}
	return out
}

func TestScanBuildsSortedTree(t *testing.T) {
	fsys := memTree(t,
		"/tpl/zeta.txt",
		"/tpl/alpha/one.tmpl",
		"/tpl/alpha/nested/two.tmpl",
		"/tpl/beta.md",
		"/tpl/empty/",
	)

	res, err := Scan(context.Background(), "/tpl", WithFilesystem(fsys))
	require.NoError(t, err)
	require.NotNil(t, res.Root)
	assert.Empty(t, res.Warnings)

	root := res.Root
	assert.Equal(t, "tpl", root.Name)
	assert.True(t, root.IsDir())
	assert.Equal(t, []string{"alpha", "beta.md", "empty", "zeta.txt"}, names(root))

	alpha := root.Lookup(Path{"alpha"})
	require.NotNil(t, alpha)
	assert.Equal(t, []string{"nested", "one.tmpl"}, names(alpha))

	two := root.Lookup(Path{"alpha", "nested", "two.tmpl"})
	require.NotNil(t, two)
	assert.True(t, two.IsFile())

	empty := root.Lookup(Path{"empty"})
	require.NotNil(t, empty)
	assert.True(t, empty.IsDir())
	assert.Empty(t, empty.Children)

	files, dirs := root.Count()
	assert.Equal(t, 4, files)
	assert.Equal(t, 4, dirs)
}

func TestScanIsIdempotent(t *testing.T) {
	fsys := memTree(t, "/tpl/a/b.txt", "/tpl/c.txt")

	first, err := Scan(context.Background(), "/tpl", WithFilesystem(fsys))
	require.NoError(t, err)
	second, err := Scan(context.Background(), "/tpl", WithFilesystem(fsys))
	require.NoError(t, err)

	assert.Equal(t, first.Root, second.Root)
}

func TestScanRootErrors(t *testing.T) {
	fsys := memTree(t, "/tpl/file.txt")

	_, err := Scan(context.Background(), "/missing", WithFilesystem(fsys))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	var scanErr *ScanError
	require.ErrorAs(t, err, &scanErr)
	assert.Equal(t, NotFound, scanErr.Kind)
	assert.Equal(t, "/missing", scanErr.Path)

	_, err = Scan(context.Background(), "/tpl/file.txt", WithFilesystem(fsys))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotADirectory))
}

func TestScanRootPermissionDeniedIsFatal(t *testing.T) {
	fsys := deniedFS{Filesystem: memTree(t, "/tpl/a.txt"), deny: "/tpl"}

	_, err := Scan(context.Background(), "/tpl", WithFilesystem(fsys))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPermissionDenied))
}

func TestScanSkipsUnreadableChild(t *testing.T) {
	fsys := deniedFS{
		Filesystem: memTree(t, "/tpl/ok/a.txt", "/tpl/secret/b.txt", "/tpl/c.txt"),
		deny:       "/tpl/secret",
	}

	res, err := Scan(context.Background(), "/tpl", WithFilesystem(fsys))
	require.NoError(t, err)

	assert.Equal(t, []string{"c.txt", "ok"}, names(res.Root))
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, PermissionDenied, res.Warnings[0].Kind)
	assert.Equal(t, "/tpl/secret", res.Warnings[0].Path)
	assert.True(t, errors.Is(res.Warnings[0], ErrPermissionDenied))
}

func TestScanExcludes(t *testing.T) {
	fsys := memTree(t, "/tpl/.git/config", "/tpl/src/main.go.tmpl", "/tpl/src/.DS_Store")

	res, err := Scan(context.Background(), "/tpl",
		WithFilesystem(fsys),
		WithExcludes([]string{".git/", ".DS_Store"}),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"src"}, names(res.Root))
	assert.Equal(t, []string{"main.go.tmpl"}, names(res.Root.Lookup(Path{"src"})))
}

func TestScanCancelled(t *testing.T) {
	fsys := memTree(t, "/tpl/a/b.txt")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Scan(ctx, "/tpl", WithFilesystem(fsys))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanDoesNotFollowSymlinkedDirs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "real"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "real", "f.txt"), []byte("x"), 0o644))
	// a link back to the root would recurse forever if followed
	if err := os.Symlink(dir, filepath.Join(dir, "real", "loop")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	res, err := Scan(context.Background(), dir)
	require.NoError(t, err)

	loop := res.Root.Lookup(Path{"real", "loop"})
	require.NotNil(t, loop)
	assert.True(t, loop.IsFile())
	assert.Equal(t, filepath.Base(dir), res.Root.Name)
}
