package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collector gathers every reported path.
type collector struct {
	mu    sync.Mutex
	paths map[string]bool
	calls int
}

func (c *collector) add(paths []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	for _, p := range paths {
		c.paths[p] = true
	}
}

func (c *collector) has(p string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paths[p]
}

func startWatcher(t *testing.T, root string) *collector {
	t.Helper()
	w, err := New(root, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	c := &collector{paths: map[string]bool{}}
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx, c.add)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		w.Close()
	})
	return c
}

func TestWatcher_ReportsChanges(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	c := startWatcher(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.tmpl"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.tmpl"), []byte("b"), 0o644))

	assert.Eventually(t, func() bool {
		return c.has("a.tmpl") && c.has("sub/b.tmpl")
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatcher_FollowsNewDirectories(t *testing.T) {
	root := t.TempDir()
	c := startWatcher(t, root)

	dir := filepath.Join(root, "new")
	require.NoError(t, os.Mkdir(dir, 0o755))
	require.Eventually(t, func() bool { return c.has("new") }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.tmpl"), []byte("c"), 0o644))
	assert.Eventually(t, func() bool { return c.has("new/c.tmpl") }, 5*time.Second, 10*time.Millisecond)
}

func TestWatcher_IgnoresExcluded(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	c := startWatcher(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "HEAD"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "file.swp"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "keep.tmpl"), []byte("x"), 0o644))

	require.Eventually(t, func() bool { return c.has("keep.tmpl") }, 5*time.Second, 10*time.Millisecond)
	assert.False(t, c.has(".git/HEAD"))
	assert.False(t, c.has("file.swp"))
}

func TestNew_MissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"))

	assert.Error(t, err)
}
