package doctor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tormodhaugland/stencil/internal/state"
)

type fakeStore struct {
	roots  []string
	forgot []string
	err    error
}

func (s *fakeStore) Recent(_ context.Context, _ int) ([]state.Project, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]state.Project, len(s.roots))
	for i, r := range s.roots {
		out[i] = state.Project{Root: r}
	}
	return out, nil
}

func (s *fakeStore) Forget(_ context.Context, root string) error {
	s.forgot = append(s.forgot, root)
	return nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestExamine(t *testing.T) {
	tmpDir := t.TempDir()

	healthy := filepath.Join(tmpDir, "healthy")
	writeFile(t, filepath.Join(healthy, "README.md.tmpl"), "# {{name}}\n")

	broken := filepath.Join(tmpDir, "broken")
	writeFile(t, filepath.Join(broken, "bad.tmpl"), "{{if}}")

	empty := filepath.Join(tmpDir, "empty")
	writeFile(t, filepath.Join(empty, "notes.txt"), "plain")

	missing := filepath.Join(tmpDir, "gone")

	file := filepath.Join(tmpDir, "file")
	writeFile(t, file, "x")

	store := &fakeStore{roots: []string{healthy, broken, empty, missing, file}}
	findings, err := Examine(context.Background(), store)
	if err != nil {
		t.Fatalf("Examine error: %v", err)
	}

	want := map[string]FindingKind{
		broken:  BrokenTemplates,
		empty:   NoTemplates,
		missing: MissingRoot,
		file:    MissingRoot,
	}
	if len(findings) != len(want) {
		t.Fatalf("expected %d findings, got %d: %+v", len(want), len(findings), findings)
	}
	for _, f := range findings {
		kind, ok := want[f.Root]
		if !ok {
			t.Fatalf("unexpected finding for %s", f.Root)
		}
		if f.Kind != kind {
			t.Errorf("%s: expected %s, got %s", f.Root, kind, f.Kind)
		}
		if f.Detail == "" {
			t.Errorf("%s: expected a detail", f.Root)
		}
	}
}

func TestExamineStoreError(t *testing.T) {
	store := &fakeStore{err: errors.New("db locked")}
	if _, err := Examine(context.Background(), store); err == nil {
		t.Fatal("expected error from store")
	}
}

func TestPruneForgetsOnlyMissing(t *testing.T) {
	store := &fakeStore{}
	findings := []Finding{
		{Root: "/a", Kind: MissingRoot},
		{Root: "/b", Kind: BrokenTemplates},
		{Root: "/c", Kind: NoTemplates},
		{Root: "/d", Kind: MissingRoot},
	}

	removed, err := Prune(context.Background(), store, findings)
	if err != nil {
		t.Fatalf("Prune error: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if len(store.forgot) != 2 || store.forgot[0] != "/a" || store.forgot[1] != "/d" {
		t.Fatalf("unexpected forgotten roots: %v", store.forgot)
	}
}

func TestFindingKindString(t *testing.T) {
	cases := map[FindingKind]string{
		MissingRoot:     "missing",
		BrokenTemplates: "broken",
		NoTemplates:     "empty",
		FindingKind(42): "unknown",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("FindingKind(%d).String() = %q, want %q", int(kind), got, want)
		}
	}
}
