// Package state persists explorer state per template root in SQLite, so an
// explorer reopened on the same root restores its expanded directories and
// selection.
package state

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/natefinch/atomic"

	"github.com/tormodhaugland/stencil/internal/explorer"
	"github.com/tormodhaugland/stencil/internal/tree"
)

// Store wraps the state database.
type Store struct {
	conn *sql.DB
	path string
	now  func() time.Time
}

// Project is one remembered template root.
type Project struct {
	Root     string    `json:"root"`
	OpenedAt time.Time `json:"opened_at"`
}

// Open opens or creates the state database at the given path
func Open(dbPath string) (*Store, error) {
	// Ensure parent directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent access
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{conn: conn, path: dbPath, now: time.Now}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.conn.Close()
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

func (s *Store) migrate() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	var currentVersion int
	row := s.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1},
	}

	for _, m := range migrations {
		if m.version > currentVersion {
			if _, err := s.conn.Exec(m.sql); err != nil {
				return fmt.Errorf("migration v%d: %w", m.version, err)
			}
			if _, err := s.conn.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
				return fmt.Errorf("recording migration v%d: %w", m.version, err)
			}
		}
	}
	return nil
}

// migrationV1 creates the initial schema. Paths are stored by tree.Path key;
// the root directory is the empty key.
const migrationV1 = `
CREATE TABLE IF NOT EXISTS projects (
    root_path TEXT PRIMARY KEY,
    selected TEXT,
    opened_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_projects_opened ON projects(opened_at);

CREATE TABLE IF NOT EXISTS expanded (
    root_path TEXT NOT NULL REFERENCES projects(root_path) ON DELETE CASCADE,
    path TEXT NOT NULL,
    PRIMARY KEY (root_path, path)
);
`

// Save replaces the stored state of st.Root and marks it as most recently
// opened.
func (s *Store) Save(ctx context.Context, st explorer.State) error {
	if st.Root == "" {
		return errors.New("state has no root")
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var selected sql.NullString
	if st.Selected != nil {
		selected = sql.NullString{String: tree.Path(st.Selected).Key(), Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO projects (root_path, selected, opened_at) VALUES (?, ?, ?)
		ON CONFLICT(root_path) DO UPDATE SET selected = excluded.selected, opened_at = excluded.opened_at
	`, st.Root, selected, s.now().UnixNano())
	if err != nil {
		return fmt.Errorf("saving project: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM expanded WHERE root_path = ?", st.Root); err != nil {
		return fmt.Errorf("clearing expanded paths: %w", err)
	}
	for _, p := range st.Expanded {
		if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO expanded (root_path, path) VALUES (?, ?)", st.Root, tree.Path(p).Key()); err != nil {
			return fmt.Errorf("saving expanded path: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing state: %w", err)
	}
	return nil
}

// Load returns the stored state of root. The boolean is false when nothing
// is stored.
func (s *Store) Load(ctx context.Context, root string) (explorer.State, bool, error) {
	st := explorer.State{Root: root, Expanded: [][]string{}}

	var selected sql.NullString
	err := s.conn.QueryRowContext(ctx, "SELECT selected FROM projects WHERE root_path = ?", root).Scan(&selected)
	if errors.Is(err, sql.ErrNoRows) {
		return st, false, nil
	}
	if err != nil {
		return st, false, fmt.Errorf("loading project: %w", err)
	}
	if selected.Valid {
		st.Selected = []string(tree.ParsePath(selected.String))
	}

	rows, err := s.conn.QueryContext(ctx, "SELECT path FROM expanded WHERE root_path = ? ORDER BY path", root)
	if err != nil {
		return st, false, fmt.Errorf("loading expanded paths: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return st, false, fmt.Errorf("scanning expanded path: %w", err)
		}
		st.Expanded = append(st.Expanded, []string(tree.ParsePath(key)))
	}
	if err := rows.Err(); err != nil {
		return st, false, fmt.Errorf("loading expanded paths: %w", err)
	}
	return st, true, nil
}

// Recent lists remembered roots, most recently opened first. A limit of zero
// or less returns all of them.
func (s *Store) Recent(ctx context.Context, limit int) ([]Project, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.conn.QueryContext(ctx,
		"SELECT root_path, opened_at FROM projects ORDER BY opened_at DESC, root_path LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		var p Project
		var nanos int64
		if err := rows.Scan(&p.Root, &nanos); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		p.OpenedAt = time.Unix(0, nanos)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Forget removes the stored state of root.
func (s *Store) Forget(ctx context.Context, root string) error {
	if _, err := s.conn.ExecContext(ctx, "DELETE FROM projects WHERE root_path = ?", root); err != nil {
		return fmt.Errorf("forgetting project: %w", err)
	}
	return nil
}

// Export writes every stored state as a JSON array to path, replacing it
// atomically.
func (s *Store) Export(ctx context.Context, path string) error {
	projects, err := s.Recent(ctx, 0)
	if err != nil {
		return err
	}
	states := make([]explorer.State, 0, len(projects))
	for _, p := range projects {
		st, _, err := s.Load(ctx, p.Root)
		if err != nil {
			return err
		}
		states = append(states, st)
	}

	data, err := json.MarshalIndent(states, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding states: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	return nil
}
