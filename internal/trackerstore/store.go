// Package trackerstore persists tracker query results in SQLite so later
// processes start with a warm mirror and survive tracker outages.
package trackerstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS mirror_sets (
    kind        TEXT NOT NULL,
    key         TEXT NOT NULL,
    fetched_at  TEXT NOT NULL,
    PRIMARY KEY (kind, key)
);
CREATE TABLE IF NOT EXISTS mirror_paths (
    kind  TEXT NOT NULL,
    key   TEXT NOT NULL,
    path  TEXT NOT NULL,
    PRIMARY KEY (kind, key, path)
);
CREATE INDEX IF NOT EXISTS idx_mirror_paths_set ON mirror_paths (kind, key);
`

// Store is the persistent mirror of tracker results. A sidecar flock keeps
// it single-writer across processes.
type Store struct {
	db   *sql.DB
	lock *flock.Flock
	path string
}

// Open initializes or connects to the mirror database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create mirror directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire mirror lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("mirror %s is locked by another process", path)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open mirror db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("apply mirror schema: %w", err)
	}

	return &Store{db: db, lock: lock, path: path}, nil
}

// Close releases the database and the sidecar lock.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	if unlockErr := s.lock.Unlock(); err == nil {
		err = unlockErr
	}
	return err
}

// Replace overwrites the mirrored set for (kind, key). An empty paths slice
// records a legitimately empty result, distinct from never-fetched.
func (s *Store) Replace(ctx context.Context, kind, key string, paths []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin mirror tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM mirror_paths WHERE kind = ? AND key = ?`, kind, key); err != nil {
		return fmt.Errorf("clear mirror set: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO mirror_sets (kind, key, fetched_at) VALUES (?, ?, ?)
         ON CONFLICT (kind, key) DO UPDATE SET fetched_at = excluded.fetched_at`,
		kind, key, now); err != nil {
		return fmt.Errorf("record mirror set: %w", err)
	}
	for _, p := range paths {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO mirror_paths (kind, key, path) VALUES (?, ?, ?)`,
			kind, key, p); err != nil {
			return fmt.Errorf("insert mirror path: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit mirror tx: %w", err)
	}
	return nil
}

// List returns the mirrored set for (kind, key). found is false when the
// set was never fetched.
func (s *Store) List(ctx context.Context, kind, key string) ([]string, bool, error) {
	var fetchedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT fetched_at FROM mirror_sets WHERE kind = ? AND key = ?`, kind, key).Scan(&fetchedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query mirror set: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT path FROM mirror_paths WHERE kind = ? AND key = ? ORDER BY path`, kind, key)
	if err != nil {
		return nil, false, fmt.Errorf("query mirror paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, false, fmt.Errorf("scan mirror path: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate mirror paths: %w", err)
	}
	return paths, true, nil
}

// FetchedAt returns when the set for (kind, key) was last replaced.
func (s *Store) FetchedAt(ctx context.Context, kind, key string) (time.Time, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT fetched_at FROM mirror_sets WHERE kind = ? AND key = ?`, kind, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("query mirror set: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse fetched_at: %w", err)
	}
	return ts, true, nil
}

// KindSummary describes the mirrored sets of one kind.
type KindSummary struct {
	Kind        string
	Sets        int
	Paths       int
	LastFetched time.Time
}

// Summary reports per-kind set and path counts, ordered by kind.
func (s *Store) Summary(ctx context.Context) ([]KindSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT s.kind,
               COUNT(DISTINCT s.key),
               (SELECT COUNT(*) FROM mirror_paths p WHERE p.kind = s.kind),
               MAX(s.fetched_at)
        FROM mirror_sets s
        GROUP BY s.kind
        ORDER BY s.kind`)
	if err != nil {
		return nil, fmt.Errorf("query mirror summary: %w", err)
	}
	defer rows.Close()

	var out []KindSummary
	for rows.Next() {
		var ks KindSummary
		var last string
		if err := rows.Scan(&ks.Kind, &ks.Sets, &ks.Paths, &last); err != nil {
			return nil, fmt.Errorf("scan mirror summary: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, last); err == nil {
			ks.LastFetched = ts
		}
		out = append(out, ks)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mirror summary: %w", err)
	}
	return out, nil
}

// Clear drops every mirrored set.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM mirror_paths`); err != nil {
		return fmt.Errorf("clear mirror paths: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM mirror_sets`); err != nil {
		return fmt.Errorf("clear mirror sets: %w", err)
	}
	return nil
}

// DeleteUnder drops every mirrored set whose key is the given path or
// nested under it. Backs cascading invalidation of the persistent layer.
func (s *Store) DeleteUnder(ctx context.Context, pathPrefix string) error {
	like := pathPrefix + "/%"
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM mirror_paths WHERE key = ? OR key LIKE ?`, pathPrefix, like); err != nil {
		return fmt.Errorf("delete mirror paths: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM mirror_sets WHERE key = ? OR key LIKE ?`, pathPrefix, like); err != nil {
		return fmt.Errorf("delete mirror sets: %w", err)
	}
	return nil
}
