package state

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore is an opt-in backend for very large spaces where the
// single-JSON-file store becomes unwieldy: one row per PageState keyed by
// relative path, plus a single-row meta table for the space/root binding.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if necessary) a SQLite-backed store at
// path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("state: open sqlite database: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS meta (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			space_key TEXT NOT NULL,
			root_page_id TEXT NOT NULL,
			last_sync TEXT NOT NULL DEFAULT ''
		);
		CREATE TABLE IF NOT EXISTS pages (
			path TEXT PRIMARY KEY,
			confluence_id TEXT NOT NULL,
			title TEXT NOT NULL,
			parent_id TEXT NOT NULL DEFAULT '',
			version INTEGER NOT NULL,
			content_hash TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("state: migrate sqlite schema: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context, spaceKey, rootPageID string) (SyncState, error) {
	row := s.db.QueryRowContext(ctx, `SELECT space_key, root_page_id, last_sync FROM meta WHERE id = 1`)
	var storedSpace, storedRoot, lastSync string
	if err := row.Scan(&storedSpace, &storedRoot, &lastSync); err != nil {
		return Empty(spaceKey, rootPageID), nil
	}
	if storedSpace != spaceKey {
		return Empty(spaceKey, rootPageID), nil
	}

	st := SyncState{
		SpaceKey:   storedSpace,
		RootPageID: storedRoot,
		LastSync:   lastSync,
		Pages:      map[string]PageState{},
	}

	rows, err := s.db.QueryContext(ctx, `SELECT path, confluence_id, title, parent_id, version, content_hash FROM pages`)
	if err != nil {
		return Empty(spaceKey, rootPageID), nil
	}
	defer rows.Close()
	for rows.Next() {
		var p PageState
		if err := rows.Scan(&p.Path, &p.ConfluenceID, &p.Title, &p.ParentID, &p.Version, &p.ContentHash); err != nil {
			return Empty(spaceKey, rootPageID), nil
		}
		st.Pages[p.Path] = p
	}
	return st, nil
}

// Save implements Store, replacing the meta row and the full page set
// inside a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, st SyncState) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("state: begin sqlite transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO meta (id, space_key, root_page_id, last_sync) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET space_key = excluded.space_key, root_page_id = excluded.root_page_id, last_sync = excluded.last_sync
	`, st.SpaceKey, st.RootPageID, st.LastSync); err != nil {
		return fmt.Errorf("state: upsert meta row: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM pages`); err != nil {
		return fmt.Errorf("state: clear pages table: %w", err)
	}
	for _, p := range st.Pages {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO pages (path, confluence_id, title, parent_id, version, content_hash) VALUES (?, ?, ?, ?, ?, ?)
		`, p.Path, p.ConfluenceID, p.Title, p.ParentID, p.Version, p.ContentHash); err != nil {
			return fmt.Errorf("state: insert page %s: %w", p.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("state: commit sqlite transaction: %w", err)
	}
	return nil
}

// Reset implements Store, dropping every stored row.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM meta; DELETE FROM pages;`); err != nil {
		return fmt.Errorf("state: reset sqlite store: %w", err)
	}
	return nil
}
