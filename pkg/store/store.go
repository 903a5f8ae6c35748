// Package store persists piping documents in SQLite. Feature properties,
// placements and base path edges are stored as msgpack blobs; containers
// keep their children through their link properties.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"

	"github.com/chazu/pypeline/pkg/doc"
	"github.com/chazu/pypeline/pkg/feature"
	"github.com/chazu/pypeline/pkg/geom"
	"github.com/chazu/pypeline/pkg/kernel"
	"github.com/chazu/pypeline/pkg/pipeline"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

var ErrNotFound = errors.New("store: document not found")

// Summary describes a stored document.
type Summary struct {
	Name      string `json:"name"`
	Features  int    `json:"features"`
	Paths     int    `json:"paths"`
	UpdatedAt string `json:"updated_at"`
}

// Store is a SQLite-backed document store.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("store: create data dir: %w", err)
		}
	}
	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS documents (
			name       TEXT PRIMARY KEY,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS features (
			doc       TEXT NOT NULL REFERENCES documents(name) ON DELETE CASCADE,
			id        TEXT NOT NULL,
			ordinal   INTEGER NOT NULL,
			label     TEXT NOT NULL,
			ptype     TEXT NOT NULL,
			props     BLOB NOT NULL,
			placement BLOB NOT NULL,
			PRIMARY KEY (doc, id)
		);

		CREATE INDEX IF NOT EXISTS idx_features_doc ON features(doc, ordinal);

		CREATE TABLE IF NOT EXISTS paths (
			doc   TEXT NOT NULL REFERENCES documents(name) ON DELETE CASCADE,
			name  TEXT NOT NULL,
			edges BLOB NOT NULL,
			PRIMARY KEY (doc, name)
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save writes d under d.Name, replacing any earlier version.
func (s *Store) Save(ctx context.Context, d *doc.Document) error {
	if d.Name == "" {
		return fmt.Errorf("store: document has no name")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.DateTime)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents (name, updated_at) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET updated_at = excluded.updated_at`, d.Name, now); err != nil {
		return fmt.Errorf("store: save document: %w", err)
	}
	for _, table := range []string{"features", "paths"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE doc = ?", d.Name); err != nil {
			return fmt.Errorf("store: clear %s: %w", table, err)
		}
	}

	for i, f := range d.Features() {
		b := f.Base()
		props, err := msgpack.Marshal(feature.Snapshot(f))
		if err != nil {
			return fmt.Errorf("store: encode %s: %w", b.Label, err)
		}
		pl, err := msgpack.Marshal(b.Placement)
		if err != nil {
			return fmt.Errorf("store: encode %s placement: %w", b.Label, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO features (doc, id, ordinal, label, ptype, props, placement) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			d.Name, string(b.ID), i, b.Label, b.PType, props, pl); err != nil {
			return fmt.Errorf("store: save %s: %w", b.Label, err)
		}
	}

	for _, p := range d.Paths() {
		edges, err := msgpack.Marshal(p.Specs())
		if err != nil {
			return fmt.Errorf("store: encode path %s: %w", p.Name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO paths (doc, name, edges) VALUES (?, ?, ?)`, d.Name, p.Name, edges); err != nil {
			return fmt.Errorf("store: save path %s: %w", p.Name, err)
		}
	}
	return tx.Commit()
}

// Load rebuilds the named document on kernel k. Every feature is left
// touched; call Recompute to rebuild shapes.
func (s *Store) Load(ctx context.Context, name string, k kernel.Kernel) (*doc.Document, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE name = ?`, name).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("store: load %s: %w", name, err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	d := doc.New(name, k)
	if err := s.loadPaths(ctx, d); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ptype, props, placement FROM features WHERE doc = ? ORDER BY ordinal`, name)
	if err != nil {
		return nil, fmt.Errorf("store: load %s: %w", name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, ptype     string
			props, placed []byte
		)
		if err := rows.Scan(&id, &ptype, &props, &placed); err != nil {
			return nil, fmt.Errorf("store: scan feature: %w", err)
		}
		f, err := pipeline.New(ptype)
		if err != nil {
			return nil, fmt.Errorf("store: feature %s: %w", id, err)
		}
		var vals []feature.Value
		if err := msgpack.Unmarshal(props, &vals); err != nil {
			return nil, fmt.Errorf("store: decode feature %s: %w", id, err)
		}
		if err := feature.Restore(f, vals); err != nil {
			return nil, fmt.Errorf("store: feature %s: %w", id, err)
		}
		b := f.Base()
		if err := msgpack.Unmarshal(placed, &b.Placement); err != nil {
			return nil, fmt.Errorf("store: decode placement %s: %w", id, err)
		}
		b.ID = feature.ID(id)
		b.Touch()
		d.Add(f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: load %s: %w", name, err)
	}
	return d, nil
}

func (s *Store) loadPaths(ctx context.Context, d *doc.Document) error {
	rows, err := s.db.QueryContext(ctx, `SELECT name, edges FROM paths WHERE doc = ? ORDER BY name`, d.Name)
	if err != nil {
		return fmt.Errorf("store: load paths: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			name string
			blob []byte
		)
		if err := rows.Scan(&name, &blob); err != nil {
			return fmt.Errorf("store: scan path: %w", err)
		}
		var specs []geom.EdgeSpec
		if err := msgpack.Unmarshal(blob, &specs); err != nil {
			return fmt.Errorf("store: decode path %s: %w", name, err)
		}
		p, err := geom.PathFromSpecs(name, specs)
		if err != nil {
			return fmt.Errorf("store: path %s: %w", name, err)
		}
		if err := d.AddPath(p); err != nil {
			return err
		}
	}
	return rows.Err()
}

// List returns every stored document, most recently saved first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.name, d.updated_at,
			(SELECT COUNT(*) FROM features f WHERE f.doc = d.name),
			(SELECT COUNT(*) FROM paths p WHERE p.doc = d.name)
		FROM documents d
		ORDER BY d.updated_at DESC, d.name`)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.Name, &sum.UpdatedAt, &sum.Features, &sum.Paths); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Delete removes the named document with its features and paths.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}
