// SPDX-License-Identifier: MPL-2.0

// Package assetdb is the asset-database client: products, their versions and
// the representations (published files) of each version, stored in SQLite.
//
// Lookups that find nothing return a nil entity and a nil error; a missing
// previous publish is a normal state, not a failure.
package assetdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/pubcheck/pubcheck/internal/idgen"
)

// RootPlaceholder is replaced by the store's root in representation paths.
const RootPlaceholder = "{root}"

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id           TEXT PRIMARY KEY,
	project      TEXT NOT NULL,
	folder_id    TEXT NOT NULL,
	folder_path  TEXT NOT NULL DEFAULT '',
	name         TEXT NOT NULL,
	product_type TEXT NOT NULL DEFAULT '',
	UNIQUE (project, folder_id, name)
);
CREATE TABLE IF NOT EXISTS versions (
	id         TEXT PRIMARY KEY,
	product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	version    INTEGER NOT NULL,
	task       TEXT NOT NULL DEFAULT '',
	source     TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	UNIQUE (product_id, version)
);
CREATE TABLE IF NOT EXISTS representations (
	id            TEXT PRIMARY KEY,
	version_id    TEXT NOT NULL REFERENCES versions(id) ON DELETE CASCADE,
	name          TEXT NOT NULL,
	path_template TEXT NOT NULL,
	UNIQUE (version_id, name)
);
`

type (
	// Product is a named output of a folder, e.g. "modelMain".
	Product struct {
		ID          string `json:"id" yaml:"id" toml:"id"`
		Project     string `json:"project" yaml:"project" toml:"project"`
		FolderID    string `json:"folder_id" yaml:"folder_id" toml:"folder_id"`
		FolderPath  string `json:"folder_path" yaml:"folder_path" toml:"folder_path"`
		Name        string `json:"name" yaml:"name" toml:"name"`
		ProductType string `json:"product_type" yaml:"product_type" toml:"product_type"`
	}

	// Version is one publish of a product. Source is the workfile it was
	// published from.
	Version struct {
		ID        string    `json:"id" yaml:"id" toml:"id"`
		ProductID string    `json:"product_id" yaml:"product_id" toml:"product_id"`
		Version   int       `json:"version" yaml:"version" toml:"version"`
		Task      string    `json:"task" yaml:"task" toml:"task"`
		Source    string    `json:"source" yaml:"source" toml:"source"`
		CreatedAt time.Time `json:"created_at" yaml:"created_at" toml:"created_at"`
	}

	// Representation is a named published file of a version. Template may
	// contain RootPlaceholder.
	Representation struct {
		ID        string `json:"id" yaml:"id" toml:"id"`
		VersionID string `json:"version_id" yaml:"version_id" toml:"version_id"`
		Name      string `json:"name" yaml:"name" toml:"name"`
		Template  string `json:"template" yaml:"template" toml:"template"`
	}

	// Store is a SQLite-backed asset database.
	Store struct {
		db    *sql.DB
		root  string
		newID idgen.Generator
		now   func() time.Time
	}

	// Option configures a Store.
	Option func(*Store)
)

// WithRoot sets the directory substituted for RootPlaceholder.
func WithRoot(root string) Option { return func(s *Store) { s.root = root } }

// WithIDGenerator sets the generator for new row ids. Default: UUIDv7.
func WithIDGenerator(gen idgen.Generator) Option { return func(s *Store) { s.newID = gen } }

// WithClock sets the clock used for version timestamps.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for a throwaway database.
func Open(path string, opts ...Option) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("assetdb: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("assetdb: open: %w", err)
	}
	if path == ":memory:" {
		// Every connection to ":memory:" is a separate database.
		db.SetMaxOpenConns(1)
	}

	for _, p := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("assetdb: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("assetdb: schema: %w", err)
	}

	s := &Store{db: db, newID: idgen.UUIDv7(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Root returns the directory substituted for RootPlaceholder.
func (s *Store) Root() string { return s.root }

// LastVersionByProductName returns the highest version of the named product
// in the folder, or nil when the product has never been published.
func (s *Store) LastVersionByProductName(ctx context.Context, project, product, folderID string) (*Version, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT v.id, v.product_id, v.version, v.task, v.source, v.created_at
		FROM versions v JOIN products p ON p.id = v.product_id
		WHERE p.project = ? AND p.name = ? AND p.folder_id = ?
		ORDER BY v.version DESC LIMIT 1`, project, product, folderID)
	v, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last version of %s: %w", product, err)
	}
	return v, nil
}

// RepresentationByName returns the named representation of a version, or nil.
func (s *Store) RepresentationByName(ctx context.Context, project, name, versionID string) (*Representation, error) {
	var r Representation
	err := s.db.QueryRowContext(ctx, `
		SELECT r.id, r.version_id, r.name, r.path_template
		FROM representations r
		JOIN versions v ON v.id = r.version_id
		JOIN products p ON p.id = v.product_id
		WHERE p.project = ? AND r.name = ? AND r.version_id = ?`, project, name, versionID).
		Scan(&r.ID, &r.VersionID, &r.Name, &r.Template)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("representation %s of version %s: %w", name, versionID, err)
	}
	return &r, nil
}

// RepresentationPath resolves a representation's template to a file path.
func (s *Store) RepresentationPath(r *Representation) string {
	if r == nil {
		return ""
	}
	return filepath.FromSlash(strings.ReplaceAll(r.Template, RootPlaceholder, filepath.ToSlash(s.root)))
}

// Products returns the products of a project matching the product names of
// each folder id.
func (s *Store) Products(ctx context.Context, project string, namesByFolder map[string][]string) ([]Product, error) {
	var out []Product
	for folderID, names := range namesByFolder {
		for _, name := range names {
			var p Product
			err := s.db.QueryRowContext(ctx, `
				SELECT id, project, folder_id, folder_path, name, product_type
				FROM products WHERE project = ? AND folder_id = ? AND name = ?`, project, folderID, name).
				Scan(&p.ID, &p.Project, &p.FolderID, &p.FolderPath, &p.Name, &p.ProductType)
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("product %s: %w", name, err)
			}
			out = append(out, p)
		}
	}
	return out, nil
}

// LastVersions returns the last version of each product id that has one.
func (s *Store) LastVersions(ctx context.Context, project string, productIDs []string) (map[string]Version, error) {
	out := make(map[string]Version, len(productIDs))
	for _, id := range productIDs {
		row := s.db.QueryRowContext(ctx, `
			SELECT v.id, v.product_id, v.version, v.task, v.source, v.created_at
			FROM versions v JOIN products p ON p.id = v.product_id
			WHERE p.project = ? AND v.product_id = ?
			ORDER BY v.version DESC LIMIT 1`, project, id)
		v, err := scanVersion(row)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("last version of product %s: %w", id, err)
		}
		out[id] = *v
	}
	return out, nil
}

func scanVersion(row *sql.Row) (*Version, error) {
	var (
		v       Version
		created string
	)
	if err := row.Scan(&v.ID, &v.ProductID, &v.Version, &v.Task, &v.Source, &created); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	v.CreatedAt = t
	return &v, nil
}
