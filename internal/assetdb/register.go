// SPDX-License-Identifier: MPL-2.0

package assetdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"
)

// Publish describes a new version to register.
type Publish struct {
	Project     string
	FolderID    string
	FolderPath  string
	Product     string
	ProductType string
	Task        string
	Source      string
	// Representations maps representation names to path templates.
	Representations map[string]string
}

// RegisterVersion records a new version of a product, creating the product
// on first publish. The version number is one past the current last version.
func (s *Store) RegisterVersion(ctx context.Context, p Publish) (*Version, error) {
	if p.Project == "" || p.FolderID == "" || p.Product == "" {
		return nil, errors.New("register version: project, folder id and product are required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("register version: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var productID string
	err = tx.QueryRowContext(ctx, `SELECT id FROM products WHERE project = ? AND folder_id = ? AND name = ?`,
		p.Project, p.FolderID, p.Product).Scan(&productID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		productID = s.newID()
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO products (id, project, folder_id, folder_path, name, product_type)
			VALUES (?, ?, ?, ?, ?, ?)`,
			productID, p.Project, p.FolderID, p.FolderPath, p.Product, p.ProductType); err != nil {
			return nil, fmt.Errorf("register version: insert product: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("register version: lookup product: %w", err)
	}

	var last int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM versions WHERE product_id = ?`,
		productID).Scan(&last); err != nil {
		return nil, fmt.Errorf("register version: last version: %w", err)
	}

	v := &Version{
		ID:        s.newID(),
		ProductID: productID,
		Version:   last + 1,
		Task:      p.Task,
		Source:    p.Source,
		CreatedAt: s.now().UTC(),
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO versions (id, product_id, version, task, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		v.ID, v.ProductID, v.Version, v.Task, v.Source, v.CreatedAt.Format(time.RFC3339Nano)); err != nil {
		return nil, fmt.Errorf("register version: insert version: %w", err)
	}

	for _, name := range slices.Sorted(maps.Keys(p.Representations)) {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO representations (id, version_id, name, path_template) VALUES (?, ?, ?, ?)`,
			s.newID(), v.ID, name, p.Representations[name]); err != nil {
			return nil, fmt.Errorf("register version: insert representation %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("register version: commit: %w", err)
	}
	return v, nil
}
