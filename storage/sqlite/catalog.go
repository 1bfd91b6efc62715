// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	filename TEXT NOT NULL,
	filepath TEXT NOT NULL,
	size_bytes INTEGER,
	pages INTEGER,
	chunks INTEGER,
	created_at DATETIME
);
`

const documentColumns = "id, filename, filepath, size_bytes, pages, chunks, created_at"

// Catalog implements storage.Catalog on a SQLite database.
type Catalog struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

var _ storage.Catalog = (*Catalog)(nil)

// NewCatalog creates or opens the catalog database at path.
// Pass MemoryPath for a throwaway database.
func NewCatalog(path string) (*Catalog, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// In-memory databases are private to a connection.
	db.SetMaxOpenConns(1)

	c := &Catalog{
		db:     db,
		path:   path,
		logger: slog.Default().With("component", "catalog"),
	}
	if err := c.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return c, nil
}

// Path returns the database file path.
func (c *Catalog) Path() string {
	return c.path
}

func (c *Catalog) initSchema() error {
	_, err := c.db.Exec(schema)
	return err
}

// AddDocument inserts a document and assigns its ID.
func (c *Catalog) AddDocument(ctx context.Context, doc *core.Document) (*core.Document, error) {
	added := *doc
	if added.CreatedAt.IsZero() {
		added.CreatedAt = time.Now().UTC()
	}

	res, err := c.db.ExecContext(ctx,
		`INSERT INTO documents (filename, filepath, size_bytes, pages, chunks, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		added.Filename, added.Path, added.SizeBytes, added.Pages, added.Chunks, added.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read document id: %w", err)
	}
	added.ID = core.ID(id)

	c.logger.Debug("added document", "doc_id", id, "filename", added.Filename)
	return &added, nil
}

// UpdateDocument rewrites the path and statistics of an existing document.
func (c *Catalog) UpdateDocument(ctx context.Context, doc *core.Document) error {
	res, err := c.db.ExecContext(ctx,
		`UPDATE documents SET filepath = ?, size_bytes = ?, pages = ?, chunks = ? WHERE id = ?`,
		doc.Path, doc.SizeBytes, doc.Pages, doc.Chunks, int64(doc.ID))
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	return expectOneRow(res, doc.ID)
}

// GetDocument retrieves a single document by ID.
func (c *Catalog) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	row := c.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE id = ?", int64(id))
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: document %d", storage.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return doc, nil
}

// ListDocuments returns every document ordered by ID.
func (c *Catalog) ListDocuments(ctx context.Context) ([]*core.Document, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT "+documentColumns+" FROM documents ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	docs := []*core.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to read document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// DeleteDocument removes a document by ID.
func (c *Catalog) DeleteDocument(ctx context.Context, id core.ID) error {
	res, err := c.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", int64(id))
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if err := expectOneRow(res, id); err != nil {
		return err
	}
	c.logger.Debug("deleted document", "doc_id", int64(id))
	return nil
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*core.Document, error) {
	var (
		doc                 core.Document
		id                  int64
		size, pages, chunks sql.NullInt64
		createdAt           sql.NullTime
	)
	if err := s.Scan(&id, &doc.Filename, &doc.Path, &size, &pages, &chunks, &createdAt); err != nil {
		return nil, err
	}
	doc.ID = core.ID(id)
	doc.SizeBytes = size.Int64
	doc.Pages = int(pages.Int64)
	doc.Chunks = int(chunks.Int64)
	if createdAt.Valid {
		doc.CreatedAt = createdAt.Time.UTC()
	}
	return &doc, nil
}

func expectOneRow(res sql.Result, id core.ID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: document %d", storage.ErrNotFound, id)
	}
	return nil
}
