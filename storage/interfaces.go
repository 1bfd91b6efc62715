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

package storage

import (
	"context"
	"io"

	"github.com/poiesic/docqa/core"
	"github.com/tmc/langchaingo/vectorstores"
)

// Catalog records uploaded documents.
// Implementations must be thread-safe and support concurrent access.
type Catalog interface {
	// AddDocument inserts a document and assigns its ID.
	// Sets CreatedAt if not already set.
	// Returns the document with ID and CreatedAt populated.
	AddDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// UpdateDocument rewrites the path and statistics of an existing document.
	// Returns ErrNotFound if the document doesn't exist.
	UpdateDocument(ctx context.Context, doc *core.Document) error

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// ListDocuments returns every document ordered by ID.
	ListDocuments(ctx context.Context) ([]*core.Document, error)

	// DeleteDocument removes a document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	DeleteDocument(ctx context.Context, id core.ID) error

	// Close releases the underlying database.
	Close() error
}

// FileStore keeps the original uploaded files.
type FileStore interface {
	// Save writes the contents of r under a name derived from the document ID
	// and file name. Returns the stored path and number of bytes written.
	Save(id core.ID, filename string, r io.Reader) (path string, size int64, err error)

	// Open opens a previously stored file for reading.
	// Returns ErrFileNotFound if the file is missing.
	Open(path string) (File, error)

	// Remove deletes a stored file. Removing a missing file is not an error.
	Remove(path string) error
}

// File is a stored file opened for random access, as PDF parsing requires.
type File interface {
	io.ReaderAt
	io.Closer
	Size() int64
}

// Index is a single document's vector index.
// It satisfies langchaingo's vectorstores.VectorStore so it can back retrievers.
type Index interface {
	vectorstores.VectorStore

	// AddChunks stores chunks that already carry embeddings.
	AddChunks(ctx context.Context, chunks ...*core.Chunk) error

	// Chunks returns every stored chunk ordered by sequence.
	Chunks(ctx context.Context) ([]*core.Chunk, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)
}

// IndexStore manages the per-document index directories.
type IndexStore interface {
	// Create opens a fresh, empty index for a document, replacing any existing one.
	Create(ctx context.Context, id core.ID) (Index, error)

	// Open returns the existing index for a document.
	// Returns ErrIndexNotFound if none has been built.
	Open(ctx context.Context, id core.ID) (Index, error)

	// Build replaces a document's index with chunks in one step. Readers
	// never observe a partially written index. On failure no index is left.
	Build(ctx context.Context, id core.ID, chunks ...*core.Chunk) error

	// Snapshot copies a document's index into memory for querying. The
	// result is unaffected by later rebuilds or removal of the index.
	// Returns ErrIndexNotFound if none has been built.
	Snapshot(ctx context.Context, id core.ID) (vectorstores.VectorStore, error)

	// Exists reports whether a document has an index on disk.
	Exists(id core.ID) bool

	// Remove closes and deletes a document's index. Missing indexes are ignored.
	Remove(id core.ID) error

	// Close closes every open index.
	Close() error
}
