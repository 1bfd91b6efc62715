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

package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
	"github.com/tmc/langchaingo/vectorstores"
)

// manifestFile is written by BadgerDB when a database directory is initialized.
const manifestFile = "MANIFEST"

// IndexStore implements storage.IndexStore with one BadgerDB directory per
// document under a root directory.
//
// Open indexes are cached and shared: BadgerDB holds an exclusive directory
// lock, so each document's database is opened at most once per process.
type IndexStore struct {
	root     string
	embedder ai.Embedder
	logger   *slog.Logger

	mu     sync.Mutex
	open   map[core.ID]*Index
	closed bool
}

var _ storage.IndexStore = (*IndexStore)(nil)

// NewIndexStore creates an index store rooted at dir.
// The embedder is used to embed queries during similarity search.
func NewIndexStore(dir string, embedder ai.Embedder) (*IndexStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &IndexStore{
		root:     dir,
		embedder: embedder,
		logger:   slog.Default().With("component", "index-store"),
		open:     make(map[core.ID]*Index),
	}, nil
}

// Path returns the directory holding a document's index.
func (s *IndexStore) Path(id core.ID) string {
	return filepath.Join(s.root, id.String())
}

// Exists reports whether a document has an initialized index directory.
func (s *IndexStore) Exists(id core.ID) bool {
	_, err := os.Stat(filepath.Join(s.Path(id), manifestFile))
	return err == nil
}

// Create opens a fresh index for a document, discarding any existing one.
func (s *IndexStore) Create(ctx context.Context, id core.ID) (storage.Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, storage.ErrStorageClosed
	}
	if err := s.removeLocked(id); err != nil {
		return nil, err
	}
	idx, err := s.openLocked(id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("created index", "doc_id", int64(id), "path", s.Path(id))
	return idx, nil
}

// Open returns the shared index for a document. The handle is closed by
// Create, Build and Remove; queries that may race with those use Snapshot.
// Returns storage.ErrIndexNotFound if no index has been built.
func (s *IndexStore) Open(ctx context.Context, id core.ID) (storage.Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, storage.ErrStorageClosed
	}
	if idx, ok := s.open[id]; ok {
		return idx, nil
	}
	if !s.Exists(id) {
		return nil, fmt.Errorf("%w for doc_id %d", storage.ErrIndexNotFound, id)
	}
	return s.openLocked(id)
}

// Build replaces a document's index with chunks while holding the store lock,
// so snapshots see either the old index or the complete new one.
func (s *IndexStore) Build(ctx context.Context, id core.ID, chunks ...*core.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrStorageClosed
	}
	if err := s.removeLocked(id); err != nil {
		return err
	}
	idx, err := s.openLocked(id)
	if err != nil {
		return err
	}
	if err := idx.AddChunks(ctx, chunks...); err != nil {
		if rmErr := s.removeLocked(id); rmErr != nil {
			s.logger.Warn("error removing partial index", "doc_id", int64(id), "err", rmErr)
		}
		return err
	}
	s.logger.Info("built index", "doc_id", int64(id), "chunks", len(chunks))
	return nil
}

// Snapshot reads a document's chunks into memory while holding the store
// lock. Queries against the snapshot never touch the on-disk index.
func (s *IndexStore) Snapshot(ctx context.Context, id core.ID) (vectorstores.VectorStore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, storage.ErrStorageClosed
	}
	idx, ok := s.open[id]
	if !ok {
		if !s.Exists(id) {
			return nil, fmt.Errorf("%w for doc_id %d", storage.ErrIndexNotFound, id)
		}
		var err error
		if idx, err = s.openLocked(id); err != nil {
			return nil, err
		}
	}
	chunks, err := idx.Chunks(ctx)
	if err != nil {
		return nil, err
	}
	return newSnapshot(id, chunks, s.embedder), nil
}

// Remove closes and deletes a document's index directory.
func (s *IndexStore) Remove(id core.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(id)
}

// Close closes every open index. The store cannot be used afterwards.
func (s *IndexStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for id, idx := range s.open {
		if err := idx.Close(); err != nil {
			s.logger.Error("error closing index", "doc_id", int64(id), "err", err)
			errs = append(errs, err)
		}
		delete(s.open, id)
	}
	s.closed = true
	return errors.Join(errs...)
}

func (s *IndexStore) openLocked(id core.ID) (*Index, error) {
	backend, err := OpenBackend(s.Path(id), false)
	if err != nil {
		return nil, err
	}
	idx, err := newIndex(id, backend, s.embedder)
	if err != nil {
		backend.Close()
		return nil, err
	}
	s.open[id] = idx
	return idx, nil
}

func (s *IndexStore) removeLocked(id core.ID) error {
	if idx, ok := s.open[id]; ok {
		delete(s.open, id)
		if err := idx.Close(); err != nil {
			s.logger.Warn("error closing index before removal", "doc_id", int64(id), "err", err)
		}
	}
	if err := os.RemoveAll(s.Path(id)); err != nil {
		return err
	}
	return nil
}
