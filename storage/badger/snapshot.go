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
	"log/slog"

	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

// Snapshot is an in-memory copy of a document's index taken at one point in
// time. It keeps answering queries after the index it was read from is
// rebuilt, removed or closed.
type Snapshot struct {
	docID    core.ID
	chunks   []*core.Chunk
	embedder ai.Embedder
	logger   *slog.Logger
}

var _ vectorstores.VectorStore = (*Snapshot)(nil)

func newSnapshot(docID core.ID, chunks []*core.Chunk, embedder ai.Embedder) *Snapshot {
	return &Snapshot{
		docID:    docID,
		chunks:   chunks,
		embedder: embedder,
		logger:   slog.Default().With("component", "vector-snapshot", "doc_id", int64(docID)),
	}
}

// Len returns the number of chunks in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.chunks)
}

// AddDocuments always fails; snapshots are read-only.
func (s *Snapshot) AddDocuments(ctx context.Context, docs []schema.Document, options ...vectorstores.Option) ([]string, error) {
	return nil, storage.ErrReadOnly
}

// SimilaritySearch ranks the snapshot's chunks against query by cosine similarity.
func (s *Snapshot) SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]schema.Document, error) {
	opts := applyOptions(options)

	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "err", err)
		return nil, err
	}
	return rank(vector, s.chunks, numDocuments, opts.ScoreThreshold), nil
}
