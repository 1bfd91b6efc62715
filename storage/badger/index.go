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
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

// Metadata keys set on documents returned by SimilaritySearch.
const (
	MetadataDocumentID = "doc_id"
	MetadataPage       = "page"
	MetadataSeq        = "seq"
	MetadataChunkID    = "chunk_id"
)

// Index implements storage.Index for one document's BadgerDB directory.
type Index struct {
	docID    core.ID
	backend  *Backend
	embedder ai.Embedder
	logger   *slog.Logger

	mu      sync.Mutex // guards nextSeq
	nextSeq int
}

var _ storage.Index = (*Index)(nil)

// newIndex wraps an open backend, resuming sequence numbering after any stored chunks.
func newIndex(docID core.ID, backend *Backend, embedder ai.Embedder) (*Index, error) {
	idx := &Index{
		docID:    docID,
		backend:  backend,
		embedder: embedder,
		logger:   slog.Default().With("component", "vector-index", "doc_id", int64(docID)),
	}
	last, err := idx.lastSeq()
	if err != nil {
		return nil, err
	}
	idx.nextSeq = last + 1
	return idx, nil
}

// DocumentID returns the document this index belongs to.
func (idx *Index) DocumentID() core.ID {
	return idx.docID
}

// AddChunks stores chunks that already carry embeddings.
func (idx *Index) AddChunks(ctx context.Context, chunks ...*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if idx.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	wb := idx.backend.NewWriteBatch()
	defer wb.Cancel()

	maxSeq := -1
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(chunk.Vector) == 0 {
			return fmt.Errorf("chunk %d has no embedding", chunk.Seq)
		}
		chunk.DocumentID = idx.docID
		if chunk.Id == 0 {
			chunk.Id = core.NewChunkID(idx.docID, chunk.Seq, chunk.Content)
		}
		if err := wb.Set(makeChunkKey(chunk.Seq), storage.MarshalChunk(chunk)); err != nil {
			return err
		}
		maxSeq = max(maxSeq, chunk.Seq)
	}
	if err := wb.Flush(); err != nil {
		return err
	}

	idx.mu.Lock()
	idx.nextSeq = max(idx.nextSeq, maxSeq+1)
	idx.mu.Unlock()

	idx.logger.Debug("stored chunks", "count", len(chunks))
	return nil
}

// AddDocuments embeds and stores langchaingo documents, appending them after
// existing chunks. Returns the chunk IDs in input order.
func (idx *Index) AddDocuments(ctx context.Context, docs []schema.Document, options ...vectorstores.Option) ([]string, error) {
	opts := applyOptions(options)

	kept := make([]schema.Document, 0, len(docs))
	for _, doc := range docs {
		if opts.Deduplicater != nil && opts.Deduplicater(ctx, doc) {
			continue
		}
		kept = append(kept, doc)
	}
	if len(kept) == 0 {
		return []string{}, nil
	}

	texts := make([]string, len(kept))
	for i, doc := range kept {
		texts[i] = doc.PageContent
	}
	vectors, err := idx.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(kept) {
		return nil, fmt.Errorf("embedding result mismatch. expected %d, received %d", len(kept), len(vectors))
	}

	idx.mu.Lock()
	start := idx.nextSeq
	idx.nextSeq += len(kept)
	idx.mu.Unlock()

	chunks := make([]*core.Chunk, len(kept))
	ids := make([]string, len(kept))
	for i, doc := range kept {
		seq := start + i
		chunks[i] = &core.Chunk{
			Id:      core.NewChunkID(idx.docID, seq, doc.PageContent),
			Seq:     seq,
			Page:    storage.IntMetadata(doc.Metadata, MetadataPage),
			Content: doc.PageContent,
			Vector:  vectors[i],
		}
		ids[i] = strconv.FormatUint(uint64(chunks[i].Id), 10)
	}

	if err := idx.AddChunks(ctx, chunks...); err != nil {
		return nil, err
	}
	return ids, nil
}

// SimilaritySearch returns the chunks most similar to query by cosine similarity.
// Results are ordered by score (highest first) and honor vectorstores.WithScoreThreshold.
func (idx *Index) SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]schema.Document, error) {
	opts := applyOptions(options)

	chunks, err := idx.Chunks(ctx)
	if err != nil {
		return nil, err
	}
	vector, err := idx.embedder.EmbedText(ctx, query)
	if err != nil {
		idx.logger.Error("error generating embedding for query", "err", err)
		return nil, err
	}
	return rank(vector, chunks, numDocuments, opts.ScoreThreshold), nil
}

// rank scores chunks against vector and returns the best numDocuments as
// langchaingo documents. A non-positive numDocuments keeps every match.
func rank(vector []float32, chunks []*core.Chunk, numDocuments int, threshold float32) []schema.Document {
	type scored struct {
		chunk *core.Chunk
		score float32
	}
	var results []scored
	for _, chunk := range chunks {
		if len(chunk.Vector) == 0 {
			continue
		}
		score := cosineSimilarity(vector, chunk.Vector)
		if threshold > 0 && score < threshold {
			continue
		}
		results = append(results, scored{chunk: chunk, score: score})
	}

	// Sort by similarity descending, document order breaks ties
	slices.SortStableFunc(results, func(a, b scored) int {
		if a.score > b.score {
			return -1
		}
		if a.score < b.score {
			return 1
		}
		return 0
	})

	if numDocuments > 0 && len(results) > numDocuments {
		results = results[:numDocuments]
	}

	docs := make([]schema.Document, len(results))
	for i, r := range results {
		docs[i] = schema.Document{
			PageContent: r.chunk.Content,
			Metadata: map[string]any{
				MetadataDocumentID: int64(r.chunk.DocumentID),
				MetadataPage:       r.chunk.Page,
				MetadataSeq:        r.chunk.Seq,
				MetadataChunkID:    strconv.FormatUint(uint64(r.chunk.Id), 10),
			},
			Score: r.score,
		}
	}
	return docs
}

// Chunks returns every stored chunk ordered by sequence.
func (idx *Index) Chunks(ctx context.Context) ([]*core.Chunk, error) {
	var chunks []*core.Chunk
	err := idx.forEach(ctx, func(chunk *core.Chunk) error {
		chunks = append(chunks, chunk)
		return nil
	})
	return chunks, err
}

// Count returns the number of stored chunks.
func (idx *Index) Count(ctx context.Context) (int, error) {
	if idx.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}
	count := 0
	err := idx.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// Close closes the underlying backend.
func (idx *Index) Close() error {
	if idx.backend.IsClosed() {
		return nil
	}
	return idx.backend.Close()
}

// forEach decodes every chunk in sequence order.
func (idx *Index) forEach(ctx context.Context, fn func(chunk *core.Chunk) error) error {
	if idx.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return idx.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if err := fn(chunk); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// lastSeq returns the highest stored sequence number, or -1 when empty.
func (idx *Index) lastSeq() (int, error) {
	last := -1
	err := idx.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix)
		opts.PrefetchValues = false
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Reverse iteration must seek past the end of the prefix range.
		iter.Seek(append([]byte(chunkPrefix), 0xFF))
		if !iter.ValidForPrefix([]byte(chunkPrefix)) {
			return nil
		}
		var chunk *core.Chunk
		err := iter.Item().Value(func(val []byte) error {
			var err error
			chunk, err = storage.UnmarshalChunk(val)
			return err
		})
		if err != nil {
			return err
		}
		last = chunk.Seq
		return nil
	}, false)
	return last, err
}

func applyOptions(options []vectorstores.Option) vectorstores.Options {
	opts := vectorstores.Options{}
	for _, opt := range options {
		opt(&opts)
	}
	return opts
}

// cosineSimilarity returns the cosine of the angle between a and b.
// Vectors of different length are compared over their common prefix.
func cosineSimilarity(a, b []float32) float32 {
	n := min(len(a), len(b))
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
