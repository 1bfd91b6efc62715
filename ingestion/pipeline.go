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

package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
)

// Chunking and embedding defaults.
const (
	DefaultChunkSize     = 1000
	DefaultChunkOverlap  = 200
	DefaultBatchSize     = 16
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = time.Second
)

// Pipeline orchestrates indexing of stored documents.
// A single Pipeline may index several documents concurrently; their
// embedding batches share one worker pool.
type Pipeline struct {
	files         storage.FileStore
	indexes       storage.IndexStore
	embedder      ai.Embedder
	loader        Loader
	embeddingPool *ants.Pool
	chunkSize     int
	chunkOverlap  int
	batchSize     int
	retryAttempts int
	retryDelay    time.Duration
	logger        *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if p.embeddingPool != nil {
			p.embeddingPool.Release()
		}
		p.embeddingPool = pool
		return nil
	}
}

// WithChunkSize sets the maximum chunk length in characters.
// Default is 1000.
func WithChunkSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("%w: chunk size %d", ErrInvalidChunking, size)
		}
		p.chunkSize = size
		return nil
	}
}

// WithChunkOverlap sets how many characters consecutive chunks share.
// Default is 200.
func WithChunkOverlap(overlap int) Option {
	return func(p *Pipeline) error {
		if overlap < 0 {
			return fmt.Errorf("%w: chunk overlap %d", ErrInvalidChunking, overlap)
		}
		p.chunkOverlap = overlap
		return nil
	}
}

// WithBatchSize sets how many chunks are sent to the embedder per request.
// Default is 16.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.batchSize = size
		return nil
	}
}

// WithRetry sets the embedding retry policy.
// Default is 3 attempts starting at a 1 second delay.
func WithRetry(attempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if attempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		p.retryAttempts = attempts
		p.retryDelay = baseDelay
		return nil
	}
}

// WithLoader replaces the PDF loader.
func WithLoader(loader Loader) Option {
	return func(p *Pipeline) error {
		if loader != nil {
			p.loader = loader
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	files storage.FileStore,
	indexes storage.IndexStore,
	provider ai.AIProvider,
	opts ...Option,
) (*Pipeline, error) {
	if files == nil {
		return nil, ErrFileStoreRequired
	}
	if indexes == nil {
		return nil, ErrIndexStoreRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		files:         files,
		indexes:       indexes,
		embedder:      provider.Embedder(),
		loader:        PDFLoader{},
		embeddingPool: pool,
		chunkSize:     DefaultChunkSize,
		chunkOverlap:  DefaultChunkOverlap,
		batchSize:     DefaultBatchSize,
		retryAttempts: DefaultRetryAttempts,
		retryDelay:    DefaultRetryDelay,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	if p.chunkOverlap >= p.chunkSize {
		p.Release()
		return nil, fmt.Errorf("%w: overlap %d must be smaller than size %d", ErrInvalidChunking, p.chunkOverlap, p.chunkSize)
	}
	p.logger = p.logger.With("component", "ingestion")
	return p, nil
}

// Index builds a fresh vector index for a document from its stored file.
// Any existing index for the document is replaced only after every chunk
// has been embedded.
func (p *Pipeline) Index(ctx context.Context, docID core.ID, path string) (core.Stats, error) {
	var stats core.Stats
	logger := p.logger.With("doc_id", int64(docID))
	start := time.Now()

	f, err := p.files.Open(path)
	if err != nil {
		return stats, err
	}
	defer f.Close()

	pages, err := p.loader.Load(ctx, f, f.Size())
	if err != nil {
		logger.Error("error loading document", "path", path, "err", err)
		return stats, fmt.Errorf("failed to load %s: %w", path, err)
	}
	stats.Pages = pageCount(pages)

	docs, err := p.split(pages)
	if err != nil {
		return stats, fmt.Errorf("failed to split document: %w", err)
	}
	if len(docs) == 0 {
		return stats, ErrNoContent
	}
	logger.Debug("split document", "pages", stats.Pages, "chunks", len(docs))

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.PageContent
	}

	proc, err := newEmbeddingProcessor(p.embedder, p.embeddingPool, p.batchSize, p.retryAttempts, p.retryDelay, logger)
	if err != nil {
		return stats, err
	}
	vectors, err := proc.process(ctx, texts)
	if err != nil {
		return stats, fmt.Errorf("failed to embed chunks: %w", err)
	}

	chunks := make([]*core.Chunk, len(docs))
	for i, doc := range docs {
		chunks[i] = &core.Chunk{
			Seq:     i,
			Page:    storage.IntMetadata(doc.Metadata, MetadataPage),
			Content: doc.PageContent,
			Vector:  vectors[i],
		}
	}

	if err := p.indexes.Build(ctx, docID, chunks...); err != nil {
		return stats, fmt.Errorf("failed to write index: %w", err)
	}
	stats.Chunks = len(chunks)

	logger.Info("indexed document", "pages", stats.Pages, "chunks", stats.Chunks, "elapsed", time.Since(start))
	return stats, nil
}

// split breaks pages into overlapping chunks, dropping blank ones.
func (p *Pipeline) split(pages []schema.Document) ([]schema.Document, error) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(p.chunkSize),
		textsplitter.WithChunkOverlap(p.chunkOverlap),
	)
	docs, err := textsplitter.SplitDocuments(splitter, pages)
	if err != nil {
		return nil, err
	}

	kept := docs[:0]
	for _, doc := range docs {
		if strings.TrimSpace(doc.PageContent) == "" {
			continue
		}
		kept = append(kept, doc)
	}
	return kept, nil
}

// pageCount prefers the loader's page total, which includes pages without text.
func pageCount(pages []schema.Document) int {
	if len(pages) == 0 {
		return 0
	}
	if total := storage.IntMetadata(pages[0].Metadata, MetadataTotalPages); total > 0 {
		return total
	}
	return len(pages)
}

// Release releases resources including worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.embeddingPool != nil {
		p.embeddingPool.Release()
	}
}
