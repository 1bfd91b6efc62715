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

package docqa

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/ingestion"
	"github.com/poiesic/docqa/qa"
	"github.com/poiesic/docqa/storage"
	"github.com/poiesic/docqa/storage/badger"
	"github.com/poiesic/docqa/storage/files"
	"github.com/poiesic/docqa/storage/sqlite"
)

// Paths locates the service's on-disk state.
type Paths struct {
	Database string // SQLite catalog file
	Files    string // Directory of uploaded PDFs
	Indexes  string // Directory holding one index directory per document
}

// DefaultPaths returns the standard layout under dir.
func DefaultPaths(dir string) Paths {
	return Paths{
		Database: filepath.Join(dir, "documents.db"),
		Files:    filepath.Join(dir, "files"),
		Indexes:  filepath.Join(dir, "vectorstore"),
	}
}

// Service coordinates uploads, indexing and question answering.
// It is safe for concurrent use.
type Service struct {
	catalog  storage.Catalog
	files    storage.FileStore
	indexes  storage.IndexStore
	pipeline *ingestion.Pipeline
	answerer *qa.Answerer
	provider ai.AIProvider
	logger   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	aiConfig      *ai.Config
	provider      ai.AIProvider
	ingestionOpts []ingestion.Option
	qaOpts        []qa.Option
	logger        *slog.Logger
}

// WithAIConfig sets the model configuration used to create the AI provider.
func WithAIConfig(config *ai.Config) ServiceOption {
	return func(o *serviceOptions) {
		o.aiConfig = config
	}
}

// WithProvider supplies a ready AI provider, bypassing WithAIConfig.
// The service takes ownership and closes it on Close.
func WithProvider(provider ai.AIProvider) ServiceOption {
	return func(o *serviceOptions) {
		o.provider = provider
	}
}

// WithIngestionOptions passes options to the ingestion pipeline.
func WithIngestionOptions(opts ...ingestion.Option) ServiceOption {
	return func(o *serviceOptions) {
		o.ingestionOpts = append(o.ingestionOpts, opts...)
	}
}

// WithQAOptions passes options to the answerer.
func WithQAOptions(opts ...qa.Option) ServiceOption {
	return func(o *serviceOptions) {
		o.qaOpts = append(o.qaOpts, opts...)
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// NewService opens or creates the catalog, file store and index store at paths.
func NewService(paths Paths, opts ...ServiceOption) (*Service, error) {
	options := &serviceOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	provider := options.provider
	if provider == nil {
		var err error
		provider, err = NewProvider(options.aiConfig)
		if err != nil {
			return nil, err
		}
	}

	catalog, err := sqlite.NewCatalog(paths.Database)
	if err != nil {
		provider.Close()
		return nil, err
	}

	fileStore, err := files.NewStore(paths.Files)
	if err != nil {
		catalog.Close()
		provider.Close()
		return nil, err
	}

	indexes, err := badger.NewIndexStore(paths.Indexes, provider.Embedder())
	if err != nil {
		catalog.Close()
		provider.Close()
		return nil, err
	}

	ingestionOpts := append([]ingestion.Option{ingestion.WithLogger(options.logger)}, options.ingestionOpts...)
	pipeline, err := ingestion.NewPipeline(fileStore, indexes, provider, ingestionOpts...)
	if err != nil {
		indexes.Close()
		catalog.Close()
		provider.Close()
		return nil, err
	}

	qaOpts := append([]qa.Option{qa.WithLogger(options.logger)}, options.qaOpts...)
	answerer, err := qa.NewAnswerer(provider.LLM(), qaOpts...)
	if err != nil {
		pipeline.Release()
		indexes.Close()
		catalog.Close()
		provider.Close()
		return nil, err
	}

	return &Service{
		catalog:  catalog,
		files:    fileStore,
		indexes:  indexes,
		pipeline: pipeline,
		answerer: answerer,
		provider: provider,
		logger:   options.logger.With("component", "service"),
	}, nil
}

// Close releases every resource held by the service.
func (s *Service) Close() error {
	s.pipeline.Release()

	var errs []error
	if err := s.indexes.Close(); err != nil {
		s.logger.Error("error closing index store", "err", err)
		errs = append(errs, err)
	}
	if err := s.catalog.Close(); err != nil {
		s.logger.Error("error closing catalog", "err", err)
		errs = append(errs, err)
	}
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Upload stores a PDF, indexes it and records it in the catalog.
// If indexing fails, nothing of the upload is kept and the returned error
// wraps both ErrIndexing and the cause.
func (s *Service) Upload(ctx context.Context, filename string, r io.Reader) (*core.Document, error) {
	if err := core.ValidateFilename(filename); err != nil {
		return nil, err
	}
	name := core.CleanFilename(filename)

	doc, err := s.catalog.AddDocument(ctx, &core.Document{Filename: name})
	if err != nil {
		return nil, err
	}
	logger := s.logger.With("doc_id", int64(doc.ID), "filename", name)

	path, size, err := s.files.Save(doc.ID, name, r)
	if err != nil {
		s.discard(ctx, doc)
		return nil, err
	}
	doc.Path = path
	doc.SizeBytes = size
	if err := s.catalog.UpdateDocument(ctx, doc); err != nil {
		s.discard(ctx, doc)
		return nil, err
	}
	logger.Info("stored upload", "size_bytes", size)

	stats, err := s.pipeline.Index(ctx, doc.ID, doc.Path)
	if err != nil {
		logger.Error("error indexing upload", "err", err)
		s.discard(ctx, doc)
		return nil, fmt.Errorf("%w: %w", ErrIndexing, err)
	}

	doc.Pages = stats.Pages
	doc.Chunks = stats.Chunks
	if err := s.catalog.UpdateDocument(ctx, doc); err != nil {
		s.discard(ctx, doc)
		return nil, err
	}
	logger.Info("upload complete", "pages", doc.Pages, "chunks", doc.Chunks)
	return doc, nil
}

// discard removes every trace of a failed upload. Failures are logged.
func (s *Service) discard(ctx context.Context, doc *core.Document) {
	ctx = context.WithoutCancel(ctx)
	logger := s.logger.With("doc_id", int64(doc.ID))

	if err := s.indexes.Remove(doc.ID); err != nil {
		logger.Warn("error removing index of failed upload", "err", err)
	}
	if err := s.files.Remove(doc.Path); err != nil {
		logger.Warn("error removing file of failed upload", "err", err)
	}
	if err := s.catalog.DeleteDocument(ctx, doc.ID); err != nil {
		logger.Warn("error removing catalog entry of failed upload", "err", err)
	}
}

// List returns every document ordered by ID.
func (s *Service) List(ctx context.Context) ([]*core.Document, error) {
	return s.catalog.ListDocuments(ctx)
}

// Get returns one document.
// Returns storage.ErrNotFound if the document doesn't exist.
func (s *Service) Get(ctx context.Context, id core.ID) (*core.Document, error) {
	return s.catalog.GetDocument(ctx, id)
}

// Ask answers a question about a document.
// Returns core.ErrEmptyQuestion for a blank question and
// storage.ErrIndexNotFound if the document has no index.
func (s *Service) Ask(ctx context.Context, id core.ID, question string, lang core.Language) (string, error) {
	if err := core.ValidateQuestion(question); err != nil {
		return "", err
	}
	idx, err := s.indexes.Snapshot(ctx, id)
	if err != nil {
		return "", err
	}

	s.logger.Info("answering question", "doc_id", int64(id), "language", lang)
	return s.answerer.Ask(ctx, idx, question, lang)
}

// Summarize produces a summary of a document in the given language.
// Returns storage.ErrIndexNotFound if the document has no index.
func (s *Service) Summarize(ctx context.Context, id core.ID, lang core.Language) (string, error) {
	idx, err := s.indexes.Snapshot(ctx, id)
	if err != nil {
		return "", err
	}

	s.logger.Info("summarizing document", "doc_id", int64(id), "language", lang)
	return s.answerer.Summarize(ctx, idx, lang)
}

// Delete removes a document's file, index and catalog entry.
// Returns storage.ErrNotFound if the document doesn't exist.
func (s *Service) Delete(ctx context.Context, id core.ID) error {
	doc, err := s.catalog.GetDocument(ctx, id)
	if err != nil {
		return err
	}

	if err := s.files.Remove(doc.Path); err != nil {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	if err := s.indexes.Remove(id); err != nil {
		return fmt.Errorf("failed to remove index: %w", err)
	}
	if err := s.catalog.DeleteDocument(ctx, id); err != nil {
		return err
	}

	s.logger.Info("deleted document", "doc_id", int64(id), "filename", doc.Filename)
	return nil
}

// Reindex rebuilds a document's index from its stored file.
// The previous index is kept if indexing fails.
func (s *Service) Reindex(ctx context.Context, id core.ID) (*core.Document, error) {
	doc, err := s.catalog.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	stats, err := s.pipeline.Index(ctx, id, doc.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIndexing, err)
	}

	doc.Pages = stats.Pages
	doc.Chunks = stats.Chunks
	if err := s.catalog.UpdateDocument(ctx, doc); err != nil {
		return nil, err
	}

	s.logger.Info("reindexed document", "doc_id", int64(id), "chunks", doc.Chunks)
	return doc, nil
}
