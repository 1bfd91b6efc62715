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

package reindex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/docqa/core"
)

// Target is the catalog and indexing behavior a Reindexer drives.
type Target interface {
	List(ctx context.Context) ([]*core.Document, error)
	Reindex(ctx context.Context, id core.ID) (*core.Document, error)
}

// Config holds configuration for a bulk reindex.
type Config struct {
	// ReportInterval is how often to report progress (number of documents)
	ReportInterval int

	// StopOnError aborts the run at the first failed document
	StopOnError bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ReportInterval: 1,
	}
}

// Result summarizes a bulk reindex.
type Result struct {
	Documents int
	Chunks    int
	Failed    []core.ID
	Elapsed   time.Duration
}

// Reindexer rebuilds every document's index through a Target.
type Reindexer struct {
	target   Target
	config   *Config
	progress io.Writer
	logger   *slog.Logger
}

// NewReindexer creates a new reindexer.
// progress: where to write progress output (typically os.Stderr)
func NewReindexer(target Target, config *Config, progress io.Writer) (*Reindexer, error) {
	if target == nil {
		return nil, ErrTargetRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}
	return &Reindexer{
		target:   target,
		config:   config,
		progress: progress,
		logger:   slog.Default().With("component", "reindexer"),
	}, nil
}

// Run reindexes all documents. When any document fails the returned error
// wraps ErrIncomplete and the Result lists the failed IDs.
func (r *Reindexer) Run(ctx context.Context) (*Result, error) {
	docs, err := r.target.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	result := &Result{}
	if len(docs) == 0 {
		fmt.Fprintf(r.progress, "No documents found in catalog (0 documents)\n")
		return result, nil
	}

	fmt.Fprintf(r.progress, "Starting reindex of %d documents\n", len(docs))

	tracker := NewProgressTracker(r.progress, len(docs), r.config.ReportInterval)
	tracker.Start()

	var errs []error
	var canceled error
	for _, doc := range docs {
		if canceled = ctx.Err(); canceled != nil {
			break
		}

		updated, err := r.target.Reindex(ctx, doc.ID)
		if err != nil {
			r.logger.Error("reindex failed", "doc_id", int64(doc.ID), "filename", doc.Filename, "err", err)
			result.Failed = append(result.Failed, doc.ID)
			errs = append(errs, fmt.Errorf("doc_id %d: %w", doc.ID, err))
			tracker.Done(true)
			if r.config.StopOnError {
				break
			}
			continue
		}

		result.Documents++
		result.Chunks += updated.Chunks
		tracker.Done(false)
	}

	tracker.Finish()
	result.Elapsed = tracker.Elapsed()

	status := "complete"
	if canceled != nil {
		status = "canceled"
		errs = append([]error{canceled}, errs...)
	}
	fmt.Fprintf(r.progress, "Reindex %s. Rebuilt %d documents (%d chunks) in %v, %d failed\n",
		status, result.Documents, result.Chunks, result.Elapsed.Round(time.Millisecond), len(result.Failed))

	if len(errs) > 0 {
		return result, fmt.Errorf("%w: %w", ErrIncomplete, errors.Join(errs...))
	}
	return result, nil
}
