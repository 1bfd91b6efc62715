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
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docqa/ai"
)

// embeddingProcessor generates embeddings for chunk texts in concurrent batches.
type embeddingProcessor struct {
	embedder  ai.Embedder
	pool      *ants.Pool
	batchSize int
	backoff   Backoff
	logger    *slog.Logger
}

// newEmbeddingProcessor creates a new embedding processor.
func newEmbeddingProcessor(embedder ai.Embedder, pool *ants.Pool, batchSize, attempts int, baseDelay time.Duration, logger *slog.Logger) (*embeddingProcessor, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}
	if pool == nil {
		return nil, fmt.Errorf("worker pool required")
	}
	if batchSize < 1 {
		batchSize = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("processor", "embeddings")
	return &embeddingProcessor{
		embedder:  embedder,
		pool:      pool,
		batchSize: batchSize,
		backoff:   Backoff{Attempts: attempts, BaseDelay: baseDelay, Logger: logger},
		logger:    logger,
	}, nil
}

// process embeds texts and returns vectors in input order.
// The first failed batch cancels the rest.
func (ep *embeddingProcessor) process(ctx context.Context, texts []string) ([][]float32, error) {
	ep.logger.Info("generating embeddings", "chunks", len(texts), "batch_size", ep.batchSize)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	vectors := make([][]float32, len(texts))
	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for start := 0; start < len(texts); start += ep.batchSize {
		end := min(start+ep.batchSize, len(texts))
		batch := texts[start:end]

		wg.Add(1)
		err := ep.pool.Submit(func() {
			defer wg.Done()
			var result [][]float32
			err := ep.backoff.Retry(ctx, func() error {
				var err error
				result, err = ep.embedder.EmbedTexts(ctx, batch)
				if err != nil {
					return err
				}
				if len(result) != len(batch) {
					return fmt.Errorf("embedding result mismatch. expected %d, received %d", len(batch), len(result))
				}
				return nil
			})
			if err != nil {
				ep.logger.Error("error generating embeddings", "batch_start", start, "err", err)
				fail(err)
				return
			}
			copy(vectors[start:end], result)
		})
		if err != nil {
			wg.Done()
			fail(err)
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return vectors, nil
}
