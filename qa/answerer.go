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

package qa

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/docqa/core"
	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/vectorstores"
)

// SummaryQuery is the retrieval query used to gather passages for a summary.
const SummaryQuery = "summarize the document"

// Retrieval defaults.
const (
	DefaultRetrieverK = 4
	DefaultSummaryK   = 5
)

// Answerer runs retrieval-augmented generation over a document index.
// It is safe for concurrent use.
type Answerer struct {
	llm        llms.Model
	retrieverK int
	summaryK   int
	logger     *slog.Logger
}

// Option configures an Answerer.
type Option func(*Answerer)

// WithRetrieverK sets how many passages the QA chain retrieves.
// Default is 4.
func WithRetrieverK(k int) Option {
	return func(a *Answerer) {
		if k > 0 {
			a.retrieverK = k
		}
	}
}

// WithSummaryK sets how many passages feed a summary.
// Default is 5.
func WithSummaryK(k int) Option {
	return func(a *Answerer) {
		if k > 0 {
			a.summaryK = k
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Answerer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAnswerer creates an Answerer that generates with llm.
func NewAnswerer(llm llms.Model, opts ...Option) (*Answerer, error) {
	if llm == nil {
		return nil, ErrLLMRequired
	}
	a := &Answerer{
		llm:        llm,
		retrieverK: DefaultRetrieverK,
		summaryK:   DefaultSummaryK,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "qa")
	return a, nil
}

// Ask answers question from the passages of index most relevant to it.
func (a *Answerer) Ask(ctx context.Context, index vectorstores.VectorStore, question string, lang core.Language) (string, error) {
	if err := core.ValidateQuestion(question); err != nil {
		return "", err
	}
	prompt, err := AskPrompt(lang, question)
	if err != nil {
		return "", err
	}

	a.logger.Debug("answering question", "language", lang, "k", a.retrieverK)
	return a.run(ctx, index, prompt)
}

// Summarize gathers the passages closest to SummaryQuery and asks the model
// to summarize them.
func (a *Answerer) Summarize(ctx context.Context, index vectorstores.VectorStore, lang core.Language) (string, error) {
	if index == nil {
		return "", ErrIndexRequired
	}
	docs, err := index.SimilaritySearch(ctx, SummaryQuery, a.summaryK)
	if err != nil {
		a.logger.Error("error retrieving passages for summary", "err", err)
		return "", err
	}

	contents := make([]string, len(docs))
	for i, doc := range docs {
		contents[i] = doc.PageContent
	}
	prompt, err := SummaryPrompt(lang, strings.Join(contents, " "))
	if err != nil {
		return "", err
	}

	a.logger.Debug("summarizing document", "language", lang, "passages", len(docs))
	return a.run(ctx, index, prompt)
}

// run answers prompt with a "stuff" RetrievalQA chain over index.
func (a *Answerer) run(ctx context.Context, index vectorstores.VectorStore, prompt string) (string, error) {
	if index == nil {
		return "", ErrIndexRequired
	}
	chain := chains.NewRetrievalQAFromLLM(a.llm, vectorstores.ToRetriever(index, a.retrieverK))
	answer, err := chains.Run(ctx, chain, prompt)
	if err != nil {
		a.logger.Error("error running retrieval chain", "err", err)
		return "", fmt.Errorf("retrieval chain failed: %w", err)
	}
	return strings.TrimSpace(answer), nil
}
