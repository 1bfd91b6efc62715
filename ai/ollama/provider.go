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

package ollama

import (
	"log/slog"

	"github.com/poiesic/docqa/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// Provider implements ai.AIProvider against an Ollama server.
type Provider struct {
	config   *ai.Config
	embedder *Embedder
	llm      *ollama.LLM
	logger   *slog.Logger
}

// NewProvider creates a new Ollama provider with the given configuration.
// Returns ai.AIProvider interface to enforce abstraction.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}

	llm, err := ollama.New(
		ollama.WithServerURL(config.Host),
		ollama.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return &Provider{
		config:   config,
		embedder: embedder,
		llm:      llm,
		logger:   slog.Default().With("component", "ollama-provider"),
	}, nil
}

// Embedder returns the embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// LLM returns the generation model.
func (p *Provider) LLM() llms.Model {
	return p.llm
}

// Close releases resources.
// The langchaingo client holds no persistent connections, so this is a no-op.
func (p *Provider) Close() error {
	p.logger.Debug("closing Ollama provider")
	return nil
}
