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

package ai

import (
	"errors"
	"fmt"
	"strings"
)

// Supported model backends.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Config holds configuration for the model services.
type Config struct {
	// Provider selects the backend: "ollama" or "openai".
	Provider string `yaml:"provider"`

	// Host is the base URL of the model server.
	// Example: "http://localhost:11434" for Ollama,
	// "http://localhost:11434/v1" for an OpenAI-compatible server
	Host string `yaml:"host"`

	// EmbeddingModel is the model identifier used for embeddings.
	EmbeddingModel string `yaml:"embedding_model"`

	// ChatModel is the model identifier used for answers and summaries.
	ChatModel string `yaml:"chat_model"`

	// Token is the API token for OpenAI-compatible servers.
	// Local servers accept any value; "none" is used when empty.
	Token string `yaml:"token,omitempty"`
}

// ConfigOption is a functional option for configuring Config.
type ConfigOption func(*Config)

// WithProvider sets the backend.
func WithProvider(provider string) ConfigOption {
	return func(c *Config) {
		c.Provider = provider
	}
}

// WithHost sets the model server URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithEmbeddingModel sets the embedding model.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithChatModel sets the generation model.
func WithChatModel(model string) ConfigOption {
	return func(c *Config) {
		c.ChatModel = model
	}
}

// WithModel sets both the embedding and generation model.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
		c.ChatModel = model
	}
}

// WithToken sets the API token.
func WithToken(token string) ConfigOption {
	return func(c *Config) {
		c.Token = token
	}
}

// DefaultConfig returns a Config for a local Ollama server running mistral.
func DefaultConfig() *Config {
	return &Config{
		Provider:       ProviderOllama,
		Host:           "http://localhost:11434",
		EmbeddingModel: "mistral",
		ChatModel:      "mistral",
	}
}

// NewConfig creates a Config with defaults, then applies the options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize canonicalizes the provider name and host URL.
// OpenAI-compatible hosts get a /v1 suffix; Ollama hosts lose it.
func (c *Config) Normalize() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Host == "" {
		return
	}
	c.Host = strings.TrimSuffix(c.Host, "/")
	switch c.Provider {
	case ProviderOpenAI:
		if !strings.HasSuffix(c.Host, "/v1") {
			c.Host = c.Host + "/v1"
		}
	case ProviderOllama:
		c.Host = strings.TrimSuffix(c.Host, "/v1")
	}
}

// Validate normalizes the configuration and checks required fields.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Provider != ProviderOllama && c.Provider != ProviderOpenAI {
		return fmt.Errorf("ai config: unknown Provider %q", c.Provider)
	}
	if c.Host == "" {
		return errors.New("ai config: Host is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.ChatModel == "" {
		return errors.New("ai config: ChatModel is required")
	}
	return nil
}
