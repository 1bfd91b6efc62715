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

// Package ai provides abstractions for the model services used by docqa.
//
// This package defines the interfaces the rest of the module depends on for
// text embeddings and text generation. Indexing and retrieval only need an
// Embedder; answering and summarizing need a langchaingo llms.Model.
//
// # Design Principles
//
// The package is designed around two key interfaces:
//
//   - Embedder: turns passages and queries into vectors
//   - AIProvider: aggregates an Embedder and an llms.Model with a shared lifecycle
//
// # Implementation Packages
//
// The ai package includes three implementation sub-packages:
//
//   - ollama: native Ollama API (the default, serving "mistral")
//   - openai: OpenAI or OpenAI-compatible services (LocalAI, vLLM, Ollama's /v1)
//   - mock: deterministic test doubles
//
// # Constructor Return Type Pattern
//
// Public constructors (ollama.NewProvider, openai.NewEmbedder, etc.) return
// INTERFACE types. Test utility constructors (mock.NewMockEmbedder,
// mock.NewMockLLM) return CONCRETE types so tests can inject behavior and
// inspect calls.
//
// # Usage Example
//
//	config := ai.DefaultConfig()
//	provider, err := ollama.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "Hello world")
//	answer, err := llms.GenerateFromSinglePrompt(ctx, provider.LLM(), "Say hello")
package ai
