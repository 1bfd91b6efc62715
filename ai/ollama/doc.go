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

// Package ollama provides AI service implementations backed by an Ollama server.
//
// This package implements the ai.AIProvider interface using the langchaingo
// Ollama client, talking to Ollama's native API. Embeddings and generation may
// use different models; both default to "mistral".
//
// # Usage
//
//	config := ai.NewConfig(ai.WithHost("http://localhost:11434"))
//
//	provider, err := ollama.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "sample text")
package ollama
