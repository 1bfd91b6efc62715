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
	"fmt"

	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/ai/ollama"
	"github.com/poiesic/docqa/ai/openai"
)

// NewProvider creates the AI provider selected by config.Provider.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if config == nil {
		config = ai.DefaultConfig()
	}
	config.Normalize()

	switch config.Provider {
	case ai.ProviderOllama:
		return ollama.NewProvider(config)
	case ai.ProviderOpenAI:
		return openai.NewProvider(config)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, config.Provider)
	}
}
