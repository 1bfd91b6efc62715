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

package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// MockLLM is a test double for llms.Model.
// It returns scripted responses and records every prompt it receives.
type MockLLM struct {
	// GenerateFunc is called by GenerateContent if set.
	// It receives the flattened text of all message parts.
	GenerateFunc func(ctx context.Context, prompt string) (string, error)

	mu        sync.Mutex
	responses []string
	prompts   []string
}

var _ llms.Model = (*MockLLM)(nil)

// NewMockLLM creates a mock model returning responses in order.
// Once exhausted, the last response is repeated; with none, it echoes "ok".
func NewMockLLM(responses ...string) *MockLLM {
	return &MockLLM{responses: responses}
}

// GenerateContent records the prompt and returns the next scripted response.
func (m *MockLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var parts []string
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				parts = append(parts, text.Text)
			}
		}
	}
	prompt := strings.Join(parts, "\n")

	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	fn := m.GenerateFunc
	response := "ok"
	if len(m.responses) > 0 {
		response = m.responses[0]
		if len(m.responses) > 1 {
			m.responses = m.responses[1:]
		}
	}
	m.mu.Unlock()

	if fn != nil {
		var err error
		response, err = fn(ctx, prompt)
		if err != nil {
			return nil, err
		}
	}

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: response}},
	}, nil
}

// Call implements the single-prompt form of llms.Model.
func (m *MockLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

// Prompts returns a copy of every prompt received so far.
func (m *MockLLM) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// LastPrompt returns the most recent prompt, or "" if none was received.
func (m *MockLLM) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}
