package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/poiesic/docqa/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// fakeOpenAI answers /v1/embeddings and /v1/chat/completions.
type fakeOpenAI struct {
	mu      sync.Mutex
	models  []string
	inputs  []string
	authHdr []string
}

func (f *fakeOpenAI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.authHdr = append(f.authHdr, r.Header.Get("Authorization"))
	f.mu.Unlock()

	switch r.URL.Path {
	case "/v1/embeddings":
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.models = append(f.models, req.Model)
		f.inputs = append(f.inputs, req.Input...)
		f.mu.Unlock()

		data := make([]map[string]any, len(req.Input))
		for i, in := range req.Input {
			data[i] = map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float32{float32(len(in)), 0, 1},
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	case "/v1/chat/completions":
		var req struct {
			Model string `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.models = append(f.models, req.Model)
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": "Paris"},
				"finish_reason": "stop",
			}},
			"usage": map[string]int{"prompt_tokens": 3, "completion_tokens": 1, "total_tokens": 4},
		})
	default:
		http.NotFound(w, r)
	}
}

func newTestProvider(t *testing.T, opts ...ai.ConfigOption) (ai.AIProvider, *fakeOpenAI) {
	t.Helper()
	fake := &fakeOpenAI{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	opts = append([]ai.ConfigOption{
		ai.WithProvider(ai.ProviderOpenAI),
		ai.WithHost(srv.URL),
		ai.WithEmbeddingModel("text-embedding-3-small"),
		ai.WithChatModel("gpt-4o-mini"),
	}, opts...)
	provider, err := NewProvider(ai.NewConfig(opts...))
	require.NoError(t, err)
	t.Cleanup(func() { provider.Close() })
	return provider, fake
}

func TestProvider_EmbedTexts(t *testing.T) {
	provider, fake := newTestProvider(t)

	vectors, err := provider.Embedder().EmbedTexts(context.Background(), []string{"one", "two\nlines"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{3, 0, 1}, vectors[0])
	assert.Equal(t, []float32{9, 0, 1}, vectors[1])

	for _, model := range fake.models {
		assert.Equal(t, "text-embedding-3-small", model)
	}
	for _, input := range fake.inputs {
		assert.NotContains(t, input, "\n")
	}
}

func TestProvider_EmbedText(t *testing.T) {
	provider, _ := newTestProvider(t)

	vector, err := provider.Embedder().EmbedText(context.Background(), "query")
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 0, 1}, vector)
}

func TestProvider_LLM(t *testing.T) {
	provider, fake := newTestProvider(t)

	answer, err := llms.GenerateFromSinglePrompt(context.Background(), provider.LLM(), "Capital of France?")
	require.NoError(t, err)
	assert.Equal(t, "Paris", answer)
	assert.Equal(t, []string{"gpt-4o-mini"}, fake.models)
}

func TestProvider_Token(t *testing.T) {
	t.Run("local servers get a placeholder", func(t *testing.T) {
		provider, fake := newTestProvider(t)
		_, err := provider.Embedder().EmbedText(context.Background(), "x")
		require.NoError(t, err)
		assert.Equal(t, []string{"Bearer none"}, fake.authHdr)
	})

	t.Run("configured token is sent", func(t *testing.T) {
		provider, fake := newTestProvider(t, ai.WithToken("sk-test"))
		_, err := provider.Embedder().EmbedText(context.Background(), "x")
		require.NoError(t, err)
		assert.Equal(t, []string{"Bearer sk-test"}, fake.authHdr)
	})
}

func TestProvider_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"backend down","type":"server_error"}}`))
	}))
	defer srv.Close()

	embedder, err := NewEmbedder(ai.NewConfig(ai.WithProvider(ai.ProviderOpenAI), ai.WithHost(srv.URL)))
	require.NoError(t, err)

	_, err = embedder.EmbedTexts(context.Background(), []string{"text"})
	assert.Error(t, err)
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	_, err := NewProvider(ai.NewConfig(ai.WithProvider(ai.ProviderOpenAI), ai.WithHost("")))
	assert.Error(t, err)
}
