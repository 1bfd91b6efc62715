package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/poiesic/docqa/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// fakeOllama answers /api/embed and /api/chat the way an Ollama server does.
type fakeOllama struct {
	mu     sync.Mutex
	models []string
	inputs []string
}

func (f *fakeOllama) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model string `json:"model"`
		Input string `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.models = append(f.models, req.Model)
	f.mu.Unlock()

	switch r.URL.Path {
	case "/api/embed":
		f.mu.Lock()
		f.inputs = append(f.inputs, req.Input)
		f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{
			"embeddings": [][]float32{{float32(len(req.Input)), 1, 0}},
		})
	case "/api/chat":
		w.Write([]byte(`{"model":"` + req.Model + `","message":{"role":"assistant","content":"Hello "},"done":false}` + "\n"))
		w.Write([]byte(`{"model":"` + req.Model + `","message":{"role":"assistant","content":"there"},"done":true}` + "\n"))
	default:
		http.NotFound(w, r)
	}
}

func newTestProvider(t *testing.T) (ai.AIProvider, *fakeOllama) {
	t.Helper()
	fake := &fakeOllama{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	provider, err := NewProvider(ai.NewConfig(
		ai.WithHost(srv.URL),
		ai.WithEmbeddingModel("nomic-embed-text"),
		ai.WithChatModel("mistral"),
	))
	require.NoError(t, err)
	t.Cleanup(func() { provider.Close() })
	return provider, fake
}

func TestProvider_EmbedTexts(t *testing.T) {
	provider, fake := newTestProvider(t)

	vectors, err := provider.Embedder().EmbedTexts(context.Background(), []string{"one", "three\nlines"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{3, 1, 0}, vectors[0])
	assert.Equal(t, []float32{11, 1, 0}, vectors[1])

	assert.Equal(t, []string{"nomic-embed-text", "nomic-embed-text"}, fake.models)
	for _, input := range fake.inputs {
		assert.NotContains(t, input, "\n", "newlines are stripped before embedding")
	}
}

func TestProvider_EmbedText(t *testing.T) {
	provider, _ := newTestProvider(t)

	vector, err := provider.Embedder().EmbedText(context.Background(), "query")
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 1, 0}, vector)
}

func TestProvider_LLM(t *testing.T) {
	provider, fake := newTestProvider(t)

	answer, err := llms.GenerateFromSinglePrompt(context.Background(), provider.LLM(), "Say hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello there", answer)
	assert.Equal(t, []string{"mistral"}, fake.models)
}

func TestProvider_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"model not loaded"}`))
	}))
	defer srv.Close()

	embedder, err := NewEmbedder(ai.NewConfig(ai.WithHost(srv.URL)))
	require.NoError(t, err)

	_, err = embedder.EmbedTexts(context.Background(), []string{"text"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "model not loaded") || strings.Contains(err.Error(), "500"), err.Error())
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	_, err := NewProvider(ai.NewConfig(ai.WithProvider("bogus")))
	assert.Error(t, err)
}
