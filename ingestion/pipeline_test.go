package ingestion

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/docqa/ai/mock"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
	"github.com/poiesic/docqa/storage/badger"
	"github.com/poiesic/docqa/storage/files"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"
)

type testEnv struct {
	files    *files.Store
	indexes  *badger.IndexStore
	embedder *mock.MockEmbedder
	path     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	fileStore, err := files.NewStore(filepath.Join(dir, "files"))
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder()
	indexes, err := badger.NewIndexStore(filepath.Join(dir, "vectorstore"), embedder)
	require.NoError(t, err)
	t.Cleanup(func() { indexes.Close() })

	path, _, err := fileStore.Save(1, "doc.pdf", strings.NewReader("%PDF-1.4 stand-in"))
	require.NoError(t, err)

	return &testEnv{files: fileStore, indexes: indexes, embedder: embedder, path: path}
}

func (e *testEnv) pipeline(t *testing.T, opts ...Option) *Pipeline {
	t.Helper()
	provider := mock.NewMockProviderWithServices(e.embedder, mock.NewMockLLM())
	p, err := NewPipeline(e.files, e.indexes, provider, opts...)
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p
}

// pagesLoader returns one document per page text, as the PDF loader does.
func pagesLoader(texts ...string) Loader {
	return LoaderFunc(func(ctx context.Context, r io.ReaderAt, size int64) ([]schema.Document, error) {
		docs := make([]schema.Document, len(texts))
		for i, text := range texts {
			docs[i] = schema.Document{
				PageContent: text,
				Metadata: map[string]any{
					MetadataPage:       i + 1,
					MetadataTotalPages: len(texts),
				},
			}
		}
		return docs, nil
	})
}

func words(prefix string, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("%s%03d", prefix, i)
	}
	return strings.Join(parts, " ")
}

func TestNewPipeline_RequiresDependencies(t *testing.T) {
	env := newTestEnv(t)
	provider := mock.NewMockProvider()

	_, err := NewPipeline(nil, env.indexes, provider)
	assert.ErrorIs(t, err, ErrFileStoreRequired)

	_, err = NewPipeline(env.files, nil, provider)
	assert.ErrorIs(t, err, ErrIndexStoreRequired)

	_, err = NewPipeline(env.files, env.indexes, nil)
	assert.ErrorIs(t, err, ErrAIProviderRequired)
}

func TestNewPipeline_InvalidOptions(t *testing.T) {
	env := newTestEnv(t)
	provider := mock.NewMockProvider()

	tests := []struct {
		name string
		opts []Option
		err  error
	}{
		{"zero chunk size", []Option{WithChunkSize(0)}, ErrInvalidChunking},
		{"negative overlap", []Option{WithChunkOverlap(-1)}, ErrInvalidChunking},
		{"overlap equals size", []Option{WithChunkSize(100), WithChunkOverlap(100)}, ErrInvalidChunking},
		{"zero retry attempts", []Option{WithRetry(0, time.Second)}, ErrInvalidMaxAttempts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPipeline(env.files, env.indexes, provider, tt.opts...)
			assert.ErrorIs(t, err, tt.err)
			assert.Nil(t, p)
		})
	}
}

func TestPipeline_Index(t *testing.T) {
	env := newTestEnv(t)
	p := env.pipeline(t,
		WithChunkSize(100),
		WithChunkOverlap(20),
		WithLoader(pagesLoader(words("alpha", 40), "   \n ", words("gamma", 10))),
	)
	ctx := context.Background()

	stats, err := p.Index(ctx, 1, env.path)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Pages)
	assert.Greater(t, stats.Chunks, 3)
	assert.True(t, env.indexes.Exists(1))

	idx, err := env.indexes.Open(ctx, 1)
	require.NoError(t, err)
	chunks, err := idx.Chunks(ctx)
	require.NoError(t, err)
	require.Len(t, chunks, stats.Chunks)

	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Seq)
		assert.LessOrEqual(t, len([]rune(chunk.Content)), 100)
		assert.NotEmpty(t, strings.TrimSpace(chunk.Content))
		assert.Equal(t, mock.Vector(chunk.Content), chunk.Vector)
		if strings.HasPrefix(chunk.Content, "alpha") {
			assert.Equal(t, 1, chunk.Page)
		} else {
			assert.Equal(t, 3, chunk.Page)
		}
	}
	assert.True(t, strings.HasPrefix(chunks[len(chunks)-1].Content, "gamma"))
}

func TestPipeline_Index_BatchesPreserveOrder(t *testing.T) {
	env := newTestEnv(t)
	var calls atomic.Int32
	env.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls.Add(1)
		assert.LessOrEqual(t, len(texts), 2)
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			vectors[i] = mock.Vector(text)
		}
		return vectors, nil
	}
	p := env.pipeline(t,
		WithChunkSize(50),
		WithChunkOverlap(0),
		WithBatchSize(2),
		WithPoolSize(4),
		WithLoader(pagesLoader(words("w", 60))),
	)

	stats, err := p.Index(context.Background(), 1, env.path)
	require.NoError(t, err)
	assert.Equal(t, int32((stats.Chunks+1)/2), calls.Load())

	idx, err := env.indexes.Open(context.Background(), 1)
	require.NoError(t, err)
	chunks, err := idx.Chunks(context.Background())
	require.NoError(t, err)
	for _, chunk := range chunks {
		assert.Equal(t, mock.Vector(chunk.Content), chunk.Vector)
	}
}

func TestPipeline_Index_NoContent(t *testing.T) {
	env := newTestEnv(t)
	p := env.pipeline(t, WithLoader(pagesLoader("", " \n\t ")))

	stats, err := p.Index(context.Background(), 1, env.path)
	assert.ErrorIs(t, err, ErrNoContent)
	assert.Equal(t, 2, stats.Pages)
	assert.False(t, env.indexes.Exists(1))
}

func TestPipeline_Index_RetriesEmbedding(t *testing.T) {
	env := newTestEnv(t)
	var calls atomic.Int32
	env.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		if calls.Add(1) == 1 {
			return nil, assert.AnError
		}
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			vectors[i] = mock.Vector(text)
		}
		return vectors, nil
	}
	p := env.pipeline(t,
		WithRetry(3, time.Millisecond),
		WithLoader(pagesLoader("a short page of text")),
	)

	stats, err := p.Index(context.Background(), 1, env.path)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Chunks)
	assert.Equal(t, int32(2), calls.Load())
}

func TestPipeline_Index_EmbeddingFailure(t *testing.T) {
	env := newTestEnv(t)
	env.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, assert.AnError
	}
	p := env.pipeline(t,
		WithRetry(2, time.Millisecond),
		WithLoader(pagesLoader("some text")),
	)

	_, err := p.Index(context.Background(), 1, env.path)
	assert.ErrorIs(t, err, assert.AnError)
	assert.False(t, env.indexes.Exists(1))
}

func TestPipeline_Index_EmbeddingMismatch(t *testing.T) {
	env := newTestEnv(t)
	env.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{}, nil
	}
	p := env.pipeline(t,
		WithRetry(1, time.Millisecond),
		WithLoader(pagesLoader("some text")),
	)

	_, err := p.Index(context.Background(), 1, env.path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatch")
}

func TestPipeline_Index_FailureKeepsPreviousIndex(t *testing.T) {
	env := newTestEnv(t)
	p := env.pipeline(t,
		WithRetry(1, time.Millisecond),
		WithLoader(pagesLoader("first version of the text")),
	)
	ctx := context.Background()

	_, err := p.Index(ctx, 1, env.path)
	require.NoError(t, err)

	env.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, assert.AnError
	}
	_, err = p.Index(ctx, 1, env.path)
	require.Error(t, err)

	idx, err := env.indexes.Open(ctx, 1)
	require.NoError(t, err)
	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPipeline_Index_LoaderError(t *testing.T) {
	env := newTestEnv(t)
	p := env.pipeline(t, WithLoader(LoaderFunc(func(ctx context.Context, r io.ReaderAt, size int64) ([]schema.Document, error) {
		return nil, assert.AnError
	})))

	_, err := p.Index(context.Background(), 1, env.path)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestPipeline_Index_MissingFile(t *testing.T) {
	env := newTestEnv(t)
	p := env.pipeline(t, WithLoader(pagesLoader("text")))

	_, err := p.Index(context.Background(), 1, filepath.Join(env.files.Dir(), "missing.pdf"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPipeline_Index_InvalidPDF(t *testing.T) {
	env := newTestEnv(t)
	path, _, err := env.files.Save(2, "broken.pdf", strings.NewReader("this is not a pdf"))
	require.NoError(t, err)
	p := env.pipeline(t)

	_, err = p.Index(context.Background(), core.ID(2), path)
	assert.Error(t, err)
	assert.False(t, env.indexes.Exists(2))
}

func TestPipeline_Index_Canceled(t *testing.T) {
	env := newTestEnv(t)
	env.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, ctx.Err()
	}
	p := env.pipeline(t, WithLoader(pagesLoader("text")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Index(ctx, 1, env.path)
	assert.ErrorIs(t, err, context.Canceled)
}
