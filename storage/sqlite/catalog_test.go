package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCatalog_AddDocument(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	first, err := c.AddDocument(ctx, &core.Document{Filename: "a.pdf", Path: "files/a.pdf"})
	require.NoError(t, err)
	second, err := c.AddDocument(ctx, &core.Document{Filename: "b.pdf", Path: "files/b.pdf"})
	require.NoError(t, err)

	assert.Equal(t, core.ID(1), first.ID)
	assert.Equal(t, core.ID(2), second.ID)
	assert.False(t, first.CreatedAt.IsZero())
}

func TestCatalog_AddDocument_KeepsCreatedAt(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()
	created := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	added, err := c.AddDocument(ctx, &core.Document{Filename: "a.pdf", CreatedAt: created})
	require.NoError(t, err)

	got, err := c.GetDocument(ctx, added.ID)
	require.NoError(t, err)
	assert.True(t, created.Equal(got.CreatedAt), "expected %v, got %v", created, got.CreatedAt)
}

func TestCatalog_GetDocument(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	added, err := c.AddDocument(ctx, &core.Document{
		Filename:  "report.pdf",
		Path:      "files/1-report.pdf",
		SizeBytes: 2048,
		Pages:     3,
		Chunks:    12,
	})
	require.NoError(t, err)

	got, err := c.GetDocument(ctx, added.ID)
	require.NoError(t, err)
	assert.Equal(t, added.ID, got.ID)
	assert.Equal(t, "report.pdf", got.Filename)
	assert.Equal(t, "files/1-report.pdf", got.Path)
	assert.Equal(t, int64(2048), got.SizeBytes)
	assert.Equal(t, 3, got.Pages)
	assert.Equal(t, 12, got.Chunks)
	assert.WithinDuration(t, added.CreatedAt, got.CreatedAt, time.Millisecond)
}

func TestCatalog_GetDocument_NotFound(t *testing.T) {
	c := newTestCatalog(t)

	_, err := c.GetDocument(context.Background(), 99)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCatalog_UpdateDocument(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	added, err := c.AddDocument(ctx, &core.Document{Filename: "a.pdf"})
	require.NoError(t, err)

	added.Path = "files/1-a.pdf"
	added.SizeBytes = 10
	added.Pages = 2
	added.Chunks = 5
	require.NoError(t, c.UpdateDocument(ctx, added))

	got, err := c.GetDocument(ctx, added.ID)
	require.NoError(t, err)
	assert.Equal(t, "files/1-a.pdf", got.Path)
	assert.Equal(t, int64(10), got.SizeBytes)
	assert.Equal(t, 2, got.Pages)
	assert.Equal(t, 5, got.Chunks)
	assert.Equal(t, "a.pdf", got.Filename)

	err = c.UpdateDocument(ctx, &core.Document{ID: 42})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCatalog_ListDocuments(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	docs, err := c.ListDocuments(ctx)
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)

	for _, name := range []string{"x.pdf", "y.pdf", "z.pdf"} {
		_, err := c.AddDocument(ctx, &core.Document{Filename: name})
		require.NoError(t, err)
	}

	docs, err = c.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	for i, doc := range docs {
		assert.Equal(t, core.ID(i+1), doc.ID)
	}
	assert.Equal(t, "z.pdf", docs[2].Filename)
}

func TestCatalog_DeleteDocument(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	added, err := c.AddDocument(ctx, &core.Document{Filename: "a.pdf"})
	require.NoError(t, err)

	require.NoError(t, c.DeleteDocument(ctx, added.ID))
	_, err = c.GetDocument(ctx, added.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = c.DeleteDocument(ctx, added.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// IDs are never reused after deletion.
	next, err := c.AddDocument(ctx, &core.Document{Filename: "b.pdf"})
	require.NoError(t, err)
	assert.Equal(t, core.ID(2), next.ID)
}

func TestCatalog_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "documents.db")
	ctx := context.Background()

	c, err := NewCatalog(path)
	require.NoError(t, err)
	_, err = c.AddDocument(ctx, &core.Document{Filename: "kept.pdf", Path: "files/1-kept.pdf"})
	require.NoError(t, err)
	require.NoError(t, c.Close())

	c, err = NewCatalog(path)
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, path, c.Path())

	docs, err := c.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "kept.pdf", docs[0].Filename)
}

func TestCatalog_ConcurrentAdds(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.AddDocument(ctx, &core.Document{Filename: "c.pdf"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	docs, err := c.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 20)
}
