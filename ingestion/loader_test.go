package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/poiesic/docqa/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF writes a minimal single-font PDF with one page per text.
// An empty text produces a page with no text.
func buildPDF(pages ...string) []byte {
	var buf bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")

	// 1: catalog, 2: page tree, 3: font, then a page and content stream per page.
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for i, text := range pages {
		content := "BT /F1 12 Tf 72 720 Td ET"
		if text != "" {
			content = fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		}
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
			"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func TestPDFLoader_Load(t *testing.T) {
	data := buildPDF("Lease starts in May", "Rent is due monthly")

	docs, err := PDFLoader{}.Load(context.Background(), bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Contains(t, docs[0].PageContent, "Lease starts in May")
	assert.Contains(t, docs[1].PageContent, "Rent is due monthly")
	for i, doc := range docs {
		assert.Equal(t, i+1, storage.IntMetadata(doc.Metadata, MetadataPage))
		assert.Equal(t, 2, storage.IntMetadata(doc.Metadata, MetadataTotalPages))
	}
}

func TestPDFLoader_NotAPDF(t *testing.T) {
	data := []byte("plain text masquerading as a document")
	_, err := PDFLoader{}.Load(context.Background(), bytes.NewReader(data), int64(len(data)))
	assert.Error(t, err)
}

func TestPipeline_Index_GeneratedPDF(t *testing.T) {
	env := newTestEnv(t)
	path, _, err := env.files.Save(3, "generated.pdf", bytes.NewReader(buildPDF("First page text", "", "Third page text")))
	require.NoError(t, err)
	p := env.pipeline(t)
	ctx := context.Background()

	stats, err := p.Index(ctx, 3, path)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Pages)
	assert.Equal(t, 2, stats.Chunks)

	idx, err := env.indexes.Open(ctx, 3)
	require.NoError(t, err)
	chunks, err := idx.Chunks(ctx)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, 1, chunks[0].Page)
	assert.Contains(t, chunks[0].Content, "First page text")
	assert.Equal(t, 3, chunks[1].Page)
	assert.Contains(t, chunks[1].Content, "Third page text")
}

func TestPipeline_Index_BlankPDF(t *testing.T) {
	env := newTestEnv(t)
	path, _, err := env.files.Save(4, "blank.pdf", bytes.NewReader(buildPDF("", "")))
	require.NoError(t, err)
	p := env.pipeline(t)

	_, err = p.Index(context.Background(), 4, path)
	assert.ErrorIs(t, err, ErrNoContent)
	assert.False(t, env.indexes.Exists(4))
}
