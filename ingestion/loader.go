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

package ingestion

import (
	"context"
	"io"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
)

// Metadata keys set by the PDF loader on each page document.
const (
	MetadataPage       = "page"
	MetadataTotalPages = "total_pages"
)

// Loader extracts per-page text from a stored file.
type Loader interface {
	Load(ctx context.Context, r io.ReaderAt, size int64) ([]schema.Document, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, r io.ReaderAt, size int64) ([]schema.Document, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, r io.ReaderAt, size int64) ([]schema.Document, error) {
	return f(ctx, r, size)
}

// PDFLoader loads one document per PDF page using langchaingo's PDF loader.
type PDFLoader struct{}

var _ Loader = PDFLoader{}

// Load extracts the plain text of every page.
func (l PDFLoader) Load(ctx context.Context, r io.ReaderAt, size int64) ([]schema.Document, error) {
	return documentloaders.NewPDF(r, size).Load(ctx)
}
