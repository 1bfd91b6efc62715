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

package core

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID identifies a document in the catalog.
// IDs are assigned by the catalog and are always positive.
type ID int64

// String returns the decimal form of the ID, used for index directory names.
func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseID parses a decimal document ID.
func ParseID(s string) (ID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, ErrInvalidDocumentID
	}
	return ID(n), nil
}

// Document is a catalog entry for an uploaded PDF.
type Document struct {
	ID        ID
	Filename  string    // Name as supplied by the uploader
	Path      string    // Location of the stored file
	SizeBytes int64     // Size of the stored file
	Pages     int       // Pages extracted during indexing
	Chunks    int       // Chunks written to the vector index
	CreatedAt time.Time // When the document was added to the catalog
}

// ChunkID identifies a chunk inside a document's vector index.
type ChunkID uint64

// Chunk is a passage of document text together with its embedding.
type Chunk struct {
	Id         ChunkID
	DocumentID ID
	Seq        int       // Position of the chunk within the document
	Page       int       // Source page (1-based, 0 if unknown)
	Content    string    // Passage text
	Vector     []float32 // Embedding vector
}

// NewChunkID derives a deterministic chunk ID from its document, position and text
// using BLAKE2b hashing, so re-indexing a document reproduces the same IDs.
func NewChunkID(docID ID, seq int, content string) ChunkID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	var prefix [16]byte
	binary.BigEndian.PutUint64(prefix[:8], uint64(docID))
	binary.BigEndian.PutUint64(prefix[8:], uint64(seq))
	h.Write(prefix[:])
	h.Write([]byte(content))
	sum := h.Sum(nil)
	return ChunkID(binary.LittleEndian.Uint64(sum))
}

// Stats describes the outcome of indexing a document.
type Stats struct {
	Pages  int
	Chunks int
}
