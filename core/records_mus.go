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
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// ChunkMUS serializes Chunk values in MUS format.
// Field order: Id, DocumentID, Seq, Page, Content, Vector (length-prefixed).
var ChunkMUS = chunkMUS{}

type chunkMUS struct{}

func (s chunkMUS) Marshal(v Chunk, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(v.Id), bs)
	n += varint.Int64.Marshal(int64(v.DocumentID), bs[n:])
	n += varint.Int.Marshal(v.Seq, bs[n:])
	n += varint.Int.Marshal(v.Page, bs[n:])
	n += ord.String.Marshal(v.Content, bs[n:])
	n += varint.Int.Marshal(len(v.Vector), bs[n:])
	for _, f := range v.Vector {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return
}

func (s chunkMUS) Unmarshal(bs []byte) (v Chunk, n int, err error) {
	var (
		n1     int
		id     uint64
		docID  int64
		length int
	)
	id, n, err = varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Id = ChunkID(id)
	docID, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.DocumentID = ID(docID)
	v.Seq, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Page, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Content, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	length, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if length < 0 || length > len(bs)-n {
		err = ErrInvalidVectorLength
		return
	}
	if length > 0 {
		v.Vector = make([]float32, length)
	}
	for i := 0; i < length; i++ {
		v.Vector[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func (s chunkMUS) Size(v Chunk) (size int) {
	size = varint.Uint64.Size(uint64(v.Id))
	size += varint.Int64.Size(int64(v.DocumentID))
	size += varint.Int.Size(v.Seq)
	size += varint.Int.Size(v.Page)
	size += ord.String.Size(v.Content)
	size += varint.Int.Size(len(v.Vector))
	for _, f := range v.Vector {
		size += raw.Float32.Size(f)
	}
	return
}
