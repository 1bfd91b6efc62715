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

// Package storage provides the storage abstraction layer for docqa.
//
// This package defines the interfaces that decouple persistence from the
// orchestration in the root package. Three stores back the service:
//
//   - Catalog: the relational table of uploaded documents (see storage/sqlite)
//   - FileStore: the original PDF files on the local filesystem (see storage/files)
//   - IndexStore: one vector index directory per document (see storage/badger)
//
// # Usage
//
//	catalog, err := sqlite.NewCatalog("documents.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer catalog.Close()
//
// Use in tests with throwaway storage:
//
//	catalog, err := sqlite.NewCatalog(sqlite.MemoryPath)
//	indexes, err := badger.NewIndexStore(t.TempDir(), mock.NewMockEmbedder())
//
// # Thread Safety
//
// All implementations must be safe for concurrent use from multiple
// goroutines. IndexStore hands out shared Index handles; callers must not
// close them individually. Queries that may overlap a rebuild or removal
// go through IndexStore.Snapshot.
//
// # Context Support
//
// Blocking methods accept context.Context for cancellation and timeout
// support.
package storage
