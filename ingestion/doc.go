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

// Package ingestion turns stored PDF files into per-document vector indexes.
//
// The Pipeline type manages the indexing workflow for a document:
//   - Loading page text from the stored file
//   - Splitting pages into overlapping chunks
//   - Generating embeddings concurrently, with retry and backoff
//   - Writing the chunks to a fresh index
//
// Embedding batches run on a shared worker pool. Any failure aborts the run
// and removes the partially written index.
package ingestion
