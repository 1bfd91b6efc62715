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

// Package docqa answers questions about uploaded PDF documents.
//
// A Service owns the document catalog, the stored files and one vector index
// per document. Uploading a PDF stores it, splits and embeds its text, and
// writes the chunks to the document's index. Questions and summaries are
// answered by retrieving the most relevant chunks and passing them to a
// language model.
package docqa
