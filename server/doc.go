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

// Package server exposes the document QA service over HTTP.
//
// Endpoints:
//
//	POST   /upload                       upload and index a PDF (multipart field "file")
//	POST   /ask                          answer a question about a document
//	GET    /documents                    list documents
//	GET    /documents/{doc_id}           document metadata
//	GET    /summarize/{doc_id}           summarize a document (?language=)
//	DELETE /document/{doc_id}            delete a document
//	POST   /document/{doc_id}/reindex    rebuild a document's index
//	GET    /health                       liveness
//	GET    /metrics                      Prometheus metrics
//
// Errors are returned as {"detail": "..."}.
package server
