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

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to a temporary file.
const multipartMemory = 8 << 20

type uploadResponse struct {
	Message  string  `json:"message"`
	DocID    core.ID `json:"doc_id"`
	Filename string  `json:"filename"`
}

type askRequest struct {
	DocID    core.ID `json:"doc_id"`
	Question string  `json:"question"`
	Language string  `json:"language"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

type summaryResponse struct {
	Summary string `json:"summary"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type reindexResponse struct {
	Message string `json:"message"`
	Chunks  int    `json:"chunks"`
}

type documentSummary struct {
	ID       core.ID `json:"id"`
	Filename string  `json:"filename"`
}

type documentDetail struct {
	ID        core.ID   `json:"id"`
	Filename  string    `json:"filename"`
	SizeBytes int64     `json:"size_bytes"`
	Pages     int       `json:"pages"`
	Chunks    int       `json:"chunks"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File exceeds the %d byte upload limit", s.maxUploadBytes))
			return
		}
		writeError(w, http.StatusUnprocessableEntity, "Expected a multipart form with a file field")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Missing file field")
		return
	}
	defer file.Close()

	doc, err := s.svc.Upload(r.Context(), header.Filename, file)
	switch {
	case errors.Is(err, core.ErrNotPDF), errors.Is(err, core.ErrEmptyFilename):
		writeError(w, http.StatusBadRequest, "Only PDF files are supported.")
		return
	case err != nil:
		s.logger.Error("upload failed", "filename", header.Filename, "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to index document: "+causeText(err))
		return
	}

	s.metrics.indexedChunks.Add(float64(doc.Chunks))
	writeJSON(w, http.StatusOK, uploadResponse{
		Message:  "Upload and index complete",
		DocID:    doc.ID,
		Filename: doc.Filename,
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid request body: "+err.Error())
		return
	}
	if req.DocID <= 0 {
		writeError(w, http.StatusUnprocessableEntity, "doc_id must be a positive integer")
		return
	}

	answer, err := s.svc.Ask(r.Context(), req.DocID, req.Question, core.ParseLanguage(req.Language))
	switch {
	case errors.Is(err, core.ErrEmptyQuestion):
		writeError(w, http.StatusUnprocessableEntity, "Question cannot be empty")
		return
	case errors.Is(err, storage.ErrIndexNotFound):
		writeError(w, http.StatusNotFound, fmt.Sprintf("Vectorstore index not found for doc_id %d", req.DocID))
		return
	case err != nil:
		s.logger.Error("answering failed", "doc_id", int64(req.DocID), "err", err)
		writeError(w, http.StatusInternalServerError, "Answering failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, askResponse{Answer: answer})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.svc.List(r.Context())
	if err != nil {
		s.logger.Error("listing documents failed", "err", err)
		writeError(w, http.StatusInternalServerError, "DB error: "+err.Error())
		return
	}

	out := make([]documentSummary, len(docs))
	for i, doc := range docs {
		out[i] = documentSummary{ID: doc.ID, Filename: doc.Filename}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := docID(w, r)
	if !ok {
		return
	}

	doc, err := s.svc.Get(r.Context(), id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "Document not found")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "DB error: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, documentDetail{
		ID:        doc.ID,
		Filename:  doc.Filename,
		SizeBytes: doc.SizeBytes,
		Pages:     doc.Pages,
		Chunks:    doc.Chunks,
		CreatedAt: doc.CreatedAt,
	})
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	id, ok := docID(w, r)
	if !ok {
		return
	}

	summary, err := s.svc.Summarize(r.Context(), id, core.ParseLanguage(r.URL.Query().Get("language")))
	switch {
	case errors.Is(err, storage.ErrIndexNotFound):
		writeError(w, http.StatusNotFound, fmt.Sprintf("Vectorstore index not found for doc_id %d", id))
		return
	case err != nil:
		s.logger.Error("summarization failed", "doc_id", int64(id), "err", err)
		writeError(w, http.StatusInternalServerError, "Summarization failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, summaryResponse{Summary: summary})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := docID(w, r)
	if !ok {
		return
	}

	err := s.svc.Delete(r.Context(), id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "Document not found")
		return
	case err != nil:
		s.logger.Error("deletion failed", "doc_id", int64(id), "err", err)
		writeError(w, http.StatusInternalServerError, "Deletion failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: fmt.Sprintf("Document %d deleted", id)})
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	id, ok := docID(w, r)
	if !ok {
		return
	}

	doc, err := s.svc.Reindex(r.Context(), id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "Document not found")
		return
	case err != nil:
		s.logger.Error("reindex failed", "doc_id", int64(id), "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to index document: "+causeText(err))
		return
	}

	s.metrics.indexedChunks.Add(float64(doc.Chunks))
	writeJSON(w, http.StatusOK, reindexResponse{
		Message: fmt.Sprintf("Document %d reindexed", id),
		Chunks:  doc.Chunks,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// docID parses the {doc_id} path value, replying 422 when it is not a
// positive integer.
func docID(w http.ResponseWriter, r *http.Request) (core.ID, bool) {
	id, err := core.ParseID(r.PathValue("doc_id"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "doc_id must be a positive integer")
		return 0, false
	}
	return id, true
}
