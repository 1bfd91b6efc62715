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

import "errors"

// Domain validation errors
var (
	// ErrEmptyFilename indicates an upload arrived without a file name.
	ErrEmptyFilename = errors.New("filename cannot be empty")

	// ErrNotPDF indicates an upload whose name does not end in .pdf.
	ErrNotPDF = errors.New("only PDF files are supported")

	// ErrEmptyQuestion indicates a question that is blank after trimming.
	ErrEmptyQuestion = errors.New("question cannot be empty")

	// ErrInvalidDocumentID indicates a document ID that is not a positive integer.
	ErrInvalidDocumentID = errors.New("invalid document id")
)

// Serialization errors
var (
	// ErrInvalidVectorLength indicates an encoded vector length that cannot fit the buffer.
	ErrInvalidVectorLength = errors.New("invalid vector length")
)
