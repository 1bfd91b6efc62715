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

import "errors"

var (
	// ErrFileStoreRequired is returned when a file store is not provided.
	ErrFileStoreRequired = errors.New("file store required")

	// ErrIndexStoreRequired is returned when an index store is not provided.
	ErrIndexStoreRequired = errors.New("index store required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrNoContent is returned when a document yields no extractable text.
	ErrNoContent = errors.New("document contains no extractable text")

	// ErrInvalidChunking is returned for a non-positive chunk size or an
	// overlap that is not smaller than the chunk size.
	ErrInvalidChunking = errors.New("invalid chunk size or overlap")

	// ErrInvalidMaxAttempts is returned when maxAttempts is not positive.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
)
