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

package docqa

import "errors"

var (
	// ErrIndexing is returned when an uploaded or re-indexed document could
	// not be turned into a vector index. The cause is wrapped alongside it.
	ErrIndexing = errors.New("failed to index document")

	// ErrUnknownProvider is returned for an AI provider name with no backend.
	ErrUnknownProvider = errors.New("unknown AI provider")
)
