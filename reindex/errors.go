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

package reindex

import "errors"

var (
	// ErrTargetRequired is returned when no Target is supplied.
	ErrTargetRequired = errors.New("reindex target is required")

	// ErrIncomplete is returned when one or more documents failed to reindex.
	ErrIncomplete = errors.New("reindex incomplete")
)
