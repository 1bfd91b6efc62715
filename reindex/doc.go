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

// Package reindex rebuilds the vector indexes of every cataloged document,
// typically after switching embedding models.
//
// Documents are processed one at a time in catalog order with progress
// reported to a writer. By default a failed document is logged and skipped;
// set Config.StopOnError to abort on the first failure.
package reindex
