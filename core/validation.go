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

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidateFilename checks an uploaded file name.
//
// Validation rules:
//   - Name must not be empty
//   - Name must end in .pdf (case-insensitive)
//
// Directory components are ignored; callers store files under CleanFilename.
func ValidateFilename(name string) error {
	clean := CleanFilename(name)
	if clean == "" {
		return ErrEmptyFilename
	}
	if !strings.EqualFold(filepath.Ext(clean), ".pdf") {
		return fmt.Errorf("%w: %q", ErrNotPDF, clean)
	}
	return nil
}

// CleanFilename strips any directory components from an uploaded file name.
func CleanFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return base
}

// ValidateQuestion checks that a question has content after trimming whitespace.
func ValidateQuestion(question string) error {
	if strings.TrimSpace(question) == "" {
		return ErrEmptyQuestion
	}
	return nil
}
