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

// Package files stores uploaded documents on the local filesystem.
package files

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/storage"
)

// Store implements storage.FileStore under a single directory.
type Store struct {
	dir    string
	logger *slog.Logger
}

var _ storage.FileStore = (*Store)(nil)

// NewStore creates the directory if needed and returns a store rooted there.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create file directory: %w", err)
	}
	return &Store{
		dir:    dir,
		logger: slog.Default().With("component", "file-store"),
	}, nil
}

// Dir returns the root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes r to <dir>/<id>-<basename>. A partially written file is removed.
func (s *Store) Save(id core.ID, filename string, r io.Reader) (string, int64, error) {
	name := core.CleanFilename(filename)
	if name == "" {
		return "", 0, core.ErrEmptyFilename
	}
	path := filepath.Join(s.dir, fmt.Sprintf("%d-%s", id, name))

	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create %s: %w", path, err)
	}
	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", 0, fmt.Errorf("failed to write %s: %w", path, err)
	}

	s.logger.Debug("saved file", "doc_id", int64(id), "path", path, "size_bytes", size)
	return path, size, nil
}

// Open opens a stored file for random access.
// Returns storage.ErrFileNotFound if the file is gone.
func (s *Store) Open(path string) (storage.File, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", storage.ErrFileNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &file{File: f, size: info.Size()}, nil
}

// Remove deletes a stored file. Missing files are ignored.
func (s *Store) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

type file struct {
	*os.File
	size int64
}

func (f *file) Size() int64 {
	return f.size
}
