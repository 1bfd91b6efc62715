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

// Package config loads the docqa configuration.
//
// Settings are layered: built-in defaults, then a YAML file, then DOCQA_*
// environment variables (optionally read from a .env file). Command-line
// flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/docqa/ai"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for docqa.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	AI        ai.Config       `yaml:"ai"`
	Ingestion IngestionConfig `yaml:"ingestion"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StorageConfig locates on-disk state. Empty paths are derived from DataDir.
type StorageConfig struct {
	DataDir     string `yaml:"data_dir"`
	Database    string `yaml:"database"`
	Files       string `yaml:"files"`
	VectorStore string `yaml:"vectorstore"`
}

// IngestionConfig holds chunking and embedding configuration.
type IngestionConfig struct {
	ChunkSize     int           `yaml:"chunk_size"`
	ChunkOverlap  int           `yaml:"chunk_overlap"`
	BatchSize     int           `yaml:"batch_size"`
	PoolSize      int           `yaml:"pool_size"` // 0 = NumCPU/2
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
}

// RetrievalConfig holds retrieval configuration.
type RetrievalConfig struct {
	K        int `yaml:"k"`
	SummaryK int `yaml:"summary_k"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Addr:            ":8000",
			CORSOrigins:     []string{"http://localhost:3000"},
			MaxUploadBytes:  64 << 20,
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			DataDir: ".",
		},
		AI: *ai.DefaultConfig(),
		Ingestion: IngestionConfig{
			ChunkSize:     1000,
			ChunkOverlap:  200,
			BatchSize:     16,
			RetryAttempts: 3,
			RetryDelay:    time.Second,
		},
		Retrieval: RetrievalConfig{
			K:        4,
			SummaryK: 5,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from a YAML file and the environment.
// A missing file yields the defaults; an empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	// Derived paths are recomputed after the file may change DataDir.
	cfg.Storage = StorageConfig{DataDir: cfg.Storage.DataDir}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadDotEnv loads environment variables from .env files without overriding
// variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return nil
}

// SetDataDir moves all storage under dir, replacing any explicit paths.
func (c *Config) SetDataDir(dir string) {
	c.Storage = StorageConfig{DataDir: dir}
	c.applyDefaults()
}

// Save writes the config to the given path, creating directories as needed.
// The AI token is never written; supply it through DOCQA_AI_TOKEN.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out := *c
	out.AI.Token = ""
	data, err := yaml.Marshal(&out)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("config: server.addr is required")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return errors.New("config: server.max_upload_bytes must be positive")
	}
	if c.Ingestion.ChunkSize <= 0 {
		return errors.New("config: ingestion.chunk_size must be positive")
	}
	if c.Ingestion.ChunkOverlap < 0 || c.Ingestion.ChunkOverlap >= c.Ingestion.ChunkSize {
		return fmt.Errorf("config: ingestion.chunk_overlap must be between 0 and %d", c.Ingestion.ChunkSize-1)
	}
	if c.Ingestion.RetryAttempts <= 0 {
		return errors.New("config: ingestion.retry_attempts must be positive")
	}
	return c.AI.Validate()
}

// applyDefaults fills zero values left by a partial file.
func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Server.MaxUploadBytes == 0 {
		c.Server.MaxUploadBytes = 64 << 20
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "."
	}
	if c.Storage.Database == "" {
		c.Storage.Database = filepath.Join(c.Storage.DataDir, "documents.db")
	}
	if c.Storage.Files == "" {
		c.Storage.Files = filepath.Join(c.Storage.DataDir, "files")
	}
	if c.Storage.VectorStore == "" {
		c.Storage.VectorStore = filepath.Join(c.Storage.DataDir, "vectorstore")
	}
	if c.Ingestion.ChunkSize == 0 {
		c.Ingestion.ChunkSize = 1000
	}
	if c.Ingestion.BatchSize == 0 {
		c.Ingestion.BatchSize = 16
	}
	if c.Ingestion.RetryAttempts == 0 {
		c.Ingestion.RetryAttempts = 3
	}
	if c.Ingestion.RetryDelay == 0 {
		c.Ingestion.RetryDelay = time.Second
	}
	if c.Retrieval.K == 0 {
		c.Retrieval.K = 4
	}
	if c.Retrieval.SummaryK == 0 {
		c.Retrieval.SummaryK = 5
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	defaults := ai.DefaultConfig()
	if c.AI.Provider == "" {
		c.AI.Provider = defaults.Provider
	}
	if c.AI.Host == "" {
		c.AI.Host = defaults.Host
	}
	if c.AI.EmbeddingModel == "" {
		c.AI.EmbeddingModel = defaults.EmbeddingModel
	}
	if c.AI.ChatModel == "" {
		c.AI.ChatModel = defaults.ChatModel
	}
	c.AI.Normalize()
}
