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

package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Environment variables that override file settings.
const (
	EnvAddr           = "DOCQA_ADDR"
	EnvCORSOrigins    = "DOCQA_CORS_ORIGINS" // comma separated
	EnvMaxUploadBytes = "DOCQA_MAX_UPLOAD_BYTES"
	EnvDataDir        = "DOCQA_DATA_DIR"
	EnvDatabase       = "DOCQA_DATABASE"
	EnvFilesDir       = "DOCQA_FILES_DIR"
	EnvVectorStoreDir = "DOCQA_VECTORSTORE_DIR"
	EnvAIProvider     = "DOCQA_AI_PROVIDER"
	EnvAIHost         = "DOCQA_AI_HOST"
	EnvEmbeddingModel = "DOCQA_EMBEDDING_MODEL"
	EnvChatModel      = "DOCQA_CHAT_MODEL"
	EnvAIToken        = "DOCQA_AI_TOKEN"
	EnvLogLevel       = "DOCQA_LOG_LEVEL"
)

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		EnvAddr:           &c.Server.Addr,
		EnvDataDir:        &c.Storage.DataDir,
		EnvDatabase:       &c.Storage.Database,
		EnvFilesDir:       &c.Storage.Files,
		EnvVectorStoreDir: &c.Storage.VectorStore,
		EnvAIProvider:     &c.AI.Provider,
		EnvAIHost:         &c.AI.Host,
		EnvEmbeddingModel: &c.AI.EmbeddingModel,
		EnvChatModel:      &c.AI.ChatModel,
		EnvAIToken:        &c.AI.Token,
		EnvLogLevel:       &c.Logging.Level,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup(EnvCORSOrigins); ok && v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	if v, ok := lookup(EnvMaxUploadBytes); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: invalid %s %q: %w", EnvMaxUploadBytes, v, err)
		}
		c.Server.MaxUploadBytes = n
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
