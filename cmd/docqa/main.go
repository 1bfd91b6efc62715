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

package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/docqa/config"
	"github.com/urfave/cli/v2"
)

const (
	configKey         = "config"
	serviceOptionsKey = "service-options"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "docqa",
		Usage: "Question answering over uploaded PDF documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error); overrides the config file",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				Value:   "docqa.yaml",
				EnvVars: []string{"DOCQA_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a .env file with DOCQA_* variables",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "Directory holding the catalog, files and vector indexes; overrides the config file",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address; overrides the config file",
					},
				},
			},
			{
				Name:      "upload",
				Usage:     "Upload and index a PDF",
				ArgsUsage: "<file.pdf>",
				Action:    uploadCommand,
			},
			{
				Name:   "list",
				Usage:  "List cataloged documents",
				Action: listCommand,
			},
			{
				Name:      "ask",
				Usage:     "Ask a question about a document",
				ArgsUsage: "<question>",
				Action:    askCommand,
				Flags:     []cli.Flag{docIDFlag(), languageFlag()},
			},
			{
				Name:   "summarize",
				Usage:  "Summarize a document",
				Action: summarizeCommand,
				Flags:  []cli.Flag{docIDFlag(), languageFlag()},
			},
			{
				Name:   "delete",
				Usage:  "Delete a document, its file and its index",
				Action: deleteCommand,
				Flags:  []cli.Flag{docIDFlag()},
			},
			{
				Name:   "reindex",
				Usage:  "Rebuild the vector index of one document or all of them",
				Action: reindexCommand,
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:    "doc-id",
						Aliases: []string{"d"},
						Usage:   "Catalog ID of the document",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Reindex every cataloged document",
					},
					&cli.BoolFlag{
						Name:  "stop-on-error",
						Usage: "Abort a bulk reindex at the first failure",
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N documents",
						Value: 1,
					},
				},
			},
			{
				Name:   "init-config",
				Usage:  "Write the effective configuration to the config file path",
				Action: initConfigCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
			},
		},
	}
}

func docIDFlag() cli.Flag {
	return &cli.Int64Flag{
		Name:     "doc-id",
		Aliases:  []string{"d"},
		Usage:    "Catalog ID of the document",
		Required: true,
	}
}

func languageFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "language",
		Usage: "Answer language (english, hindi, telugu)",
		Value: "english",
	}
}

// setup loads configuration and installs the default logger.
func setup(c *cli.Context) error {
	if err := config.LoadDotEnv(c.String("env-file")); err != nil {
		return err
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if dir := c.String("data-dir"); dir != "" {
		cfg.SetDataDir(dir)
	}
	if level := c.String("log-level"); level != "" {
		cfg.Logging.Level = level
	}

	if err := setupLogger(cfg.Logging.Level); err != nil {
		return err
	}

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

func loadedConfig(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[configKey].(*config.Config); ok {
		return cfg
	}
	return config.DefaultConfig()
}

func setupLogger(levelStr string) error {
	level, err := parseLevel(levelStr)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", s)
	}
}
