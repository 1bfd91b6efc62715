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
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/poiesic/docqa"
	"github.com/poiesic/docqa/config"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/ingestion"
	"github.com/poiesic/docqa/qa"
	"github.com/poiesic/docqa/reindex"
	"github.com/poiesic/docqa/server"
	"github.com/urfave/cli/v2"
)

// openService builds the service described by cfg.
func openService(cfg *config.Config, extra ...docqa.ServiceOption) (*docqa.Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	ingestionOpts := []ingestion.Option{
		ingestion.WithChunkSize(cfg.Ingestion.ChunkSize),
		ingestion.WithChunkOverlap(cfg.Ingestion.ChunkOverlap),
		ingestion.WithBatchSize(cfg.Ingestion.BatchSize),
		ingestion.WithRetry(cfg.Ingestion.RetryAttempts, cfg.Ingestion.RetryDelay),
	}
	if cfg.Ingestion.PoolSize > 0 {
		ingestionOpts = append(ingestionOpts, ingestion.WithPoolSize(cfg.Ingestion.PoolSize))
	}

	opts := []docqa.ServiceOption{
		docqa.WithAIConfig(&cfg.AI),
		docqa.WithIngestionOptions(ingestionOpts...),
		docqa.WithQAOptions(
			qa.WithRetrieverK(cfg.Retrieval.K),
			qa.WithSummaryK(cfg.Retrieval.SummaryK),
		),
	}
	opts = append(opts, extra...)

	svc, err := docqa.NewService(docqa.Paths{
		Database: cfg.Storage.Database,
		Files:    cfg.Storage.Files,
		Indexes:  cfg.Storage.VectorStore,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open service: %w", err)
	}
	return svc, nil
}

// withService runs fn against a service opened from the loaded config.
func withService(c *cli.Context, fn func(ctx context.Context, svc *docqa.Service) error) error {
	svc, err := openService(loadedConfig(c), serviceOptions(c)...)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, svc)
}

// serviceOptions returns extra service options stored on the app, used by
// tests to substitute the AI provider.
func serviceOptions(c *cli.Context) []docqa.ServiceOption {
	opts, _ := c.App.Metadata[serviceOptionsKey].([]docqa.ServiceOption)
	return opts
}

func serveCommand(c *cli.Context) error {
	cfg := loadedConfig(c)
	addr := cfg.Server.Addr
	if c.IsSet("addr") {
		addr = c.String("addr")
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return withService(c, func(_ context.Context, svc *docqa.Service) error {
		srv := server.New(svc,
			server.WithCORSOrigins(cfg.Server.CORSOrigins...),
			server.WithMaxUploadBytes(cfg.Server.MaxUploadBytes),
			server.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		)

		fmt.Fprintf(os.Stderr, "Data directory: %s\n", cfg.Storage.DataDir)
		fmt.Fprintf(os.Stderr, "AI provider: %s (%s)\n", cfg.AI.Provider, cfg.AI.Host)
		fmt.Fprintf(os.Stderr, "Chat model: %s, embedding model: %s\n", cfg.AI.ChatModel, cfg.AI.EmbeddingModel)
		fmt.Fprintln(os.Stderr)

		return srv.Run(ctx, addr)
	})
}

func uploadCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("a PDF file path is required")
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return withService(c, func(ctx context.Context, svc *docqa.Service) error {
		doc, err := svc.Upload(ctx, filepath.Base(path), f)
		if err != nil {
			return fmt.Errorf("upload failed: %w", err)
		}
		fmt.Fprintf(c.App.Writer, "Uploaded %s as doc_id %d (%d pages, %d chunks)\n",
			doc.Filename, doc.ID, doc.Pages, doc.Chunks)
		return nil
	})
}

func listCommand(c *cli.Context) error {
	return withService(c, func(ctx context.Context, svc *docqa.Service) error {
		docs, err := svc.List(ctx)
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			fmt.Fprintln(c.App.Writer, "No documents")
			return nil
		}

		tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tFILENAME\tPAGES\tCHUNKS\tSIZE\tCREATED")
		for _, doc := range docs {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%s\n",
				doc.ID, doc.Filename, doc.Pages, doc.Chunks, doc.SizeBytes,
				doc.CreatedAt.Local().Format(time.DateTime))
		}
		return tw.Flush()
	})
}

func askCommand(c *cli.Context) error {
	question := strings.Join(c.Args().Slice(), " ")

	return withService(c, func(ctx context.Context, svc *docqa.Service) error {
		answer, err := svc.Ask(ctx, core.ID(c.Int64("doc-id")), question, core.ParseLanguage(c.String("language")))
		if err != nil {
			return fmt.Errorf("answering failed: %w", err)
		}
		fmt.Fprintln(c.App.Writer, answer)
		return nil
	})
}

func summarizeCommand(c *cli.Context) error {
	return withService(c, func(ctx context.Context, svc *docqa.Service) error {
		summary, err := svc.Summarize(ctx, core.ID(c.Int64("doc-id")), core.ParseLanguage(c.String("language")))
		if err != nil {
			return fmt.Errorf("summarization failed: %w", err)
		}
		fmt.Fprintln(c.App.Writer, summary)
		return nil
	})
}

func deleteCommand(c *cli.Context) error {
	id := core.ID(c.Int64("doc-id"))
	return withService(c, func(ctx context.Context, svc *docqa.Service) error {
		if err := svc.Delete(ctx, id); err != nil {
			return fmt.Errorf("deletion failed: %w", err)
		}
		fmt.Fprintf(c.App.Writer, "Document %d deleted\n", id)
		return nil
	})
}

func reindexCommand(c *cli.Context) error {
	all := c.Bool("all")
	id := core.ID(c.Int64("doc-id"))
	switch {
	case all && id != 0:
		return errors.New("use either --doc-id or --all, not both")
	case !all && id <= 0:
		return errors.New("--doc-id or --all is required")
	}

	if c.Int("report-interval") <= 0 {
		return errors.New("report-interval must be greater than 0")
	}

	return withService(c, func(ctx context.Context, svc *docqa.Service) error {
		if !all {
			doc, err := svc.Reindex(ctx, id)
			if err != nil {
				return fmt.Errorf("reindex failed: %w", err)
			}
			fmt.Fprintf(c.App.Writer, "Document %d reindexed (%d chunks)\n", doc.ID, doc.Chunks)
			return nil
		}

		r, err := reindex.NewReindexer(svc, &reindex.Config{
			ReportInterval: c.Int("report-interval"),
			StopOnError:    c.Bool("stop-on-error"),
		}, c.App.ErrWriter)
		if err != nil {
			return err
		}
		if _, err := r.Run(ctx); err != nil {
			return fmt.Errorf("reindex failed: %w", err)
		}
		return nil
	})
}

func initConfigCommand(c *cli.Context) error {
	path := c.String("config")
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := loadedConfig(c).Save(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Wrote %s\n", path)
	return nil
}
