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

package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/poiesic/docqa/core"
	"github.com/rs/cors"
)

// Service is the document QA behavior the HTTP layer depends on.
type Service interface {
	Upload(ctx context.Context, filename string, r io.Reader) (*core.Document, error)
	List(ctx context.Context) ([]*core.Document, error)
	Get(ctx context.Context, id core.ID) (*core.Document, error)
	Ask(ctx context.Context, id core.ID, question string, lang core.Language) (string, error)
	Summarize(ctx context.Context, id core.ID, lang core.Language) (string, error)
	Delete(ctx context.Context, id core.ID) error
	Reindex(ctx context.Context, id core.ID) (*core.Document, error)
}

// Defaults for Server options.
const (
	DefaultMaxUploadBytes  = 64 << 20
	DefaultShutdownTimeout = 10 * time.Second
)

// DefaultCORSOrigins lists the origins allowed when none are configured.
var DefaultCORSOrigins = []string{"http://localhost:3000"}

// Server serves the HTTP API.
type Server struct {
	svc             Service
	metrics         *Metrics
	logger          *slog.Logger
	corsOrigins     []string
	maxUploadBytes  int64
	shutdownTimeout time.Duration
	handler         http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithCORSOrigins sets the origins allowed to make credentialed requests.
// Default is http://localhost:3000.
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithMaxUploadBytes limits the size of an upload request body.
// Default is 64 MiB.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// WithShutdownTimeout bounds how long Run waits for in-flight requests.
// Default is 10 seconds.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// WithMetrics uses the given metrics instead of a fresh set.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Server for svc.
func New(svc Service, opts ...Option) *Server {
	s := &Server{
		svc:             svc,
		logger:          slog.Default(),
		corsOrigins:     DefaultCORSOrigins,
		maxUploadBytes:  DefaultMaxUploadBytes,
		shutdownTimeout: DefaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	s.logger = s.logger.With("component", "http")
	s.handler = s.routes()
	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Metrics returns the server's metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("POST /ask", s.handleAsk)
	mux.HandleFunc("GET /documents", s.handleListDocuments)
	mux.HandleFunc("GET /documents/{doc_id}", s.handleGetDocument)
	mux.HandleFunc("GET /summarize/{doc_id}", s.handleSummarize)
	mux.HandleFunc("DELETE /document/{doc_id}", s.handleDelete)
	mux.HandleFunc("POST /document/{doc_id}/reindex", s.handleReindex)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())

	c := cors.New(cors.Options{
		AllowedOrigins:   s.corsOrigins,
		AllowCredentials: true,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
			http.MethodDelete, http.MethodHead, http.MethodOptions,
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{RequestIDHeader},
	})

	return c.Handler(withRequestID(instrument(mux, s.metrics, s.logger)))
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "timeout", s.shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
