// Package server provides the HTTP API for ronbun: artifact content lookup
// and the bilingual translate-stream.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hikari/ronbun/internal/config"
	"github.com/hikari/ronbun/internal/resolve"
	"github.com/hikari/ronbun/internal/translate"
	"go.uber.org/zap"
)

// ContentResolver yields the best available content for a paper.
type ContentResolver interface {
	Resolve(ctx context.Context, paperID string, bilingual bool) (string, error)
}

// Server is the HTTP server for the ronbun API.
type Server struct {
	resolver   ContentResolver
	translator *translate.Translator
	ledger     *resolve.Ledger // may be nil
	config     *config.Config
	logger     *zap.Logger
	server     *http.Server
}

// NewServer creates a server with the given dependencies. ledger may be nil.
func NewServer(
	resolver ContentResolver,
	translator *translate.Translator,
	ledger *resolve.Ledger,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		resolver:   resolver,
		translator: translator,
		ledger:     ledger,
		config:     cfg,
		logger:     logger,
	}
}

// Router builds the chi router. Streaming routes carry no Timeout or Compress
// middleware: a compressed or deadline-bound response defeats keepalive.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Use(middleware.Compress(5))
		r.Get("/health", s.handleHealth)
		r.Get("/api/v1/status", s.handleStatus)
		r.Get("/api/v1/papers/{id}/content", s.handleContent)
	})

	r.Get("/api/v1/papers/{id}/translate-stream", s.handleTranslateStream)
	r.Post("/api/v1/translate-stream", s.handleTranslateInline)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
