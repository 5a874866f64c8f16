// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes loading and search over HTTP with gin.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/components/indexer"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pdiddy/anyparser-loader/internal/loader"
	"github.com/pdiddy/anyparser-loader/pkg/types"
)

// DefaultAddr is the listen address when ServerConfig.Addr is empty.
const DefaultAddr = ":8080"

// LoaderFactory builds a loader for one request's configuration. The request
// config carries only a target and backend options; credentials, the API
// endpoint and HTTP settings come from the factory.
type LoaderFactory func(cfg types.LoaderConfig) (document.Loader, error)

// DocumentStore is the persistence the API writes to and searches. It may
// be nil, in which case storing and searching are unavailable.
type DocumentStore interface {
	indexer.Indexer
	retriever.Retriever
}

// Server wires HTTP handlers to a loader factory and an optional store.
type Server struct {
	newLoader LoaderFactory
	store     DocumentStore
	log       zerolog.Logger
	fileRoot  string
}

// Option configures a Server.
type Option func(*Server)

// WithFileRoot allows file_path targets, resolved inside root. Without it
// the load endpoint accepts URL targets only.
func WithFileRoot(root string) Option {
	return func(s *Server) {
		s.fileRoot = root
	}
}

// New returns a Server. store may be nil.
func New(newLoader LoaderFactory, store DocumentStore, log zerolog.Logger, opts ...Option) *Server {
	s := &Server{newLoader: newLoader, store: store, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the gin engine with all routes registered.
func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", s.health)

	api := r.Group("/api/v1")
	{
		api.POST("/load", s.load)
		api.GET("/search", s.search)
	}
	return r
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, cfg types.ServerConfig) error {
	addr := cfg.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info().Msg("shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx := s.log.WithContext(c.Request.Context())
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		s.log.Info().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// statusFor maps a load error to an HTTP status.
func statusFor(err error) int {
	var cfgErr *loader.ConfigurationError
	var normErr *loader.NormalizationError
	switch {
	case errors.As(err, &cfgErr):
		return http.StatusBadRequest
	case errors.As(err, &normErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
