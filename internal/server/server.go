// Package server provides the HTTP server for the bookmap API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/bookmap/cmd/application"
	"github.com/agentstation/bookmap/internal/server/cache"
	"github.com/agentstation/bookmap/internal/server/middleware"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	app         application.Application
	cache       *cache.Cache
	rateLimiter *middleware.RateLimiter
	logger      *zerolog.Logger
	config      Config
	startTime   time.Time
}

// New creates a new server instance with the given configuration.
func New(app application.Application, cfg Config) (*Server, error) {
	logger := app.Logger()

	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = DefaultConfig().CacheTTL
	}
	if cfg.AuthHeader == "" {
		cfg.AuthHeader = DefaultConfig().AuthHeader
	}

	s := &Server{
		app:       app,
		cache:     cache.New(cfg.CacheTTL, cfg.CacheTTL*2),
		logger:    logger,
		config:    cfg,
		startTime: time.Now(),
	}
	if cfg.RateLimit > 0 {
		s.rateLimiter = middleware.NewRateLimiter(cfg.RateLimit, logger)
	}

	logger.Debug().
		Str("prefix", cfg.PathPrefix).
		Bool("oracle_configured", app.OracleConfigured()).
		Str("provider", app.ProviderName()).
		Msg("Server instance created")
	return s, nil
}

// Handler returns the configured http.Handler with middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// Shutdown stops background work owned by the server.
func (s *Server) Shutdown(_ context.Context) error {
	s.logger.Info().Msg("Shutting down server background services")
	if s.rateLimiter != nil {
		s.rateLimiter.Close()
	}
	s.cache.Clear()
	return nil
}

// Cache returns the server's cache instance.
func (s *Server) Cache() *cache.Cache {
	return s.cache
}

// StartTime returns the server start time for uptime calculations.
func (s *Server) StartTime() time.Time {
	return s.startTime
}
