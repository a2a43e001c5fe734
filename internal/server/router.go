package server

import (
	"net/http"
	"strings"

	"github.com/agentstation/bookmap/internal/server/handlers"
	"github.com/agentstation/bookmap/internal/server/middleware"
	"github.com/agentstation/bookmap/internal/server/response"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	mux := http.NewServeMux()

	h := handlers.New(s.app, s.cache, s.logger, s.startTime)

	s.registerRoutes(mux, h)

	return s.applyMiddleware(mux)
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux, h *handlers.Handlers) {
	prefix := strings.TrimSuffix(s.config.PathPrefix, "/")

	// Favicon handler (return 204 No Content to avoid 404 logs)
	mux.HandleFunc("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Public endpoints (no auth required)
	mux.HandleFunc("GET /{$}", h.HandleRoot)
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET "+prefix+"/health", h.HandleHealth)
	mux.HandleFunc("GET "+prefix+"/ready", h.HandleReady)

	analysis := map[string]http.HandlerFunc{
		"/analyze-folder-structure": h.HandleAnalyzeFolders,
		"/analyze-tag-structure":    h.HandleAnalyzeTags,
		"/suggest-tags":             h.HandleSuggestTags,
		"/bulk-assign-tags":         h.HandleBulkAssignTags,
		"/bulk-assign-folders":      h.HandleBulkAssignFolders,
	}
	for path, handler := range analysis {
		mux.HandleFunc(prefix+path, methods(handler, http.MethodPost))
		if s.config.LegacyRoutes && prefix != "" {
			mux.HandleFunc(path, methods(handler, http.MethodPost))
		}
	}
	mux.HandleFunc(prefix+"/reconcile", methods(h.HandleReconcile, http.MethodPost))
}

// methods restricts a handler to the given methods and answers the rest
// with the JSON 405 envelope.
func methods(next http.HandlerFunc, allowed ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, m := range allowed {
			if r.Method == m {
				next(w, r)
				return
			}
		}
		w.Header().Set("Allow", strings.Join(allowed, ", "))
		response.MethodNotAllowed(w, r.Method)
	}
}

// publicPaths lists the endpoints reachable without an API key.
func (s *Server) publicPaths() []string {
	prefix := strings.TrimSuffix(s.config.PathPrefix, "/")
	return []string{"/", "/health", "/favicon.ico", prefix + "/health", prefix + "/ready"}
}

// applyMiddleware wraps handler with middleware chain.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	cfg := s.config

	// Rate limiting (if enabled)
	if s.rateLimiter != nil {
		handler = middleware.RateLimit(s.rateLimiter)(handler)
	}

	// Authentication (if enabled)
	if cfg.AuthEnabled {
		authConfig := middleware.DefaultAuthConfig()
		authConfig.Enabled = true
		authConfig.APIKey = cfg.APIKey
		authConfig.HeaderName = cfg.AuthHeader
		authConfig.PublicPaths = s.publicPaths()
		handler = middleware.Auth(authConfig, s.logger)(handler)
	}

	// CORS (if enabled)
	if cfg.CORSEnabled {
		corsConfig := middleware.DefaultCORSConfig()
		if len(cfg.CORSOrigins) > 0 {
			corsConfig.AllowedOrigins = cfg.CORSOrigins
			corsConfig.AllowAll = false
		} else {
			corsConfig.AllowAll = true
		}
		if cfg.AuthHeader != "" && cfg.AuthHeader != "X-API-Key" {
			corsConfig.AllowedHeaders = append(corsConfig.AllowedHeaders, cfg.AuthHeader)
		}
		handler = middleware.CORS(corsConfig)(handler)
	}

	// Logging and recovery (always enabled)
	handler = middleware.Logger(s.logger)(handler)
	handler = middleware.Recovery(s.logger)(handler)

	return handler
}
