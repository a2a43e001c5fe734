package server

import (
	"time"

	"github.com/agentstation/bookmap/pkg/constants"
)

// Config holds server configuration.
type Config struct {
	// Server settings
	Host string
	Port int

	// API settings
	PathPrefix string

	// LegacyRoutes also mounts the analysis endpoints at the root path.
	LegacyRoutes bool

	// CORS settings
	CORSEnabled bool
	CORSOrigins []string

	// Authentication settings
	AuthEnabled bool
	AuthHeader  string
	APIKey      string

	// Performance settings
	RateLimit int // Requests per minute per IP (0 to disable)
	CacheTTL  time.Duration

	// HTTP timeouts
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultConfig returns a Config with sensible defaults. The write timeout
// covers a first pass plus a review pass.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         8080,
		PathPrefix:   "/api/v1",
		LegacyRoutes: true,
		CORSEnabled:  true,
		CORSOrigins:  []string{},
		AuthEnabled:  false,
		AuthHeader:   "X-API-Key",
		RateLimit:    60,
		CacheTTL:     constants.SuggestCacheTTL,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2*constants.DefaultHTTPTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}
}
