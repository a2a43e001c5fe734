// Package serve provides the HTTP server command for the bookmap CLI.
package serve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agentstation/bookmap/cmd/application"
	"github.com/agentstation/bookmap/internal/cmd/emoji"
	"github.com/agentstation/bookmap/internal/server"
	"github.com/agentstation/bookmap/pkg/constants"
	pkgerrors "github.com/agentstation/bookmap/pkg/errors"
)

// NewCommand creates the serve command. apiKey returns the key clients
// must present when --auth is set; it is read when the command runs so a
// --config file can supply it.
func NewCommand(app application.Application, apiKey func() string) *cobra.Command {
	defaults := server.DefaultConfig()

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		GroupID: "server",
		Short:   "Start the REST API server",
		Long: `Start the bookmap REST API server.

Features:
  - Folder and tag structure analysis backed by the suggestion oracle
  - Offline reconciliation of supplied proposals (/api/v1/reconcile)
  - Tag suggestion with an in-memory TTL cache
  - Bulk tag and folder assignment
  - Rate limiting (requests per minute per IP)
  - API key authentication (optional)
  - CORS support for browser extensions and web applications
  - Request logging with request ids and panic recovery
  - Graceful shutdown with connection draining

Analysis routes are also mounted at the root (/analyze-folder-structure, ...)
for older clients unless --legacy-routes=false.`,
		Example: `  # Start on default port 8080
  bookmap serve

  # Start on custom port with authentication (key from API_KEY)
  bookmap serve --port 3000 --auth

  # Restrict CORS to a browser extension
  bookmap serve --cors-origins "chrome-extension://abcdef"

  # Versioned routes only
  bookmap serve --legacy-routes=false`,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if apiKey != nil {
				key = apiKey()
			}
			return runServer(cmd, args, app, key)
		},
	}

	// Server configuration flags
	cmd.Flags().Int("port", defaults.Port, "Server port")
	cmd.Flags().String("host", defaults.Host, "Bind address")

	// CORS flags
	cmd.Flags().Bool("cors", defaults.CORSEnabled, "Enable CORS")
	cmd.Flags().StringSlice("cors-origins", []string{}, "Allowed CORS origins (comma-separated, default all)")

	// Authentication flags
	cmd.Flags().Bool("auth", false, "Enable API key authentication")
	cmd.Flags().String("auth-header", defaults.AuthHeader, "Authentication header name")

	// Performance flags
	cmd.Flags().Int("rate-limit", defaults.RateLimit, "Requests per minute per IP (0 to disable)")
	cmd.Flags().Int("cache-ttl", int(defaults.CacheTTL/time.Second), "Tag suggestion cache TTL in seconds")

	// Timeout flags
	cmd.Flags().Duration("read-timeout", defaults.ReadTimeout, "HTTP read timeout")
	cmd.Flags().Duration("write-timeout", defaults.WriteTimeout, "HTTP write timeout")
	cmd.Flags().Duration("idle-timeout", defaults.IdleTimeout, "HTTP idle timeout")

	// Routing flags
	cmd.Flags().String("prefix", defaults.PathPrefix, "API path prefix")
	cmd.Flags().Bool("legacy-routes", defaults.LegacyRoutes, "Also mount analysis routes at the root path")

	return cmd
}

func runServer(cmd *cobra.Command, _ []string, app application.Application, apiKey string) error {
	cfg, err := parseConfig(cmd)
	if err != nil {
		return err
	}
	cfg.APIKey = apiKey
	logger := app.Logger()

	if cfg.AuthEnabled && cfg.APIKey == "" {
		return fmt.Errorf("--auth requires API_KEY to be set")
	}
	if !app.OracleConfigured() {
		logger.Warn().
			Str("provider", app.ProviderName()).
			Msg("No oracle API key configured; only offline reconciliation will succeed")
	}

	logger.Info().
		Int("port", cfg.Port).
		Str("host", cfg.Host).
		Str("prefix", cfg.PathPrefix).
		Bool("legacy_routes", cfg.LegacyRoutes).
		Bool("cors", cfg.CORSEnabled).
		Bool("auth", cfg.AuthEnabled).
		Int("rate_limit", cfg.RateLimit).
		Dur("cache_ttl", cfg.CacheTTL).
		Msg("Starting API server")

	srv, err := server.New(app, cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	logger.Debug().
		Str("addr", httpServer.Addr).
		Dur("read_timeout", cfg.ReadTimeout).
		Dur("write_timeout", cfg.WriteTimeout).
		Dur("idle_timeout", cfg.IdleTimeout).
		Msg("Creating HTTP server")

	return startWithGracefulShutdown(cmd.Context(), httpServer, srv, logger, cmd.OutOrStdout())
}

// parseConfig parses command flags into server configuration.
// HTTP_PORT and HTTP_HOST override the flags.
func parseConfig(cmd *cobra.Command) (server.Config, error) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("HTTP_PORT"); envPort != "" {
		p, err := parsePort(envPort)
		if err != nil {
			return server.Config{}, pkgerrors.WrapValidation("HTTP_PORT", err)
		}
		port = p
	}
	if envHost := os.Getenv("HTTP_HOST"); envHost != "" {
		host = envHost
	}
	if _, err := parsePort(strconv.Itoa(port)); err != nil {
		return server.Config{}, pkgerrors.WrapValidation("port", err)
	}

	return server.Config{
		Host:         host,
		Port:         port,
		PathPrefix:   mustGetString(cmd, "prefix"),
		LegacyRoutes: mustGetBool(cmd, "legacy-routes"),
		CORSEnabled:  mustGetBool(cmd, "cors"),
		CORSOrigins:  mustGetStringSlice(cmd, "cors-origins"),
		AuthEnabled:  mustGetBool(cmd, "auth"),
		AuthHeader:   mustGetString(cmd, "auth-header"),
		RateLimit:    mustGetInt(cmd, "rate-limit"),
		CacheTTL:     time.Duration(mustGetInt(cmd, "cache-ttl")) * time.Second,
		ReadTimeout:  mustGetDuration(cmd, "read-timeout"),
		WriteTimeout: mustGetDuration(cmd, "write-timeout"),
		IdleTimeout:  mustGetDuration(cmd, "idle-timeout"),
	}, nil
}

// parsePort safely parses a port string to integer.
func parsePort(portStr string) (int, error) {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("invalid port number: %s", portStr)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port out of range: %d", port)
	}
	return port, nil
}

// startWithGracefulShutdown serves until ctx is canceled, then drains
// connections within constants.ShutdownTimeout.
func startWithGracefulShutdown(ctx context.Context, httpServer *http.Server, srv *server.Server, logger *zerolog.Logger, out io.Writer) error {
	serverErr := make(chan error, 1)

	go func() {
		logger.Info().
			Str("addr", httpServer.Addr).
			Str("service", "API").
			Msg("HTTP server listening")

		fmt.Fprintf(out, "%s API server listening on %s\n", emoji.Success, httpServer.Addr)
		fmt.Fprintln(out, "   Press Ctrl+C to stop")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("server failed: %w", err)
		}
	}()

	select {
	case err := <-serverErr:
		_ = srv.Shutdown(context.Background())
		return err
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received via context")
		fmt.Fprintf(out, "\n%s Shutting down API server...\n", emoji.Warning)

		// The parent context is already canceled.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("Server resources shutdown had issues")
		}

		logger.Info().Msg("Server stopped gracefully")
		fmt.Fprintf(out, "%s API server stopped gracefully\n", emoji.Success)
		return nil
	}
}

func mustGetInt(cmd *cobra.Command, name string) int {
	val, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

func mustGetStringSlice(cmd *cobra.Command, name string) []string {
	val, err := cmd.Flags().GetStringSlice(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

func mustGetDuration(cmd *cobra.Command, name string) time.Duration {
	val, err := cmd.Flags().GetDuration(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}
