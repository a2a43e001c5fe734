// Package app provides the application context and dependency management
// for the bookmap CLI. It centralizes configuration, logging and the lazily
// built oracle that the engine and assignment service share.
package app

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/bookmap/internal/providers"
	"github.com/agentstation/bookmap/pkg/assign"
	"github.com/agentstation/bookmap/pkg/errors"
	"github.com/agentstation/bookmap/pkg/oracle"
	"github.com/agentstation/bookmap/pkg/reconcile"
)

// App represents the bookmap application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Lazily built, shared by every engine and assigner
	mu       sync.RWMutex
	oracle   oracle.Oracle
	engine   *reconcile.Engine
	offline  *reconcile.Engine
	assigner *assign.Service
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.NewConfigError("app", "failed to load config", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// OracleConfigured reports whether the selected provider has an API key.
func (a *App) OracleConfigured() bool {
	a.mu.RLock()
	injected := a.oracle != nil
	a.mu.RUnlock()
	return injected || a.config.ProvidersConfig().Configured()
}

// ProviderName returns the selected oracle provider.
func (a *App) ProviderName() string {
	return a.config.ProvidersConfig().Name()
}

// Engine returns the oracle-backed reconciliation engine, creating it
// lazily. It fails with a configuration error when no API key is set.
func (a *App) Engine() (*reconcile.Engine, error) {
	a.mu.RLock()
	if a.engine != nil {
		e := a.engine
		a.mu.RUnlock()
		return e, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.engine != nil {
		return a.engine, nil
	}
	o, err := a.oracleLocked()
	if err != nil {
		return nil, err
	}
	e, err := reconcile.New(o, a.config.EngineConfig())
	if err != nil {
		return nil, errors.NewConfigError("engine", "failed to create engine", err)
	}
	a.engine = e
	return e, nil
}

// OfflineEngine returns an engine without an oracle.
func (a *App) OfflineEngine() *reconcile.Engine {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.offline == nil {
		// New only fails while building the reviewer, which a nil oracle skips.
		a.offline, _ = reconcile.New(nil, a.config.EngineConfig())
	}
	return a.offline
}

// Assigner returns the assignment service, creating it lazily.
func (a *App) Assigner() (*assign.Service, error) {
	a.mu.RLock()
	if a.assigner != nil {
		s := a.assigner
		a.mu.RUnlock()
		return s, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.assigner != nil {
		return a.assigner, nil
	}
	o, err := a.oracleLocked()
	if err != nil {
		return nil, err
	}

	var opts []assign.Option
	if a.config.BulkConcurrency > 0 {
		opts = append(opts, assign.WithConcurrency(a.config.BulkConcurrency))
	}
	if folder := strings.TrimSpace(a.config.FallbackFolder); folder != "" {
		opts = append(opts, assign.WithFallbackFolder(folder))
	}
	s, err := assign.New(o, opts...)
	if err != nil {
		return nil, errors.NewConfigError("assign", "failed to create assignment service", err)
	}
	a.assigner = s
	return s, nil
}

// oracleLocked builds the oracle once. The caller holds the write lock.
func (a *App) oracleLocked() (oracle.Oracle, error) {
	if a.oracle != nil {
		return a.oracle, nil
	}
	cfg := a.config.ProvidersConfig()
	if !cfg.Configured() {
		return nil, errors.NewConfigError(cfg.Name(), "no suggestion oracle API key is configured", errors.ErrAPIKeyRequired)
	}
	o, err := providers.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	a.oracle = o
	return o, nil
}

// Shutdown releases cached engines. Oracle clients hold no background work.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.engine != nil || a.assigner != nil {
		a.logger.Debug().Msg("releasing oracle-backed services")
	}
	a.engine = nil
	a.assigner = nil
	a.offline = nil
	return nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithOracle sets the oracle used instead of the configured provider.
func WithOracle(o oracle.Oracle) Option {
	return func(a *App) error {
		a.oracle = o
		return nil
	}
}
