// Package application provides the application interface for bookmap commands.
//
// Commands accept this interface rather than the concrete App so they can be
// tested with the Mock from internal/cmd/application.
//
// Usage in Commands:
//
//	func NewCommand(app application.Application) *cobra.Command {
//	    return &cobra.Command{
//	        RunE: func(cmd *cobra.Command, args []string) error {
//	            engine, err := app.Engine()
//	            if err != nil {
//	                return err
//	            }
//	            // ... use engine
//	            return nil
//	        },
//	    }
//	}
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/bookmap/pkg/assign"
	"github.com/agentstation/bookmap/pkg/reconcile"
)

// Application provides the application interface that commands need.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Engine returns the reconciliation engine backed by the configured
	// oracle. It fails when no oracle API key is configured.
	Engine() (*reconcile.Engine, error)

	// OfflineEngine returns an engine without an oracle. It reconciles
	// supplied proposals and never runs a review pass.
	OfflineEngine() *reconcile.Engine

	// Assigner returns the tag and folder assignment service.
	Assigner() (*assign.Service, error)

	// OracleConfigured reports whether the selected provider has an API key.
	OracleConfigured() bool

	// ProviderName returns the selected oracle provider.
	ProviderName() string

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml, ...).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
