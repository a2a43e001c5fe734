// Package application provides test doubles for the command application interface.
package application

import (
	"github.com/rs/zerolog"

	app "github.com/agentstation/bookmap/cmd/application"
	"github.com/agentstation/bookmap/pkg/assign"
	"github.com/agentstation/bookmap/pkg/reconcile"
)

// Mock provides a mock implementation of Application for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default value.
//
// Example Usage:
//
//	mock := &application.Mock{
//	    EngineFunc: func() (*reconcile.Engine, error) {
//	        return reconcile.New(oracle.Static(`{"suggested_folders":[]}`), reconcile.Config{})
//	    },
//	}
//	cmd := analyze.NewCommand(mock)
type Mock struct {
	EngineFunc           func() (*reconcile.Engine, error)
	OfflineEngineFunc    func() *reconcile.Engine
	AssignerFunc         func() (*assign.Service, error)
	OracleConfiguredFunc func() bool
	ProviderNameFunc     func() string
	LoggerFunc           func() *zerolog.Logger
	OutputFormatFunc     func() string
	VersionFunc          func() string
	CommitFunc           func() string
	DateFunc             func() string
	BuiltByFunc          func() string
}

// Engine returns an engine using the mock function or nil.
func (m *Mock) Engine() (*reconcile.Engine, error) {
	if m.EngineFunc != nil {
		return m.EngineFunc()
	}
	return nil, nil
}

// OfflineEngine returns an engine using the mock function or a default
// engine without an oracle.
func (m *Mock) OfflineEngine() *reconcile.Engine {
	if m.OfflineEngineFunc != nil {
		return m.OfflineEngineFunc()
	}
	e, _ := reconcile.New(nil, reconcile.DefaultConfig())
	return e
}

// Assigner returns a service using the mock function or nil.
func (m *Mock) Assigner() (*assign.Service, error) {
	if m.AssignerFunc != nil {
		return m.AssignerFunc()
	}
	return nil, nil
}

// OracleConfigured uses the mock function or reports false.
func (m *Mock) OracleConfigured() bool {
	if m.OracleConfiguredFunc != nil {
		return m.OracleConfiguredFunc()
	}
	return false
}

// ProviderName returns the provider using the mock function or "openai".
func (m *Mock) ProviderName() string {
	if m.ProviderNameFunc != nil {
		return m.ProviderNameFunc()
	}
	return "openai"
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns output format using the mock function or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns commit using the mock function or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns date using the mock function or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns builtBy using the mock function or "test".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "test"
}

// Ensure Mock implements Application at compile time.
var _ app.Application = (*Mock)(nil)
