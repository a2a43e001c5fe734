// Package errors provides the error types used across bookmap.
// Sentinels support errors.Is checks; typed errors carry the context
// needed to map a failure onto an HTTP status or a CLI exit message.
package errors

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is reports whether any error in err's tree matches target.
var Is = errors.Is

// As finds the first error in err's tree that matches target.
var As = errors.As

// Common sentinel errors
var (
	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrAPIKeyRequired indicates that an API key is required but not provided
	ErrAPIKeyRequired = errors.New("API key required")

	// ErrProviderUnavailable indicates that the oracle provider is temporarily unavailable
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrRateLimited indicates that the API rate limit has been exceeded
	ErrRateLimited = errors.New("rate limited")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")

	// ErrEmptyResponse indicates that the suggestion oracle returned no content
	ErrEmptyResponse = errors.New("empty oracle response")

	// ErrMalformedResponse indicates that an oracle response could not be decoded
	ErrMalformedResponse = errors.New("malformed oracle response")

	// ErrUpstream marks failures of the suggestion oracle itself
	ErrUpstream = errors.New("upstream failure")
)

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// APIError represents an error from an oracle provider API
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	Endpoint   string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error from %s (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error from %s: %s", e.Provider, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *APIError) Is(target error) bool {
	if e.StatusCode == 429 {
		return target == ErrRateLimited
	}
	if e.StatusCode >= 500 {
		return target == ErrProviderUnavailable
	}
	return false
}

// NewAPIError creates a new APIError
func NewAPIError(provider string, statusCode int, message string) *APIError {
	return &APIError{
		Provider:   provider,
		StatusCode: statusCode,
		Message:    message,
	}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml"
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// AuthenticationError represents an authentication error against an oracle provider
type AuthenticationError struct {
	Provider string
	Method   string // "api_key", "bearer"
	Message  string
	Err      error
}

// Error implements the error interface
func (e *AuthenticationError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("authentication error for %s (%s): %s", e.Provider, e.Method, e.Message)
	}
	return fmt.Sprintf("authentication error (%s): %s", e.Method, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *AuthenticationError) Is(target error) bool {
	return target == ErrAPIKeyRequired
}

// NewAuthenticationError creates a new AuthenticationError
func NewAuthenticationError(provider, method, message string, err error) *AuthenticationError {
	return &AuthenticationError{
		Provider: provider,
		Method:   method,
		Message:  message,
		Err:      err,
	}
}

// TimeoutError represents an operation timeout
type TimeoutError struct {
	Operation string
	Duration  string
	Message   string
}

// Error implements the error interface
func (e *TimeoutError) Error() string {
	if e.Duration != "" {
		return fmt.Sprintf("operation %s timed out after %s: %s", e.Operation, e.Duration, e.Message)
	}
	return fmt.Sprintf("operation %s timed out: %s", e.Operation, e.Message)
}

// Is implements errors.Is support
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError(operation, duration, message string) *TimeoutError {
	return &TimeoutError{
		Operation: operation,
		Duration:  duration,
		Message:   message,
	}
}

// OracleError is a failed suggestion oracle round-trip.
// Stage distinguishes the first pass (fatal) from the review pass.
type OracleError struct {
	Stage     string // "first_pass", "review", "assign"
	Operation string
	Err       error
}

// Error implements the error interface
func (e *OracleError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("oracle %s failed during %s", e.Operation, e.Stage)
	}
	return fmt.Sprintf("oracle %s failed during %s: %v", e.Operation, e.Stage, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *OracleError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *OracleError) Is(target error) bool {
	return target == ErrUpstream
}

// NewOracleError creates a new OracleError
func NewOracleError(stage, operation string, err error) *OracleError {
	return &OracleError{Stage: stage, Operation: operation, Err: err}
}

// MalformedResponseError describes an oracle payload that stayed undecodable
// after the bounded repair. Head and Tail hold short snippets of the payload.
type MalformedResponseError struct {
	Length          int
	Head            string
	Tail            string
	RepairAttempted bool
	Err             error
}

// Error implements the error interface
func (e *MalformedResponseError) Error() string {
	msg := fmt.Sprintf("malformed oracle response (length %d, head %q, tail %q)", e.Length, e.Head, e.Tail)
	if e.RepairAttempted {
		msg += " after repair"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements errors.Unwrap
func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}

// snippetLen bounds the head/tail diagnostics.
const snippetLen = 200

// NewMalformedResponseError builds diagnostics from the raw payload.
func NewMalformedResponseError(content string, repaired bool, err error) *MalformedResponseError {
	head, tail := content, content
	if len(content) > snippetLen {
		cut := snippetLen
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		head = content[:cut]

		cut = len(content) - snippetLen
		for cut < len(content) && !utf8.RuneStart(content[cut]) {
			cut++
		}
		tail = content[cut:]
	}
	return &MalformedResponseError{
		Length:          len(content),
		Head:            head,
		Tail:            tail,
		RepairAttempted: repaired,
		Err:             err,
	}
}

// Helper functions for error checking

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsAPIKeyError checks if an error is related to API keys
func IsAPIKeyError(err error) bool {
	return errors.Is(err, ErrAPIKeyRequired)
}

// IsRateLimited checks if an error is a rate limit error
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// IsProviderUnavailable checks if an error indicates provider unavailability
func IsProviderUnavailable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable)
}

// IsUpstream checks if an error originated from the suggestion oracle
func IsUpstream(err error) bool {
	return errors.Is(err, ErrUpstream) || errors.Is(err, ErrEmptyResponse) || errors.Is(err, ErrMalformedResponse)
}

// Helper wrapping functions for common patterns

// WrapValidation wraps an error as a ValidationError
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}

// WrapAPI wraps an error as an APIError
func WrapAPI(provider string, statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return &APIError{
		Provider:   provider,
		StatusCode: statusCode,
		Message:    err.Error(),
		Err:        err,
	}
}

// WrapOracle wraps an error as an OracleError
func WrapOracle(stage, operation string, err error) error {
	if err == nil {
		return nil
	}
	return NewOracleError(stage, operation, err)
}
