// Package assign places individual bookmarks into an existing vocabulary:
// tags picked per bookmark, and folders picked for a batch in one call.
package assign

import (
	"github.com/agentstation/bookmap/pkg/errors"
	"github.com/agentstation/bookmap/pkg/oracle"
)

// StageAssign names the assignment stage in errors and logs.
const StageAssign = "assign"

// Service talks to the oracle on behalf of the assignment endpoints.
type Service struct {
	oracle  oracle.Oracle
	options *options
}

// New creates a Service.
func New(o oracle.Oracle, opts ...Option) (*Service, error) {
	if o == nil {
		return nil, &errors.ValidationError{Field: "oracle", Message: "cannot be nil"}
	}
	options, err := defaultOptions().apply(opts...)
	if err != nil {
		return nil, err
	}
	return &Service{oracle: o, options: options}, nil
}

// FallbackFolder returns the folder used when nothing else fits.
func (s *Service) FallbackFolder() string {
	return s.options.fallbackFolder
}

// limit trims a batch to the configured maximum and reports whether it did.
func limit[T any](items []T, max int) ([]T, bool) {
	if len(items) > max {
		return items[:max], true
	}
	return items, false
}
