package assign

import (
	"strings"

	"github.com/agentstation/bookmap/pkg/constants"
	"github.com/agentstation/bookmap/pkg/errors"
)

type options struct {
	concurrency    int
	maxBookmarks   int
	fallbackFolder string
}

func defaultOptions() *options {
	return &options{
		concurrency:    constants.DefaultBulkConcurrency,
		maxBookmarks:   constants.MaxBulkBookmarks,
		fallbackFolder: constants.FallbackFolder,
	}
}

// Option configures a Service.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithConcurrency bounds the number of in-flight oracle calls during
// bulk tag assignment.
func WithConcurrency(n int) Option {
	return func(o *options) error {
		if n < 1 {
			return &errors.ValidationError{Field: "concurrency", Value: n, Message: "must be at least 1"}
		}
		o.concurrency = n
		return nil
	}
}

// WithMaxBookmarks caps how many bookmarks a bulk call processes.
func WithMaxBookmarks(n int) Option {
	return func(o *options) error {
		if n < 1 {
			return &errors.ValidationError{Field: "max_bookmarks", Value: n, Message: "must be at least 1"}
		}
		o.maxBookmarks = n
		return nil
	}
}

// WithFallbackFolder sets the folder used when no listed folder fits.
func WithFallbackFolder(name string) Option {
	return func(o *options) error {
		name = strings.TrimSpace(name)
		if name == "" {
			return &errors.ValidationError{Field: "fallback_folder", Message: "cannot be empty"}
		}
		o.fallbackFolder = name
		return nil
	}
}
