package review

import (
	"strings"
	"time"

	"github.com/agentstation/bookmap/pkg/constants"
	"github.com/agentstation/bookmap/pkg/errors"
)

// Mode decides when the review pass runs.
type Mode string

const (
	// ModeAlways reviews every first-pass proposal.
	ModeAlways Mode = "always"
	// ModeCollisions reviews only proposals with detected collisions.
	ModeCollisions Mode = "collisions"
	// ModeOff never reviews.
	ModeOff Mode = "off"
)

// ParseMode parses a mode name; empty means ModeAlways.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeAlways, nil
	case ModeAlways, ModeCollisions, ModeOff:
		return m, nil
	default:
		return "", &errors.ValidationError{
			Field:   "review_mode",
			Value:   s,
			Message: "must be one of always, collisions, off",
		}
	}
}

type options struct {
	mode            Mode
	timeout         time.Duration
	maxTokens       int
	reasoningEffort string
}

func defaultOptions() *options {
	return &options{
		mode:            ModeAlways,
		timeout:         constants.ReviewTimeout,
		maxTokens:       constants.FolderStructureMaxTokens,
		reasoningEffort: constants.DefaultReasoningEffort,
	}
}

// Option configures a Coordinator.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithMode sets when the review pass runs.
func WithMode(mode Mode) Option {
	return func(o *options) error {
		m, err := ParseMode(string(mode))
		if err != nil {
			return err
		}
		o.mode = m
		return nil
	}
}

// WithTimeout bounds the review call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return &errors.ValidationError{Field: "timeout", Value: d, Message: "cannot be negative"}
		}
		o.timeout = d
		return nil
	}
}

// WithMaxTokens sets the completion budget of the review call.
func WithMaxTokens(n int) Option {
	return func(o *options) error {
		o.maxTokens = n
		return nil
	}
}

// WithReasoningEffort sets the reasoning effort of the review call.
func WithReasoningEffort(effort string) Option {
	return func(o *options) error {
		o.reasoningEffort = effort
		return nil
	}
}
