package reconcile

import (
	"time"

	"github.com/agentstation/bookmap/pkg/constants"
	"github.com/agentstation/bookmap/pkg/review"
)

// Config is the explicit per-engine configuration. Nothing here is read
// from process state.
type Config struct {
	// ProtectedNames are never removed; defaults to constants.DefaultProtectedNames.
	ProtectedNames []string

	// ReviewMode controls the second oracle pass.
	ReviewMode review.Mode

	// ReviewTimeout bounds the review call.
	ReviewTimeout time.Duration

	// Per-operation reasoning effort.
	FolderReasoningEffort string
	ReviewReasoningEffort string
	TagReasoningEffort    string

	// Per-operation completion budgets.
	FolderMaxTokens int
	TagMaxTokens    int
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		ProtectedNames:        append([]string(nil), constants.DefaultProtectedNames...),
		ReviewMode:            review.ModeAlways,
		ReviewTimeout:         constants.ReviewTimeout,
		FolderReasoningEffort: constants.DefaultReasoningEffort,
		ReviewReasoningEffort: constants.DefaultReasoningEffort,
		TagReasoningEffort:    constants.DefaultReasoningEffort,
		FolderMaxTokens:       constants.FolderStructureMaxTokens,
		TagMaxTokens:          constants.TagStructureMaxTokens,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ProtectedNames == nil {
		c.ProtectedNames = d.ProtectedNames
	}
	if c.ReviewMode == "" {
		c.ReviewMode = d.ReviewMode
	}
	if c.ReviewTimeout == 0 {
		c.ReviewTimeout = d.ReviewTimeout
	}
	if c.FolderReasoningEffort == "" {
		c.FolderReasoningEffort = d.FolderReasoningEffort
	}
	if c.ReviewReasoningEffort == "" {
		c.ReviewReasoningEffort = d.ReviewReasoningEffort
	}
	if c.TagReasoningEffort == "" {
		c.TagReasoningEffort = d.TagReasoningEffort
	}
	if c.FolderMaxTokens == 0 {
		c.FolderMaxTokens = d.FolderMaxTokens
	}
	if c.TagMaxTokens == 0 {
		c.TagMaxTokens = d.TagMaxTokens
	}
	return c
}
