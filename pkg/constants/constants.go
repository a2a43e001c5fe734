// Package constants holds limits, timeouts and defaults shared across bookmap.
package constants

import "time"

// Timeouts
const (
	// DefaultHTTPTimeout bounds a single request to an oracle provider
	DefaultHTTPTimeout = 120 * time.Second

	// ReviewTimeout bounds the review pass; expiry means "no adjustment"
	ReviewTimeout = 90 * time.Second

	// RetryBackoff is the base backoff for rate-limited oracle calls
	RetryBackoff = 1 * time.Second

	// ShutdownTimeout bounds graceful HTTP shutdown
	ShutdownTimeout = 30 * time.Second

	// SuggestCacheTTL is how long suggest-tags answers are reused
	SuggestCacheTTL = 10 * time.Minute
)

// File permissions
const (
	DirPermissions  = 0755
	FilePermissions = 0644
)

// Limits
const (
	// MaxRetries is the number of retries on a rate-limited oracle call
	MaxRetries = 3

	// MaxPromptBookmarks caps how many bookmarks are summarized into a prompt
	MaxPromptBookmarks = 50

	// MaxBulkBookmarks caps a bulk assignment request
	MaxBulkBookmarks = 100

	// DefaultBulkConcurrency is the worker count for bulk tag assignment
	DefaultBulkConcurrency = 8

	// MaxRepairDepth bounds the closers appended when repairing truncated JSON
	MaxRepairDepth = 32

	// MaxRequestBytes caps HTTP request bodies
	MaxRequestBytes = 4 << 20
)

// Folder count bounds used by the proposal size heuristic
const (
	MinFolders = 3
	MaxFolders = 15
)

// Token budgets per operation
const (
	SuggestTagsMaxTokens     = 2000
	TagStructureMaxTokens    = 10000
	FolderStructureMaxTokens = 15000
	BulkFoldersMaxTokens     = 15000
)

// DefaultReasoningEffort is sent to providers that accept a reasoning effort
const DefaultReasoningEffort = "low"

// FallbackFolder receives bookmarks that could not be assigned
const FallbackFolder = "未分類"

// DefaultProtectedNames are catch-all folders never proposed for removal
var DefaultProtectedNames = []string{"Uncategorized", "Inbox", FallbackFolder}
