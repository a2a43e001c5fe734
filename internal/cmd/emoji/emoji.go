// Package emoji provides symbol constants for CLI output.
package emoji

// Status symbols used in command output.
const (
	// Success marks completed operations and configured keys.
	Success = "✓"

	// Error marks failures and missing required configuration.
	Error = "✗"

	// Warning marks non-fatal issues reported with a result.
	Warning = "!"

	// New marks a folder or tag the reconciliation creates.
	New = "+"

	// Remove marks a folder or tag the reconciliation deletes.
	Remove = "-"

	// Existing marks a folder or tag that is kept as is.
	Existing = "="
)
