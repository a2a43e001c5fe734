// Package differ computes the delta between the current folder set and a
// validated proposal using composite-key set algebra.
package differ

import (
	"fmt"
	"io"
	"strings"

	"github.com/agentstation/bookmap/pkg/taxonomy"
)

// ChangeType classifies a key in a changeset.
type ChangeType string

const (
	// ChangeTypeCreate marks a proposed key absent from the current set.
	ChangeTypeCreate ChangeType = "new"
	// ChangeTypeKeep marks a key present on both sides.
	ChangeTypeKeep ChangeType = "existing"
	// ChangeTypeRemove marks a current key the proposal dropped.
	ChangeTypeRemove ChangeType = "to_remove"
)

// Changeset is the folder delta. Create and Remove are disjoint.
type Changeset struct {
	Create []taxonomy.Key // proposal order
	Keep   []taxonomy.Key // proposal order
	Remove []taxonomy.Key // snapshot order

	// Protected holds current keys the proposal dropped but whose names
	// are protected; they are neither created nor removed.
	Protected []taxonomy.Key

	Summary Summary

	status map[taxonomy.Key]ChangeType
}

// Summary provides counts for a changeset.
type Summary struct {
	Created      int `json:"created"`
	Kept         int `json:"kept"`
	Removed      int `json:"removed"`
	Protected    int `json:"protected"`
	TotalChanges int `json:"total_changes"`
}

func newChangeset() *Changeset {
	return &Changeset{
		Create:    []taxonomy.Key{},
		Keep:      []taxonomy.Key{},
		Remove:    []taxonomy.Key{},
		Protected: []taxonomy.Key{},
		status:    make(map[taxonomy.Key]ChangeType),
	}
}

func (c *Changeset) summarize() {
	c.Summary = Summary{
		Created:      len(c.Create),
		Kept:         len(c.Keep),
		Removed:      len(c.Remove),
		Protected:    len(c.Protected),
		TotalChanges: len(c.Create) + len(c.Remove),
	}
}

// Status returns the classification of k and whether k is known to the changeset.
// Protected keys report ChangeTypeKeep.
func (c *Changeset) Status(k taxonomy.Key) (ChangeType, bool) {
	t, ok := c.status[k]
	return t, ok
}

// HasChanges reports whether anything is created or removed.
func (c *Changeset) HasChanges() bool {
	return c.Summary.TotalChanges > 0
}

// IsEmpty reports whether the changeset is a no-op.
func (c *Changeset) IsEmpty() bool {
	return !c.HasChanges()
}

// String returns a one-line summary.
func (c *Changeset) String() string {
	if c.IsEmpty() {
		return "No changes detected"
	}
	var parts []string
	if n := len(c.Create); n > 0 {
		parts = append(parts, fmt.Sprintf("%d to create", n))
	}
	if n := len(c.Remove); n > 0 {
		parts = append(parts, fmt.Sprintf("%d to remove", n))
	}
	if n := len(c.Keep); n > 0 {
		parts = append(parts, fmt.Sprintf("%d kept", n))
	}
	return fmt.Sprintf("Changeset: %s (Total: %d changes)", strings.Join(parts, ", "), c.Summary.TotalChanges)
}

// Print writes a detailed, human-readable view of the changeset.
func (c *Changeset) Print(w io.Writer) {
	fmt.Fprintln(w, c.String())
	fmt.Fprintln(w, strings.Repeat("─", 60))
	printKeys(w, "➕ Create", c.Create)
	printKeys(w, "🗑️  Remove", c.Remove)
	printKeys(w, "🔒 Protected", c.Protected)
}

func printKeys(w io.Writer, title string, keys []taxonomy.Key) {
	if len(keys) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s (%d):\n", title, len(keys))
	for _, k := range keys {
		fmt.Fprintf(w, "  • %s\n", k.Path())
	}
}
