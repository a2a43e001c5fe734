// Package hierarchy inspects a proposed folder set for structural problems
// and renders it as an indented tree for the review pass.
package hierarchy

import (
	"math"
	"strings"

	"github.com/agentstation/bookmap/pkg/constants"
	"github.com/agentstation/bookmap/pkg/taxonomy"
)

// Collisions reports names that break the one-place-per-name rule.
// They are signals for the review pass, never errors.
type Collisions struct {
	// CrossLevel names are used both at top level and as a sub-folder.
	CrossLevel []string `json:"cross_level"`

	// CrossParent names appear as a sub-folder under two or more parents.
	CrossParent []string `json:"cross_parent"`

	// Parents lists the distinct parents of each CrossParent name.
	Parents map[string][]string `json:"parents,omitempty"`

	// Slashed names embed a path separator, usually a parent written into the name.
	Slashed []string `json:"slashed,omitempty"`
}

// Empty reports whether no collision of either kind was found.
// Slashed names alone do not count.
func (c Collisions) Empty() bool {
	return len(c.CrossLevel) == 0 && len(c.CrossParent) == 0
}

// Count returns the number of colliding names.
func (c Collisions) Count() int {
	return len(c.CrossLevel) + len(c.CrossParent)
}

// Validate scans folders for cross-level and cross-parent name reuse.
// Results keep first-seen order. The input is not modified.
func Validate(folders []taxonomy.Record) Collisions {
	topLevel := make(map[string]struct{})
	var subOrder []string
	parents := make(map[string][]string)
	var slashed []string
	seenSlash := make(map[string]struct{})

	for _, r := range folders {
		k := taxonomy.KeyOf(r)
		if k.Name == "" {
			continue
		}
		if strings.Contains(k.Name, "/") {
			if _, ok := seenSlash[k.Name]; !ok {
				seenSlash[k.Name] = struct{}{}
				slashed = append(slashed, k.Name)
			}
		}
		if k.IsTopLevel() {
			topLevel[k.Name] = struct{}{}
			continue
		}
		ps, seen := parents[k.Name]
		if !seen {
			subOrder = append(subOrder, k.Name)
		}
		if !contains(ps, k.Parent) {
			parents[k.Name] = append(ps, k.Parent)
		}
	}

	c := Collisions{Slashed: slashed}
	for _, name := range subOrder {
		if _, ok := topLevel[name]; ok {
			c.CrossLevel = append(c.CrossLevel, name)
		}
		if ps := parents[name]; len(ps) >= 2 {
			c.CrossParent = append(c.CrossParent, name)
			if c.Parents == nil {
				c.Parents = make(map[string][]string)
			}
			c.Parents[name] = ps
		}
	}
	return c
}

// ValidateAgainst runs Validate on proposal and also reports proposed
// sub-folders whose name is a top-level folder of current. Those names are
// appended to CrossLevel after the proposal-only findings.
func ValidateAgainst(current, proposal []taxonomy.Record) Collisions {
	c := Validate(proposal)

	topLevel := make(map[string]struct{})
	for _, r := range current {
		if k := taxonomy.KeyOf(r); k.Name != "" && k.IsTopLevel() {
			topLevel[k.Name] = struct{}{}
		}
	}
	if len(topLevel) == 0 {
		return c
	}

	for _, r := range proposal {
		k := taxonomy.KeyOf(r)
		if k.Name == "" || k.IsTopLevel() {
			continue
		}
		if _, ok := topLevel[k.Name]; ok && !contains(c.CrossLevel, k.Name) {
			c.CrossLevel = append(c.CrossLevel, k.Name)
		}
	}
	return c
}

// FolderLimit is the suggested upper bound on folder count for a
// collection of n bookmarks: min(15, max(3, floor(1.5*sqrt(n)))).
func FolderLimit(bookmarks int) int {
	if bookmarks < 0 {
		bookmarks = 0
	}
	limit := int(math.Floor(1.5 * math.Sqrt(float64(bookmarks))))
	return min(constants.MaxFolders, max(constants.MinFolders, limit))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
