package hierarchy

import (
	"strings"

	"github.com/agentstation/bookmap/pkg/taxonomy"
)

// View is a textual rendering of a folder set.
type View struct {
	// Tree is an indented "- name" outline, two spaces per level.
	Tree string `json:"tree"`

	// Paths lists "parent/name" for every sub-folder in input order.
	Paths []string `json:"paths"`
}

// Render draws folders depth-first in input order. Parents that are
// referenced but not declared become implicit roots. Each record is
// drawn once, so cyclic parent links cannot loop.
func Render(folders []taxonomy.Record) View {
	records := taxonomy.NormalizeAll(folders)

	children := make(map[string][]int)
	declared := make(map[string]struct{})
	for i, r := range records {
		declared[r.Name] = struct{}{}
		if r.Parent != "" {
			children[r.Parent] = append(children[r.Parent], i)
		}
	}

	var b strings.Builder
	drawn := make(map[int]bool, len(records))

	var walk func(name string, depth int)
	walk = func(name string, depth int) {
		for _, i := range children[name] {
			if drawn[i] {
				continue
			}
			drawn[i] = true
			line(&b, depth, records[i].Name)
			walk(records[i].Name, depth+1)
		}
	}

	implicit := make(map[string]bool)
	for i, r := range records {
		switch {
		case r.Parent == "" && !drawn[i]:
			drawn[i] = true
			line(&b, 0, r.Name)
			walk(r.Name, 1)
		case r.Parent != "":
			if _, ok := declared[r.Parent]; ok || implicit[r.Parent] {
				continue
			}
			implicit[r.Parent] = true
			line(&b, 0, r.Parent)
			walk(r.Parent, 1)
		}
	}

	// Records only reachable through a parent cycle.
	for i, r := range records {
		if drawn[i] {
			continue
		}
		drawn[i] = true
		line(&b, 0, r.Name)
		walk(r.Name, 1)
	}

	var paths []string
	for _, r := range records {
		if r.Parent != "" {
			paths = append(paths, taxonomy.KeyOf(r).Path())
		}
	}

	return View{Tree: strings.TrimRight(b.String(), "\n"), Paths: paths}
}

func line(b *strings.Builder, depth int, name string) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString("- ")
	b.WriteString(name)
	b.WriteByte('\n')
}
