package reconcile

import (
	"github.com/agentstation/bookmap/pkg/differ"
	"github.com/agentstation/bookmap/pkg/taxonomy"
)

// Status is the lifecycle state of a folder in the final structure.
type Status string

// Statuses.
const (
	StatusNew      Status = Status(differ.ChangeTypeCreate)
	StatusExisting Status = Status(differ.ChangeTypeKeep)
	StatusRemove   Status = Status(differ.ChangeTypeRemove)
)

// Entry is one folder of the final structure.
type Entry struct {
	Name        string   `json:"name" yaml:"name"`
	Parent      string   `json:"parent" yaml:"parent"`
	Status      Status   `json:"status" yaml:"status"`
	Description string   `json:"description" yaml:"description"`
	MergeFrom   []string `json:"merge_from" yaml:"merge_from"`
}

// Key returns the composite key of the entry.
func (e Entry) Key() taxonomy.Key {
	return taxonomy.NewKey(e.Parent, e.Name)
}

// Structure is the ordered final structure plus the names to delete.
type Structure struct {
	Entries     []Entry
	RemoveNames []string
}

// Assemble merges a validated proposal and its changeset into one list.
// Proposal folders come first in proposal order, then removals in
// snapshot order, then protected survivors the proposal left out. Each
// key is emitted once. RemoveNames is the union by name of the removed
// keys and the names the oracle asked to remove, without protected names.
func Assemble(proposal taxonomy.Proposal, cs *differ.Changeset, protected taxonomy.ProtectedNames) Structure {
	emitted := taxonomy.NewKeySet()
	entries := make([]Entry, 0, len(proposal.Folders)+len(cs.Remove)+len(cs.Protected))

	for _, r := range proposal.Folders {
		r = r.Normalize()
		k := taxonomy.KeyOf(r)
		if k.Name == "" || !emitted.Add(k) {
			continue
		}
		status := StatusNew
		if t, ok := cs.Status(k); ok && t == differ.ChangeTypeKeep {
			status = StatusExisting
		}
		entries = append(entries, Entry{
			Name:        k.Name,
			Parent:      k.Parent,
			Status:      status,
			Description: r.Description,
			MergeFrom:   nonNil(r.MergeFrom),
		})
	}

	for _, k := range cs.Remove {
		if !emitted.Add(k) {
			continue
		}
		entries = append(entries, Entry{Name: k.Name, Parent: k.Parent, Status: StatusRemove, MergeFrom: []string{}})
	}

	for _, k := range cs.Protected {
		if !emitted.Add(k) {
			continue
		}
		entries = append(entries, Entry{Name: k.Name, Parent: k.Parent, Status: StatusExisting, MergeFrom: []string{}})
	}

	return Structure{Entries: entries, RemoveNames: removeNames(cs.Remove, proposal.Remove, protected)}
}

func removeNames(removed []taxonomy.Key, requested []string, protected taxonomy.ProtectedNames) []string {
	seen := make(map[string]struct{}, len(removed)+len(requested))
	out := make([]string, 0, len(removed)+len(requested))
	add := func(name string) {
		name = taxonomy.Canonical(name)
		if name == "" || protected.Contains(name) {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	for _, k := range removed {
		add(k.Name)
	}
	for _, n := range requested {
		add(n)
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
