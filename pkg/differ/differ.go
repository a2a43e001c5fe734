package differ

import (
	"github.com/agentstation/bookmap/pkg/taxonomy"
)

// Differ computes changesets between folder sets.
type Differ interface {
	// Folders compares the current snapshot with a proposal.
	Folders(current, proposed []taxonomy.Record) *Changeset

	// Names compares two flat name lists, such as tag vocabularies.
	Names(current, proposed []string) *Changeset

	// Protected returns the configured protected names.
	Protected() taxonomy.ProtectedNames
}

type differ struct {
	protected taxonomy.ProtectedNames
}

// New creates a Differ.
func New(opts ...Option) Differ {
	d := &differ{protected: make(taxonomy.ProtectedNames)}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *differ) Protected() taxonomy.ProtectedNames {
	return d.protected
}

// Folders computes:
//
//	create = proposed - current
//	remove = (current - proposed) minus protected names
//	keep   = proposed ∩ current
//
// Duplicate keys on either side count once.
func (d *differ) Folders(current, proposed []taxonomy.Record) *Changeset {
	c := newChangeset()

	currentKeys := taxonomy.NewKeySet(taxonomy.Keys(taxonomy.NormalizeAll(current))...)
	proposedKeys := taxonomy.NewKeySet(taxonomy.Keys(taxonomy.NormalizeAll(proposed))...)

	for _, k := range proposedKeys.Keys() {
		if currentKeys.Has(k) {
			c.Keep = append(c.Keep, k)
			c.status[k] = ChangeTypeKeep
			continue
		}
		c.Create = append(c.Create, k)
		c.status[k] = ChangeTypeCreate
	}

	for _, k := range currentKeys.Keys() {
		if proposedKeys.Has(k) {
			continue
		}
		if d.protected.Protects(k) {
			c.Protected = append(c.Protected, k)
			c.status[k] = ChangeTypeKeep
			continue
		}
		c.Remove = append(c.Remove, k)
		c.status[k] = ChangeTypeRemove
	}

	c.summarize()
	return c
}

func (d *differ) Names(current, proposed []string) *Changeset {
	return d.Folders(taxonomy.SnapshotFromNames(current...), taxonomy.SnapshotFromNames(proposed...))
}
