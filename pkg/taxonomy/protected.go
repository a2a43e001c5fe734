package taxonomy

import "slices"

// ProtectedNames are folder names that are never removed, whatever their parent.
type ProtectedNames map[string]struct{}

// NewProtectedNames builds a set from names; blank entries are ignored.
func NewProtectedNames(names ...string) ProtectedNames {
	p := make(ProtectedNames, len(names))
	for _, n := range names {
		if n = Canonical(n); n != "" {
			p[n] = struct{}{}
		}
	}
	return p
}

// Contains reports whether name is protected.
func (p ProtectedNames) Contains(name string) bool {
	if p == nil {
		return false
	}
	_, ok := p[Canonical(name)]
	return ok
}

// Protects reports whether k names a protected folder.
func (p ProtectedNames) Protects(k Key) bool {
	return p.Contains(k.Name)
}

// Names returns the protected names sorted.
func (p ProtectedNames) Names() []string {
	out := make([]string, 0, len(p))
	for n := range p {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}
