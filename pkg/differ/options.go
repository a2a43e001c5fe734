package differ

import "github.com/agentstation/bookmap/pkg/taxonomy"

// Option is a functional option for configuring a Differ.
type Option func(*differ)

// WithProtectedNames excludes folders with these names from removal.
func WithProtectedNames(names taxonomy.ProtectedNames) Option {
	return func(d *differ) {
		for n := range names {
			d.protected[n] = struct{}{}
		}
	}
}

// WithProtected is WithProtectedNames for a plain list.
func WithProtected(names ...string) Option {
	return WithProtectedNames(taxonomy.NewProtectedNames(names...))
}
