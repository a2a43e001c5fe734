// Package taxonomy defines the folder identity model shared by every
// reconciliation step: composite keys, folder records, snapshots and
// oracle proposals.
//
// A folder is identified by the pair (parent, name). Both parts are
// whitespace-trimmed and NFC-normalized; comparison is case-sensitive.
// A missing parent means top level and is stored as "".
package taxonomy

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// KeySeparator joins parent and name in the textual key form.
const KeySeparator = "|"

// Key is the composite identity of a folder.
type Key struct {
	Parent string `json:"parent" yaml:"parent"`
	Name   string `json:"name" yaml:"name"`
}

// NewKey builds a canonical key.
func NewKey(parent, name string) Key {
	return Key{Parent: Canonical(parent), Name: Canonical(name)}
}

// KeyOf returns the canonical key of a record.
func KeyOf(r Record) Key {
	return NewKey(r.Parent, r.Name)
}

// Canonical trims surrounding whitespace and applies Unicode NFC so that
// visually identical names typed on different platforms compare equal.
func Canonical(s string) string {
	s = strings.TrimSpace(s)
	if norm.NFC.IsNormalString(s) {
		return s
	}
	return norm.NFC.String(s)
}

// String renders "<parent>|<name>"; top-level keys start with "|".
func (k Key) String() string {
	return k.Parent + KeySeparator + k.Name
}

// Path renders "parent/name", or just the name at top level.
func (k Key) Path() string {
	if k.IsTopLevel() {
		return k.Name
	}
	return k.Parent + "/" + k.Name
}

// IsTopLevel reports whether the folder has no parent.
func (k Key) IsTopLevel() bool {
	return k.Parent == ""
}

// ParseKey inverts Key.String. Text without a separator is a top-level name.
func ParseKey(s string) Key {
	parent, name, ok := strings.Cut(s, KeySeparator)
	if !ok {
		return NewKey("", s)
	}
	return NewKey(parent, name)
}

// KeySet is an insertion-ordered set of keys.
type KeySet struct {
	order []Key
	index map[Key]struct{}
}

// NewKeySet returns a set holding keys in first-seen order.
func NewKeySet(keys ...Key) *KeySet {
	s := &KeySet{index: make(map[Key]struct{}, len(keys))}
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

// Add inserts k and reports whether it was new.
func (s *KeySet) Add(k Key) bool {
	if _, ok := s.index[k]; ok {
		return false
	}
	s.index[k] = struct{}{}
	s.order = append(s.order, k)
	return true
}

// Has reports membership.
func (s *KeySet) Has(k Key) bool {
	_, ok := s.index[k]
	return ok
}

// Len returns the number of keys.
func (s *KeySet) Len() int {
	return len(s.order)
}

// Keys returns the keys in insertion order.
func (s *KeySet) Keys() []Key {
	out := make([]Key, len(s.order))
	copy(out, s.order)
	return out
}

// Strings returns the textual form of every key in insertion order.
func Strings(keys []Key) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}
