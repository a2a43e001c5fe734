package taxonomy

// Record is a folder as it appears in a snapshot, a proposal or a final structure.
type Record struct {
	Name        string   `json:"name" yaml:"name"`
	Parent      string   `json:"parent" yaml:"parent"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Reasoning   string   `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`
	MergeFrom   []string `json:"merge_from,omitempty" yaml:"merge_from,omitempty"`
}

// Key returns the canonical key of the record.
func (r Record) Key() Key {
	return KeyOf(r)
}

// Normalize canonicalizes name and parent and drops blank merge sources.
// A merge with fewer than two sources is not a merge and is cleared.
func (r Record) Normalize() Record {
	k := KeyOf(r)
	r.Name, r.Parent = k.Name, k.Parent

	var sources []string
	seen := make(map[string]struct{}, len(r.MergeFrom))
	for _, src := range r.MergeFrom {
		src = Canonical(src)
		if src == "" {
			continue
		}
		if _, dup := seen[src]; dup {
			continue
		}
		seen[src] = struct{}{}
		sources = append(sources, src)
	}
	if len(sources) < 2 {
		sources = nil
	}
	r.MergeFrom = sources
	return r
}

// IsMerge reports whether the record consolidates two or more folders.
func (r Record) IsMerge() bool {
	return len(r.Normalize().MergeFrom) >= 2
}

// NormalizeAll normalizes every record and drops those without a name.
func NormalizeAll(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		r = r.Normalize()
		if r.Name == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Dedupe keeps the first record for every key. The keys of later
// duplicates are returned in the order they were dropped.
func Dedupe(records []Record) (kept []Record, dropped []Key) {
	seen := NewKeySet()
	kept = make([]Record, 0, len(records))
	for _, r := range records {
		k := KeyOf(r)
		if !seen.Add(k) {
			dropped = append(dropped, k)
			continue
		}
		kept = append(kept, r)
	}
	return kept, dropped
}

// Keys returns the canonical keys of records in order.
func Keys(records []Record) []Key {
	out := make([]Key, len(records))
	for i, r := range records {
		out[i] = KeyOf(r)
	}
	return out
}
