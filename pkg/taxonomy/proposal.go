package taxonomy

// Proposal is a candidate restructuring returned by the suggestion oracle.
// It may contain duplicates and cross-level collisions until validated.
type Proposal struct {
	Folders   []Record `json:"suggested_folders" yaml:"suggested_folders"`
	Remove    []string `json:"folders_to_remove" yaml:"folders_to_remove"`
	Reasoning string   `json:"overall_reasoning" yaml:"overall_reasoning"`
}

// Normalize canonicalizes every record, drops nameless ones and
// deduplicates by key. Removal names are trimmed, blank ones dropped.
func (p Proposal) Normalize() (Proposal, []Key) {
	folders, dropped := Dedupe(NormalizeAll(p.Folders))

	remove := make([]string, 0, len(p.Remove))
	for _, n := range p.Remove {
		if n = Canonical(n); n != "" {
			remove = append(remove, n)
		}
	}
	return Proposal{Folders: folders, Remove: remove, Reasoning: p.Reasoning}, dropped
}

// Clone returns a deep copy.
func (p Proposal) Clone() Proposal {
	out := Proposal{Reasoning: p.Reasoning}
	out.Folders = make([]Record, len(p.Folders))
	for i, r := range p.Folders {
		if r.MergeFrom != nil {
			r.MergeFrom = append([]string(nil), r.MergeFrom...)
		}
		out.Folders[i] = r
	}
	out.Remove = append([]string(nil), p.Remove...)
	return out
}
