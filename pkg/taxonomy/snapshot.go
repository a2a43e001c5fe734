package taxonomy

import (
	"encoding/json"
	"fmt"

	"github.com/goccy/go-yaml"
)

// Snapshot is the folder set as it exists before reconciliation.
// It decodes from a flat list of names, a list of {name, parent}
// records, or a mix of both.
type Snapshot []Record

// SnapshotFromNames builds a top-level snapshot.
func SnapshotFromNames(names ...string) Snapshot {
	s := make(Snapshot, 0, len(names))
	for _, n := range names {
		s = append(s, Record{Name: n})
	}
	return s
}

// Records returns the normalized records of the snapshot.
func (s Snapshot) Records() []Record {
	return NormalizeAll(s)
}

// Names returns the record names in order.
func (s Snapshot) Names() []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, Canonical(r.Name))
	}
	return out
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	out := make(Snapshot, 0, len(items))
	for i, raw := range items {
		var name string
		if err := json.Unmarshal(raw, &name); err == nil {
			out = append(out, Record{Name: name})
			continue
		}
		var r Record
		if err := json.Unmarshal(raw, &r); err != nil {
			return fmt.Errorf("snapshot item %d: %w", i, err)
		}
		out = append(out, r)
	}
	*s = out
	return nil
}

// UnmarshalYAML implements yaml.BytesUnmarshaler.
func (s *Snapshot) UnmarshalYAML(data []byte) error {
	var items []any
	if err := yaml.Unmarshal(data, &items); err != nil {
		return err
	}
	out := make(Snapshot, 0, len(items))
	for i, item := range items {
		switch v := item.(type) {
		case string:
			out = append(out, Record{Name: v})
		case map[string]any:
			encoded, err := yaml.Marshal(v)
			if err != nil {
				return fmt.Errorf("snapshot item %d: %w", i, err)
			}
			var r Record
			if err := yaml.Unmarshal(encoded, &r); err != nil {
				return fmt.Errorf("snapshot item %d: %w", i, err)
			}
			out = append(out, r)
		default:
			return fmt.Errorf("snapshot item %d: unsupported type %T", i, item)
		}
	}
	*s = out
	return nil
}
