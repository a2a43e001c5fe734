package reconcile

import (
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/bookmap/pkg/differ"
	"github.com/agentstation/bookmap/pkg/hierarchy"
	"github.com/agentstation/bookmap/pkg/oracle"
	"github.com/agentstation/bookmap/pkg/review"
	"github.com/agentstation/bookmap/pkg/taxonomy"
)

// Result is the outcome of a folder reconciliation.
type Result struct {
	SuggestedFolders []taxonomy.Record    `json:"suggested_folders" yaml:"suggested_folders"`
	FoldersToRemove  []string             `json:"folders_to_remove" yaml:"folders_to_remove"`
	OverallReasoning string               `json:"overall_reasoning" yaml:"overall_reasoning"`
	FinalStructure   []Entry              `json:"final_structure" yaml:"final_structure"`
	// Collisions describes SuggestedFolders against the current snapshot.
	Collisions       hierarchy.Collisions `json:"collisions" yaml:"collisions"`
	ReviewApplied    bool                 `json:"review_applied" yaml:"review_applied"`
	Warnings         []string             `json:"warnings" yaml:"warnings"`
	Summary          differ.Summary       `json:"summary" yaml:"summary"`
	Metadata         Metadata             `json:"metadata" yaml:"metadata"`
}

// Metadata describes how a result was produced.
type Metadata struct {
	StartedAt    utc.Time      `json:"started_at" yaml:"started_at"`
	CompletedAt  utc.Time      `json:"completed_at" yaml:"completed_at"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
	ReviewReason review.Reason `json:"review_reason,omitempty" yaml:"review_reason,omitempty"`
	Repaired     bool          `json:"repaired" yaml:"repaired"`
	FolderLimit  int           `json:"folder_limit,omitempty" yaml:"folder_limit,omitempty"`
	Usage        oracle.Usage  `json:"usage" yaml:"usage"`
}

// HasChanges reports whether applying the result changes anything.
func (r *Result) HasChanges() bool {
	return r.Summary.TotalChanges > 0 || len(r.FoldersToRemove) > 0
}

// Count returns how many entries carry status s.
func (r *Result) Count(s Status) int {
	n := 0
	for _, e := range r.FinalStructure {
		if e.Status == s {
			n++
		}
	}
	return n
}

// TagResult is the outcome of a tag vocabulary analysis.
type TagResult struct {
	SuggestedTags    []TagRecord    `json:"suggested_tags" yaml:"suggested_tags"`
	TagsToRemove     []string       `json:"tags_to_remove" yaml:"tags_to_remove"`
	OverallReasoning string         `json:"overall_reasoning" yaml:"overall_reasoning"`
	FinalStructure   []Entry        `json:"final_structure" yaml:"final_structure"`
	Warnings         []string       `json:"warnings" yaml:"warnings"`
	Summary          differ.Summary `json:"summary" yaml:"summary"`
	Metadata         Metadata       `json:"metadata" yaml:"metadata"`
}

// TagRecord is a suggested tag. Tags have no hierarchy.
type TagRecord struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Reasoning   string   `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`
	MergeFrom   []string `json:"merge_from,omitempty" yaml:"merge_from,omitempty"`
}

func (t TagRecord) record() taxonomy.Record {
	return taxonomy.Record{Name: t.Name, Description: t.Description, Reasoning: t.Reasoning, MergeFrom: t.MergeFrom}
}

func tagRecord(r taxonomy.Record) TagRecord {
	return TagRecord{Name: r.Name, Description: r.Description, Reasoning: r.Reasoning, MergeFrom: r.MergeFrom}
}

// stamp fills timing fields.
func (m *Metadata) stamp(start time.Time) {
	m.StartedAt = utc.New(start)
	m.CompletedAt = utc.Now()
	m.Duration = m.CompletedAt.Sub(m.StartedAt)
}
