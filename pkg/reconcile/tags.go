package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/agentstation/bookmap/pkg/errors"
	"github.com/agentstation/bookmap/pkg/lenient"
	"github.com/agentstation/bookmap/pkg/logging"
	"github.com/agentstation/bookmap/pkg/oracle"
	"github.com/agentstation/bookmap/pkg/taxonomy"
)

// TagRequest asks for a tag vocabulary restructuring.
type TagRequest struct {
	Bookmarks   []oracle.Bookmark `json:"bookmarks" yaml:"bookmarks"`
	CurrentTags []string          `json:"current_tags" yaml:"current_tags"`
	Instruction string            `json:"instruction,omitempty" yaml:"instruction,omitempty"`
}

type tagProposal struct {
	Tags      []TagRecord `json:"suggested_tags"`
	Remove    []string    `json:"tags_to_remove"`
	Reasoning string      `json:"overall_reasoning"`
}

// AnalyzeTags asks the oracle for a tag vocabulary and diffs it against
// the current tags. Tags are flat, so there is no review pass.
func (e *Engine) AnalyzeTags(ctx context.Context, req TagRequest) (*TagResult, error) {
	start := time.Now()
	ctx = logging.WithOperation(ctx, string(oracle.OpAnalyzeTags))
	logger := logging.FromContext(ctx)

	if e.oracle == nil {
		return nil, errors.NewConfigError("oracle", "no suggestion oracle configured", errors.ErrAPIKeyRequired)
	}
	if len(req.Bookmarks) == 0 {
		return nil, errors.NewValidationError("bookmarks", nil, "cannot be empty")
	}

	resp, err := e.firstPass(ctx, oracle.Request{
		Operation: oracle.OpAnalyzeTags,
		System:    oracle.SystemTags,
		Prompt: oracle.TagStructurePrompt(oracle.TagPromptInput{
			Bookmarks:   req.Bookmarks,
			CurrentTags: req.CurrentTags,
			Protected:   e.protected.Names(),
			Instruction: req.Instruction,
		}),
		JSON:            true,
		MaxTokens:       e.config.TagMaxTokens,
		ReasoningEffort: e.config.TagReasoningEffort,
	})
	if err != nil {
		return nil, err
	}

	decoded := lenient.Decode[tagProposal](resp.Content)
	if !decoded.OK() {
		logger.Error().Err(decoded.Err).Msg("tag response unparseable")
		return nil, errors.WrapOracle(StageFirstPass, string(oracle.OpAnalyzeTags), decoded.Err)
	}

	records := make([]taxonomy.Record, 0, len(decoded.Value.Tags))
	for _, t := range decoded.Value.Tags {
		r := t.record()
		r.Parent = ""
		records = append(records, r)
	}
	proposal, dropped := taxonomy.Proposal{
		Folders:   records,
		Remove:    decoded.Value.Remove,
		Reasoning: decoded.Value.Reasoning,
	}.Normalize()

	var warnings []string
	if len(dropped) > 0 {
		warnings = append(warnings, fmt.Sprintf("proposal repeated %d tags; first occurrence kept", len(dropped)))
	}
	if decoded.Repaired {
		warnings = append(warnings, "tag response was truncated and repaired")
	}

	cs := e.differ.Folders(taxonomy.SnapshotFromNames(req.CurrentTags...), proposal.Folders)
	structure := Assemble(proposal, cs, e.protected)

	tags := make([]TagRecord, len(proposal.Folders))
	for i, r := range proposal.Folders {
		tags[i] = tagRecord(r)
	}

	result := &TagResult{
		SuggestedTags:    tags,
		TagsToRemove:     structure.RemoveNames,
		OverallReasoning: proposal.Reasoning,
		FinalStructure:   structure.Entries,
		Warnings:         nonNil(warnings),
		Summary:          cs.Summary,
		Metadata:         Metadata{Usage: resp.Usage, Repaired: decoded.Repaired},
	}
	result.Metadata.stamp(start)

	logger.Info().
		Int("create", cs.Summary.Created).
		Int("remove", cs.Summary.Removed).
		Msg("tag analysis complete")
	return result, nil
}
