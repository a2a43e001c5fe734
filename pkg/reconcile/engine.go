// Package reconcile turns a suggestion oracle proposal into a safe,
// status-tagged final folder structure.
//
// The pipeline is strictly sequential: first oracle pass, lenient decode,
// dedupe, collision validation, optional review pass, key diff and
// assembly. Only the first pass can fail the request; every review-pass
// problem falls back to the first-pass proposal.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/agentstation/bookmap/pkg/differ"
	"github.com/agentstation/bookmap/pkg/errors"
	"github.com/agentstation/bookmap/pkg/hierarchy"
	"github.com/agentstation/bookmap/pkg/lenient"
	"github.com/agentstation/bookmap/pkg/logging"
	"github.com/agentstation/bookmap/pkg/oracle"
	"github.com/agentstation/bookmap/pkg/review"
	"github.com/agentstation/bookmap/pkg/taxonomy"
)

// Stage names used in errors and logs.
const (
	StageFirstPass = "first_pass"
	StageReview    = "review"
)

// FolderRequest asks for a folder restructuring.
type FolderRequest struct {
	Bookmarks      []oracle.Bookmark `json:"bookmarks" yaml:"bookmarks"`
	CurrentFolders taxonomy.Snapshot `json:"current_folders" yaml:"current_folders"`
	Instruction    string            `json:"instruction,omitempty" yaml:"instruction,omitempty"`
}

// Input is an already obtained proposal to reconcile against a snapshot.
type Input struct {
	Current  taxonomy.Snapshot `json:"current_folders" yaml:"current_folders"`
	Proposal taxonomy.Proposal `json:"proposal" yaml:"proposal"`

	// Bookmarks is the collection size used for the folder-count check; zero skips it.
	Bookmarks int `json:"bookmark_count,omitempty" yaml:"bookmark_count,omitempty"`
}

// Engine runs reconciliations. It is safe for concurrent use; each call
// owns its working sets.
type Engine struct {
	oracle    oracle.Oracle
	reviewer  *review.Coordinator
	differ    differ.Differ
	protected taxonomy.ProtectedNames
	config    Config
}

// New creates an Engine. A nil oracle is allowed for offline use: Reconcile
// then runs without a review pass and the Analyze calls fail.
func New(o oracle.Oracle, cfg Config) (*Engine, error) {
	cfg = cfg.withDefaults()
	protected := taxonomy.NewProtectedNames(cfg.ProtectedNames...)

	e := &Engine{
		oracle:    o,
		differ:    differ.New(differ.WithProtectedNames(protected)),
		protected: protected,
		config:    cfg,
	}
	if o == nil {
		return e, nil
	}

	reviewer, err := review.New(o,
		review.WithMode(cfg.ReviewMode),
		review.WithTimeout(cfg.ReviewTimeout),
		review.WithMaxTokens(cfg.FolderMaxTokens),
		review.WithReasoningEffort(cfg.ReviewReasoningEffort),
	)
	if err != nil {
		return nil, err
	}
	e.reviewer = reviewer
	return e, nil
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Protected returns the protected name set.
func (e *Engine) Protected() taxonomy.ProtectedNames {
	return e.protected
}

// AnalyzeFolders asks the oracle for a restructuring of req and reconciles it.
func (e *Engine) AnalyzeFolders(ctx context.Context, req FolderRequest) (*Result, error) {
	start := time.Now()
	ctx = logging.WithOperation(ctx, string(oracle.OpAnalyzeFolders))
	logger := logging.FromContext(ctx)

	if e.oracle == nil {
		return nil, errors.NewConfigError("oracle", "no suggestion oracle configured", errors.ErrAPIKeyRequired)
	}
	if len(req.Bookmarks) == 0 {
		return nil, errors.NewValidationError("bookmarks", nil, "cannot be empty")
	}

	current := req.CurrentFolders.Records()
	paths := make([]string, len(current))
	for i, r := range current {
		paths[i] = r.Key().Path()
	}

	limit := hierarchy.FolderLimit(len(req.Bookmarks))
	resp, err := e.firstPass(ctx, oracle.Request{
		Operation: oracle.OpAnalyzeFolders,
		System:    oracle.SystemFolders,
		Prompt: oracle.FolderStructurePrompt(oracle.FolderPromptInput{
			Bookmarks:      req.Bookmarks,
			CurrentFolders: paths,
			Protected:      e.protected.Names(),
			Instruction:    req.Instruction,
			FolderLimit:    limit,
		}),
		JSON:            true,
		MaxTokens:       e.config.FolderMaxTokens,
		ReasoningEffort: e.config.FolderReasoningEffort,
	})
	if err != nil {
		return nil, err
	}

	decoded := lenient.Decode[taxonomy.Proposal](resp.Content)
	if !decoded.OK() {
		logger.Error().Err(decoded.Err).Int("length", len(resp.Content)).Msg("first pass response unparseable")
		return nil, errors.WrapOracle(StageFirstPass, string(oracle.OpAnalyzeFolders), decoded.Err)
	}

	result := e.reconcile(ctx, Input{
		Current:   req.CurrentFolders,
		Proposal:  decoded.Value,
		Bookmarks: len(req.Bookmarks),
	}, start)
	result.Metadata.Usage.Add(resp.Usage)
	result.Metadata.Repaired = decoded.Repaired
	if decoded.Repaired {
		result.Warnings = append(result.Warnings, "first pass response was truncated and repaired")
	}
	if resp.Truncated() {
		result.Warnings = append(result.Warnings, "first pass hit the completion token limit")
	}
	return result, nil
}

// Reconcile runs the pipeline on an existing proposal. It never fails;
// the review pass runs only when the engine has an oracle.
func (e *Engine) Reconcile(ctx context.Context, in Input) *Result {
	ctx = logging.WithOperation(ctx, "reconcile")
	return e.reconcile(ctx, in, time.Now())
}

func (e *Engine) reconcile(ctx context.Context, in Input, start time.Time) *Result {
	logger := logging.FromContext(ctx)
	var warnings []string

	proposal, dropped := in.Proposal.Normalize()
	if len(dropped) > 0 {
		logger.Warn().Strs("keys", taxonomy.Strings(dropped)).Msg("duplicate folder keys in proposal")
		warnings = append(warnings, fmt.Sprintf("proposal repeated %d folder keys; first occurrence kept", len(dropped)))
	}

	current := in.Current.Records()
	collisions := hierarchy.ValidateAgainst(current, proposal.Folders)
	if !collisions.Empty() {
		logger.Info().
			Strs("cross_level", collisions.CrossLevel).
			Strs("cross_parent", collisions.CrossParent).
			Msg("hierarchy collisions detected")
	}

	limit := 0
	if in.Bookmarks > 0 {
		limit = hierarchy.FolderLimit(in.Bookmarks)
		if len(proposal.Folders) > limit {
			logger.Warn().Int("folders", len(proposal.Folders)).Int("limit", limit).Msg("proposal exceeds suggested folder count")
			warnings = append(warnings, fmt.Sprintf("proposal has %d folders, suggested maximum is %d", len(proposal.Folders), limit))
		}
	}

	outcome := review.Outcome{Proposal: proposal, Reason: review.ReasonDisabled}
	if e.reviewer != nil {
		outcome = e.reviewer.Review(ctx, review.Input{Proposal: proposal, Collisions: collisions})
	}
	warnings = append(warnings, outcome.Warnings...)
	final := outcome.Proposal
	if outcome.Adjusted {
		collisions = hierarchy.ValidateAgainst(current, final.Folders)
	}

	cs := e.differ.Folders(current, final.Folders)
	for _, k := range cs.Remove {
		logger.Debug().Str("key", k.String()).Msg("folder marked for removal")
	}
	if len(cs.Protected) > 0 {
		logger.Debug().Strs("keys", taxonomy.Strings(cs.Protected)).Msg("protected folders kept")
	}
	structure := Assemble(final, cs, e.protected)

	result := &Result{
		SuggestedFolders: nonNilRecords(final.Folders),
		FoldersToRemove:  structure.RemoveNames,
		OverallReasoning: final.Reasoning,
		FinalStructure:   structure.Entries,
		Collisions:       collisions,
		ReviewApplied:    outcome.Adjusted,
		Warnings:         nonNil(warnings),
		Summary:          cs.Summary,
		Metadata: Metadata{
			ReviewReason: outcome.Reason,
			FolderLimit:  limit,
			Usage:        outcome.Usage,
		},
	}
	result.Metadata.stamp(start)

	logger.Info().
		Int("create", cs.Summary.Created).
		Int("remove", cs.Summary.Removed).
		Int("keep", cs.Summary.Kept).
		Bool("review_applied", outcome.Adjusted).
		Dur("duration", result.Metadata.Duration).
		Msg("folder reconciliation complete")
	return result
}

// firstPass calls the oracle and rejects empty answers. Failures here are fatal.
func (e *Engine) firstPass(ctx context.Context, req oracle.Request) (*oracle.Response, error) {
	ctx = logging.WithStage(ctx, StageFirstPass)
	logger := logging.FromContext(ctx)

	resp, err := e.oracle.Complete(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("oracle call failed")
		return nil, errors.WrapOracle(StageFirstPass, string(req.Operation), err)
	}
	if resp == nil || lenient.StripFences(resp.Content) == "" {
		ev := logger.Error()
		if resp != nil {
			ev = ev.Str("finish_reason", resp.FinishReason).Int("completion_tokens", resp.Usage.CompletionTokens)
		}
		ev.Msg("oracle returned empty content")
		return nil, errors.WrapOracle(StageFirstPass, string(req.Operation), errors.ErrEmptyResponse)
	}
	if resp.Truncated() {
		logger.Warn().Int("completion_tokens", resp.Usage.CompletionTokens).Msg("oracle response hit token limit")
	}
	logger.Debug().
		Int("length", len(resp.Content)).
		Int("total_tokens", resp.Usage.TotalTokens).
		Msg("oracle response received")
	return resp, nil
}

func nonNilRecords(r []taxonomy.Record) []taxonomy.Record {
	if r == nil {
		return []taxonomy.Record{}
	}
	return r
}
