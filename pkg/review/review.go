// Package review runs the corrective second oracle pass over a first-pass
// folder proposal. The pass is fail-closed: whenever the oracle answer is
// missing, unparseable or not record-shaped, the first pass is kept as is.
package review

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/agentstation/bookmap/pkg/errors"
	"github.com/agentstation/bookmap/pkg/hierarchy"
	"github.com/agentstation/bookmap/pkg/lenient"
	"github.com/agentstation/bookmap/pkg/logging"
	"github.com/agentstation/bookmap/pkg/oracle"
	"github.com/agentstation/bookmap/pkg/taxonomy"
)

// Reason explains why a review pass did or did not replace the first pass.
type Reason string

// Reasons.
const (
	ReasonAdjusted     Reason = "adjusted"
	ReasonDisabled     Reason = "disabled"
	ReasonNoCollisions Reason = "no_collisions"
	ReasonNoAdjustment Reason = "no_adjustment"
	ReasonCallFailed   Reason = "call_failed"
	ReasonEmpty        Reason = "empty_response"
	ReasonMalformed    Reason = "malformed_response"
	ReasonInvalidShape Reason = "invalid_shape"
)

// Input is the first pass and what the validator found in it.
type Input struct {
	Proposal   taxonomy.Proposal
	Collisions hierarchy.Collisions
}

// Outcome is the proposal to continue with. When Adjusted is false,
// Proposal is the first pass unchanged.
type Outcome struct {
	Proposal taxonomy.Proposal
	Adjusted bool
	Reason   Reason
	Warnings []string
	Usage    oracle.Usage
}

// Coordinator issues the review call.
type Coordinator struct {
	oracle  oracle.Oracle
	options *options
}

// New creates a Coordinator.
func New(o oracle.Oracle, opts ...Option) (*Coordinator, error) {
	if o == nil {
		return nil, &errors.ValidationError{Field: "oracle", Message: "cannot be nil"}
	}
	options, err := defaultOptions().apply(opts...)
	if err != nil {
		return nil, err
	}
	return &Coordinator{oracle: o, options: options}, nil
}

// Mode returns the configured review mode.
func (c *Coordinator) Mode() Mode {
	return c.options.mode
}

// response is the review answer. Folders stays raw so its shape can be
// checked before decoding.
type response struct {
	NeedsAdjustment bool            `json:"needs_adjustment"`
	Folders         json.RawMessage `json:"suggested_folders"`
	Remove          *[]string       `json:"folders_to_remove"`
	Reasoning       string          `json:"overall_reasoning"`
}

// Review gives the oracle one chance to correct the first pass. It never
// fails: every failure mode keeps the first pass and records a warning.
func (c *Coordinator) Review(ctx context.Context, in Input) Outcome {
	ctx = logging.WithStage(ctx, "review")
	logger := logging.FromContext(ctx)

	keep := func(reason Reason, warning string) Outcome {
		out := Outcome{Proposal: in.Proposal, Reason: reason}
		if warning != "" {
			out.Warnings = []string{warning}
			logger.Warn().Str("reason", string(reason)).Msg(warning)
		} else {
			logger.Debug().Str("reason", string(reason)).Msg("review pass kept first pass")
		}
		return out
	}

	switch c.options.mode {
	case ModeOff:
		return keep(ReasonDisabled, "")
	case ModeCollisions:
		if in.Collisions.Empty() {
			return keep(ReasonNoCollisions, "")
		}
	}

	view := hierarchy.Render(in.Proposal.Folders)
	req := oracle.Request{
		Operation: oracle.OpReviewFolders,
		System:    oracle.SystemReview,
		Prompt: oracle.ReviewPrompt(oracle.ReviewPromptInput{
			Tree:        view.Tree,
			Paths:       view.Paths,
			CrossLevel:  in.Collisions.CrossLevel,
			CrossParent: in.Collisions.CrossParent,
			Remove:      in.Proposal.Remove,
		}),
		JSON:            true,
		MaxTokens:       c.options.maxTokens,
		ReasoningEffort: c.options.reasoningEffort,
	}

	callCtx := ctx
	if c.options.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.options.timeout)
		defer cancel()
	}

	resp, err := c.oracle.Complete(callCtx, req)
	if err != nil {
		return keep(ReasonCallFailed, fmt.Sprintf("review pass failed, keeping first pass: %v", err))
	}
	if resp == nil {
		return keep(ReasonEmpty, "review pass returned empty content, keeping first pass")
	}

	usage := resp.Usage
	withUsage := func(o Outcome) Outcome {
		o.Usage = usage
		return o
	}

	decoded := lenient.Decode[response](resp.Content)
	if errors.Is(decoded.Err, errors.ErrEmptyResponse) {
		return withUsage(keep(ReasonEmpty, "review pass returned empty content, keeping first pass"))
	}
	if !decoded.OK() {
		return withUsage(keep(ReasonMalformed, fmt.Sprintf("review pass response unparseable, keeping first pass: %v", decoded.Err)))
	}

	answer := decoded.Value
	if !answer.NeedsAdjustment {
		return withUsage(keep(ReasonNoAdjustment, ""))
	}

	folders, err := decodeFolders(answer.Folders)
	if err != nil {
		return withUsage(keep(ReasonInvalidShape, fmt.Sprintf("review pass suggested_folders rejected, keeping first pass: %v", err)))
	}

	next := taxonomy.Proposal{Folders: folders, Remove: in.Proposal.Remove, Reasoning: in.Proposal.Reasoning}
	if answer.Remove != nil {
		next.Remove = *answer.Remove
	}
	if answer.Reasoning != "" {
		next.Reasoning = answer.Reasoning
	}
	next, dropped := next.Normalize()
	if len(next.Folders) == 0 {
		return withUsage(keep(ReasonInvalidShape, "review pass suggested_folders had no named folders, keeping first pass"))
	}

	out := Outcome{Proposal: next, Adjusted: true, Reason: ReasonAdjusted, Usage: usage}
	if len(dropped) > 0 {
		out.Warnings = append(out.Warnings, fmt.Sprintf("review pass repeated %d folder keys; first occurrence kept", len(dropped)))
	}
	logger.Info().
		Int("folders_before", len(in.Proposal.Folders)).
		Int("folders_after", len(next.Folders)).
		Bool("repaired", decoded.Repaired).
		Msg("review pass applied")
	return out
}

// decodeFolders accepts only a non-empty array whose first element is an
// object with a string name.
func decodeFolders(raw json.RawMessage) ([]taxonomy.Record, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, errors.New("missing")
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("not an array: %w", err)
	}
	if len(items) == 0 {
		return nil, errors.New("empty list")
	}

	var first map[string]json.RawMessage
	if err := json.Unmarshal(items[0], &first); err != nil {
		return nil, errors.New("first element is not a folder record")
	}
	nameRaw, ok := first["name"]
	if !ok {
		return nil, errors.New("first element has no name")
	}
	var name string
	if err := json.Unmarshal(nameRaw, &name); err != nil {
		return nil, errors.New("first element name is not a string")
	}

	var folders []taxonomy.Record
	if err := json.Unmarshal(raw, &folders); err != nil {
		return nil, fmt.Errorf("records: %w", err)
	}
	return folders, nil
}
