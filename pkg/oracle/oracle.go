// Package oracle defines the contract with the external suggestion service
// and the prompts sent to it. Concrete backends live in internal/providers.
package oracle

import (
	"context"
)

// Operation names an oracle use; providers pick token budgets and
// reasoning effort per operation.
type Operation string

// Known operations.
const (
	OpAnalyzeFolders Operation = "analyze_folders"
	OpReviewFolders  Operation = "review_folders"
	OpAnalyzeTags    Operation = "analyze_tags"
	OpSuggestTags    Operation = "suggest_tags"
	OpAssignFolders  Operation = "assign_folders"
)

// Request is a single completion request.
type Request struct {
	Operation Operation
	System    string
	Prompt    string

	// JSON asks the provider for a JSON object response.
	JSON bool

	// MaxTokens caps the completion; zero means provider default.
	MaxTokens int

	// ReasoningEffort is passed through to providers that support it.
	ReasoningEffort string
}

// Usage is token accounting reported by the provider.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates u2 into u.
func (u *Usage) Add(u2 Usage) {
	u.PromptTokens += u2.PromptTokens
	u.CompletionTokens += u2.CompletionTokens
	u.TotalTokens += u2.TotalTokens
}

// FinishLength is the finish reason reported when the token cap was hit.
const FinishLength = "length"

// Response is the raw oracle answer.
type Response struct {
	Content      string
	FinishReason string
	Usage        Usage
}

// Truncated reports whether the provider stopped on the token cap.
func (r *Response) Truncated() bool {
	return r != nil && r.FinishReason == FinishLength
}

// Oracle produces completions. Implementations must be safe for concurrent use.
type Oracle interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Func adapts a function to the Oracle interface.
type Func func(ctx context.Context, req Request) (*Response, error)

// Complete calls f.
func (f Func) Complete(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// Static returns an oracle that always answers content.
func Static(content string) Oracle {
	return Func(func(context.Context, Request) (*Response, error) {
		return &Response{Content: content, FinishReason: "stop"}, nil
	})
}
