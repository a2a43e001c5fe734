// Package openai implements the suggestion oracle on the OpenAI chat
// completions API, or any server compatible with it.
package openai

import (
	"context"
	"strings"
	"time"

	"github.com/agentstation/bookmap/internal/transport"
	"github.com/agentstation/bookmap/pkg/constants"
	"github.com/agentstation/bookmap/pkg/errors"
	"github.com/agentstation/bookmap/pkg/logging"
	"github.com/agentstation/bookmap/pkg/oracle"
)

// Defaults.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-5-mini"
	ProviderName   = "openai"
)

// Config configures a Client.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxRetries int
	Backoff    time.Duration
	Timeout    time.Duration
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model               string          `json:"model"`
	Messages            []message       `json:"messages"`
	MaxCompletionTokens int             `json:"max_completion_tokens,omitempty"`
	ReasoningEffort     string          `json:"reasoning_effort,omitempty"`
	ResponseFormat      *responseFormat `json:"response_format,omitempty"`
}

// ChatResponse is the subset of a chat completion the oracle reads.
type ChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int     `json:"index"`
		Message      message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage oracle.Usage `json:"usage"`
}

// Client is an oracle.Oracle backed by chat completions.
type Client struct {
	transport  *transport.Client
	url        string
	model      string
	maxRetries int
	backoff    time.Duration
}

// New creates a Client. An API key is required.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.NewAuthenticationError(ProviderName, "bearer", "OPENAI_API_KEY not set", nil)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = constants.MaxRetries
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = constants.RetryBackoff
	}
	var opts []transport.Option
	if cfg.Timeout > 0 {
		opts = append(opts, transport.WithTimeout(cfg.Timeout))
	}
	return &Client{
		transport:  transport.New(ProviderName, &transport.BearerAuth{}, cfg.APIKey, opts...),
		url:        strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
	}, nil
}

// Model returns the configured model.
func (c *Client) Model() string {
	return c.model
}

// Complete sends one chat completion. Rate-limited calls are retried with
// exponential backoff.
func (c *Client) Complete(ctx context.Context, req oracle.Request) (*oracle.Response, error) {
	body := chatRequest{
		Model:               c.model,
		MaxCompletionTokens: req.MaxTokens,
		ReasoningEffort:     req.ReasoningEffort,
	}
	if req.System != "" {
		body.Messages = append(body.Messages, message{Role: "system", Content: req.System})
	}
	body.Messages = append(body.Messages, message{Role: "user", Content: req.Prompt})
	if req.JSON {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	logger := logging.FromContext(ctx)
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.backoff * time.Duration(1<<(attempt-1))
			logger.Warn().Err(lastErr).Int("attempt", attempt+1).Dur("wait", wait).Msg("rate limited, retrying")
			select {
			case <-ctx.Done():
				return nil, &errors.APIError{Provider: ProviderName, Message: "request canceled", Err: errors.ErrCanceled}
			case <-time.After(wait):
			}
		}

		resp, err := c.send(ctx, body)
		if err == nil {
			return resp, nil
		}
		if !errors.IsRateLimited(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (c *Client) send(ctx context.Context, body chatRequest) (*oracle.Response, error) {
	httpResp, err := c.transport.PostJSON(ctx, c.url, body)
	if err != nil {
		return nil, err
	}
	var out ChatResponse
	if err := transport.DecodeResponse(httpResp, ProviderName, &out); err != nil {
		return nil, err
	}
	if len(out.Choices) == 0 {
		return &oracle.Response{Usage: out.Usage}, nil
	}
	return &oracle.Response{
		Content:      out.Choices[0].Message.Content,
		FinishReason: out.Choices[0].FinishReason,
		Usage:        out.Usage,
	}, nil
}
