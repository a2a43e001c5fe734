// Package google implements the suggestion oracle on the Gemini API
// through the genai SDK.
package google

import (
	"context"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/agentstation/bookmap/pkg/errors"
	"github.com/agentstation/bookmap/pkg/oracle"
)

// Defaults.
const (
	DefaultModel = "gemini-2.5-flash"
	ProviderName = "google"
)

// Config configures a Client.
type Config struct {
	APIKey string
	Model  string

	// BaseURL overrides the Gemini endpoint; used by tests.
	BaseURL string
}

// thinkingBudgets maps reasoning effort onto a Gemini thinking budget.
var thinkingBudgets = map[string]int32{
	"minimal": 0,
	"low":     1024,
	"medium":  4096,
	"high":    16384,
}

// Client is an oracle.Oracle backed by Models.GenerateContent.
type Client struct {
	cfg Config

	genaiClient *genai.Client
	mu          sync.Mutex
}

// New creates a Client. An API key is required; the SDK client itself is
// created lazily on first use.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.NewAuthenticationError(ProviderName, "api_key", "GOOGLE_API_KEY not set", nil)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &Client{cfg: cfg}, nil
}

// Model returns the configured model.
func (c *Client) Model() string {
	return c.cfg.Model
}

func (c *Client) client(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.genaiClient != nil {
		return c.genaiClient, nil
	}
	config := &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  c.cfg.APIKey,
	}
	if c.cfg.BaseURL != "" {
		config.HTTPOptions = genai.HTTPOptions{BaseURL: c.cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, errors.NewConfigError(ProviderName, "create genai client", err)
	}
	c.genaiClient = client
	return client, nil
}

// Complete sends one GenerateContent call.
func (c *Client) Complete(ctx context.Context, req oracle.Request) (*oracle.Response, error) {
	client, err := c.client(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := client.Models.GenerateContent(ctx, c.cfg.Model, genai.Text(req.Prompt), generateConfig(req))
	if err != nil {
		return nil, wrapError(err)
	}
	return convert(resp), nil
}

func generateConfig(req oracle.Request) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSON {
		config.ResponseMIMEType = "application/json"
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if budget, ok := thinkingBudgets[strings.ToLower(req.ReasoningEffort)]; ok {
		config.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(budget)}
	}
	return config
}

func convert(resp *genai.GenerateContentResponse) *oracle.Response {
	out := &oracle.Response{}
	if resp == nil {
		return out
	}
	out.Content = resp.Text()
	if len(resp.Candidates) > 0 && resp.Candidates[0] != nil {
		out.FinishReason = finishReason(resp.Candidates[0].FinishReason)
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = oracle.Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return out
}

// finishReason maps Gemini finish reasons onto the chat-completions names
// the rest of the code checks.
func finishReason(r genai.FinishReason) string {
	switch r {
	case genai.FinishReasonMaxTokens:
		return oracle.FinishLength
	case genai.FinishReasonStop:
		return "stop"
	case "":
		return ""
	default:
		return strings.ToLower(string(r))
	}
}

func wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &errors.APIError{Provider: ProviderName, StatusCode: apiErr.Code, Message: apiErr.Message, Err: err}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &errors.APIError{Provider: ProviderName, StatusCode: apiErrPtr.Code, Message: apiErrPtr.Message, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &errors.APIError{Provider: ProviderName, Message: "request canceled", Err: errors.ErrCanceled}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.NewTimeoutError(ProviderName, "", err.Error())
	}
	return errors.WrapAPI(ProviderName, 0, err)
}
