// Package providers builds the configured suggestion oracle.
package providers

import (
	"context"
	"strings"
	"time"

	"github.com/agentstation/bookmap/internal/providers/google"
	"github.com/agentstation/bookmap/internal/providers/openai"
	"github.com/agentstation/bookmap/pkg/constants"
	"github.com/agentstation/bookmap/pkg/errors"
	"github.com/agentstation/bookmap/pkg/logging"
	"github.com/agentstation/bookmap/pkg/oracle"
)

// Provider names.
const (
	OpenAI = "openai"
	Google = "google"
)

// Config selects and configures an oracle backend.
type Config struct {
	Provider string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	GoogleAPIKey  string
	GoogleModel   string
	GoogleBaseURL string

	// ReasoningEffort is the per-operation default used when a request
	// does not set one.
	ReasoningEffort map[oracle.Operation]string

	Timeout time.Duration
}

// Configured reports whether the selected provider has an API key.
func (c Config) Configured() bool {
	switch c.provider() {
	case Google:
		return c.GoogleAPIKey != ""
	default:
		return c.OpenAIAPIKey != ""
	}
}

// Name returns the selected provider, defaulting to OpenAI.
func (c Config) Name() string {
	return c.provider()
}

func (c Config) provider() string {
	p := strings.ToLower(strings.TrimSpace(c.Provider))
	if p == "" {
		return OpenAI
	}
	return p
}

// New builds the oracle selected by cfg, wrapped with per-operation
// reasoning effort defaults and call logging.
func New(_ context.Context, cfg Config) (oracle.Oracle, error) {
	var base oracle.Oracle
	switch cfg.provider() {
	case OpenAI:
		c, err := openai.New(openai.Config{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		base = c
	case Google:
		c, err := google.New(google.Config{
			APIKey:  cfg.GoogleAPIKey,
			Model:   cfg.GoogleModel,
			BaseURL: cfg.GoogleBaseURL,
		})
		if err != nil {
			return nil, err
		}
		base = c
	default:
		return nil, &errors.ValidationError{
			Field:   "oracle_provider",
			Value:   cfg.Provider,
			Message: "must be openai or google",
		}
	}
	return Instrument(cfg.provider(), base, cfg.ReasoningEffort), nil
}

// Instrument wraps o so requests without a reasoning effort get the
// per-operation default, and every call is logged with its usage.
func Instrument(name string, o oracle.Oracle, efforts map[oracle.Operation]string) oracle.Oracle {
	return oracle.Func(func(ctx context.Context, req oracle.Request) (*oracle.Response, error) {
		if req.ReasoningEffort == "" {
			req.ReasoningEffort = efforts[req.Operation]
		}
		if req.ReasoningEffort == "" {
			req.ReasoningEffort = constants.DefaultReasoningEffort
		}

		ctx = logging.WithProvider(ctx, name)
		logger := logging.FromContext(ctx)
		start := time.Now()

		resp, err := o.Complete(ctx, req)
		if err != nil {
			logger.Error().Err(err).
				Str("operation", string(req.Operation)).
				Dur("duration", time.Since(start)).
				Msg("oracle call failed")
			return nil, err
		}

		ev := logger.Info().
			Str("operation", string(req.Operation)).
			Dur("duration", time.Since(start)).
			Int("prompt_tokens", resp.Usage.PromptTokens).
			Int("completion_tokens", resp.Usage.CompletionTokens).
			Int("total_tokens", resp.Usage.TotalTokens)
		if resp.FinishReason != "" {
			ev = ev.Str("finish_reason", resp.FinishReason)
		}
		ev.Msg("oracle call complete")
		return resp, nil
	})
}
