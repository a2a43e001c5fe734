package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/agentstation/bookmap/pkg/errors"
	"github.com/agentstation/bookmap/pkg/oracle"
)

const generateResponse = `{
  "candidates": [{
    "content": {"role": "model", "parts": [{"text": "{\"suggested_tags\":[]}"}]},
    "finishReason": "MAX_TOKENS"
  }],
  "usageMetadata": {"promptTokenCount": 40, "candidatesTokenCount": 10, "totalTokenCount": 50}
}`

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
	assert.True(t, errors.IsAPIKeyError(err))

	c, err := New(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, c.Model())
}

func TestGenerateConfig(t *testing.T) {
	config := generateConfig(oracle.Request{
		System:          "be brief",
		JSON:            true,
		MaxTokens:       2000,
		ReasoningEffort: "Low",
	})
	require.NotNil(t, config.SystemInstruction)
	require.Len(t, config.SystemInstruction.Parts, 1)
	assert.Equal(t, "be brief", config.SystemInstruction.Parts[0].Text)
	assert.Equal(t, "application/json", config.ResponseMIMEType)
	assert.Equal(t, int32(2000), config.MaxOutputTokens)
	require.NotNil(t, config.ThinkingConfig)
	assert.Equal(t, int32(1024), *config.ThinkingConfig.ThinkingBudget)

	plain := generateConfig(oracle.Request{ReasoningEffort: "unknown"})
	assert.Nil(t, plain.SystemInstruction)
	assert.Empty(t, plain.ResponseMIMEType)
	assert.Nil(t, plain.ThinkingConfig)
}

func TestFinishReason(t *testing.T) {
	assert.Equal(t, oracle.FinishLength, finishReason(genai.FinishReasonMaxTokens))
	assert.Equal(t, "stop", finishReason(genai.FinishReasonStop))
	assert.Equal(t, "safety", finishReason(genai.FinishReasonSafety))
	assert.Empty(t, finishReason(""))
}

func TestConvert(t *testing.T) {
	assert.Equal(t, &oracle.Response{}, convert(nil))

	var resp genai.GenerateContentResponse
	require.NoError(t, json.Unmarshal([]byte(generateResponse), &resp))
	out := convert(&resp)
	assert.Equal(t, `{"suggested_tags":[]}`, out.Content)
	assert.True(t, out.Truncated())
	assert.Equal(t, oracle.Usage{PromptTokens: 40, CompletionTokens: 10, TotalTokens: 50}, out.Usage)
}

func TestComplete(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(generateResponse))
	}))
	defer srv.Close()

	c, err := New(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	resp, err := c.Complete(context.Background(), oracle.Request{Prompt: "tags please", JSON: true})
	require.NoError(t, err)
	assert.Equal(t, `{"suggested_tags":[]}`, resp.Content)
	assert.Equal(t, 50, resp.Usage.TotalTokens)
	assert.True(t, strings.HasSuffix(path, DefaultModel+":generateContent"), path)
}

func TestCompleteAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	c, err := New(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), oracle.Request{Prompt: "x"})
	require.Error(t, err)
	assert.True(t, errors.IsRateLimited(err))
}

func TestWrapError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{name: "api error", err: genai.APIError{Code: 503, Message: "overloaded"}, check: errors.IsProviderUnavailable},
		{name: "canceled", err: context.Canceled, check: errors.IsCanceled},
		{name: "deadline", err: context.DeadlineExceeded, check: errors.IsTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(wrapError(tt.err)))
		})
	}

	cause := errors.New("connection reset")
	err := wrapError(cause)
	var apiErr *errors.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, ProviderName, apiErr.Provider)
	assert.Equal(t, "connection reset", apiErr.Message)
	assert.ErrorIs(t, err, cause)
}
