package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/bookmap/pkg/errors"
	"github.com/agentstation/bookmap/pkg/logging"
	"github.com/agentstation/bookmap/pkg/oracle"
)

func TestConfigured(t *testing.T) {
	assert.False(t, Config{}.Configured())
	assert.True(t, Config{OpenAIAPIKey: "sk"}.Configured())
	assert.False(t, Config{Provider: "google", OpenAIAPIKey: "sk"}.Configured())
	assert.True(t, Config{Provider: " Google ", GoogleAPIKey: "k"}.Configured())
	assert.Equal(t, OpenAI, Config{}.Name())
}

func TestNew(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.True(t, errors.IsAPIKeyError(err))

	_, err = New(context.Background(), Config{Provider: "google"})
	assert.True(t, errors.IsAPIKeyError(err))

	_, err = New(context.Background(), Config{Provider: "mistral"})
	assert.True(t, errors.IsValidationError(err))

	o, err := New(context.Background(), Config{OpenAIAPIKey: "sk"})
	require.NoError(t, err)
	assert.NotNil(t, o)

	o, err = New(context.Background(), Config{Provider: "google", GoogleAPIKey: "k"})
	require.NoError(t, err)
	assert.NotNil(t, o)
}

func TestInstrument(t *testing.T) {
	var seen []string
	base := oracle.Func(func(_ context.Context, req oracle.Request) (*oracle.Response, error) {
		seen = append(seen, req.ReasoningEffort)
		return &oracle.Response{Content: "ok", FinishReason: "stop", Usage: oracle.Usage{TotalTokens: 7}}, nil
	})
	o := Instrument("openai", base, map[oracle.Operation]string{oracle.OpReviewFolders: "medium"})

	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)

	_, err := o.Complete(ctx, oracle.Request{Operation: oracle.OpReviewFolders})
	require.NoError(t, err)
	_, err = o.Complete(ctx, oracle.Request{Operation: oracle.OpSuggestTags})
	require.NoError(t, err)
	_, err = o.Complete(ctx, oracle.Request{Operation: oracle.OpReviewFolders, ReasoningEffort: "high"})
	require.NoError(t, err)

	assert.Equal(t, []string{"medium", "low", "high"}, seen)
	tl.AssertContains(t, "oracle call complete")
	tl.AssertContains(t, `"provider":"openai"`)
	tl.AssertContains(t, `"total_tokens":7`)
}

func TestInstrumentLogsFailures(t *testing.T) {
	base := oracle.Func(func(context.Context, oracle.Request) (*oracle.Response, error) {
		return nil, errors.NewAPIError("openai", 500, "down")
	})
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)

	_, err := Instrument("openai", base, nil).Complete(ctx, oracle.Request{Operation: oracle.OpAnalyzeTags})
	require.Error(t, err)
	tl.AssertContains(t, "oracle call failed")
}
