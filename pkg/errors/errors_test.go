package errors_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	pkgerrors "github.com/agentstation/bookmap/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{
			Field:   "current_folders",
			Message: "cannot be empty",
		}
		assert.Equal(t, "validation failed for field current_folders: cannot be empty", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrInvalidInput))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "invalid request"}
		assert.Equal(t, "validation failed: invalid request", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		rateLimited bool
		unavailable bool
	}{
		{name: "rate limited", status: 429, rateLimited: true},
		{name: "server error", status: 503, unavailable: true},
		{name: "bad request", status: 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pkgerrors.NewAPIError("openai", tt.status, "boom")
			assert.Contains(t, err.Error(), "openai")
			assert.Contains(t, err.Error(), fmt.Sprint(tt.status))
			assert.Equal(t, tt.rateLimited, pkgerrors.IsRateLimited(err))
			assert.Equal(t, tt.unavailable, pkgerrors.IsProviderUnavailable(err))
		})
	}
}

func TestOracleError(t *testing.T) {
	cause := pkgerrors.NewAPIError("google", 500, "internal")
	err := pkgerrors.NewOracleError("first_pass", "analyze_folders", cause)

	assert.Contains(t, err.Error(), "first_pass")
	assert.Contains(t, err.Error(), "analyze_folders")
	assert.True(t, pkgerrors.IsUpstream(err))
	assert.True(t, pkgerrors.IsProviderUnavailable(err))

	var apiErr *pkgerrors.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 500, apiErr.StatusCode)
}

func TestMalformedResponseError(t *testing.T) {
	t.Run("short payload", func(t *testing.T) {
		err := pkgerrors.NewMalformedResponseError(`{"a":`, true, errors.New("unexpected end"))
		assert.Equal(t, 5, err.Length)
		assert.Equal(t, `{"a":`, err.Head)
		assert.Equal(t, `{"a":`, err.Tail)
		assert.Contains(t, err.Error(), "after repair")
		assert.True(t, errors.Is(err, pkgerrors.ErrMalformedResponse))
		assert.True(t, pkgerrors.IsUpstream(err))
	})

	t.Run("long payload is clipped", func(t *testing.T) {
		content := "H" + strings.Repeat("x", 500) + "T"
		err := pkgerrors.NewMalformedResponseError(content, false, nil)
		assert.Equal(t, 502, err.Length)
		assert.Len(t, err.Head, 200)
		assert.Len(t, err.Tail, 200)
		assert.True(t, strings.HasPrefix(err.Head, "H"))
		assert.True(t, strings.HasSuffix(err.Tail, "T"))
		assert.NotContains(t, err.Error(), "after repair")
	})

	t.Run("multibyte payload keeps whole runes", func(t *testing.T) {
		content := strings.Repeat("未", 100)
		err := pkgerrors.NewMalformedResponseError(content, false, nil)
		assert.Equal(t, 300, err.Length)
		assert.True(t, utf8.ValidString(err.Head))
		assert.True(t, utf8.ValidString(err.Tail))
		assert.Equal(t, strings.Repeat("未", 66), err.Head)
		assert.Equal(t, strings.Repeat("未", 66), err.Tail)
	})
}

func TestConfigError(t *testing.T) {
	base := errors.New("missing key")
	err := pkgerrors.NewConfigError("oracle", "no provider configured", base)
	assert.Equal(t, "configuration error in oracle: no provider configured", err.Error())
	assert.True(t, errors.Is(err, base))
}

func TestParseError(t *testing.T) {
	err := pkgerrors.WrapParse("yaml", "input.yaml", errors.New("bad indent"))
	require.Error(t, err)
	assert.Equal(t, "parse error in yaml file input.yaml: bad indent", err.Error())

	assert.Equal(t, "json parse error: eof", pkgerrors.NewParseError("json", "", "eof", nil).Error())
}

func TestAuthenticationAndTimeout(t *testing.T) {
	auth := pkgerrors.NewAuthenticationError("openai", "bearer", "OPENAI_API_KEY not set", nil)
	assert.True(t, pkgerrors.IsAPIKeyError(auth))

	timeout := pkgerrors.NewTimeoutError("review", "30s", "deadline exceeded")
	assert.Equal(t, "operation review timed out after 30s: deadline exceeded", timeout.Error())
	assert.True(t, pkgerrors.IsTimeout(timeout))
}

func TestWrapHelpers(t *testing.T) {
	assert.NoError(t, pkgerrors.WrapValidation("x", nil))
	assert.NoError(t, pkgerrors.WrapParse("json", "", nil))
	assert.NoError(t, pkgerrors.WrapAPI("openai", 500, nil))
	assert.NoError(t, pkgerrors.WrapOracle("review", "review", nil))

	err := pkgerrors.WrapAPI("openai", 429, errors.New("slow down"))
	assert.True(t, pkgerrors.IsRateLimited(err))

	err = pkgerrors.WrapOracle("first_pass", "analyze_tags", pkgerrors.ErrEmptyResponse)
	assert.True(t, errors.Is(err, pkgerrors.ErrEmptyResponse))
	assert.True(t, pkgerrors.IsUpstream(err))
}

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{
		pkgerrors.ErrInvalidInput,
		pkgerrors.ErrAPIKeyRequired,
		pkgerrors.ErrProviderUnavailable,
		pkgerrors.ErrRateLimited,
		pkgerrors.ErrTimeout,
		pkgerrors.ErrCanceled,
		pkgerrors.ErrEmptyResponse,
		pkgerrors.ErrMalformedResponse,
		pkgerrors.ErrUpstream,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j {
				assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
			}
		}
	}
	assert.True(t, pkgerrors.IsCanceled(fmt.Errorf("wrapped: %w", pkgerrors.ErrCanceled)))
}
