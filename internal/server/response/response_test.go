package response

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/agentstation/bookmap/pkg/errors"
)

// TestSuccess tests the Success helper function.
func TestSuccess(t *testing.T) {
	resp := Success(map[string]string{"message": "success"})

	if resp.Data == nil {
		t.Error("expected Data to be set")
	}
	if resp.Error != nil {
		t.Error("expected Error to be nil")
	}
}

// TestFail tests the Fail helper function.
func TestFail(t *testing.T) {
	resp := Fail("TEST_ERROR", "Test error message", "Additional details")

	if resp.Data != nil {
		t.Error("expected Data to be nil")
	}
	if resp.Error == nil {
		t.Fatal("expected Error to be set")
	}
	if resp.Error.Code != "TEST_ERROR" {
		t.Errorf("expected Code=TEST_ERROR, got %s", resp.Error.Code)
	}
	if resp.Error.Details != "Additional details" {
		t.Errorf("expected Details=Additional details, got %s", resp.Error.Details)
	}
}

// TestJSON tests the envelope written by JSON.
func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, http.StatusOK, Success(map[string]string{"test": "data"}))

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type=application/json, got %s", ct)
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(w.Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if string(raw["error"]) != "null" {
		t.Errorf("expected error to be null, got %s", raw["error"])
	}
	if _, ok := raw["data"]; !ok {
		t.Error("expected data key")
	}
}

// TestErrorFromType tests the mapping of typed errors onto status codes.
func TestErrorFromType(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantErr    string
		wantDetail string
	}{
		{
			name:     "validation",
			err:      errors.NewValidationError("bookmarks", nil, "cannot be empty"),
			wantCode: http.StatusBadRequest,
			wantErr:  CodeBadRequest,
		},
		{
			name:     "wrapped validation",
			err:      fmt.Errorf("decode: %w", errors.NewValidationError("body", nil, "bad")),
			wantCode: http.StatusBadRequest,
			wantErr:  CodeBadRequest,
		},
		{
			name:     "missing api key",
			err:      errors.NewConfigError("oracle", "no suggestion oracle configured", errors.ErrAPIKeyRequired),
			wantCode: http.StatusServiceUnavailable,
			wantErr:  CodeServiceUnavailable,
		},
		{
			name:     "oracle failure",
			err:      errors.WrapOracle("first_pass", "analyze_folders", errors.NewAPIError("openai", 500, "boom")),
			wantCode: http.StatusBadGateway,
			wantErr:  CodeUpstream,
		},
		{
			name:       "oracle timeout",
			err:        errors.WrapOracle("first_pass", "analyze_folders", errors.NewTimeoutError("openai", "30s", "deadline exceeded")),
			wantCode:   http.StatusBadGateway,
			wantErr:    CodeUpstream,
			wantDetail: "suggestion oracle timed out: ",
		},
		{
			name:       "oracle rate limited",
			err:        errors.WrapOracle("first_pass", "analyze_folders", errors.NewAPIError("openai", 429, "slow down")),
			wantCode:   http.StatusBadGateway,
			wantErr:    CodeUpstream,
			wantDetail: "suggestion oracle is rate limiting requests: ",
		},
		{
			name:       "oracle unavailable",
			err:        errors.WrapOracle("first_pass", "analyze_folders", errors.NewAPIError("openai", 503, "down")),
			wantCode:   http.StatusBadGateway,
			wantErr:    CodeUpstream,
			wantDetail: "suggestion oracle is unavailable: ",
		},
		{
			name:     "canceled",
			err:      fmt.Errorf("%w: %w", errors.ErrCanceled, context.Canceled),
			wantCode: http.StatusServiceUnavailable,
			wantErr:  CodeServiceUnavailable,
		},
		{
			name:     "empty oracle response",
			err:      errors.WrapOracle("first_pass", "analyze_folders", errors.ErrEmptyResponse),
			wantCode: http.StatusBadGateway,
			wantErr:  CodeUpstream,
		},
		{
			name:     "malformed oracle response",
			err:      errors.NewMalformedResponseError(`{"suggested_folders": [`, true, errors.New("unexpected end")),
			wantCode: http.StatusBadGateway,
			wantErr:  CodeUpstream,
		},
		{
			name:     "unknown",
			err:      context.Canceled,
			wantCode: http.StatusInternalServerError,
			wantErr:  CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ErrorFromType(w, tt.err)

			if w.Code != tt.wantCode {
				t.Errorf("expected status %d, got %d", tt.wantCode, w.Code)
			}
			var resp Response
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Error == nil || resp.Error.Code != tt.wantErr {
				t.Errorf("expected error code %s, got %+v", tt.wantErr, resp.Error)
			}
			if tt.wantDetail != "" && (resp.Error == nil || !strings.HasPrefix(resp.Error.Details, tt.wantDetail)) {
				t.Errorf("expected details starting with %q, got %+v", tt.wantDetail, resp.Error)
			}
		})
	}
}

// TestInternalErrorHidesDetails ensures internal errors are not leaked.
func TestInternalErrorHidesDetails(t *testing.T) {
	w := httptest.NewRecorder()
	InternalError(w, errors.New("database password is hunter2"))

	if body := w.Body.String(); strings.Contains(body, "hunter2") {
		t.Errorf("internal error leaked into body: %s", body)
	}
}
