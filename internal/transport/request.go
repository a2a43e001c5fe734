package transport

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/agentstation/bookmap/pkg/errors"
	"github.com/agentstation/bookmap/pkg/logging"
)

// maxErrorBody bounds how much of a failed response ends up in an error.
const maxErrorBody = 1024

// DecodeResponse decodes a JSON response into the target structure.
// Non-2xx responses become *errors.APIError carrying the provider's message.
func DecodeResponse(resp *http.Response, provider string, target any) error {
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn().Err(err).Str("provider", provider).Msg("failed to close response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errors.APIError{Provider: provider, StatusCode: resp.StatusCode, Message: "read response body", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &errors.APIError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body),
			Endpoint:   endpoint(resp),
		}
	}

	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapParse("json", "response", err)
	}
	return nil
}

// errorMessage extracts {"error":{"message":...}} when present.
func errorMessage(body []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	return msg
}

func endpoint(resp *http.Response) string {
	if resp.Request == nil || resp.Request.URL == nil {
		return ""
	}
	return resp.Request.URL.String()
}
