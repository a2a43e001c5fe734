// Package response provides standardized HTTP response structures and helpers
// for the bookmap API server. All API responses follow a consistent format
// with a data field for successful responses and an error field for failures.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/agentstation/bookmap/pkg/errors"
)

// Response represents the standardized API response structure.
type Response struct {
	Data  any    `json:"data"`
	Error *Error `json:"error"`
}

// Error represents an API error with code, message, and optional details.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error codes.
const (
	CodeBadRequest         = "BAD_REQUEST"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeNotFound           = "NOT_FOUND"
	CodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	CodeTooLarge           = "REQUEST_TOO_LARGE"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternal           = "INTERNAL_ERROR"
	CodeUpstream           = "UPSTREAM_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// Success creates a successful response with data.
func Success(data any) Response {
	return Response{Data: data}
}

// Fail creates an error response.
func Fail(code, message, details string) Response {
	return Response{
		Error: &Error{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Encoding errors are ignored as headers are already sent (best effort)
	_ = json.NewEncoder(w).Encode(resp)
}

// OK writes a successful response with 200 status.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Success(data))
}

// BadRequest writes a 400 error response.
func BadRequest(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusBadRequest, Fail(CodeBadRequest, message, details))
}

// Unauthorized writes a 401 error response.
func Unauthorized(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusUnauthorized, Fail(CodeUnauthorized, message, details))
}

// NotFound writes a 404 error response.
func NotFound(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusNotFound, Fail(CodeNotFound, message, details))
}

// MethodNotAllowed writes a 405 error response.
func MethodNotAllowed(w http.ResponseWriter, method string) {
	JSON(w, http.StatusMethodNotAllowed, Fail(
		CodeMethodNotAllowed,
		"Method not allowed",
		"Method "+method+" is not supported for this endpoint",
	))
}

// TooLarge writes a 413 error response.
func TooLarge(w http.ResponseWriter, details string) {
	JSON(w, http.StatusRequestEntityTooLarge, Fail(CodeTooLarge, "Request body too large", details))
}

// RateLimited writes a 429 error response.
func RateLimited(w http.ResponseWriter, message string) {
	JSON(w, http.StatusTooManyRequests, Fail(CodeRateLimited, "Rate limit exceeded", message))
}

// InternalError writes a 500 error response. The error itself is not
// exposed to the client.
func InternalError(w http.ResponseWriter, _ error) {
	JSON(w, http.StatusInternalServerError, Fail(
		CodeInternal,
		"Internal server error",
		"An unexpected error occurred",
	))
}

// UpstreamError writes a 502 error response for a failed oracle call.
func UpstreamError(w http.ResponseWriter, details string) {
	JSON(w, http.StatusBadGateway, Fail(CodeUpstream, "Suggestion service failed", details))
}

// ServiceUnavailable writes a 503 error response.
func ServiceUnavailable(w http.ResponseWriter, message string) {
	JSON(w, http.StatusServiceUnavailable, Fail(CodeServiceUnavailable, "Service unavailable", message))
}

// ErrorFromType maps typed errors to appropriate HTTP responses.
func ErrorFromType(w http.ResponseWriter, err error) {
	var (
		validation *errors.ValidationError
		config     *errors.ConfigError
	)
	switch {
	case errors.As(err, &validation):
		BadRequest(w, validation.Error(), "")
	case errors.IsAPIKeyError(err), errors.As(err, &config):
		ServiceUnavailable(w, "no suggestion oracle API key is configured")
	case errors.IsCanceled(err):
		ServiceUnavailable(w, "request canceled before the suggestion service answered")
	case errors.IsUpstream(err):
		UpstreamError(w, upstreamDetail(err))
	default:
		InternalError(w, err)
	}
}

// upstreamDetail prefixes an oracle failure with its transport cause.
func upstreamDetail(err error) string {
	switch {
	case errors.IsTimeout(err):
		return "suggestion oracle timed out: " + err.Error()
	case errors.IsRateLimited(err):
		return "suggestion oracle is rate limiting requests: " + err.Error()
	case errors.IsProviderUnavailable(err):
		return "suggestion oracle is unavailable: " + err.Error()
	default:
		return err.Error()
	}
}
