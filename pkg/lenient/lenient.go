// Package lenient decodes JSON produced by a language model. Payloads may
// arrive wrapped in markdown code fences or truncated mid-document when the
// model hits its token limit; Decode strips the fences and applies one
// bounded repair before giving up.
package lenient

import (
	"encoding/json"
	"strings"

	"github.com/agentstation/bookmap/pkg/constants"
	"github.com/agentstation/bookmap/pkg/errors"
)

// Result is the outcome of a lenient decode. Exactly one of Value or Err
// is meaningful: Err is nil on success.
type Result[T any] struct {
	Value    T
	Repaired bool
	Err      error
}

// OK reports whether decoding succeeded.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Unwrap returns the value and error as a Go pair.
func (r Result[T]) Unwrap() (T, error) {
	return r.Value, r.Err
}

// Decode parses content into T. Empty content yields ErrEmptyResponse;
// content that fails to parse even after Repair yields a
// *errors.MalformedResponseError with truncation diagnostics.
func Decode[T any](content string) Result[T] {
	var res Result[T]

	body := StripFences(content)
	if body == "" {
		res.Err = errors.ErrEmptyResponse
		return res
	}

	firstErr := json.Unmarshal([]byte(body), &res.Value)
	if firstErr == nil {
		return res
	}

	repaired, changed := Repair(body)
	if !changed {
		res.Err = errors.NewMalformedResponseError(content, false, firstErr)
		return res
	}

	var value T
	if err := json.Unmarshal([]byte(repaired), &value); err != nil {
		res.Err = errors.NewMalformedResponseError(content, true, err)
		return res
	}
	res.Value = value
	res.Repaired = true
	return res
}

// StripFences trims whitespace and removes a surrounding ``` or ```json fence.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[") {
		s = s[nl+1:]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Repair closes a JSON document that was cut off at a string boundary.
// It only acts when the payload ends right after a closing quote and the
// open brackets can be closed within the depth bound; otherwise s is
// returned unchanged with false. A trailing comma is dropped first.
func Repair(s string) (string, bool) {
	s = strings.TrimSpace(s)
	trimmed := strings.TrimRight(s, ", \t\r\n")
	if !strings.HasSuffix(trimmed, `"`) {
		return s, false
	}

	stack, inString, ok := scan(trimmed)
	if !ok || inString || len(stack) == 0 || len(stack) > constants.MaxRepairDepth {
		return s, false
	}

	var b strings.Builder
	b.Grow(len(trimmed) + len(stack))
	b.WriteString(trimmed)
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteByte(stack[i])
	}
	return b.String(), true
}

// scan walks s and returns the closers still owed, in opening order.
// ok is false when a closer does not match its opener.
func scan(s string) (stack []byte, inString bool, ok bool) {
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return stack, inString, false
			}
			stack = stack[:len(stack)-1]
		}
	}
	return stack, inString, true
}
