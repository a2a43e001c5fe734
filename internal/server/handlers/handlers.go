// Package handlers provides HTTP request handlers for the bookmap API.
package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/bookmap/cmd/application"
	"github.com/agentstation/bookmap/internal/server/cache"
	"github.com/agentstation/bookmap/internal/server/response"
	"github.com/agentstation/bookmap/pkg/constants"
	"github.com/agentstation/bookmap/pkg/errors"
	"github.com/agentstation/bookmap/pkg/logging"
)

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	app       application.Application
	cache     *cache.Cache
	logger    *zerolog.Logger
	startTime time.Time
}

// New creates a new Handlers instance.
func New(app application.Application, cache *cache.Cache, logger *zerolog.Logger, startTime time.Time) *Handlers {
	return &Handlers{
		app:       app,
		cache:     cache,
		logger:    logger,
		startTime: startTime,
	}
}

// decode reads a JSON request body into v. It writes the error response
// itself and reports whether the handler should continue.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, constants.MaxRequestBytes)
	err := json.NewDecoder(body).Decode(v)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		response.TooLarge(w, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
	case errors.Is(err, io.EOF):
		response.BadRequest(w, "Request body is required", "")
	default:
		response.BadRequest(w, "Invalid JSON request body", err.Error())
	}
	return false
}

// fail logs err with the request logger and writes the mapped response.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.FromContext(r.Context())
	ev := logger.Warn()
	if !errors.IsValidationError(err) {
		ev = logger.Error()
	}
	ev.Err(err).Msg("request failed")
	response.ErrorFromType(w, err)
}
