package handlers

import (
	"net/http"

	"github.com/agentstation/bookmap/internal/server/cache"
	"github.com/agentstation/bookmap/internal/server/response"
	"github.com/agentstation/bookmap/pkg/assign"
	"github.com/agentstation/bookmap/pkg/logging"
	"github.com/agentstation/bookmap/pkg/reconcile"
)

// HandleAnalyzeTags handles POST /analyze-tag-structure.
func (h *Handlers) HandleAnalyzeTags(w http.ResponseWriter, r *http.Request) {
	var req reconcile.TagRequest
	if !decode(w, r, &req) {
		return
	}

	engine, err := h.app.Engine()
	if err != nil {
		fail(w, r, err)
		return
	}

	result, err := engine.AnalyzeTags(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.OK(w, result)
}

// HandleSuggestTags handles POST /suggest-tags. Answers are cached per
// identical request.
func (h *Handlers) HandleSuggestTags(w http.ResponseWriter, r *http.Request) {
	var req assign.TagRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Title == "" && req.URL == "" {
		response.BadRequest(w, "title or url is required", "")
		return
	}

	key, err := cache.Key("suggest-tags", req)
	if err == nil {
		if cached, found := h.cache.Get(key); found {
			logging.FromContext(r.Context()).Debug().Msg("suggest-tags cache hit")
			response.OK(w, cached)
			return
		}
	}

	svc, err := h.app.Assigner()
	if err != nil {
		fail(w, r, err)
		return
	}

	result, err := svc.SuggestTags(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	if key != "" {
		h.cache.Set(key, result)
	}
	response.OK(w, result)
}

// HandleBulkAssignTags handles POST /bulk-assign-tags.
func (h *Handlers) HandleBulkAssignTags(w http.ResponseWriter, r *http.Request) {
	var req assign.BulkTagRequest
	if !decode(w, r, &req) {
		return
	}
	if len(req.Bookmarks) == 0 {
		response.BadRequest(w, "bookmarks cannot be empty", "")
		return
	}

	svc, err := h.app.Assigner()
	if err != nil {
		fail(w, r, err)
		return
	}

	result, err := svc.BulkAssignTags(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.OK(w, result)
}
