package handlers

import (
	"net/http"

	"github.com/agentstation/bookmap/internal/server/response"
	"github.com/agentstation/bookmap/pkg/assign"
	"github.com/agentstation/bookmap/pkg/reconcile"
)

// ReconcileRequest is the body of POST /reconcile. Review asks for a
// review pass by the configured oracle.
type ReconcileRequest struct {
	reconcile.Input
	Review bool `json:"review"`
}

// HandleAnalyzeFolders handles POST /analyze-folder-structure.
func (h *Handlers) HandleAnalyzeFolders(w http.ResponseWriter, r *http.Request) {
	var req reconcile.FolderRequest
	if !decode(w, r, &req) {
		return
	}

	engine, err := h.app.Engine()
	if err != nil {
		fail(w, r, err)
		return
	}

	result, err := engine.AnalyzeFolders(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.OK(w, result)
}

// HandleReconcile handles POST /reconcile: a supplied proposal is
// validated and diffed against the supplied snapshot.
func (h *Handlers) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	var req ReconcileRequest
	if !decode(w, r, &req) {
		return
	}

	engine := h.app.OfflineEngine()
	if req.Review {
		var err error
		if engine, err = h.app.Engine(); err != nil {
			fail(w, r, err)
			return
		}
	}

	response.OK(w, engine.Reconcile(r.Context(), req.Input))
}

// HandleBulkAssignFolders handles POST /bulk-assign-folders.
func (h *Handlers) HandleBulkAssignFolders(w http.ResponseWriter, r *http.Request) {
	var req assign.BulkFolderRequest
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

	result, err := svc.BulkAssignFolders(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.OK(w, result)
}
