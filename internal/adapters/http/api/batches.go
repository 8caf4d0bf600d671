package api

import (
	"net/http"
)

// BatchesHandler lists prior-run records.
type BatchesHandler struct {
	deps Dependencies
}

// NewBatchesHandler creates a new batches handler.
func NewBatchesHandler(deps Dependencies) *BatchesHandler {
	return &BatchesHandler{deps: deps}
}

// HandleListBatches handles GET /batches requests.
func (h *BatchesHandler) HandleListBatches(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Batches(r.Context()))
}
