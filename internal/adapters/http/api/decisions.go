package api

import (
	"net/http"
	"strings"
)

// DecisionsHandler serves the decision audit trail.
type DecisionsHandler struct {
	deps DecisionReader
}

// NewDecisionsHandler creates a new decisions handler.
func NewDecisionsHandler(deps DecisionReader) *DecisionsHandler {
	return &DecisionsHandler{deps: deps}
}

// HandleGetDecision handles GET /v1/decisions/{requestId} requests.
func (h *DecisionsHandler) HandleGetDecision(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_decision"
	id := strings.TrimSpace(r.PathValue("requestId"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	rec, err := h.deps.GetDecision(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
