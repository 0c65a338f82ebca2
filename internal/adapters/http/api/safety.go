package api

import (
	"errors"
	"net/http"

	"github.com/okian/overcall/internal/domain/types"
)

// SafetyHandler handles standalone safety report requests.
type SafetyHandler struct {
	deps    SafetyReporter
	maxBody int64
}

// NewSafetyHandler creates a new safety handler.
func NewSafetyHandler(deps SafetyReporter, maxBody int64) *SafetyHandler {
	return &SafetyHandler{deps: deps, maxBody: maxBody}
}

// HandleSafety handles POST /v1/safety requests.
func (h *SafetyHandler) HandleSafety(w http.ResponseWriter, r *http.Request) {
	const op = "api.safety"
	payload, err := readObject(w, r, h.maxBody)
	if err != nil {
		writeBodyError(w, op, err)
		return
	}
	resp, err := h.deps.Safety(r.Context(), payload, r.Header.Get(RequestIDHeader))
	if err != nil {
		if errors.Is(err, types.ErrEmptyRequest) {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	w.Header().Set(RequestIDHeader, resp.RequestID)
	writeJSON(w, http.StatusOK, resp)
}
