package api

import (
	"errors"
	"net/http"

	"github.com/okian/overcall/internal/domain/types"
	"github.com/okian/overcall/pkg/logger"
)

// AdviseHandler handles advice requests.
type AdviseHandler struct {
	deps    Adviser
	maxBody int64
	logger  logger.Logger
}

// NewAdviseHandler creates a new advise handler.
func NewAdviseHandler(deps Adviser, maxBody int64, l logger.Logger) *AdviseHandler {
	return &AdviseHandler{deps: deps, maxBody: maxBody, logger: l}
}

// HandleAdvise handles POST /v1/advise and its legacy alias POST /api/orchestrate.
// Every well-formed request gets 200; degradations are reported in the body.
func (h *AdviseHandler) HandleAdvise(w http.ResponseWriter, r *http.Request) {
	const op = "api.advise"
	payload, err := readObject(w, r, h.maxBody)
	if err != nil {
		writeBodyError(w, op, err)
		return
	}

	resp, err := h.deps.Advise(r.Context(), payload, r.Header.Get(RequestIDHeader))
	if err != nil {
		if errors.Is(err, types.ErrEmptyRequest) {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		h.logger.Error(r.Context(), "advise failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	w.Header().Set(RequestIDHeader, resp.RequestID)
	writeJSON(w, http.StatusOK, resp)
}
