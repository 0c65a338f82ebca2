package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/okian/overcall/internal/adapters/repository"
	"github.com/okian/overcall/internal/domain/normalize"
)

// BaselineHandler handles baseline administration.
type BaselineHandler struct {
	deps    BaselineAdmin
	maxBody int64
}

// NewBaselineHandler creates a new baseline handler.
func NewBaselineHandler(deps BaselineAdmin, maxBody int64) *BaselineHandler {
	return &BaselineHandler{deps: deps, maxBody: maxBody}
}

// HandleGetBaseline handles GET /v1/baselines/{playerId} requests.
func (h *BaselineHandler) HandleGetBaseline(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_baseline"
	id := strings.TrimSpace(r.PathValue("playerId"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	b, err := h.deps.GetBaseline(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// HandlePutBaseline handles PUT /v1/baselines/{playerId} requests. The body
// uses the same baseline fields as an advice payload; absent fields take defaults.
func (h *BaselineHandler) HandlePutBaseline(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_baseline"
	id := strings.TrimSpace(r.PathValue("playerId"))
	obj, err := readObject(w, r, h.maxBody)
	if err != nil {
		writeBodyError(w, op, err)
		return
	}
	b := normalize.Baseline(obj)
	if !b.Provided {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("no baseline fields in body")))
		return
	}
	if err := h.deps.PutBaseline(r.Context(), id, b); err != nil {
		if errors.Is(err, repository.ErrInvalidID) {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
