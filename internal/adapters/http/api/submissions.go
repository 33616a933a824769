package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/okian/dyscreen/internal/domain/model"
)

// SubmissionHandler serves the asynchronous submission routes.
type SubmissionHandler struct {
	deps     Dependencies
	notFound func(error) bool
}

// NewSubmissionHandler creates a new submission handler.
func NewSubmissionHandler(deps Dependencies, notFound func(error) bool) *SubmissionHandler {
	if notFound == nil {
		notFound = func(error) bool { return false }
	}
	return &SubmissionHandler{deps: deps, notFound: notFound}
}

// HandleSubmit handles POST /v1/submissions.
func (h *SubmissionHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req assessRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	sub, err := req.submission()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	id, status, err := h.deps.Submit(r.Context(), sub)
	switch {
	case errors.Is(err, model.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", ErrBackpressure)
	case errors.Is(err, model.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", ErrNotStarted)
	case isClientError(err):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	case status == model.Duplicate:
		writeJSON(w, http.StatusOK, submitResponse{ID: id, Status: string(status), Duplicate: true})
	default:
		writeJSON(w, http.StatusAccepted, submitResponse{ID: id, Status: string(status)})
	}
}

// HandleGet handles GET /v1/submissions/{id}.
func (h *SubmissionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	a, err := h.deps.Result(r.Context(), id)
	if err != nil {
		if h.notFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
