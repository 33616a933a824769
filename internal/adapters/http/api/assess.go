package api

import (
	"fmt"
	"net/http"

	"github.com/okian/dyscreen/internal/domain/model"
	"github.com/okian/dyscreen/internal/domain/scoring"
)

// AssessHandler serves synchronous assessments.
type AssessHandler struct {
	deps Dependencies
}

// NewAssessHandler creates a new assess handler.
func NewAssessHandler(deps Dependencies) *AssessHandler {
	return &AssessHandler{deps: deps}
}

// HandleKeystroke handles POST /v1/keystroke/assess.
func (h *AssessHandler) HandleKeystroke(w http.ResponseWriter, r *http.Request) {
	h.assess(w, r, scoring.Keystroke)
}

// HandleReading handles POST /v1/reading/assess.
func (h *AssessHandler) HandleReading(w http.ResponseWriter, r *http.Request) {
	h.assess(w, r, scoring.Reading)
}

func (h *AssessHandler) assess(w http.ResponseWriter, r *http.Request, modality scoring.Modality) {
	var req assessRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if req.Modality != "" && req.Modality != modality {
		writeError(w, http.StatusBadRequest, "bad_request",
			fmt.Errorf("%w: modality %q on the %s route", ErrBadRequest, req.Modality, modality))
		return
	}
	req.Modality = modality

	sub, err := req.submission()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	a, err := h.deps.Assess(r.Context(), sub)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, a.Result)
}

// HandleBatch handles POST /v1/batch. The body is a JSON array of requests,
// each naming its modality. Malformed entries are reported per item.
func (h *AssessHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	var reqs []assessRequest
	if err := decodeJSON(w, r, &reqs); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	subs := make([]model.Submission, len(reqs))
	bad := make(map[int]error)
	for i, req := range reqs {
		sub, err := req.submission()
		if err != nil {
			bad[i] = err
		}
		subs[i] = sub
	}

	items, err := h.deps.AssessBatch(r.Context(), subs)
	if err != nil {
		if isClientError(err) {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	for i, err := range bad {
		items[i] = model.BatchItem{Index: i, Error: err.Error()}
	}
	writeJSON(w, http.StatusOK, batchResponse{Results: items})
}
