// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/dyscreen/internal/domain/features"
	"github.com/okian/dyscreen/internal/domain/model"
	"github.com/okian/dyscreen/internal/domain/scoring"
)

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Assess scores one submission synchronously.
	Assess(ctx context.Context, s model.Submission) (model.Assessment, error)

	// AssessBatch scores many submissions; per-item failures are reported in place.
	AssessBatch(ctx context.Context, subs []model.Submission) ([]model.BatchItem, error)

	// Submit queues a submission. It fails with model.ErrBackpressure when full.
	Submit(ctx context.Context, s model.Submission) (string, model.SubmitStatus, error)

	// Result returns a finished assessment or an error wrapping a not-found.
	Result(ctx context.Context, id string) (model.Assessment, error)
}

// Server wires HTTP routes for the screening API.
type Server struct {
	opsHandler        *OpsHandler
	assessHandler     *AssessHandler
	submissionHandler *SubmissionHandler
}

// NewServer creates a new API server with all handlers. notFound reports
// whether a Result error means the id is unknown.
func NewServer(deps Dependencies, statsProvider StatsProvider, notFound func(error) bool) *Server {
	return &Server{
		opsHandler:        NewOpsHandler(statsProvider),
		assessHandler:     NewAssessHandler(deps),
		submissionHandler: NewSubmissionHandler(deps, notFound),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.Handle("GET /metrics", s.opsHandler.MetricsHandler())

	routes := []struct {
		pattern, endpoint string
		handler           http.HandlerFunc
	}{
		{"GET /healthz", "healthz", s.opsHandler.HandleHealth},
		{"GET /stats", "stats", s.opsHandler.HandleStats},
		{"POST /v1/keystroke/assess", "keystroke_assess", s.assessHandler.HandleKeystroke},
		{"POST /v1/reading/assess", "reading_assess", s.assessHandler.HandleReading},
		{"POST /v1/batch", "batch", s.assessHandler.HandleBatch},
		{"POST /v1/submissions", "submit", s.submissionHandler.HandleSubmit},
		{"GET /v1/submissions/{id}", "submission", s.submissionHandler.HandleGet},
	}
	for _, rt := range routes {
		mux.HandleFunc(rt.pattern, instrument(rt.endpoint, rt.handler))
	}
}

// assessRequest carries either a feature map (null values mean "not
// provided") or a raw session for the request's modality.
type assessRequest struct {
	ID        string              `json:"id,omitempty"`
	SubjectID string              `json:"subjectId,omitempty"`
	Modality  scoring.Modality    `json:"modality,omitempty"`
	Features  map[string]*float64 `json:"features,omitempty"`
	Session   json.RawMessage     `json:"session,omitempty"`
}

// submission converts the request, decoding the session for the modality.
func (r assessRequest) submission() (model.Submission, error) {
	s := model.Submission{
		ID:        r.ID,
		SubjectID: r.SubjectID,
		Modality:  r.Modality,
		Features:  r.Features,
	}
	if len(r.Session) == 0 || string(r.Session) == "null" {
		return s, s.Validate()
	}

	switch r.Modality {
	case scoring.Keystroke:
		var ks features.KeystrokeSession
		if err := json.Unmarshal(r.Session, &ks); err != nil {
			return s, fmt.Errorf("keystroke session: %w", err)
		}
		s.Keystroke = &ks
	case scoring.Reading:
		var rs features.ReadingSession
		if err := json.Unmarshal(r.Session, &rs); err != nil {
			return s, fmt.Errorf("reading session: %w", err)
		}
		s.Reading = &rs
	}
	return s, s.Validate()
}

type submitResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type batchResponse struct {
	Results []model.BatchItem `json:"results"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isClientError reports whether err came from a malformed request.
func isClientError(err error) bool {
	return errors.Is(err, ErrBadRequest) ||
		errors.Is(err, model.ErrUnknownModality) ||
		errors.Is(err, model.ErrNoInput) ||
		errors.Is(err, model.ErrAmbiguousInput) ||
		errors.Is(err, model.ErrIncompleteSession) ||
		errors.Is(err, model.ErrBatchTooLarge)
}
