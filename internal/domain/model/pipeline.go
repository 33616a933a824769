package model

import (
	"errors"

	"github.com/okian/dyscreen/internal/domain/scoring"
)

// Pipeline errors shared by the service and its transports.
var (
	// ErrNotStarted is returned by Submit before Start or after Stop.
	ErrNotStarted = errors.New("service not started")
	// ErrBackpressure is returned by Submit when the queue is full.
	ErrBackpressure = errors.New("submission queue full")
	// ErrBatchTooLarge is returned for a batch over the configured limit.
	ErrBatchTooLarge = errors.New("batch too large")
)

// SubmitStatus reports what happened to a submission.
type SubmitStatus string

const (
	// Accepted means the submission was queued for assessment.
	Accepted SubmitStatus = "accepted"
	// Duplicate means the id was already submitted; nothing was queued.
	Duplicate SubmitStatus = "duplicate"
)

// BatchItem is the outcome of one batch entry. Exactly one of Result and
// Error is set.
type BatchItem struct {
	Index  int                 `json:"index"`
	Result *scoring.RiskResult `json:"result,omitempty"`
	Error  string              `json:"error,omitempty"`
}
