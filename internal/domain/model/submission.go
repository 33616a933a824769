// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/okian/dyscreen/internal/domain/features"
	"github.com/okian/dyscreen/internal/domain/scoring"
)

var (
	// ErrUnknownModality is returned for a modality other than keystroke or reading.
	ErrUnknownModality = errors.New("unknown modality")
	// ErrNoInput is returned when neither features nor a session are provided.
	ErrNoInput = errors.New("submission has no features or session")
	// ErrAmbiguousInput is returned when both features and a session are provided.
	ErrAmbiguousInput = errors.New("submission has both features and a session")
	// ErrIncompleteSession is returned for a reading session without a reading
	// time or without any comprehension questions.
	ErrIncompleteSession = errors.New("reading session incomplete")
)

// Submission is one session to assess. Exactly one of Features or the
// modality's session must be set. A nil feature value means "not provided".
type Submission struct {
	ID         string
	SubjectID  string
	Modality   scoring.Modality
	Features   map[string]*float64
	Keystroke  *features.KeystrokeSession
	Reading    *features.ReadingSession
	ReceivedAt time.Time
}

// Validate checks the submission shape.
func (s Submission) Validate() error {
	var session bool
	switch s.Modality {
	case scoring.Keystroke:
		session = s.Keystroke != nil
		if s.Reading != nil {
			return fmt.Errorf("%w: reading session on a keystroke submission", ErrAmbiguousInput)
		}
	case scoring.Reading:
		session = s.Reading != nil
		if s.Keystroke != nil {
			return fmt.Errorf("%w: keystroke session on a reading submission", ErrAmbiguousInput)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownModality, s.Modality)
	}
	switch {
	case session && s.Features != nil:
		return ErrAmbiguousInput
	case !session && s.Features == nil:
		return ErrNoInput
	}
	if r := s.Reading; r != nil {
		switch {
		case r.TotalQuestions <= 0:
			return fmt.Errorf("%w: no questions answered", ErrIncompleteSession)
		case r.TotalReadingTimeMS <= 0:
			return fmt.Errorf("%w: no reading time", ErrIncompleteSession)
		}
	}
	return nil
}

// Assessment is a finished submission.
type Assessment struct {
	SubmissionID string             `json:"submissionId"`
	SubjectID    string             `json:"subjectId,omitempty"`
	Result       scoring.RiskResult `json:"result"`
	AssessedAt   time.Time          `json:"assessedAt"`
}
