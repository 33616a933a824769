package scoring

import (
	"context"
	"math"

	"github.com/okian/dyscreen/internal/domain/features"
)

// AnomalyFeatures is the timing summary handed to the anomaly model.
type AnomalyFeatures struct {
	AvgHoldTime   float64 `json:"avgHoldTime"`
	StdHoldTime   float64 `json:"stdHoldTime"`
	CVHoldTime    float64 `json:"cvHoldTime"`
	AvgFlightTime float64 `json:"avgFlightTime"`
	StdFlightTime float64 `json:"stdFlightTime"`
	CVFlightTime  float64 `json:"cvFlightTime"`
}

// AnomalyFeaturesFrom picks the anomaly inputs out of a keystroke vector.
// Unusable values are sent as 0.
func AnomalyFeaturesFrom(v features.Vector) AnomalyFeatures {
	return AnomalyFeatures{
		AvgHoldTime:   v.Get(features.AvgHoldTime),
		StdHoldTime:   v.Get(features.StdHoldTime),
		CVHoldTime:    v.Get(features.CVHoldTime),
		AvgFlightTime: v.Get(features.AvgFlightTime),
		StdFlightTime: v.Get(features.StdFlightTime),
		CVFlightTime:  v.Get(features.CVFlightTime),
	}
}

// AnomalyScore is the anomaly model's verdict. Score is in [-1,1], negative
// meaning more anomalous. IsAnomalous is nil when the model did not answer.
type AnomalyScore struct {
	Score       float64 `json:"score"`
	IsAnomalous *bool   `json:"isAnomalous,omitempty"`
	Available   bool    `json:"available"`
	Reason      string  `json:"reason,omitempty"`
}

// Unavailable returns an anomaly score that contributes nothing.
func Unavailable(reason string) AnomalyScore {
	return AnomalyScore{Reason: reason}
}

// AnomalyScorer scores keystroke timing against a model of typical typists.
// Implementations must honor ctx cancellation.
type AnomalyScorer interface {
	Score(ctx context.Context, f AnomalyFeatures) (AnomalyScore, error)
}

// AnomalyScorerFunc adapts a function to AnomalyScorer.
type AnomalyScorerFunc func(ctx context.Context, f AnomalyFeatures) (AnomalyScore, error)

// Score calls fn.
func (fn AnomalyScorerFunc) Score(ctx context.Context, f AnomalyFeatures) (AnomalyScore, error) {
	return fn(ctx, f)
}

// sanitize treats the model output as untrusted: non-finite scores are
// dropped, the rest clamped, and an exact 0 means "no score".
func sanitize(a AnomalyScore) AnomalyScore {
	if !a.Available {
		return AnomalyScore{Reason: a.Reason}
	}
	if math.IsNaN(a.Score) {
		return Unavailable("anomaly score is NaN")
	}
	a.Score = clamp(a.Score, -1, 1)
	if a.Score == 0 {
		a.Available = false
		a.IsAnomalous = nil
	}
	return a
}
