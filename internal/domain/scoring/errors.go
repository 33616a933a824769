package scoring

import "errors"

var (
	// ErrInvalidModel is returned when a feature model violates its invariants.
	ErrInvalidModel = errors.New("invalid scoring model")
	// ErrAnomalyUnavailable marks an anomaly score that could not be used.
	ErrAnomalyUnavailable = errors.New("anomaly score unavailable")
)
