// Package features derives summary statistics from raw session telemetry and
// carries them as immutable feature vectors.
package features

import (
	"math"
	"sort"
)

// Keystroke feature names.
const (
	AvgHoldTime    = "avgHoldTime"
	StdHoldTime    = "stdHoldTime"
	CVHoldTime     = "cvHoldTime"
	AvgFlightTime  = "avgFlightTime"
	StdFlightTime  = "stdFlightTime"
	CVFlightTime   = "cvFlightTime"
	WPM            = "wpm"
	TypingAccuracy = "accuracy"
	ErrorRate      = "errorRate"
	BackspaceCount = "backspaceCount"
	BackspaceRate  = "backspaceRate"
	PauseFrequency = "pauseFrequency"
	DurationMS     = "durationMs"
)

// Reading feature names. PauseCount is shared by both modalities.
const (
	ReadingTime             = "readingTime"
	ComprehensionScore      = "comprehensionScore"
	RevisitCount            = "revisitCount"
	PauseCount              = "pauseCount"
	AvgPauseDuration        = "avgPauseDuration"
	WordsPerMinute          = "wordsPerMinute"
	RevisitRate             = "revisitRate"
	PausesPerMinute         = "pausesPerMinute"
	AvgTimePerSegment       = "avgTimePerSegment"
	LongestPause            = "longestPause"
	ComprehensionEfficiency = "comprehensionEfficiency"
)

// Status tags the outcome of looking up a feature.
type Status uint8

const (
	// Present means the feature exists and holds a usable value.
	Present Status = iota
	// Missing means the feature was not provided.
	Missing
	// Invalid means the feature was provided but is NaN or negative.
	Invalid
)

// String returns the status label used in logs and breakdowns.
func (s Status) String() string {
	switch s {
	case Present:
		return "present"
	case Missing:
		return "missing"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Value is a tagged feature lookup result.
type Value struct {
	raw    float64
	status Status
}

// Float returns the raw value and whether it is usable.
func (v Value) Float() (float64, bool) {
	return v.raw, v.status == Present
}

// Raw returns the underlying number regardless of status. Missing values are 0.
func (v Value) Raw() float64 { return v.raw }

// Status returns the lookup status.
func (v Value) Status() Status { return v.status }

// Vector is an immutable mapping from feature name to raw value.
type Vector struct {
	values map[string]float64
}

// NewVector copies m into a new Vector.
func NewVector(m map[string]float64) Vector {
	values := make(map[string]float64, len(m))
	for k, v := range m {
		values[k] = v
	}
	return Vector{values: values}
}

// FromNullable builds a Vector from a map whose nil entries mean "not provided".
func FromNullable(m map[string]*float64) Vector {
	values := make(map[string]float64, len(m))
	for k, v := range m {
		if v != nil {
			values[k] = *v
		}
	}
	return Vector{values: values}
}

// Lookup classifies the named feature. Negative infinity counts as invalid;
// positive infinity is a usable, if extreme, value.
func (v Vector) Lookup(name string) Value {
	x, ok := v.values[name]
	switch {
	case !ok:
		return Value{status: Missing}
	case math.IsNaN(x) || x < 0:
		return Value{raw: x, status: Invalid}
	default:
		return Value{raw: x, status: Present}
	}
}

// Get returns the named value or 0 when it is not usable.
func (v Vector) Get(name string) float64 {
	x, ok := v.Lookup(name).Float()
	if !ok {
		return 0
	}
	return x
}

// Len returns the number of provided features.
func (v Vector) Len() int { return len(v.values) }

// Names returns the provided feature names in sorted order.
func (v Vector) Names() []string {
	names := make([]string, 0, len(v.values))
	for k := range v.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Map returns a copy of the underlying values.
func (v Vector) Map() map[string]float64 {
	out := make(map[string]float64, len(v.values))
	for k, x := range v.values {
		out[k] = x
	}
	return out
}
