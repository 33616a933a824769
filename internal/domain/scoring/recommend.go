package scoring

import "github.com/okian/dyscreen/internal/domain/features"

// Level is the severity of a recommendation.
type Level string

const (
	LevelNone     Level = ""
	LevelModerate Level = "moderate"
	LevelHigh     Level = "high"
	LevelSummary  Level = "summary"
)

// Recommendation is one explanatory message.
type Recommendation struct {
	Feature      string     `json:"feature,omitempty"`
	Severity     Level      `json:"severity"`
	Message      string     `json:"message"`
	Confidence   Confidence `json:"confidence,omitempty"`
	Citation     string     `json:"citation,omitempty"`
	Experimental bool       `json:"experimental,omitempty"`
}

// Classify returns the severity of raw value v for spec.
func Classify(spec FeatureSpec, v float64) Level {
	if spec.Range.Direction == LowerIsWorse {
		switch {
		case v < spec.Severity.High:
			return LevelHigh
		case v < spec.Severity.Moderate:
			return LevelModerate
		}
		return LevelNone
	}
	switch {
	case v >= spec.Severity.High:
		return LevelHigh
	case v >= spec.Severity.Moderate:
		return LevelModerate
	}
	return LevelNone
}

// Recommend walks the model's features in order and emits a message for each
// present value that crosses a severity threshold, then the tier summary.
// The result is never empty.
func Recommend(m *Model, v features.Vector, tier Tier) []Recommendation {
	out := make([]Recommendation, 0, len(m.specs)+1)
	for _, spec := range m.specs {
		x, ok := v.Lookup(spec.Name).Float()
		if !ok {
			continue
		}
		level := Classify(spec, x)
		msg := spec.Messages.Moderate
		if level == LevelHigh {
			msg = spec.Messages.High
		}
		if level == LevelNone || msg == "" {
			continue
		}
		out = append(out, Recommendation{
			Feature:      spec.Name,
			Severity:     level,
			Message:      msg,
			Confidence:   spec.Confidence,
			Citation:     spec.Citation,
			Experimental: spec.Experimental,
		})
	}
	return append(out, Recommendation{Severity: LevelSummary, Message: tier.Recommendation()})
}
