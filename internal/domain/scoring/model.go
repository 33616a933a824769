package scoring

import (
	"fmt"
	"math"
	"strings"
)

const (
	weightTolerance   = 1e-6
	defaultRuleWeight = 1.0
)

// Modality names a scoring subsystem.
type Modality string

const (
	Keystroke Modality = "keystroke"
	Reading   Modality = "reading"
)

// Confidence grades how well literature supports a feature's thresholds.
// It annotates output only.
type Confidence string

const (
	ConfidenceNone     Confidence = ""
	ConfidenceHigh     Confidence = "HIGH"
	ConfidenceModerate Confidence = "MODERATE"
	ConfidenceLow      Confidence = "LOW"
)

// ParseConfidence accepts HIGH, MODERATE, LOW or empty.
func ParseConfidence(s string) (Confidence, error) {
	c := Confidence(strings.ToUpper(strings.TrimSpace(s)))
	switch c {
	case ConfidenceNone, ConfidenceHigh, ConfidenceModerate, ConfidenceLow:
		return c, nil
	default:
		return ConfidenceNone, fmt.Errorf("%w: unknown confidence %q", ErrInvalidModel, s)
	}
}

// Severity holds the raw-value thresholds at which a recommendation fires.
// They are compared in the direction of the feature's reference range.
type Severity struct {
	Moderate float64
	High     float64
}

// Messages holds the recommendation text per severity.
type Messages struct {
	Moderate string
	High     string
}

// FeatureSpec is the static configuration of one scored feature.
type FeatureSpec struct {
	Name         string
	Range        ReferenceRange
	Weight       float64
	Policy       Policy
	Confidence   Confidence
	Severity     Severity
	Messages     Messages
	Citation     string
	Experimental bool
}

// Model is an immutable, validated feature set for one modality.
type Model struct {
	modality   Modality
	specs      []FeatureSpec
	ruleWeight float64
}

// ModelOption configures NewModel.
type ModelOption func(*Model)

// WithRuleWeight sets the share of the final score taken by the rule-based
// component. The remainder goes to the anomaly term. 1 disables blending.
func WithRuleWeight(w float64) ModelOption {
	return func(m *Model) {
		m.ruleWeight = w
	}
}

// NewModel validates specs and returns a model. Weights must each lie in
// (0,1] and sum to 1 within 1e-6; they are never renormalized.
func NewModel(modality Modality, specs []FeatureSpec, opts ...ModelOption) (*Model, error) {
	m := &Model{
		modality:   modality,
		specs:      append([]FeatureSpec(nil), specs...),
		ruleWeight: defaultRuleWeight,
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Model) validate() error {
	if m.modality == "" {
		return fmt.Errorf("%w: empty modality", ErrInvalidModel)
	}
	if len(m.specs) == 0 {
		return fmt.Errorf("%w: %s has no features", ErrInvalidModel, m.modality)
	}
	if !(m.ruleWeight > 0 && m.ruleWeight <= 1) {
		return fmt.Errorf("%w: %s rule weight %v outside (0,1]", ErrInvalidModel, m.modality, m.ruleWeight)
	}

	seen := make(map[string]struct{}, len(m.specs))
	var sum float64
	for _, s := range m.specs {
		if s.Name == "" {
			return fmt.Errorf("%w: %s feature without a name", ErrInvalidModel, m.modality)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("%w: %s feature %q listed twice", ErrInvalidModel, m.modality, s.Name)
		}
		seen[s.Name] = struct{}{}

		if !(s.Weight > 0 && s.Weight <= 1) {
			return fmt.Errorf("%w: %s.%s weight %v outside (0,1]", ErrInvalidModel, m.modality, s.Name, s.Weight)
		}
		if err := validateRange(s.Range); err != nil {
			return fmt.Errorf("%w: %s.%s: %v", ErrInvalidModel, m.modality, s.Name, err)
		}
		sum += s.Weight
	}
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: %s weights sum to %v, want 1", ErrInvalidModel, m.modality, sum)
	}
	return nil
}

func validateRange(rr ReferenceRange) error {
	if math.IsNaN(rr.Normal) || math.IsInf(rr.Normal, 0) || math.IsNaN(rr.Atypical) || math.IsInf(rr.Atypical, 0) {
		return fmt.Errorf("boundaries must be finite")
	}
	switch rr.Direction {
	case HigherIsWorse:
		if rr.Atypical <= rr.Normal {
			return fmt.Errorf("atypical %v must exceed normal %v", rr.Atypical, rr.Normal)
		}
	case LowerIsWorse:
		if rr.Atypical >= rr.Normal {
			return fmt.Errorf("atypical %v must be below normal %v", rr.Atypical, rr.Normal)
		}
	default:
		return fmt.Errorf("unknown direction %d", rr.Direction)
	}
	return nil
}

// Modality returns the model's modality.
func (m *Model) Modality() Modality { return m.modality }

// RuleWeight returns the rule-based share of the final score.
func (m *Model) RuleWeight() float64 { return m.ruleWeight }

// Blended reports whether the model folds in an anomaly term.
func (m *Model) Blended() bool { return m.ruleWeight < 1 }

// Specs returns a copy of the feature specs in scoring order.
func (m *Model) Specs() []FeatureSpec {
	return append([]FeatureSpec(nil), m.specs...)
}

// Spec returns the named feature spec.
func (m *Model) Spec(name string) (FeatureSpec, bool) {
	for _, s := range m.specs {
		if s.Name == name {
			return s, true
		}
	}
	return FeatureSpec{}, false
}
