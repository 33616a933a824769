package scoring

import (
	"encoding/json"
	"math"

	"github.com/okian/dyscreen/internal/domain/features"
)

// NormalizedScore is one feature's contribution to a result.
type NormalizedScore struct {
	Feature    string
	Raw        float64
	Status     features.Status
	Normalized float64
	Weight     float64
	Weighted   float64
	Confidence Confidence
}

// Imputed reports whether the policy default replaced the raw value.
func (n NormalizedScore) Imputed() bool { return n.Status != features.Present }

type normalizedJSON struct {
	Raw        *float64   `json:"raw"`
	Normalized float64    `json:"normalized"`
	Weighted   float64    `json:"weighted"`
	Weight     float64    `json:"weight"`
	Status     string     `json:"status"`
	Confidence Confidence `json:"confidence,omitempty"`
	Imputed    bool       `json:"imputed,omitempty"`
}

// MarshalJSON emits raw as null when it was not provided or is not a finite number.
func (n NormalizedScore) MarshalJSON() ([]byte, error) {
	out := normalizedJSON{
		Normalized: n.Normalized,
		Weighted:   n.Weighted,
		Weight:     n.Weight,
		Status:     n.Status.String(),
		Confidence: n.Confidence,
		Imputed:    n.Imputed(),
	}
	if n.Status != features.Missing && !math.IsNaN(n.Raw) && !math.IsInf(n.Raw, 0) {
		raw := n.Raw
		out.Raw = &raw
	}
	return json.Marshal(out)
}

// Fuse normalizes every feature of m against v and returns the weighted sum
// together with the per-feature breakdown in model order.
func Fuse(m *Model, v features.Vector) (float64, []NormalizedScore) {
	breakdown := make([]NormalizedScore, 0, len(m.specs))
	var total float64
	for _, spec := range m.specs {
		val := v.Lookup(spec.Name)
		norm, _ := NormalizeValue(spec, val)
		weighted := norm * spec.Weight
		total += weighted
		breakdown = append(breakdown, NormalizedScore{
			Feature:    spec.Name,
			Raw:        val.Raw(),
			Status:     val.Status(),
			Normalized: norm,
			Weight:     spec.Weight,
			Weighted:   weighted,
			Confidence: spec.Confidence,
		})
	}
	return total, breakdown
}

// AnomalyRisk converts an anomaly score in [-1,1] to a 0-100 risk. Negative
// scores are anomalous; unavailable scores contribute nothing.
func AnomalyRisk(a AnomalyScore) float64 {
	if !a.Available {
		return 0
	}
	return math.Max(0, -clamp(a.Score, -1, 1)*maxScore)
}

// Blend combines the rule score with the anomaly risk. The rule share is
// applied even when the anomaly term is unavailable.
func Blend(rule float64, a AnomalyScore, ruleWeight float64) float64 {
	if ruleWeight >= 1 {
		return rule
	}
	return rule*ruleWeight + AnomalyRisk(a)*(1-ruleWeight)
}

// FinalScore rounds half away from zero and clamps to [0,100].
func FinalScore(x float64) int {
	if math.IsNaN(x) {
		return minScore
	}
	return int(clamp(math.Round(x), minScore, maxScore))
}
