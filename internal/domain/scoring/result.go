package scoring

import (
	"bytes"
	"encoding/json"
)

// RiskResult is the complete outcome of one assessment.
type RiskResult struct {
	Modality        Modality
	RiskScore       int
	RiskLevel       Tier
	RuleScore       float64
	Breakdown       []NormalizedScore
	Recommendations []Recommendation
	// Anomaly is nil for modalities that do not blend an anomaly term.
	Anomaly *AnomalyScore
}

// Imputed returns the features whose policy default replaced the raw value.
func (r RiskResult) Imputed() []string {
	var out []string
	for _, n := range r.Breakdown {
		if n.Imputed() {
			out = append(out, n.Feature)
		}
	}
	return out
}

type resultJSON struct {
	Modality        Modality         `json:"modality"`
	RiskScore       int              `json:"riskScore"`
	RiskLevel       Tier             `json:"riskLevel"`
	Label           string           `json:"label"`
	Actionable      bool             `json:"actionable"`
	RuleScore       float64          `json:"ruleScore"`
	Breakdown       json.RawMessage  `json:"breakdown"`
	Recommendations []Recommendation `json:"recommendations"`
	Anomaly         *AnomalyScore    `json:"anomaly,omitempty"`
	Imputed         []string         `json:"imputed,omitempty"`
}

// MarshalJSON writes the breakdown as an object keyed by feature name in
// scoring order.
func (r RiskResult) MarshalJSON() ([]byte, error) {
	breakdown, err := marshalBreakdown(r.Breakdown)
	if err != nil {
		return nil, err
	}
	return json.Marshal(resultJSON{
		Modality:        r.Modality,
		RiskScore:       r.RiskScore,
		RiskLevel:       r.RiskLevel,
		Label:           r.RiskLevel.Label(),
		Actionable:      r.RiskLevel.Actionable(),
		RuleScore:       r.RuleScore,
		Breakdown:       breakdown,
		Recommendations: r.Recommendations,
		Anomaly:         r.Anomaly,
		Imputed:         r.Imputed(),
	})
}

func marshalBreakdown(items []NormalizedScore) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, n := range items {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(n.Feature)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(n)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
