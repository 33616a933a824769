// Package anomaly provides AnomalyScorer implementations backed by an
// external model: a local process speaking JSON over stdio, or a remote
// HTTP service.
package anomaly

import (
	"encoding/json"
	"fmt"

	"github.com/okian/dyscreen/internal/domain/scoring"
)

// response is the wire shape both transports return.
type response struct {
	AnomalyScore *float64 `json:"anomalyScore"`
	IsAnomalous  *bool    `json:"isAnomalous"`
	Error        string   `json:"error,omitempty"`
}

func decode(body []byte) (scoring.AnomalyScore, error) {
	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return scoring.AnomalyScore{}, fmt.Errorf("%w: decode response: %v", scoring.ErrAnomalyUnavailable, err)
	}
	if r.Error != "" {
		return scoring.AnomalyScore{}, fmt.Errorf("%w: model error: %s", scoring.ErrAnomalyUnavailable, r.Error)
	}
	if r.AnomalyScore == nil {
		return scoring.AnomalyScore{}, fmt.Errorf("%w: response has no anomalyScore", scoring.ErrAnomalyUnavailable)
	}
	return scoring.AnomalyScore{
		Score:       *r.AnomalyScore,
		IsAnomalous: r.IsAnomalous,
		Available:   true,
	}, nil
}
