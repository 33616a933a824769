package anomaly

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/dyscreen/internal/domain/scoring"
)

const (
	defaultHTTPTimeout = 5 * time.Second
	maxResponseBytes   = 1 << 16
)

// HTTP posts features to a remote model service.
type HTTP struct {
	url    string
	client *http.Client
}

// HTTPOption configures an HTTP scorer.
type HTTPOption func(*HTTP)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTP) {
		if c != nil {
			h.client = c
		}
	}
}

// NewHTTP returns a scorer that POSTs to url.
func NewHTTP(url string, opts ...HTTPOption) *HTTP {
	h := &HTTP{
		url:    url,
		client: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Score implements scoring.AnomalyScorer.
func (h *HTTP) Score(ctx context.Context, f scoring.AnomalyFeatures) (scoring.AnomalyScore, error) {
	body, err := json.Marshal(f)
	if err != nil {
		return scoring.AnomalyScore{}, fmt.Errorf("%w: encode features: %v", scoring.ErrAnomalyUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return scoring.AnomalyScore{}, fmt.Errorf("%w: create request: %v", scoring.ErrAnomalyUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return scoring.AnomalyScore{}, fmt.Errorf("%w: %v", scoring.ErrAnomalyUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return scoring.AnomalyScore{}, fmt.Errorf("%w: read response: %v", scoring.ErrAnomalyUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return scoring.AnomalyScore{}, fmt.Errorf("%w: status %d", scoring.ErrAnomalyUnavailable, resp.StatusCode)
	}
	return decode(data)
}
