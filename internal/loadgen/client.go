package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/dyscreen/internal/domain/scoring"
)

const maxResponseBytes = 1 << 20

// errPending means the result is not ready yet.
var errPending = errors.New("result pending")

// client wraps http.Client with the service's routes.
type client struct {
	base string
	http *http.Client
}

func newClient(base string, timeout time.Duration) *client {
	return &client{base: base, http: &http.Client{Timeout: timeout}}
}

type submitResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type assessment struct {
	SubmissionID string `json:"submissionId"`
	Result       struct {
		RiskScore int          `json:"riskScore"`
		RiskLevel scoring.Tier `json:"riskLevel"`
	} `json:"result"`
}

func (c *client) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, b, nil
}

func (c *client) health(ctx context.Context) error {
	code, _, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return err
	}
	if code != http.StatusOK {
		return fmt.Errorf("health check returned %d", code)
	}
	return nil
}

func (c *client) submit(ctx context.Context, s Submission) (submitResponse, int, error) { //nolint:gocritic // hugeParam: marshalled once
	code, body, err := c.do(ctx, http.MethodPost, "/v1/submissions", s)
	if err != nil {
		return submitResponse{}, code, err
	}
	var resp submitResponse
	if code == http.StatusAccepted || code == http.StatusOK {
		if err := json.Unmarshal(body, &resp); err != nil {
			return resp, code, fmt.Errorf("decode submit response: %w", err)
		}
	}
	return resp, code, nil
}

func (c *client) result(ctx context.Context, id string) (assessment, error) {
	code, body, err := c.do(ctx, http.MethodGet, "/v1/submissions/"+id, nil)
	if err != nil {
		return assessment{}, err
	}
	switch code {
	case http.StatusOK:
		var a assessment
		if err := json.Unmarshal(body, &a); err != nil {
			return a, fmt.Errorf("decode result: %w", err)
		}
		return a, nil
	case http.StatusNotFound:
		return assessment{}, errPending
	default:
		return assessment{}, fmt.Errorf("get result %s returned %d", id, code)
	}
}
