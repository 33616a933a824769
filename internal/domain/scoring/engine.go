// Package scoring turns feature vectors into bounded, explained risk scores.
// Models are validated once and are safe for concurrent use.
package scoring

import (
	"context"
	"time"

	"github.com/okian/dyscreen/internal/domain/features"
)

const defaultAnomalyTimeout = 2 * time.Second

// Engine assesses feature vectors against one model.
type Engine struct {
	model   *Model
	scorer  AnomalyScorer
	timeout time.Duration
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithAnomalyScorer sets the anomaly collaborator used by blended models.
func WithAnomalyScorer(s AnomalyScorer) EngineOption {
	return func(e *Engine) {
		e.scorer = s
	}
}

// WithAnomalyTimeout bounds each anomaly call.
func WithAnomalyTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewEngine creates an engine for m.
func NewEngine(m *Model, opts ...EngineOption) *Engine {
	e := &Engine{
		model:   m,
		timeout: defaultAnomalyTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Model returns the engine's model.
func (e *Engine) Model() *Model { return e.model }

// Assess scores v. It always returns a complete result: missing values fall
// back to policy defaults and a failed anomaly call degrades to the rule term.
func (e *Engine) Assess(ctx context.Context, v features.Vector) RiskResult {
	rule, breakdown := Fuse(e.model, v)

	final := rule
	var anomaly *AnomalyScore
	if e.model.Blended() {
		a := e.anomaly(ctx, v)
		anomaly = &a
		final = Blend(rule, a, e.model.ruleWeight)
	}

	score := FinalScore(final)
	tier := TierFromScore(score)
	return RiskResult{
		Modality:        e.model.modality,
		RiskScore:       score,
		RiskLevel:       tier,
		RuleScore:       rule,
		Breakdown:       breakdown,
		Recommendations: Recommend(e.model, v, tier),
		Anomaly:         anomaly,
	}
}

func (e *Engine) anomaly(ctx context.Context, v features.Vector) AnomalyScore {
	if e.scorer == nil {
		return Unavailable("no anomaly scorer configured")
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	a, err := e.scorer.Score(ctx, AnomalyFeaturesFrom(v))
	if err != nil {
		return Unavailable(err.Error())
	}
	return sanitize(a)
}
