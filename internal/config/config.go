// Package config defines service configuration and turns the modality
// tables into validated scoring models.
//
// Conventions:
// - New(ctx) returns a Config populated with defaults.
// - Load(ctx) layers a YAML file and environment variables on top.
// - Errors are wrapped with this package's sentinels.
package config

import (
	"context"
	"runtime"
	"time"

	"github.com/okian/dyscreen/internal/domain/scoring"
)

// Anomaly modes.
const (
	AnomalyNone       = "none"
	AnomalySubprocess = "subprocess"
	AnomalyHTTP       = "http"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory submission queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of assessment workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the submission deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// ResultStoreSize caps how many finished results are kept for retrieval.
	ResultStoreSize int `koanf:"result_store_size"`

	// BatchLimit caps the number of items in one batch request.
	BatchLimit int `koanf:"batch_limit"`

	// BatchConcurrency bounds parallel assessments inside one batch.
	BatchConcurrency int `koanf:"batch_concurrency"`

	Anomaly   AnomalyConfig  `koanf:"anomaly"`
	Keystroke ModalityConfig `koanf:"keystroke"`
	Reading   ModalityConfig `koanf:"reading"`
}

// AnomalyConfig selects and configures the anomaly collaborator.
type AnomalyConfig struct {
	// Mode is one of none, subprocess or http.
	Mode      string   `koanf:"mode"`
	Command   string   `koanf:"command"`
	Args      []string `koanf:"args"`
	URL       string   `koanf:"url"`
	TimeoutMS int      `koanf:"timeout_ms"`
}

// Timeout returns the per-call anomaly timeout.
func (a AnomalyConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutMS) * time.Millisecond
}

// ModalityConfig is the scoring table of one modality plus its extractor knobs.
type ModalityConfig struct {
	// RuleWeight is the rule-based share of the final score; 1 disables blending.
	RuleWeight float64 `koanf:"rule_weight"`

	// PauseThresholdMS is the keystroke flight time that counts as a pause.
	PauseThresholdMS float64 `koanf:"pause_threshold_ms"`

	// MinPauseMS and MaxPauseMS bound a counted reading pause.
	MinPauseMS float64 `koanf:"min_pause_ms"`
	MaxPauseMS float64 `koanf:"max_pause_ms"`

	Features []FeatureConfig `koanf:"features"`
}

// FeatureConfig is the configuration form of scoring.FeatureSpec.
type FeatureConfig struct {
	Name         string         `koanf:"name"`
	Normal       float64        `koanf:"normal"`
	Atypical     float64        `koanf:"atypical"`
	Direction    string         `koanf:"direction"`
	Weight       float64        `koanf:"weight"`
	Policy       string         `koanf:"policy"`
	Confidence   string         `koanf:"confidence"`
	Severity     SeverityConfig `koanf:"severity"`
	Messages     MessagesConfig `koanf:"messages"`
	Citation     string         `koanf:"citation"`
	Experimental bool           `koanf:"experimental"`
}

// SeverityConfig holds recommendation thresholds.
type SeverityConfig struct {
	Moderate float64 `koanf:"moderate"`
	High     float64 `koanf:"high"`
}

// MessagesConfig holds recommendation text.
type MessagesConfig struct {
	Moderate string `koanf:"moderate"`
	High     string `koanf:"high"`
}

// New creates a Config with defaults. The scoring tables default to the
// built-in keystroke and reading models.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		QueueSize:        10_000,
		WorkerCount:      runtime.NumCPU() * 2,
		DedupeSize:       100_000,
		ResultStoreSize:  50_000,
		BatchLimit:       100,
		BatchConcurrency: runtime.NumCPU(),
		Anomaly: AnomalyConfig{
			Mode:      AnomalyNone,
			TimeoutMS: 2000,
		},
		Keystroke: ModalityConfig{
			RuleWeight:       scoring.KeystrokeRuleWeight,
			PauseThresholdMS: 1000,
			Features:         featureConfigs(scoring.DefaultKeystrokeSpecs()),
		},
		Reading: ModalityConfig{
			RuleWeight: 1,
			MinPauseMS: 3000,
			MaxPauseMS: 30000,
			Features:   featureConfigs(scoring.DefaultReadingSpecs()),
		},
	}
}

func featureConfigs(specs []scoring.FeatureSpec) []FeatureConfig {
	out := make([]FeatureConfig, 0, len(specs))
	for _, s := range specs {
		out = append(out, FeatureConfig{
			Name:         s.Name,
			Normal:       s.Range.Normal,
			Atypical:     s.Range.Atypical,
			Direction:    s.Range.Direction.String(),
			Weight:       s.Weight,
			Policy:       s.Policy.String(),
			Confidence:   string(s.Confidence),
			Severity:     SeverityConfig{Moderate: s.Severity.Moderate, High: s.Severity.High},
			Messages:     MessagesConfig{Moderate: s.Messages.Moderate, High: s.Messages.High},
			Citation:     s.Citation,
			Experimental: s.Experimental,
		})
	}
	return out
}
