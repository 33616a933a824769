package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration and builds the scoring models so an
// invalid weight table fails at load time.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	for name, v := range map[string]int{
		"queue_size":        c.QueueSize,
		"worker_count":      c.WorkerCount,
		"dedupe_size":       c.DedupeSize,
		"result_store_size": c.ResultStoreSize,
		"batch_limit":       c.BatchLimit,
		"batch_concurrency": c.BatchConcurrency,
	} {
		if v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidConfig, name, v)
		}
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q must be text or json", ErrInvalidConfig, c.LogFormat)
	}
	if err := c.Anomaly.validate(); err != nil {
		return err
	}
	if c.Keystroke.PauseThresholdMS <= 0 {
		return fmt.Errorf("%w: keystroke.pause_threshold_ms must be positive", ErrInvalidConfig)
	}
	if c.Reading.MinPauseMS < 0 || c.Reading.MaxPauseMS <= c.Reading.MinPauseMS {
		return fmt.Errorf("%w: reading pause window (%v, %v] is empty", ErrInvalidConfig, c.Reading.MinPauseMS, c.Reading.MaxPauseMS)
	}
	_, err := c.BuildModels()
	return err
}

func (a AnomalyConfig) validate() error {
	switch a.Mode {
	case "", AnomalyNone:
		return nil
	case AnomalySubprocess:
		if a.Command == "" {
			return fmt.Errorf("%w: anomaly.command is required for subprocess mode", ErrInvalidConfig)
		}
	case AnomalyHTTP:
		if a.URL == "" {
			return fmt.Errorf("%w: anomaly.url is required for http mode", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown anomaly.mode %q", ErrInvalidConfig, a.Mode)
	}
	if a.TimeoutMS <= 0 {
		return fmt.Errorf("%w: anomaly.timeout_ms must be positive", ErrInvalidConfig)
	}
	return nil
}
