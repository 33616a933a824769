// Package loadgen submits synthetic screening sessions to a running service
// and checks that each one lands in the tier its profile implies.
package loadgen

import (
	"errors"
	"time"
)

// ErrVerification is returned when results do not match their profiles.
var ErrVerification = errors.New("verification failed")

// Config holds configuration for a load run.
type Config struct {
	BaseURL      string        // Base URL of the service
	Submissions  int           // Number of submissions to generate
	Workers      int           // Concurrent HTTP workers
	Timeout      time.Duration // Per-request timeout
	PollInterval time.Duration // Delay between result polls
	PollTimeout  time.Duration // How long to wait for one result
	Seed         uint64        // Generator seed; 0 picks one from the clock
}

// Stats summarizes a run.
type Stats struct {
	Generated  int
	Accepted   int
	Duplicate  int
	Rejected   int
	Collected  int
	Mismatched int
	Duration   time.Duration
}
