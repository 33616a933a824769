package service

import (
	"time"

	"github.com/okian/dyscreen/internal/domain/features"
	"github.com/okian/dyscreen/internal/domain/scoring"
	"github.com/okian/dyscreen/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithModels replaces the built-in keystroke and reading models.
func WithModels(keystroke, reading *scoring.Model) Option {
	return func(s *Service) {
		if keystroke != nil {
			s.keystrokeModel = keystroke
		}
		if reading != nil {
			s.readingModel = reading
		}
	}
}

// WithAnomalyScorer sets the anomaly collaborator and the per-call timeout.
func WithAnomalyScorer(scorer scoring.AnomalyScorer, timeout time.Duration) Option {
	return func(s *Service) {
		s.anomaly = scorer
		if timeout > 0 {
			s.anomalyTimeout = timeout
		}
	}
}

// WithKeystrokeOptions sets the options used when extracting raw keystroke sessions.
func WithKeystrokeOptions(opts ...features.KeystrokeOption) Option {
	return func(s *Service) {
		s.keystrokeOpts = opts
	}
}

// WithReadingOptions sets the options used when extracting raw reading sessions.
func WithReadingOptions(opts ...features.ReadingOption) Option {
	return func(s *Service) {
		s.readingOpts = opts
	}
}

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the submission queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithResultStoreSize caps how many finished assessments are kept.
func WithResultStoreSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.resultStoreSize = size
		}
	}
}

// WithBatchLimits sets the maximum batch length and its assessment concurrency.
func WithBatchLimits(limit, concurrency int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.batchLimit = limit
		}
		if concurrency > 0 {
			s.batchConcurrency = concurrency
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
