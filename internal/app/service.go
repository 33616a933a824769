// Package service wires the scoring engines to the submission pipeline and
// implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/dyscreen/internal/adapters/mq/queue"
	workerpool "github.com/okian/dyscreen/internal/adapters/mq/worker"
	"github.com/okian/dyscreen/internal/adapters/repository"
	"github.com/okian/dyscreen/internal/domain/dedupe"
	"github.com/okian/dyscreen/internal/domain/features"
	"github.com/okian/dyscreen/internal/domain/model"
	"github.com/okian/dyscreen/internal/domain/scoring"
	"github.com/okian/dyscreen/pkg/logger"
	"github.com/okian/dyscreen/pkg/metrics"
)

const (
	defaultQueueSize       = 10_000
	defaultDedupeSize      = 100_000
	defaultResultStoreSize = 50_000
	defaultBatchLimit      = 100
)

// Service assesses sessions synchronously and through the submission queue.
type Service struct {
	mu sync.RWMutex

	keystrokeModel *scoring.Model
	readingModel   *scoring.Model
	anomaly        scoring.AnomalyScorer
	anomalyTimeout time.Duration
	keystroke      *scoring.Engine
	reading        *scoring.Engine
	keystrokeOpts  []features.KeystrokeOption
	readingOpts    []features.ReadingOption

	results repository.Store
	deduper dedupe.Deduper
	queue   queue.Queue
	pool    *workerpool.Pool

	workerCount      int
	queueSize        int
	dedupeSize       int
	resultStoreSize  int
	batchLimit       int
	batchConcurrency int

	started bool
	logger  logger.Logger
}

// New constructs a Service. Without WithModels the built-in models are used.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		workerCount:      runtime.NumCPU() * 2,
		queueSize:        defaultQueueSize,
		dedupeSize:       defaultDedupeSize,
		resultStoreSize:  defaultResultStoreSize,
		batchLimit:       defaultBatchLimit,
		batchConcurrency: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	var err error
	if s.keystrokeModel == nil {
		if s.keystrokeModel, err = scoring.NewKeystrokeModel(); err != nil {
			return nil, fmt.Errorf("keystroke model: %w", err)
		}
	}
	if s.readingModel == nil {
		if s.readingModel, err = scoring.NewReadingModel(); err != nil {
			return nil, fmt.Errorf("reading model: %w", err)
		}
	}

	var engineOpts []scoring.EngineOption
	if s.anomaly != nil {
		engineOpts = append(engineOpts, scoring.WithAnomalyScorer(instrumented{s.anomaly}))
	}
	if s.anomalyTimeout > 0 {
		engineOpts = append(engineOpts, scoring.WithAnomalyTimeout(s.anomalyTimeout))
	}
	s.keystroke = scoring.NewEngine(s.keystrokeModel, engineOpts...)
	s.reading = scoring.NewEngine(s.readingModel, engineOpts...)
	return s, nil
}

// Start creates the submission pipeline and starts the workers. The workers
// outlive ctx; they stop on Stop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.results = repository.NewMemoryStore(repository.WithMaxSize(s.resultStoreSize))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s, s.results, workerpool.WithLogger(s.logger))
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "screening service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.Bool("anomaly_enabled", s.anomaly != nil),
	)
	return nil
}

// Stop closes the queue and waits for queued submissions to be assessed.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.started = false

	s.logger.Info(ctx, "stopping screening service")
	if err := s.pool.Shutdown(ctx); err != nil {
		return fmt.Errorf("stop workers: %w", err)
	}
	s.logger.Info(ctx, "screening service stopped")
	return nil
}

// AssessKeystroke scores a keystroke feature vector.
func (s *Service) AssessKeystroke(ctx context.Context, v features.Vector) scoring.RiskResult {
	return s.assess(ctx, s.keystroke, v)
}

// AssessReading scores a reading feature vector.
func (s *Service) AssessReading(ctx context.Context, v features.Vector) scoring.RiskResult {
	return s.assess(ctx, s.reading, v)
}

// Assess validates a submission, extracts features from a raw session if one
// is given, and scores it. It implements the worker's Assessor.
func (s *Service) Assess(ctx context.Context, sub model.Submission) (model.Assessment, error) { //nolint:gocritic // hugeParam: matches the worker contract
	if err := sub.Validate(); err != nil {
		return model.Assessment{}, err
	}

	var res scoring.RiskResult
	switch sub.Modality {
	case scoring.Keystroke:
		v := features.FromNullable(sub.Features)
		if sub.Keystroke != nil {
			v = features.ExtractKeystroke(*sub.Keystroke, s.keystrokeOpts...)
		}
		res = s.AssessKeystroke(ctx, v)
	case scoring.Reading:
		v := features.FromNullable(sub.Features)
		if sub.Reading != nil {
			v = features.ExtractReading(*sub.Reading, s.readingOpts...)
		}
		res = s.AssessReading(ctx, v)
	}

	return model.Assessment{
		SubmissionID: sub.ID,
		SubjectID:    sub.SubjectID,
		Result:       res,
		AssessedAt:   time.Now().UTC(),
	}, nil
}

// AssessBatch scores every submission concurrently. A failing entry does not
// fail the batch; its error is reported in place. Results keep input order.
func (s *Service) AssessBatch(ctx context.Context, subs []model.Submission) ([]model.BatchItem, error) {
	if len(subs) > s.batchLimit {
		return nil, fmt.Errorf("%w: %d items, limit %d", model.ErrBatchTooLarge, len(subs), s.batchLimit)
	}

	out := make([]model.BatchItem, len(subs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchConcurrency)
	for i := range subs {
		g.Go(func() error {
			out[i].Index = i
			a, err := s.Assess(gctx, subs[i])
			if err != nil {
				out[i].Error = err.Error()
				return nil
			}
			out[i].Result = &a.Result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Submit queues a submission for asynchronous assessment and returns its id.
// An empty id is replaced by a random one. A repeated id is reported as
// Duplicate without being queued again.
func (s *Service) Submit(ctx context.Context, sub model.Submission) (string, model.SubmitStatus, error) { //nolint:gocritic // hugeParam: copied into the queue
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return "", "", model.ErrNotStarted
	}
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if err := sub.Validate(); err != nil {
		metrics.RecordSubmission(metrics.SubmissionRejected)
		return sub.ID, "", err
	}
	if sub.ReceivedAt.IsZero() {
		sub.ReceivedAt = time.Now().UTC()
	}

	if s.deduper.SeenAndRecord(ctx, sub.ID) {
		metrics.RecordSubmission(metrics.SubmissionDuplicate)
		s.logger.Debug(ctx, "duplicate submission", logger.String("submission_id", sub.ID))
		return sub.ID, model.Duplicate, nil
	}

	if err := s.queue.Enqueue(ctx, sub); err != nil {
		s.deduper.Unrecord(ctx, sub.ID)
		metrics.RecordSubmission(metrics.SubmissionRejected)
		switch {
		case errors.Is(err, queue.ErrFull):
			return sub.ID, "", model.ErrBackpressure
		case errors.Is(err, queue.ErrClosed):
			return sub.ID, "", model.ErrNotStarted
		default:
			return sub.ID, "", err
		}
	}

	metrics.RecordSubmission(metrics.SubmissionAccepted)
	return sub.ID, model.Accepted, nil
}

// Result returns the finished assessment for a submission id, or
// repository.ErrNotFound while it is pending, unknown, or evicted.
func (s *Service) Result(ctx context.Context, id string) (model.Assessment, error) {
	s.mu.RLock()
	results := s.results
	s.mu.RUnlock()

	if results == nil {
		return model.Assessment{}, repository.ErrNotFound
	}
	return results.Get(ctx, id)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":             s.started,
		"workerCount":         s.workerCount,
		"queueSize":           s.queueSize,
		"dedupeSize":          s.dedupeSize,
		"anomalyEnabled":      s.anomaly != nil,
		"keystrokeRuleWeight": s.keystrokeModel.RuleWeight(),
	}
	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
		stats["resultsStored"] = s.results.Len(ctx)
		stats["dedupeEntries"] = s.deduper.Size()
	}
	return stats
}

func (s *Service) assess(ctx context.Context, e *scoring.Engine, v features.Vector) scoring.RiskResult {
	start := time.Now()
	res := e.Assess(ctx, v)
	modality := string(res.Modality)
	metrics.RecordScoringLatency(modality, float64(time.Since(start).Microseconds())/1000)
	metrics.RecordAssessment(modality, string(res.RiskLevel), res.RiskScore)

	if res.Anomaly != nil && s.anomaly == nil {
		metrics.RecordAnomalyCall(metrics.AnomalySkipped, 0)
	}

	for _, item := range res.Breakdown {
		if !item.Imputed() {
			continue
		}
		metrics.RecordImputedFeature(modality, item.Feature)
		s.logger.Warn(ctx, "feature imputed",
			logger.String("modality", modality),
			logger.String("feature", item.Feature),
			logger.String("status", item.Status.String()),
			logger.Float64("default", item.Normalized),
		)
	}
	return res
}

// instrumented records the latency and outcome of each anomaly call.
type instrumented struct {
	scoring.AnomalyScorer
}

func (i instrumented) Score(ctx context.Context, f scoring.AnomalyFeatures) (scoring.AnomalyScore, error) {
	start := time.Now()
	a, err := i.AnomalyScorer.Score(ctx, f)
	outcome := metrics.AnomalyAvailable
	if err != nil || !a.Available {
		outcome = metrics.AnomalyUnavailable
	}
	metrics.RecordAnomalyCall(outcome, float64(time.Since(start).Microseconds())/1000)
	return a, err
}
