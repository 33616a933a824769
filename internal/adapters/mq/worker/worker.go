// Package worker drains queued submissions, assesses them, and stores the results.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/dyscreen/internal/domain/model"
	"github.com/okian/dyscreen/pkg/logger"
	"github.com/okian/dyscreen/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	poolShutdownTimeout     = 30 * time.Second
)

// ErrShutdownTimeout is returned when workers do not finish in time.
var ErrShutdownTimeout = errors.New("worker shutdown timed out")

// Assessor scores a submission.
type Assessor interface {
	Assess(ctx context.Context, s model.Submission) (model.Assessment, error)
}

// Store keeps finished assessments.
type Store interface {
	Put(ctx context.Context, a model.Assessment) error
}

// Queue defines how workers receive submissions.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Submission
}

// Worker processes submissions until its queue is drained.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue is drained.
	Run(ctx context.Context)

	// Shutdown stops the worker after the submission in flight.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	assessor Assessor
	store    Store
	name     string
	active   *atomic.Int64

	stopOnce sync.Once
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, assessor Assessor, store Store, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		assessor: assessor,
		store:    store,
		name:     "worker",
		active:   new(atomic.Int64),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	submissions := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case s, ok := <-submissions:
			if !ok {
				return
			}
			if err := w.process(ctx, s); err != nil {
				w.logger.Error(ctx, "error processing submission", logger.Error(err))
			}
		}
	}
}

// Done is closed once Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// Shutdown signals the worker to stop and waits for Run to return.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stopOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("%w: %w", ErrShutdownTimeout, ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, s model.Submission) error { //nolint:gocritic // hugeParam: received by value from the channel
	start := time.Now()
	metrics.UpdateWorkerActiveCount(int(w.active.Add(1)))
	defer func() {
		metrics.UpdateWorkerActiveCount(int(w.active.Add(-1)))
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	a, err := w.assessor.Assess(ctx, s)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "assess_error")
		return fmt.Errorf("assess submission %s: %w", s.ID, err)
	}

	if err := w.store.Put(ctx, a); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		return fmt.Errorf("store assessment %s: %w", s.ID, err)
	}

	w.logger.Debug(ctx, "submission assessed",
		logger.String("submission_id", s.ID),
		logger.String("modality", string(a.Result.Modality)),
		logger.Int("risk_score", a.Result.RiskScore),
	)
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	active  *atomic.Int64
	logger  logger.Logger
}

// NewPool creates a new worker pool. A non-positive count defaults to twice
// the number of CPUs. opts apply to every worker after its name is set.
func NewPool(workerCount int, q Queue, assessor Assessor, store Store, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		active:  new(atomic.Int64),
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range workerCount {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		w := NewInMemoryWorker(q, assessor, store, wopts...)
		w.active = p.active
		p.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut int
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut++
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	if timedOut > 0 {
		return fmt.Errorf("%w: %d workers still running", ErrShutdownTimeout, timedOut)
	}
	p.logger.Info(ctx, "worker pool drained")
	return nil
}
