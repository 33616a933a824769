// Package queue buffers submissions between the HTTP layer and the workers.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/dyscreen/internal/domain/model"
	"github.com/okian/dyscreen/pkg/metrics"
)

const defaultCapacity = 10_000

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a submission without blocking. It fails with ErrFull or
	// ErrClosed.
	Enqueue(ctx context.Context, s model.Submission) error

	// Dequeue returns a channel of submissions that is closed once the queue
	// is closed and drained, or ctx ends.
	Dequeue(ctx context.Context) <-chan model.Submission

	// Len returns the number of pending submissions.
	Len(ctx context.Context) int

	// Capacity returns the maximum number of pending submissions.
	Capacity() int

	// Close stops accepting submissions. Pending ones can still be dequeued.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	items    chan model.Submission
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan model.Submission, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	q.report()
	return q
}

// Enqueue adds a submission to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, s model.Submission) error { //nolint:gocritic // hugeParam: passed by value into the channel
	start := time.Now()
	defer func() {
		metrics.RecordQueueProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return fmt.Errorf("enqueue %s: %w", s.ID, err)
	}

	select {
	case q.items <- s:
		metrics.RecordQueueEnqueue()
		q.report()
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrFull
	}
}

// Dequeue returns a channel that receives submissions as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan model.Submission {
	out := make(chan model.Submission)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case s, ok := <-q.items:
				if !ok {
					return
				}
				select {
				case out <- s:
					metrics.RecordQueueDequeue()
					q.report()
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Len returns the current number of pending submissions.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return len(q.items)
}

// Capacity returns the queue capacity.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Close stops accepting submissions. It is safe to call more than once.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *InMemoryQueue) report() {
	size := len(q.items)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}
