// Package worker delivers queued completions to a notifier.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/terimu/internal/domain/model"
	"github.com/okian/terimu/pkg/logger"
	"github.com/okian/terimu/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount  = 2
	defaultBackoff      = 100 * time.Millisecond
	poolShutdownTimeout = 30 * time.Second
)

// Completion is what workers read off the queue.
type Completion = model.Completion

// Notifier delivers one completion.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, c Completion) error
}

// Queue defines how workers receive completions.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Completion
}

// Worker processes completions using the provided notifier.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker without draining.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	notifier Notifier
	name     string
	retries  int
	backoff  time.Duration
	active   *atomic.Int64

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker.
func NewInMemoryWorker(queue Queue, notifier Notifier, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		notifier: notifier,
		name:     "worker",
		backoff:  defaultBackoff,
		active:   new(atomic.Int64),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.With(logger.String("worker", w.name))
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	items := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case c, ok := <-items:
			if !ok {
				return
			}
			metrics.RecordQueueDequeue()
			if err := w.deliver(ctx, c); err != nil {
				w.logger.Error(ctx, "completion notification failed",
					logger.String("session_id", c.SessionID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// deliver calls the notifier, retrying with linear backoff.
func (w *InMemoryWorker) deliver(ctx context.Context, c Completion) error {
	w.active.Add(1)
	metrics.UpdateWorkerActiveCount(int(w.active.Load()))
	start := time.Now()
	defer func() {
		metrics.UpdateWorkerActiveCount(int(w.active.Add(-1)))
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	var err error
	for attempt := 0; attempt <= w.retries; attempt++ {
		if attempt > 0 {
			metrics.RecordNotifyRetry()
			select {
			case <-ctx.Done():
				return errors.Join(err, ctx.Err())
			case <-w.shutdown:
				return err
			case <-time.After(time.Duration(attempt) * w.backoff):
			}
		}

		attemptStart := time.Now()
		err = w.notifier.Notify(ctx, c)
		latency := float64(time.Since(attemptStart).Microseconds()) / 1000
		if err == nil {
			metrics.RecordNotification(w.notifier.Name(), "delivered", latency)
			return nil
		}
		metrics.RecordNotification(w.notifier.Name(), "failed", latency)
		w.logger.Debug(ctx, "notification attempt failed",
			logger.String("session_id", c.SessionID),
			logger.Int("attempt", attempt+1),
			logger.Error(err),
		)
	}
	metrics.RecordErrorByComponent("worker", "notify_failed")
	return fmt.Errorf("after %d attempts: %w", w.retries+1, err)
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	active  atomic.Int64

	logger logger.Logger
}

// NewPool creates a worker pool. Options are applied to every worker.
func NewPool(workerCount int, queue Queue, notifier Notifier, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := range workerCount {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		w := NewInMemoryWorker(queue, notifier, workerOpts...)
		w.active = &pool.active
		pool.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and lets workers drain what is left. Workers
// still busy when ctx expires are stopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	if timedOut {
		for _, w := range p.workers {
			w.shutdownOnce.Do(func() { close(w.shutdown) })
		}
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
