package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event is a unit of deferred work, e.g. a notification to dispatch after a
// successful enrollment or finalization.
type Event struct {
	ID       string
	Kind     string
	Payload  interface{}
	Enqueued time.Time
}

// Handler consumes a single event.
type Handler func(context.Context, Event) error

// QueueConfig tunes the worker pool.
type QueueConfig struct {
	Workers    int
	BufferSize int
	Logger     *zap.Logger
}

// Queue is an in-memory event dispatcher backed by a fixed worker pool.
// Events are best-effort: a failed handler is logged, not retried, because
// every event here is advisory (delivery itself is an external concern).
type Queue struct {
	name    string
	handler Handler
	logger  *zap.Logger

	events  chan Event
	workers int

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewQueue builds a queue with the provided handler.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 8
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue{
		name:    name,
		handler: handler,
		logger:  cfg.Logger,
		events:  make(chan Event, cfg.BufferSize),
		workers: cfg.Workers,
	}
}

// Start begins worker consumption. Safe to call once.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.started = true
	q.logger.Sugar().Infow("queue started", "queue", q.name, "workers", q.workers)
}

// Stop cancels workers and waits for them to exit.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Sugar().Infow("queue stopped", "queue", q.name)
}

// Enqueue pushes an event without blocking; a full buffer drops the event
// with a warning rather than stalling the request path.
func (q *Queue) Enqueue(event Event) error {
	q.mu.Lock()
	started := q.started
	q.mu.Unlock()

	if !started {
		return fmt.Errorf("queue %s not started", q.name)
	}
	if event.Enqueued.IsZero() {
		event.Enqueued = time.Now().UTC()
	}

	select {
	case q.events <- event:
		return nil
	default:
		q.logger.Sugar().Warnw("queue full, dropping event", "queue", q.name, "kind", event.Kind, "event_id", event.ID)
		return fmt.Errorf("queue %s full", q.name)
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case event := <-q.events:
			if err := q.handler(q.ctx, event); err != nil {
				q.logger.Sugar().Errorw("event handler failed", "queue", q.name, "kind", event.Kind, "event_id", event.ID, "error", err)
			}
		}
	}
}
