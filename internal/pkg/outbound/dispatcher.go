package outbound

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Task is one outbound delivery attempt (audit event, disbursement webhook).
type Task struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Dispatcher runs outbound side effects off the request path. Tasks are
// retried with a fixed backoff; exhausted tasks are dead-lettered to the log
// so failures stay observable without ever failing the primary operation.
type Dispatcher struct {
	queue      chan Task
	maxRetries int
	backoff    time.Duration
	timeout    time.Duration
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	mu         sync.Mutex
	stopped    bool
}

// NewDispatcher creates a dispatcher with a bounded queue. timeout bounds a
// single delivery attempt.
func NewDispatcher(queueSize, maxRetries int, backoff, timeout time.Duration) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		queue:      make(chan Task, queueSize),
		maxRetries: maxRetries,
		backoff:    backoff,
		timeout:    timeout,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start begins draining the queue.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go d.run()
	slog.Info("Outbound dispatcher started", "queue_size", cap(d.queue), "max_retries", d.maxRetries)
}

// Stop drains queued tasks, then waits for the worker to exit. In-flight
// attempts are cancelled after their own timeout.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	d.cancel()
	slog.Info("Outbound dispatcher stopped")
}

// Enqueue submits a task for delivery. Returns false when the queue is full
// or the dispatcher is stopped; the task is dead-lettered immediately.
func (d *Dispatcher) Enqueue(t Task) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		slog.Error("Outbound task dead-lettered: dispatcher stopped", "task", t.Name)
		return false
	}
	select {
	case d.queue <- t:
		return true
	default:
		slog.Error("Outbound task dead-lettered: queue full", "task", t.Name)
		return false
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for task := range d.queue {
		d.deliver(task)
	}
}

func (d *Dispatcher) deliver(task Task) {
	var lastErr error
	for attempt := 0; attempt <= d.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-d.ctx.Done():
				slog.Error("Outbound task dead-lettered: dispatcher cancelled", "task", task.Name, "error", lastErr)
				return
			case <-time.After(d.backoff):
			}
		}

		ctx, cancel := context.WithTimeout(d.ctx, d.timeout)
		err := task.Fn(ctx)
		cancel()
		if err == nil {
			if attempt > 0 {
				slog.Info("Outbound task delivered after retry", "task", task.Name, "attempts", attempt+1)
			}
			return
		}
		lastErr = err
		slog.Warn("Outbound task attempt failed", "task", task.Name, "attempt", attempt+1, "error", err)
	}

	slog.Error("Outbound task dead-lettered: retries exhausted", "task", task.Name, "error", lastErr)
}
