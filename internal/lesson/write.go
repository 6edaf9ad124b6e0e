package lesson

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Write is persistence or notification work produced by a transition.
// Transitions update in-memory state synchronously and hand their writes
// back to the caller, which runs them off the UI loop.
type Write struct {
	Op  string
	Run func(ctx context.Context) error

	// BestEffort writes (notifications) are logged on failure and the
	// batch carries on.
	BestEffort bool
}

// RunWrites executes writes in order and returns how many succeeded.
// The first failed persistence write is logged and stops the batch, so a
// completion is never recorded without the answer that completed it.
// Failures never reach the student.
func RunWrites(ctx context.Context, log *zap.Logger, writes []Write) int {
	ok := 0
	for i, w := range writes {
		err := w.Run(ctx)
		switch {
		case err == nil:
			ok++
		case w.BestEffort:
			log.Warn("best-effort write failed", zap.String("op", w.Op), zap.Error(err))
		default:
			log.Warn("write failed",
				zap.String("op", w.Op),
				zap.Int("skipped", len(writes)-i-1),
				zap.Error(err),
			)
			return ok
		}
	}
	return ok
}

// Queue runs write batches one at a time, in submission order, on its own
// goroutine. A checkpoint queued before a completion can therefore never
// land after it.
type Queue struct {
	log     *zap.Logger
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	ch     chan []Write
	done   chan struct{}
}

// NewQueue starts a queue. Each batch runs under its own timeout.
func NewQueue(log *zap.Logger, timeout time.Duration) *Queue {
	if log == nil {
		log = zap.NewNop()
	}
	q := &Queue{
		log:     log,
		timeout: timeout,
		ch:      make(chan []Write, 64),
		done:    make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.done)
	for batch := range q.ch {
		ctx, cancel := context.Background(), context.CancelFunc(func() {})
		if q.timeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, q.timeout)
		}
		RunWrites(ctx, q.log, batch)
		cancel()
	}
}

// Enqueue schedules a batch. Batches enqueued after Close are dropped
// with a warning.
func (q *Queue) Enqueue(batch []Write) {
	if len(batch) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.log.Warn("write queue closed, dropping batch", zap.Int("writes", len(batch)))
		return
	}
	q.ch <- batch
}

// Close stops accepting batches and waits for the queued ones to finish.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	q.mu.Unlock()
	<-q.done
}

// Wait blocks until every batch enqueued before the call has run, so a
// read that follows sees those writes. On a closed queue it waits for the
// drain.
func (q *Queue) Wait(ctx context.Context) error {
	reached := make(chan struct{})
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		reached = q.done
	} else {
		q.ch <- []Write{{Op: "barrier", Run: func(context.Context) error {
			close(reached)
			return nil
		}}}
		q.mu.Unlock()
	}
	select {
	case <-reached:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
