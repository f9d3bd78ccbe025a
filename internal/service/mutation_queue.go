package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"quizbook/internal/domain"
	"quizbook/internal/logger"

	"go.uber.org/zap"
)

// ErrQueueClosed is returned for mutations submitted after Close.
var ErrQueueClosed = errors.New("mutation queue closed")

type mutationJob struct {
	ctx  context.Context
	fn   func(ctx context.Context) error
	done chan error
}

// mutationQueue runs submitted jobs one at a time, in submission order, on a
// single worker goroutine.
type mutationQueue struct {
	jobs     chan mutationJob
	closed   chan struct{}
	mu       sync.RWMutex
	isClosed bool
	wg       sync.WaitGroup
}

func newMutationQueue(bufferSize int) *mutationQueue {
	q := &mutationQueue{
		jobs:   make(chan mutationJob, bufferSize),
		closed: make(chan struct{}),
	}
	q.wg.Add(1)
	go q.worker()
	return q
}

func (q *mutationQueue) worker() {
	defer q.wg.Done()
	for {
		select {
		case job := <-q.jobs:
			job.done <- q.run(job)
		case <-q.closed:
			// drain what was accepted before Close
			for {
				select {
				case job := <-q.jobs:
					job.done <- q.run(job)
				default:
					return
				}
			}
		}
	}
}

func (q *mutationQueue) run(job mutationJob) (err error) {
	if err := job.ctx.Err(); err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			logger.Get().Error("mutation panicked", zap.Any("panic", p), zap.Stack("stack"))
			err = domain.NewInternalError("mutation failed", fmt.Errorf("panic: %v", p))
		}
	}()
	return job.fn(job.ctx)
}

// Submit enqueues fn and waits for its result. A job whose context ends
// before it starts is skipped and returns the context error.
func (q *mutationQueue) Submit(ctx context.Context, fn func(ctx context.Context) error) error {
	job := mutationJob{ctx: ctx, fn: fn, done: make(chan error, 1)}

	q.mu.RLock()
	if q.isClosed {
		q.mu.RUnlock()
		return ErrQueueClosed
	}
	select {
	case q.jobs <- job:
		q.mu.RUnlock()
	case <-ctx.Done():
		q.mu.RUnlock()
		return ctx.Err()
	}
	return <-job.done
}

// Close stops accepting jobs and waits for accepted ones to finish.
func (q *mutationQueue) Close() {
	q.mu.Lock()
	if !q.isClosed {
		q.isClosed = true
		close(q.closed)
	}
	q.mu.Unlock()
	q.wg.Wait()
}
