package queue

import (
	"context"
	"sync"

	"github.com/topic-modeler/internal/logger"
)

// MemoryQueue implements Queue on a buffered channel. It serves a single
// process; jobs are lost when the process exits.
type MemoryQueue struct {
	jobs      chan Job
	closed    chan struct{}
	closeOnce sync.Once
}

// NewMemoryQueue creates an in-process queue holding up to size pending jobs.
func NewMemoryQueue(size int) *MemoryQueue {
	if size < 1 {
		size = 64
	}
	logger.Debugf("NewMemoryQueue: size=%d", size)
	return &MemoryQueue{
		jobs:   make(chan Job, size),
		closed: make(chan struct{}),
	}
}

// Enqueue adds a job, blocking while the buffer is full.
func (q *MemoryQueue) Enqueue(ctx context.Context, job Job) error {
	select {
	case <-q.closed:
		return ErrClosed
	default:
	}

	select {
	case q.jobs <- job:
		logger.Debugf("MemoryQueue.Enqueue: job id=%s type=%s", job.ID, job.Type)
		return nil
	case <-q.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue blocks until a job is available, the context ends or the queue is closed.
func (q *MemoryQueue) Dequeue(ctx context.Context) (Job, error) {
	select {
	case job := <-q.jobs:
		return job, nil
	case <-q.closed:
		return Job{}, ErrClosed
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
}

// Len returns the number of pending jobs.
func (q *MemoryQueue) Len() int {
	return len(q.jobs)
}

// Close wakes all blocked callers with ErrClosed. Pending jobs are discarded.
func (q *MemoryQueue) Close() {
	q.closeOnce.Do(func() { close(q.closed) })
}
