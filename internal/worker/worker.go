package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/topic-modeler/internal/logger"
	"github.com/topic-modeler/internal/queue"
)

// HandlerFunc processes a job. It should return an error if processing fails.
type HandlerFunc func(ctx context.Context, job queue.Job) error

// Mux dispatches jobs to the handler registered for their type.
type Mux struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// NewMux creates an empty Mux.
func NewMux() *Mux {
	return &Mux{handlers: make(map[string]HandlerFunc)}
}

// Handle registers h for jobType, replacing any previous handler.
func (m *Mux) Handle(jobType string, h HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[jobType] = h
}

// Process implements HandlerFunc.
func (m *Mux) Process(ctx context.Context, job queue.Job) error {
	m.mu.RLock()
	h, ok := m.handlers[job.Type]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no handler for job type %q", job.Type)
	}
	return h(ctx, job)
}

// StartWorkers starts a pool of workers that process jobs from the queue and
// blocks until all of them stop.
// ctx: context for cancellation (workers will stop when context is cancelled)
// q: the queue to dequeue jobs from
// handler: function to process each job
// workerCount: number of worker goroutines to start
func StartWorkers(ctx context.Context, q queue.Queue, handler HandlerFunc, workerCount int) error {
	if workerCount < 1 {
		return fmt.Errorf("workerCount must be at least 1, got %d", workerCount)
	}
	logger.Printf("StartWorkers: workerCount=%d", workerCount)

	var wg sync.WaitGroup
	wg.Add(workerCount)

	for i := 0; i < workerCount; i++ {
		workerID := i + 1
		go func() {
			defer wg.Done()
			workerLoop(ctx, q, handler, workerID)
		}()
	}

	wg.Wait()
	logger.Printf("StartWorkers: all workers stopped")
	return nil
}

// workerLoop is the main loop for a single worker.
func workerLoop(ctx context.Context, q queue.Queue, handler HandlerFunc, workerID int) {
	logger.Debugf("workerLoop: workerID=%d started", workerID)

	for {
		select {
		case <-ctx.Done():
			logger.Debugf("workerLoop: workerID=%d context cancelled, stopping", workerID)
			return
		default:
		}

		// Blocks until a job is available or the context is cancelled
		job, err := q.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				logger.Debugf("workerLoop: workerID=%d context cancelled during dequeue", workerID)
				return
			}
			if errors.Is(err, queue.ErrClosed) {
				logger.Debugf("workerLoop: workerID=%d queue closed, stopping", workerID)
				return
			}
			logger.Warnf("workerLoop: workerID=%d dequeue error: %v, continuing", workerID, err)
			continue
		}

		logger.Printf("workerLoop: workerID=%d processing job id=%s type=%s", workerID, job.ID, job.Type)

		if err := runHandler(ctx, handler, job); err != nil {
			logger.Errorf("workerLoop: workerID=%d handler error for job id=%s type=%s: %v", workerID, job.ID, job.Type, err)
			continue
		}

		logger.Printf("workerLoop: workerID=%d successfully processed job id=%s", workerID, job.ID)
	}
}

// runHandler turns a handler panic into an error so one bad job does not stop the worker.
func runHandler(ctx context.Context, handler HandlerFunc, job queue.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(ctx, job)
}
