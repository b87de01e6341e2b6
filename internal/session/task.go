package session

import "context"

// Task is the handle of one submitted training run. It resolves once the run
// reaches Ready or Failed.
type Task struct {
	ID   string
	done chan struct{}
	err  error
}

func newTask(id string) *Task {
	return &Task{ID: id, done: make(chan struct{})}
}

// Done is closed when the run has finished.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err returns the training error once the run has finished, and nil before.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the run finishes or ctx ends.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Task) resolve(err error) {
	t.err = err
	close(t.done)
}
