// Package session holds the state of one analysis session: the training
// phase, the fitted topic model and the topic-labeled table it produced.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/topic-modeler/internal/database"
	"github.com/topic-modeler/internal/logger"
	"github.com/topic-modeler/internal/queue"
	"github.com/topic-modeler/internal/table"
	"github.com/topic-modeler/internal/topicmodel"
	"github.com/topic-modeler/internal/topics"
	"github.com/topic-modeler/internal/worker"
)

// JobTypeTrain is the queue job type of a training run.
const JobTypeTrain = "train_topic_model"

// TrainRequest is the payload of a training job.
type TrainRequest struct {
	RunID    string `json:"run_id"`
	Source   string `json:"source"`
	NrTopics int    `json:"nr_topics"`
}

// Notifier is told about every run that reaches Ready or Failed.
type Notifier interface {
	Notify(status Status) error
}

// RunRecorder persists the history of training runs.
type RunRecorder interface {
	Start(ctx context.Context, id, source string, nrTopics int) error
	Finish(ctx context.Context, id, status, message string, rowCount int) error
}

// Options configures a Session. Factory and Queue are required.
type Options struct {
	Factory  topicmodel.Factory
	Queue    queue.Queue
	Notifier Notifier
	Runs     RunRecorder
	// Load reads the training source; defaults to table.Load.
	Load func(path string) (*table.Table, error)
}

// Session owns the phase, the current model and its labeled table. All three
// change together under mu, so a reader never sees a Ready phase without the
// table that goes with it.
type Session struct {
	factory  topicmodel.Factory
	queue    queue.Queue
	notifier Notifier
	runs     RunRecorder
	load     func(path string) (*table.Table, error)

	mu        sync.Mutex
	phase     Phase
	runID     string
	source    string
	nrTopics  int
	model     topicmodel.Model
	labeled   *table.Table
	lastErr   error
	updatedAt time.Time
	tasks     map[string]*Task

	subMu       sync.Mutex
	subscribers map[chan Status]struct{}
}

// New creates an Idle session.
func New(opts Options) (*Session, error) {
	if opts.Factory == nil {
		return nil, errors.New("session: topic model factory is required")
	}
	if opts.Queue == nil {
		return nil, errors.New("session: queue is required")
	}
	load := opts.Load
	if load == nil {
		load = table.Load
	}
	return &Session{
		factory:     opts.Factory,
		queue:       opts.Queue,
		notifier:    opts.Notifier,
		runs:        opts.Runs,
		load:        load,
		updatedAt:   time.Now(),
		tasks:       make(map[string]*Task),
		subscribers: make(map[chan Status]struct{}),
	}, nil
}

// Register installs the training handler on mux.
func (s *Session) Register(mux *worker.Mux) {
	mux.Handle(JobTypeTrain, s.HandleJob)
}

// Run processes training jobs from the session queue until ctx ends.
func (s *Session) Run(ctx context.Context, workers int) error {
	mux := worker.NewMux()
	s.Register(mux)
	return worker.StartWorkers(ctx, s.queue, mux.Process, workers)
}

// Train submits a training run on the comment table stored at source. Any
// previous model and labeled table are discarded immediately. A second call
// while a run is in flight fails with InvalidStateError.
func (s *Session) Train(ctx context.Context, source string, nrTopics int) (*Task, error) {
	if nrTopics < 1 {
		return nil, fmt.Errorf("number of topics must be at least 1, got %d", nrTopics)
	}

	req := TrainRequest{RunID: uuid.NewString(), Source: source, NrTopics: nrTopics}
	job, err := queue.NewJob(JobTypeTrain, req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.phase == Training {
		phase := s.phase
		s.mu.Unlock()
		return nil, &InvalidStateError{Op: "train", Phase: phase}
	}
	s.phase = Training
	s.runID = req.RunID
	s.source = source
	s.nrTopics = nrTopics
	s.model = nil
	s.labeled = nil
	s.lastErr = nil
	s.updatedAt = time.Now()
	task := newTask(req.RunID)
	s.tasks[req.RunID] = task
	status := s.statusLocked()
	s.mu.Unlock()

	logger.Printf("Session.Train: run=%s source=%s nrTopics=%d", req.RunID, source, nrTopics)
	s.broadcast(status)

	if s.runs != nil {
		if err := s.runs.Start(ctx, req.RunID, source, nrTopics); err != nil {
			logger.Warnf("Session.Train: failed to record run %s: %v", req.RunID, err)
		}
	}

	if err := s.queue.Enqueue(ctx, job); err != nil {
		err = fmt.Errorf("failed to submit training run: %w", err)
		s.finish(req.RunID, nil, nil, err)
		return nil, err
	}
	return task, nil
}

// HandleJob runs a training job. It is the worker handler for JobTypeTrain.
func (s *Session) HandleJob(ctx context.Context, job queue.Job) error {
	var req TrainRequest
	if err := job.Decode(&req); err != nil {
		return err
	}

	s.mu.Lock()
	pending := s.phase == Training && s.runID == req.RunID
	s.mu.Unlock()
	if !pending {
		return fmt.Errorf("training run %s is not pending in this session", req.RunID)
	}

	model, labeled, err := s.fit(ctx, req)
	s.finish(req.RunID, model, labeled, err)
	return err
}

func (s *Session) fit(ctx context.Context, req TrainRequest) (model topicmodel.Model, labeled *table.Table, err error) {
	defer func() {
		if r := recover(); r != nil {
			model, labeled, err = nil, nil, fmt.Errorf("topic model panic: %v", r)
		}
	}()

	docs, err := s.load(req.Source)
	if err != nil {
		return nil, nil, err
	}
	model, err = s.factory(req.NrTopics)
	if err != nil {
		return nil, nil, err
	}
	labeled, err = model.Fit(ctx, docs)
	if err != nil {
		return nil, nil, err
	}
	return model, labeled, nil
}

// finish moves run runID out of Training and resolves its task.
func (s *Session) finish(runID string, model topicmodel.Model, labeled *table.Table, err error) {
	s.mu.Lock()
	if s.phase != Training || s.runID != runID {
		s.mu.Unlock()
		return
	}
	if err != nil {
		s.phase = Failed
		s.model = nil
		s.labeled = nil
		s.lastErr = err
	} else {
		s.phase = Ready
		s.model = model
		s.labeled = labeled
	}
	s.updatedAt = time.Now()
	task := s.tasks[runID]
	delete(s.tasks, runID)
	status := s.statusLocked()
	s.mu.Unlock()

	if err != nil {
		logger.Errorf("Session: run %s failed: %v", runID, err)
	} else {
		logger.Printf("Session: run %s done, %d rows labeled", runID, status.Rows)
	}

	s.broadcast(status)

	if s.runs != nil {
		state := database.RunStatusReady
		if err != nil {
			state = database.RunStatusFailed
		}
		message := status.Message
		if status.Error != "" {
			message = status.Error
		}
		if rerr := s.runs.Finish(context.Background(), runID, state, message, status.Rows); rerr != nil {
			logger.Warnf("Session: failed to record outcome of run %s: %v", runID, rerr)
		}
	}
	if s.notifier != nil {
		if nerr := s.notifier.Notify(status); nerr != nil {
			logger.Warnf("Session: notification failed: %v", nerr)
		}
	}
	if task != nil {
		task.resolve(err)
	}
}

// Reset returns a Ready or Failed session to Idle, dropping the model.
func (s *Session) Reset() error {
	s.mu.Lock()
	if s.phase == Training {
		s.mu.Unlock()
		return &InvalidStateError{Op: "reset", Phase: Training}
	}
	s.phase = Idle
	s.runID = ""
	s.source = ""
	s.nrTopics = 0
	s.model = nil
	s.labeled = nil
	s.lastErr = nil
	s.updatedAt = time.Now()
	status := s.statusLocked()
	s.mu.Unlock()

	s.broadcast(status)
	return nil
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Session) statusLocked() Status {
	st := Status{
		Phase:     s.phase,
		Message:   s.phase.Message(),
		RunID:     s.runID,
		Source:    s.source,
		NrTopics:  s.nrTopics,
		UpdatedAt: s.updatedAt,
	}
	if s.labeled != nil {
		st.Rows = s.labeled.Len()
	}
	if s.lastErr != nil {
		st.Error = s.lastErr.Error()
	}
	return st
}

// ready returns the model and labeled table of a Ready session.
func (s *Session) ready(op string) (topicmodel.Model, *table.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != Ready {
		return nil, nil, &InvalidStateError{Op: op, Phase: s.phase}
	}
	return s.model, s.labeled, nil
}

// Details returns the per-topic summary of the trained model.
func (s *Session) Details() (*table.Table, error) {
	model, _, err := s.ready("details")
	if err != nil {
		return nil, err
	}
	return model.Details()
}

// Hierarchy returns the topic hierarchy figure.
func (s *Session) Hierarchy() (*topicmodel.Figure, error) {
	model, _, err := s.ready("hierarchy")
	if err != nil {
		return nil, err
	}
	return model.Hierarchy()
}

// BarChart returns the topic word bar chart figure.
func (s *Session) BarChart() (*topicmodel.Figure, error) {
	model, _, err := s.ready("barchart")
	if err != nil {
		return nil, err
	}
	return model.BarChart()
}

// Labeled returns a copy of the topic-labeled table.
func (s *Session) Labeled() (*table.Table, error) {
	_, labeled, err := s.ready("labeled")
	if err != nil {
		return nil, err
	}
	return labeled.Clone(), nil
}

// Export writes the rows of the given topics to path without the topics column.
func (s *Session) Export(path string, ids []int) error {
	_, labeled, err := s.ready("export")
	if err != nil {
		return err
	}
	return topics.Export(path, ids, labeled)
}

// ExportSelection parses a comma-separated topic list such as "1,3" and exports it.
// A malformed list writes nothing.
func (s *Session) ExportSelection(path, selection string) error {
	if _, _, err := s.ready("export"); err != nil {
		return err
	}
	ids, err := topics.ParseIDs(selection)
	if err != nil {
		return err
	}
	return s.Export(path, ids)
}

// Subscribe returns a channel receiving every status change, and a function
// that stops the subscription. Slow subscribers miss updates rather than
// blocking training.
func (s *Session) Subscribe() (<-chan Status, func()) {
	ch := make(chan Status, 16)
	s.subMu.Lock()
	s.subscribers[ch] = struct{}{}
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subscribers, ch)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

func (s *Session) broadcast(status Status) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- status:
		default:
		}
	}
}
