// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/topic-modeler/internal/logger"
	"github.com/topic-modeler/internal/parser"
)

// ConvertFunc converts the report at path and returns the output file and
// the number of comments written.
type ConvertFunc func(path string) (output string, comments int, err error)

// Options configures a Watcher. Dir is required.
type Options struct {
	Dir      string
	Debounce time.Duration
	// Tracker skips reports whose contents were already converted. Optional.
	Tracker Tracker
	// Convert defaults to ConvertToCSV.
	Convert ConvertFunc
	// Events receives conversion events. Optional.
	Events *Broadcaster
}

// Watcher converts report files that appear or change in a directory tree.
type Watcher struct {
	dir       string
	convert   ConvertFunc
	decisions *DecisionEngine
	debouncer *Debouncer
	events    *Broadcaster

	mu      sync.Mutex
	fs      *fsnotify.Watcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// OutputPath returns the comment table path for a report: the same name with a .csv extension.
func OutputPath(report string) string {
	return strings.TrimSuffix(report, filepath.Ext(report)) + ".csv"
}

// ConvertToCSV converts a report to OutputPath(report).
func ConvertToCSV(report string) (string, int, error) {
	out := OutputPath(report)
	comments, err := parser.ConvertFile(report, out)
	if err != nil {
		return "", 0, err
	}
	return out, comments.Len(), nil
}

// New creates a Watcher. Call Start to begin watching.
func New(opts Options) (*Watcher, error) {
	if opts.Dir == "" {
		return nil, errors.New("watcher: directory is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	if opts.Convert == nil {
		opts.Convert = ConvertToCSV
	}
	if opts.Events == nil {
		opts.Events = NewBroadcaster()
	}

	w := &Watcher{
		dir:       opts.Dir,
		convert:   opts.Convert,
		decisions: NewDecisionEngine(opts.Tracker),
		events:    opts.Events,
	}
	w.debouncer = NewDebouncer(opts.Debounce, func(path string) {
		if _, err := w.Process(path); err != nil {
			logger.Errorf("Watcher: %s: %v", path, err)
		}
	})
	return w, nil
}

// Events returns the broadcaster conversion events are published on.
func (w *Watcher) Events() *Broadcaster {
	return w.events
}

// Start watches the directory tree (creating it if missing) and queues every
// report already present for conversion.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return errors.New("watcher already running")
	}

	absPath, err := filepath.Abs(w.dir)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	var existing []string
	err = filepath.WalkDir(absPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := fsw.Add(path); err != nil {
				logger.Warnf("Watcher: failed to watch %s: %v", path, err)
			}
			return nil
		}
		if isReport(path) {
			existing = append(existing, path)
		}
		return nil
	})
	if err != nil {
		fsw.Close()
		return fmt.Errorf("failed to walk directory: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	w.fs = fsw
	w.cancel = cancel
	w.running = true

	w.wg.Add(1)
	go w.processEvents(ctx, fsw)

	logger.Printf("Watching directory (recursive): %s, %d existing reports", absPath, len(existing))
	for _, path := range existing {
		w.debouncer.Trigger(path)
	}
	return nil
}

// Stop stops watching and cancels pending conversions.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.cancel()
	if err := w.fs.Close(); err != nil {
		logger.Warnf("Watcher: error closing watcher: %v", err)
	}
	w.mu.Unlock()

	w.wg.Wait()
	w.debouncer.Stop()
}

func (w *Watcher) processEvents(ctx context.Context, fsw *fsnotify.Watcher) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}

			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := fsw.Add(event.Name); err != nil {
						logger.Warnf("Watcher: failed to watch new directory %s: %v", event.Name, err)
					}
					continue
				}
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 && isReport(event.Name) {
				w.debouncer.Trigger(event.Name)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Errorf("Watcher error: %v", err)
			w.events.Broadcast(Event{Type: EventError, Message: "Watcher error", Error: err.Error()})
		}
	}
}

// Process decides on and converts a single report synchronously.
func (w *Watcher) Process(path string) (*FileDecision, error) {
	w.events.Broadcast(Event{Type: EventDetected, Path: path, Message: fmt.Sprintf("File detected: %s", path)})

	decision, err := w.decisions.Decide(path)
	if err != nil {
		w.events.Broadcast(Event{Type: EventError, Path: path, Message: "Failed to inspect file", Error: err.Error()})
		return nil, err
	}
	if !decision.ShouldProcess {
		logger.Printf("Watcher: skipping %s: %s", path, decision.Reason)
		w.events.Broadcast(Event{Type: EventSkipped, Path: path, Message: decision.Reason})
		return decision, nil
	}

	output, comments, convErr := w.convert(path)
	if err := w.decisions.MarkConverted(decision, output, convErr); err != nil {
		logger.Warnf("Watcher: failed to update database for %s: %v", path, err)
	}
	if convErr != nil {
		w.events.Broadcast(Event{Type: EventError, Path: path, Message: "Conversion failed", Error: convErr.Error()})
		return decision, convErr
	}

	logger.Printf("Watcher: converted %s -> %s (%d comments, %s)", path, output, comments, decision.Kind)
	w.events.Broadcast(Event{
		Type:     EventConverted,
		Path:     path,
		Output:   output,
		Comments: comments,
		Message:  fmt.Sprintf("Converted: %s", filepath.Base(path)),
	})
	return decision, nil
}

func isReport(path string) bool {
	return parser.IsSupportedFile(path) && !parser.IsTemporaryFile(path)
}

// Decisions returns the engine deciding which reports need converting.
func (w *Watcher) Decisions() *DecisionEngine {
	return w.decisions
}
