// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

// Level is the severity attached to each log line.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger writes leveled lines to stdout and an optional log file, and fans
// each line out to subscribers (the status stream of the web surface).
type Logger struct {
	file        *os.File
	logger      *log.Logger
	minLevel    Level
	subscribers map[chan string]struct{}
	subMu       sync.RWMutex
	mu          sync.RWMutex
	closed      bool
}

var (
	defaultLogger *Logger
	defaultMu     sync.Mutex
)

// Init opens logFile in append mode and installs the result as the default logger.
// An empty logFile logs to stdout only.
func Init(logFile string) (*Logger, error) {
	l, err := New(logFile)
	if err != nil {
		return nil, err
	}

	defaultMu.Lock()
	prev := defaultLogger
	defaultLogger = l
	defaultMu.Unlock()

	if prev != nil {
		prev.Close()
	}
	return l, nil
}

// New creates a logger writing to stdout and, when logFile is set, to that file.
func New(logFile string) (*Logger, error) {
	var out io.Writer = os.Stdout
	var file *os.File

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		file = f
		out = io.MultiWriter(os.Stdout, f)
	}

	return NewWithWriter(out, file), nil
}

// NewWithWriter creates a logger on an arbitrary writer. closer may be nil.
func NewWithWriter(w io.Writer, closer *os.File) *Logger {
	return &Logger{
		file:        closer,
		logger:      log.New(w, "", 0),
		minLevel:    LevelInfo,
		subscribers: make(map[chan string]struct{}),
	}
}

// Default returns the process-wide logger, creating a stdout logger on first use.
func Default() *Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultLogger == nil || defaultLogger.isClosed() {
		defaultLogger = NewWithWriter(os.Stdout, nil)
	}
	return defaultLogger
}

// SetLevel drops lines below level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minLevel = level
}

// Subscribe returns a channel receiving every subsequent log line.
// Slow subscribers miss lines rather than block the writer.
func (l *Logger) Subscribe() chan string {
	ch := make(chan string, 32)

	l.subMu.Lock()
	l.subscribers[ch] = struct{}{}
	l.subMu.Unlock()

	return ch
}

// Unsubscribe removes and closes ch.
func (l *Logger) Unsubscribe(ch chan string) {
	l.subMu.Lock()
	defer l.subMu.Unlock()

	if _, ok := l.subscribers[ch]; ok {
		delete(l.subscribers, ch)
		close(ch)
	}
}

func (l *Logger) isClosed() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.closed
}

func (l *Logger) write(level Level, format string, v ...interface{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed || level < l.minLevel {
		return
	}

	line := fmt.Sprintf("[%s] [%s] %s", time.Now().Format("2006-01-02 15:04:05"), level, fmt.Sprintf(format, v...))
	l.logger.Println(line)

	l.subMu.RLock()
	for ch := range l.subscribers {
		select {
		case ch <- line:
		default:
		}
	}
	l.subMu.RUnlock()
}

// Printf logs at INFO level.
func (l *Logger) Printf(format string, v ...interface{}) { l.write(LevelInfo, format, v...) }

// Debugf logs at DEBUG level.
func (l *Logger) Debugf(format string, v ...interface{}) { l.write(LevelDebug, format, v...) }

// Warnf logs at WARN level.
func (l *Logger) Warnf(format string, v ...interface{}) { l.write(LevelWarn, format, v...) }

// Errorf logs at ERROR level.
func (l *Logger) Errorf(format string, v ...interface{}) { l.write(LevelError, format, v...) }

// Close flushes the log file and detaches all subscribers.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	l.subMu.Lock()
	for ch := range l.subscribers {
		close(ch)
	}
	l.subscribers = make(map[chan string]struct{})
	l.subMu.Unlock()

	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Package-level convenience functions
func Printf(format string, v ...interface{}) {
	Default().Printf(format, v...)
}

func Debugf(format string, v ...interface{}) {
	Default().Debugf(format, v...)
}

func Warnf(format string, v ...interface{}) {
	Default().Warnf(format, v...)
}

func Errorf(format string, v ...interface{}) {
	Default().Errorf(format, v...)
}
