// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package watcher

import (
	"sync"
	"time"
)

// Event types.
const (
	EventDetected  = "file_detected"
	EventSkipped   = "file_skipped"
	EventConverted = "file_converted"
	EventError     = "file_error"
)

// Event represents a report conversion event
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path,omitempty"`
	Output    string    `json:"output,omitempty"`
	Message   string    `json:"message"`
	Comments  int       `json:"comments,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Broadcaster fans events out to subscribers
type Broadcaster struct {
	subscribers map[chan Event]struct{}
	mu          sync.RWMutex
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[chan Event]struct{}),
	}
}

// Subscribe returns a buffered channel of events and a function ending the subscription.
func (eb *Broadcaster) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 32)
	eb.mu.Lock()
	eb.subscribers[ch] = struct{}{}
	eb.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			eb.mu.Lock()
			delete(eb.subscribers, ch)
			eb.mu.Unlock()
			close(ch)
		})
	}
}

// Broadcast sends an event to all subscribers
func (eb *Broadcaster) Broadcast(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	eb.mu.RLock()
	defer eb.mu.RUnlock()

	for ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			// Channel is full, skip this subscriber
		}
	}
}
