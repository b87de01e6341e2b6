// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/topic-modeler/internal/logger"
	"github.com/topic-modeler/internal/session"
	"github.com/topic-modeler/internal/watcher"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	// The status socket is read-only and served on the analyst's machine.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// socketMessage is one frame sent on /ws/status
type socketMessage struct {
	Type   string          `json:"type"` // "status" or "file"
	Status *session.Status `json:"status,omitempty"`
	Event  *watcher.Event  `json:"event,omitempty"`
}

// handleStatusSocket handles GET /ws/status. The current status is sent on
// connect, then every phase change and watcher event as it happens.
func (s *Server) handleStatusSocket(w http.ResponseWriter, r *http.Request) {
	updates, stopUpdates := s.session.Subscribe()
	defer stopUpdates()

	var events <-chan watcher.Event
	if s.events != nil {
		ch, stopEvents := s.events.Subscribe()
		defer stopEvents()
		events = ch
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warnf("Failed to upgrade connection: %v", err)
		return
	}
	defer conn.Close()

	logger.Debugf("WebSocket client connected: %s", r.RemoteAddr)
	defer logger.Debugf("WebSocket client disconnected: %s", r.RemoteAddr)

	// Reads only detect the peer going away; clients send nothing we act on.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Debugf("WebSocket read error: %v", err)
				}
				return
			}
		}
	}()

	send := func(msg socketMessage) bool {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			logger.Debugf("WebSocket write failed: %v", err)
			return false
		}
		return true
	}

	status := s.session.Status()
	if !send(socketMessage{Type: "status", Status: &status}) {
		return
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case st, ok := <-updates:
			if !ok {
				return
			}
			if !send(socketMessage{Type: "status", Status: &st}) {
				return
			}
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if !send(socketMessage{Type: "file", Event: &ev}) {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
