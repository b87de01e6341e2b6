// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/topic-modeler/internal/database"
	"github.com/topic-modeler/internal/logger"
	"github.com/topic-modeler/internal/parser"
	"github.com/topic-modeler/internal/server/middleware"
	"github.com/topic-modeler/internal/session"
	"github.com/topic-modeler/internal/table"
	"github.com/topic-modeler/internal/topics"
	"github.com/topic-modeler/internal/watcher"
)

// Options configures a Server. DataDir and Session are required.
type Options struct {
	DataDir         string
	RawCommentsFile string
	Session         *session.Session
	// Stores enables run history and the comparison log. Optional.
	Stores *database.Stores
	// Events streams watcher events over the status socket. Optional.
	Events *watcher.Broadcaster
}

// Server exposes the analysis session over HTTP
type Server struct {
	dataDir         string
	rawCommentsFile string
	session         *session.Session
	stores          *database.Stores
	events          *watcher.Broadcaster
}

// New creates a Server.
func New(opts Options) (*Server, error) {
	if opts.DataDir == "" {
		return nil, errors.New("server: data directory is required")
	}
	if opts.Session == nil {
		return nil, errors.New("server: session is required")
	}
	if opts.RawCommentsFile == "" {
		opts.RawCommentsFile = "raw_comments.csv"
	}
	return &Server{
		dataDir:         opts.DataDir,
		rawCommentsFile: opts.RawCommentsFile,
		session:         opts.Session,
		stores:          opts.Stores,
		events:          opts.Events,
	}, nil
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/files", s.handleListFiles)
	mux.HandleFunc("POST /api/convert", s.handleConvert)
	mux.HandleFunc("POST /api/sentences", s.handleSentences)
	mux.HandleFunc("POST /api/compare", s.handleCompare)
	mux.HandleFunc("GET /api/comparisons", s.handleComparisons)

	mux.HandleFunc("POST /api/train", s.handleTrain)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/reset", s.handleReset)
	mux.HandleFunc("GET /api/runs", s.handleRuns)
	mux.HandleFunc("GET /api/topics/details", s.handleDetails)
	mux.HandleFunc("GET /api/topics/hierarchy", s.handleHierarchy)
	mux.HandleFunc("GET /api/topics/barchart", s.handleBarChart)
	mux.HandleFunc("POST /api/subset", s.handleSubset)

	mux.HandleFunc("GET /api/logs", handleLogStream)
	mux.HandleFunc("GET /ws/status", s.handleStatusSocket)

	return middleware.TrafficLogger(mux)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("HTTP server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Printf("HTTP server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// resolve maps a client-supplied file name to a path inside the data directory.
func (s *Server) resolve(name string) (string, error) {
	if name == "" {
		return "", badRequest("file name is required")
	}
	if !filepath.IsLocal(name) {
		return "", badRequest("file name %q must be relative to the data directory", name)
	}
	return filepath.Join(s.dataDir, name), nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "up"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warnf("writeJSON: %v", err)
	}
}

// writeError maps the error taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var stateErr *session.InvalidStateError
	var schemaErr *table.SchemaError
	var accessErr *parser.FileAccessError
	var formatErr *parser.FormatError
	var reqErr requestError
	switch {
	case errors.As(err, &stateErr):
		status = http.StatusConflict
	case errors.Is(err, topics.ErrInvalidTopicList), errors.As(err, &reqErr):
		status = http.StatusBadRequest
	case errors.As(err, &schemaErr), errors.As(err, &formatErr):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &accessErr):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		logger.Errorf("HTTP error: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// requestError marks a malformed request.
type requestError struct{ err error }

func (e requestError) Error() string { return e.err.Error() }
func (e requestError) Unwrap() error { return e.err }

func badRequest(format string, args ...any) error {
	return requestError{err: fmt.Errorf(format, args...)}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("invalid JSON: %v", err)
	}
	return nil
}
