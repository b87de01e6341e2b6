// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package watcher

import (
	"fmt"
	"os"

	"github.com/topic-modeler/internal/database"
	"github.com/topic-modeler/internal/logger"
)

// ConvertKind tells whether a report is seen for the first time.
type ConvertKind string

const (
	ConvertNew    ConvertKind = "new"
	ConvertUpdate ConvertKind = "update"
)

// Tracker remembers the reports already converted.
type Tracker interface {
	Get(filePath string) (*database.TrackedFile, error)
	Upsert(filePath, fileHash, outputPath, status, message string) error
}

// FileDecision represents the decision made about a file
type FileDecision struct {
	FilePath      string
	FileHash      string
	Kind          ConvertKind
	ShouldProcess bool
	Reason        string
}

// DecisionEngine decides whether a report needs converting. Without a
// tracker every non-empty report is converted.
type DecisionEngine struct {
	tracker Tracker
}

// NewDecisionEngine creates a new decision engine
func NewDecisionEngine(tracker Tracker) *DecisionEngine {
	return &DecisionEngine{tracker: tracker}
}

// Decide determines whether and how to process a file
func (de *DecisionEngine) Decide(filePath string) (*FileDecision, error) {
	decision := &FileDecision{FilePath: filePath}

	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.Size() == 0 {
		decision.Reason = "File is empty"
		return decision, nil
	}

	hash, err := database.HashFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate hash: %w", err)
	}
	decision.FileHash = hash

	if de.tracker == nil {
		decision.Kind = ConvertNew
		decision.ShouldProcess = true
		decision.Reason = "New file detected"
		return decision, nil
	}

	tracked, err := de.tracker.Get(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to query database: %w", err)
	}

	switch {
	case tracked == nil:
		decision.Kind = ConvertNew
		decision.ShouldProcess = true
		decision.Reason = "New file detected"
	case tracked.FileHash != hash:
		decision.Kind = ConvertUpdate
		decision.ShouldProcess = true
		decision.Reason = "File updated"
	case tracked.Status != database.TrackedStatusConverted:
		decision.Kind = ConvertUpdate
		decision.ShouldProcess = true
		decision.Reason = "Previous conversion failed"
	default:
		decision.Reason = "File unchanged (hash matches)"
	}

	logger.Debugf("Decide: %s: %s", filePath, decision.Reason)
	return decision, nil
}

// MarkConverted records the outcome of converting a file
func (de *DecisionEngine) MarkConverted(decision *FileDecision, outputPath string, convErr error) error {
	if de.tracker == nil {
		return nil
	}
	if convErr != nil {
		return de.tracker.Upsert(decision.FilePath, decision.FileHash, "", database.TrackedStatusFailed, convErr.Error())
	}
	return de.tracker.Upsert(decision.FilePath, decision.FileHash, outputPath, database.TrackedStatusConverted, "")
}
