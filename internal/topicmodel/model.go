// Package topicmodel defines the contract between a session and the topic
// model it trains, plus the default embedding-based implementation.
package topicmodel

import (
	"context"
	"errors"

	"github.com/topic-modeler/internal/table"
)

// ErrNotFitted is returned by introspection calls made before Fit succeeded.
var ErrNotFitted = errors.New("topic model has not been fitted")

// Model assigns topics to comments and describes the topics it found.
type Model interface {
	// Fit clusters the comment column of docs and returns a copy of docs
	// with an integer topics column.
	Fit(ctx context.Context, docs *table.Table) (*table.Table, error)

	// Details returns one row per topic: Topic, Count, Name, Representation.
	Details() (*table.Table, error)

	// Hierarchy returns a figure of how topics merge when reduced.
	Hierarchy() (*Figure, error)

	// BarChart returns a figure of the highest-scoring words per topic.
	BarChart() (*Figure, error)
}

// Factory builds an unfitted model for the requested number of topics.
type Factory func(nrTopics int) (Model, error)
