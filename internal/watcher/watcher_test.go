package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topic-modeler/internal/database"
	"github.com/topic-modeler/internal/table"
)

const report = "Survey export\nComments: (2)\n1. Great place to work.\n2. nan\nRestricted Information - Not for Further Distribution\n"

func openTracker(t *testing.T) *database.TrackedFileStore {
	t.Helper()
	stores, err := database.OpenStores(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })
	return stores.Tracked
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "report.csv"), OutputPath(filepath.Join("data", "report.docx")))
	assert.Equal(t, "notes.csv", OutputPath("notes.txt"))
}

func TestWatcher_ProcessConvertsOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.txt")
	require.NoError(t, os.WriteFile(path, []byte(report), 0644))

	w, err := New(Options{Dir: dir, Tracker: openTracker(t)})
	require.NoError(t, err)
	events, stop := w.Events().Subscribe()
	defer stop()

	decision, err := w.Process(path)
	require.NoError(t, err)
	assert.True(t, decision.ShouldProcess)
	assert.Equal(t, ConvertNew, decision.Kind)

	comments, err := table.Load(filepath.Join(dir, "report.csv"))
	require.NoError(t, err)
	values, _ := comments.Column(table.CommentColumn)
	assert.Equal(t, []string{"Great place to work.", "No comment"}, values)

	decision, err = w.Process(path)
	require.NoError(t, err)
	assert.False(t, decision.ShouldProcess)

	require.NoError(t, os.WriteFile(path, []byte(report+"3. More training\n"), 0644))
	decision, err = w.Process(path)
	require.NoError(t, err)
	assert.Equal(t, ConvertUpdate, decision.Kind)

	var types []string
	for len(events) > 0 {
		types = append(types, (<-events).Type)
	}
	assert.Equal(t, []string{
		EventDetected, EventConverted,
		EventDetected, EventSkipped,
		EventDetected, EventConverted,
	}, types)
}

func TestWatcher_FailedConversionIsRetried(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(path, []byte("no marker here\n"), 0644))

	tracker := openTracker(t)
	w, err := New(Options{Dir: dir, Tracker: tracker})
	require.NoError(t, err)

	_, err = w.Process(path)
	assert.Error(t, err)

	tf, err := tracker.Get(path)
	require.NoError(t, err)
	require.NotNil(t, tf)
	assert.Equal(t, database.TrackedStatusFailed, tf.Status)

	decision, err := w.Decisions().Decide(path)
	require.NoError(t, err)
	assert.True(t, decision.ShouldProcess)
	assert.Equal(t, "Previous conversion failed", decision.Reason)
}

func TestDecisionEngine_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.docx")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	decision, err := NewDecisionEngine(nil).Decide(path)
	require.NoError(t, err)
	assert.False(t, decision.ShouldProcess)

	_, err = NewDecisionEngine(nil).Decide(filepath.Join(t.TempDir(), "missing.docx"))
	assert.Error(t, err)
}

func TestWatcher_ConvertsNewAndExistingReports(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "existing.txt")
	require.NoError(t, os.WriteFile(existing, []byte(report), 0644))

	converted := make(chan string, 8)
	w, err := New(Options{
		Dir:      dir,
		Debounce: 20 * time.Millisecond,
		Convert: func(path string) (string, int, error) {
			converted <- filepath.Base(path)
			return OutputPath(path), 1, nil
		},
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	assert.Error(t, w.Start(context.Background()))

	// temporary and unsupported files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "~$draft.docx"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "table.csv"), []byte("comment\nx\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte(report), 0644))

	seen := map[string]bool{}
	timeout := time.After(5 * time.Second)
	for len(seen) < 2 {
		select {
		case name := <-converted:
			seen[name] = true
		case <-timeout:
			t.Fatalf("converted only %v", seen)
		}
	}
	assert.Equal(t, map[string]bool{"existing.txt": true, "new.txt": true}, seen)

	select {
	case name := <-converted:
		if name != "new.txt" && name != "existing.txt" {
			t.Fatalf("unexpected conversion of %s", name)
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatcher_ConvertErrorEvent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "r.txt")
	require.NoError(t, os.WriteFile(path, []byte(report), 0644))

	boom := errors.New("disk full")
	w, err := New(Options{Dir: dir, Convert: func(string) (string, int, error) { return "", 0, boom }})
	require.NoError(t, err)
	events, stop := w.Events().Subscribe()
	defer stop()

	_, err = w.Process(path)
	assert.ErrorIs(t, err, boom)

	<-events
	ev := <-events
	assert.Equal(t, EventError, ev.Type)
	assert.Equal(t, "disk full", ev.Error)
}

func TestNew_RequiresDir(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}
