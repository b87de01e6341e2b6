package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_WritesLevelAndMessage(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, nil)

	l.Printf("converted %d comments", 3)
	l.Errorf("comparison failed: %s", "missing column")

	out := buf.String()
	assert.Contains(t, out, "[INFO] converted 3 comments")
	assert.Contains(t, out, "[ERROR] comparison failed: missing column")
}

func TestLogger_SuppressesBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, nil)

	l.Debugf("hidden")
	assert.Empty(t, buf.String())

	l.SetLevel(LevelDebug)
	l.Debugf("shown")
	assert.Contains(t, buf.String(), "[DEBUG] shown")
}

func TestLogger_Subscribe(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, nil)

	ch := l.Subscribe()
	l.Warnf("model training failed")

	line := <-ch
	assert.Contains(t, line, "[WARN] model training failed")

	l.Unsubscribe(ch)
	_, open := <-ch
	assert.False(t, open)
}

func TestLogger_FileOutputAndClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := New(path)
	require.NoError(t, err)

	l.Printf("saved subset")
	require.NoError(t, l.Close())

	// writes after close are dropped
	l.Printf("after close")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "saved subset")
	assert.NotContains(t, string(data), "after close")
}
