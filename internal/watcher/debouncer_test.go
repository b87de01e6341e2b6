package watcher

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer_CollapsesBursts(t *testing.T) {
	var mu sync.Mutex
	calls := map[string]int{}
	fired := make(chan string, 8)

	d := NewDebouncer(30*time.Millisecond, func(path string) {
		mu.Lock()
		calls[path]++
		mu.Unlock()
		fired <- path
	})

	for i := 0; i < 5; i++ {
		d.Trigger("a.docx")
	}
	d.Trigger("b.docx")
	assert.Equal(t, 2, d.Pending())

	for i := 0; i < 2; i++ {
		select {
		case <-fired:
		case <-time.After(2 * time.Second):
			t.Fatal("debounced callback did not fire")
		}
	}

	// give a stray extra callback a chance to show up
	time.Sleep(60 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, map[string]int{"a.docx": 1, "b.docx": 1}, calls)
	assert.Zero(t, d.Pending())
}

func TestDebouncer_CancelAndStop(t *testing.T) {
	fired := make(chan string, 4)
	d := NewDebouncer(20*time.Millisecond, func(path string) { fired <- path })

	d.Trigger("a.docx")
	d.Cancel("a.docx")
	d.Trigger("b.docx")
	d.Stop()
	d.Trigger("c.docx")

	select {
	case path := <-fired:
		t.Fatalf("unexpected callback for %s", path)
	case <-time.After(80 * time.Millisecond):
	}
	assert.Zero(t, d.Pending())
}
