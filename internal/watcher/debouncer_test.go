package watcher

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

type flushRecorder struct {
	mu      sync.Mutex
	batches [][]FileEvent
	flushed chan struct{}
}

func newFlushRecorder() *flushRecorder {
	return &flushRecorder{flushed: make(chan struct{}, 10)}
}

func (r *flushRecorder) onFlush(events []FileEvent) {
	r.mu.Lock()
	r.batches = append(r.batches, events)
	r.mu.Unlock()
	r.flushed <- struct{}{}
}

func (r *flushRecorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.flushed:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for flush")
	}
}

func (r *flushRecorder) batch(i int) []FileEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batches[i]
}

func TestDebouncerCoalescesPerPath(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := newFlushRecorder()
	d := NewDebouncer(20*time.Millisecond, 100, r.onFlush)

	d.Add(FileEvent{Path: "/in/b.txt", Type: EventCreate})
	d.Add(FileEvent{Path: "/in/a.txt", Type: EventCreate})
	d.Add(FileEvent{Path: "/in/b.txt", Type: EventModify})

	r.wait(t)
	got := r.batch(0)
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Path != "/in/a.txt" || got[1].Path != "/in/b.txt" {
		t.Errorf("events not in path order: %v", got)
	}
	if got[1].Type != EventModify {
		t.Errorf("expected latest event for b.txt to win, got %s", got[1].Type)
	}

	d.Stop()
}

func TestDebouncerFlushesAtMaxBatch(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := newFlushRecorder()
	d := NewDebouncer(time.Hour, 2, r.onFlush)

	d.Add(FileEvent{Path: "/in/a.txt"})
	if d.Pending() != 1 {
		t.Fatalf("expected 1 pending event, got %d", d.Pending())
	}
	d.Add(FileEvent{Path: "/in/b.txt"})

	r.wait(t)
	if n := len(r.batch(0)); n != 2 {
		t.Errorf("expected batch of 2, got %d", n)
	}
	if d.Pending() != 0 {
		t.Errorf("expected nothing pending after flush, got %d", d.Pending())
	}

	d.Stop()
}

func TestDebouncerStopFlushesAndDrops(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := newFlushRecorder()
	d := NewDebouncer(time.Hour, 100, r.onFlush)

	d.Add(FileEvent{Path: "/in/a.txt"})
	d.Stop()
	r.wait(t)

	d.Add(FileEvent{Path: "/in/late.txt"})
	if d.Pending() != 0 {
		t.Errorf("events after Stop should be dropped")
	}
}

func TestClassifyBatch(t *testing.T) {
	c := NewEventClassifier()
	events := func(n int) []FileEvent { return make([]FileEvent, n) }

	if p := c.ClassifyBatch(events(1)); p.String() != "high" {
		t.Errorf("1 event: got %s", p)
	}
	if p := c.ClassifyBatch(events(5)); p.String() != "normal" {
		t.Errorf("5 events: got %s", p)
	}
	if p := c.ClassifyBatch(events(11)); p.String() != "low" {
		t.Errorf("11 events: got %s", p)
	}
}
