package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alucardeht/wayleave/internal/batch"
)

type fakeTarget struct {
	mu        sync.Mutex
	forgotten []string
	scanned   []string
}

func (f *fakeTarget) Accepts(root, path string) bool {
	return strings.HasSuffix(path, ".txt")
}

func (f *fakeTarget) Forget(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forgotten = append(f.forgotten, path)
	return nil
}

func (f *fakeTarget) Scan(ctx context.Context, root string) (*batch.ScanReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scanned = append(f.scanned, root)
	return &batch.ScanReport{Root: root}, nil
}

type fakeQueue struct {
	jobs chan batch.Job
}

func (q *fakeQueue) Enqueue(job batch.Job) error {
	q.jobs <- job
	return nil
}

func newTestWatcher(t *testing.T, root string) (*Watcher, *fakeTarget, *fakeQueue) {
	t.Helper()

	cfg := DefaultWatcherConfig()
	cfg.DebounceWindow = 20 * time.Millisecond
	cfg.RescanSchedule = ""

	target := &fakeTarget{}
	queue := &fakeQueue{jobs: make(chan batch.Job, 100)}

	w, err := New(cfg, target, queue)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { w.Stop() })

	if err := w.AddRoot(root); err != nil {
		t.Fatalf("AddRoot: %v", err)
	}
	return w, target, queue
}

func nextJob(t *testing.T, q *fakeQueue) batch.Job {
	t.Helper()
	select {
	case job := <-q.jobs:
		return job
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for job")
		return batch.Job{}
	}
}

func TestAddRootQueuesExistingAgreements(t *testing.T) {
	root := t.TempDir()
	os.WriteFile(filepath.Join(root, "a.txt"), []byte("agreement"), 0644)
	os.WriteFile(filepath.Join(root, "a.pdf"), []byte("pdf"), 0644)
	os.MkdirAll(filepath.Join(root, ".processed"), 0755)
	os.WriteFile(filepath.Join(root, ".processed", "old.txt"), []byte("old"), 0644)

	_, _, q := newTestWatcher(t, root)

	job := nextJob(t, q)
	if job.Path != filepath.Join(root, "a.txt") {
		t.Errorf("unexpected job path %s", job.Path)
	}
	if job.Priority != batch.PriorityLow {
		t.Errorf("existing files should be low priority, got %s", job.Priority)
	}
	select {
	case extra := <-q.jobs:
		t.Errorf("unexpected extra job %s", extra.Path)
	default:
	}
}

func TestNewAgreementIsQueued(t *testing.T) {
	root := t.TempDir()
	_, _, q := newTestWatcher(t, root)

	path := filepath.Join(root, "new.txt")
	if err := os.WriteFile(path, []byte("agreement"), 0644); err != nil {
		t.Fatal(err)
	}

	job := nextJob(t, q)
	if job.Path != path {
		t.Errorf("expected %s, got %s", path, job.Path)
	}
	if job.Priority != batch.PriorityHigh {
		t.Errorf("single event should be high priority, got %s", job.Priority)
	}
}

func TestOnFlushForgetsRemovedFiles(t *testing.T) {
	root := t.TempDir()
	w, target, q := newTestWatcher(t, root)

	gone := filepath.Join(root, "gone.txt")
	w.onFlush([]FileEvent{
		{Path: gone, Type: EventDelete},
		{Path: filepath.Join(root, "kept.txt"), Type: EventModify},
		{Path: filepath.Join("/elsewhere", "x.txt"), Type: EventModify},
	})

	target.mu.Lock()
	forgotten := append([]string(nil), target.forgotten...)
	target.mu.Unlock()
	if len(forgotten) != 1 || forgotten[0] != gone {
		t.Errorf("expected %s to be forgotten, got %v", gone, forgotten)
	}

	job := nextJob(t, q)
	if job.Path != filepath.Join(root, "kept.txt") {
		t.Errorf("unexpected job %s", job.Path)
	}
	select {
	case extra := <-q.jobs:
		t.Errorf("path outside roots should not be queued: %s", extra.Path)
	default:
	}
}

func TestRescanScansEveryRoot(t *testing.T) {
	root := t.TempDir()
	w, target, _ := newTestWatcher(t, root)

	w.rescan()

	target.mu.Lock()
	defer target.mu.Unlock()
	if len(target.scanned) != 1 || target.scanned[0] != w.Roots()[0] {
		t.Errorf("expected one scan of %s, got %v", root, target.scanned)
	}
}

func TestNewRejectsBadSchedule(t *testing.T) {
	cfg := DefaultWatcherConfig()
	cfg.RescanSchedule = "not a schedule"

	if _, err := New(cfg, &fakeTarget{}, &fakeQueue{}); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}
