package batch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/alucardeht/wayleave/internal/registry"
)

type recordingHandler struct {
	mu    sync.Mutex
	paths []string
	gate  chan struct{}
	done  chan struct{}
}

func (h *recordingHandler) Process(ctx context.Context, path string) (Outcome, error) {
	if h.gate != nil {
		<-h.gate
	}
	h.mu.Lock()
	h.paths = append(h.paths, path)
	h.mu.Unlock()
	h.done <- struct{}{}
	return Outcome{Path: path, Status: registry.StatusGenerated}, nil
}

func (h *recordingHandler) seen() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.paths...)
}

func waitFor(t *testing.T, done <-chan struct{}, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out after %d of %d jobs", i, n)
		}
	}
}

func TestWorkerPrefersHighPriority(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := &recordingHandler{gate: make(chan struct{}), done: make(chan struct{}, 10)}
	w := NewWorker(h, WorkerConfig{WorkerCount: 1, MaxQueueSize: 10})

	require.NoError(t, w.Enqueue(Job{Path: "low", Priority: PriorityLow}))
	require.NoError(t, w.Enqueue(Job{Path: "normal", Priority: PriorityNormal}))
	require.NoError(t, w.Enqueue(Job{Path: "high", Priority: PriorityHigh}))

	w.Start()
	close(h.gate)
	waitFor(t, h.done, 3)
	w.Stop()

	assert.Equal(t, []string{"high", "normal", "low"}, h.seen())

	stats := w.GetStats()
	assert.Equal(t, int64(3), stats.Generated)
	assert.Equal(t, int64(0), stats.InQueue)
	assert.False(t, stats.IsRunning)
}

func TestWorkerQueueFull(t *testing.T) {
	h := &recordingHandler{done: make(chan struct{}, 10)}
	w := NewWorker(h, WorkerConfig{WorkerCount: 1, MaxQueueSize: 1})

	require.NoError(t, w.Enqueue(Job{Path: "a", Priority: PriorityNormal}))
	assert.ErrorIs(t, w.Enqueue(Job{Path: "b", Priority: PriorityNormal}), ErrQueueFull)
}

func TestWorkerRejectsAfterStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := &recordingHandler{done: make(chan struct{}, 10)}
	w := NewWorker(h, DefaultWorkerConfig())
	w.Start()
	w.Stop()

	assert.ErrorIs(t, w.Enqueue(Job{Path: "late"}), ErrNotRunning)
}
