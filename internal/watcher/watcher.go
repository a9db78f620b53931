package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"github.com/alucardeht/wayleave/internal/batch"
	"github.com/alucardeht/wayleave/internal/logger"
)

var log = logger.ForComponent("watcher")

// Target decides which files are agreements and handles removed and missed
// ones. *batch.Processor is one.
type Target interface {
	Accepts(root, path string) bool
	Forget(path string) error
	Scan(ctx context.Context, root string) (*batch.ScanReport, error)
}

// Queue receives agreements to process. *batch.Worker is one.
type Queue interface {
	Enqueue(job batch.Job) error
}

type Watcher struct {
	config      WatcherConfig
	fsWatcher   *fsnotify.Watcher
	fsWatcherMu sync.Mutex
	debouncer   *Debouncer
	classifier  *EventClassifier
	target      Target
	queue       Queue
	scheduler   *cron.Cron
	roots       []string
	mu          sync.RWMutex
	running     bool
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

func New(config WatcherConfig, target Target, queue Queue) (*Watcher, error) {
	var scheduler *cron.Cron
	if config.RescanSchedule != "" {
		scheduler = cron.New()
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		config:     config,
		fsWatcher:  fsWatcher,
		classifier: NewEventClassifier(),
		target:     target,
		queue:      queue,
		scheduler:  scheduler,
		roots:      make([]string, 0),
	}

	if scheduler != nil {
		if _, err := scheduler.AddFunc(config.RescanSchedule, w.rescan); err != nil {
			fsWatcher.Close()
			return nil, err
		}
	}

	w.debouncer = NewDebouncer(config.DebounceWindow, config.MaxBatchSize, w.onFlush)

	return w, nil
}

func (w *Watcher) addToWatcher(path string) error {
	w.fsWatcherMu.Lock()
	defer w.fsWatcherMu.Unlock()
	return w.fsWatcher.Add(path)
}

func (w *Watcher) removeFromWatcher(path string) {
	w.fsWatcherMu.Lock()
	defer w.fsWatcherMu.Unlock()
	w.fsWatcher.Remove(path)
}

// AddRoot watches path and every directory below it, and queues the
// agreements already there at low priority.
func (w *Watcher) AddRoot(path string) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	log.Info("adding root to watch", "path", path)

	if err := w.addToWatcher(path); err != nil {
		return err
	}

	w.mu.Lock()
	w.roots = append(w.roots, path)
	w.mu.Unlock()

	if err := w.walkAndAdd(path); err != nil {
		return err
	}

	log.Info("root added successfully", "path", path)
	return nil
}

func (w *Watcher) Roots() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]string(nil), w.roots...)
}

func (w *Watcher) walkAndAdd(path string) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		log.Debug("failed to read directory", "path", path, "error", err)
		return err
	}

	for _, entry := range entries {
		fullPath := filepath.Join(path, entry.Name())

		if w.shouldIgnore(fullPath) {
			continue
		}

		if entry.IsDir() {
			if err := w.addToWatcher(fullPath); err != nil {
				log.Debug("failed to watch directory", "path", fullPath, "error", err)
				continue
			}
			log.Debug("watching directory", "path", fullPath)
			w.walkAndAdd(fullPath)
			continue
		}

		w.enqueue(fullPath, batch.PriorityLow)
	}

	return nil
}

func (w *Watcher) RemoveRoot(path string) error {
	w.removeFromWatcher(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	for i, root := range w.roots {
		if root == path {
			w.roots = append(w.roots[:i], w.roots[i+1:]...)
			break
		}
	}

	return nil
}

func (w *Watcher) Start(ctx context.Context) error {
	log.Info("starting file watcher")

	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	w.running = true
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	w.wg.Add(1)
	go w.handleEvents()

	if w.scheduler != nil {
		w.scheduler.Start()
		log.Info("rescan scheduled", "schedule", w.config.RescanSchedule)
	}

	return nil
}

func (w *Watcher) handleEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			log.Debug("file event", "path", event.Name, "op", event.Op.String())

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !w.shouldIgnore(event.Name) {
						if err := w.addToWatcher(event.Name); err == nil {
							w.walkAndAdd(event.Name)
						}
					}
					continue
				}
			}

			fileEvent := w.convertEvent(event)
			if fileEvent != nil {
				w.debouncer.Add(*fileEvent)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) convertEvent(event fsnotify.Event) *FileEvent {
	if w.shouldIgnore(event.Name) {
		return nil
	}

	var eventType EventType

	switch {
	case event.Has(fsnotify.Create):
		eventType = EventCreate
	case event.Has(fsnotify.Write):
		eventType = EventModify
	case event.Has(fsnotify.Remove):
		eventType = EventDelete
	case event.Has(fsnotify.Rename):
		eventType = EventRename
	default:
		return nil
	}

	return &FileEvent{
		Path:      event.Name,
		Type:      eventType,
		Timestamp: time.Now(),
	}
}

func (w *Watcher) onFlush(events []FileEvent) {
	log.Info("flushing events", "count", len(events))

	if len(events) == 0 {
		return
	}

	priority := w.classifier.ClassifyBatch(events)

	for _, event := range events {
		if event.Type.Gone() {
			if err := w.target.Forget(event.Path); err != nil {
				log.Warn("failed to forget removed agreement", "path", event.Path, "error", err)
			}
			continue
		}
		w.enqueue(event.Path, priority)
	}
}

func (w *Watcher) enqueue(path string, priority batch.JobPriority) {
	root, ok := w.rootFor(path)
	if !ok || !w.target.Accepts(root, path) {
		return
	}

	if err := w.queue.Enqueue(batch.Job{Path: path, Priority: priority}); err != nil {
		log.Warn("failed to queue agreement", "path", path, "error", err)
		return
	}
	log.Debug("queued agreement", "path", path, "priority", priority)
}

func (w *Watcher) rootFor(path string) (string, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, root := range w.roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return root, true
		}
	}
	return "", false
}

// rescan runs a full scan of every root to pick up changes the watcher missed.
func (w *Watcher) rescan() {
	w.mu.RLock()
	ctx := w.ctx
	w.mu.RUnlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}

	for _, root := range w.Roots() {
		report, err := w.target.Scan(ctx, root)
		if err != nil {
			log.Error("scheduled rescan failed", "root", root, "error", err)
			continue
		}
		log.Info("scheduled rescan finished", "root", root,
			"generated", report.Generated, "failed", report.Failed, "skipped", report.Skipped)
	}
}

func (w *Watcher) shouldIgnore(path string) bool {
	basename := filepath.Base(path)

	if !w.config.WatchHidden && strings.HasPrefix(basename, ".") {
		return true
	}

	return false
}

func (w *Watcher) Stop() error {
	log.Info("stopping file watcher")

	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}

	w.running = false
	w.cancel()
	w.mu.Unlock()

	if w.scheduler != nil {
		<-w.scheduler.Stop().Done()
	}

	w.debouncer.Stop()

	w.fsWatcherMu.Lock()
	err := w.fsWatcher.Close()
	w.fsWatcherMu.Unlock()

	w.wg.Wait()
	return err
}
