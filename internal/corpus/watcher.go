package corpus

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/standardbeagle/quickreply/internal/logging"
)

// Watcher monitors corpus files and reports debounced batches of changed paths
type Watcher struct {
	watcher   *fsnotify.Watcher
	root      string
	patterns  []string
	debouncer *eventDebouncer
	logger    *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	onChange func(paths []string)

	// Watch mode statistics
	eventsProcessed int64
	batches         int64
	errorCount      int64
	lastEventTime   time.Time
	statsMu         sync.RWMutex
}

// WatchStats summarizes watcher activity
type WatchStats struct {
	EventsProcessed int64
	Batches         int64
	ErrorCount      int64
	LastEventTime   time.Time
}

// NewWatcher creates a watcher for corpus files under root matching patterns
func NewWatcher(root string, patterns []string, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	w := &Watcher{
		watcher:  fsw,
		root:     root,
		patterns: patterns,
		logger:   logging.OrNop(logger).With(zap.String(logging.FieldComponent, "corpus-watcher")),
		ctx:      ctx,
		cancel:   cancel,
	}
	w.debouncer = newEventDebouncer(debounce, w.flush)

	return w, nil
}

// OnChange sets the callback invoked with each debounced batch of paths
func (w *Watcher) OnChange(fn func(paths []string)) {
	w.onChange = fn
}

// Start begins watching the root directory tree
func (w *Watcher) Start() error {
	if err := w.addWatches(w.root); err != nil {
		return fmt.Errorf("failed to add watches starting from %s: %w", w.root, err)
	}

	w.wg.Add(1)
	go w.processEvents()

	w.logger.Debug("corpus watcher started", zap.String(logging.FieldFile, w.root))
	return nil
}

// Stop stops the watcher. Pending events are dropped.
func (w *Watcher) Stop() error {
	w.cancel()
	w.debouncer.stop()

	err := w.watcher.Close()

	w.wg.Wait()
	w.debouncer.wait()
	return err
}

// Stats returns a snapshot of watcher statistics
func (w *Watcher) Stats() WatchStats {
	w.statsMu.RLock()
	defer w.statsMu.RUnlock()
	return WatchStats{
		EventsProcessed: w.eventsProcessed,
		Batches:         w.batches,
		ErrorCount:      w.errorCount,
		LastEventTime:   w.lastEventTime,
	}
}

// addWatches recursively adds watches to every non-hidden directory
func (w *Watcher) addWatches(root string) error {
	visited := make(map[string]bool)

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil // Skip errors, continue walking
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}

		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return nil
		}
		if visited[realPath] {
			return filepath.SkipDir
		}
		visited[realPath] = true

		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("failed to add watch", zap.String(logging.FieldFile, path), zap.Error(err))
		}
		return nil
	})
}

// processEvents drains fsnotify until the watcher is stopped
func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.incrementStats(0, 1)
			w.logger.Warn("corpus watcher error", zap.Error(err))
		}
	}
}

// handleEvent filters a single event and hands it to the debouncer
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		// New directories need their own watch
		if isDir, err := statDir(event.Name); err == nil && isDir {
			if !strings.HasPrefix(filepath.Base(event.Name), ".") {
				_ = w.watcher.Add(event.Name)
			}
			return
		}
	}

	if !w.shouldProcessPath(event.Name) {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	w.logger.Debug("corpus file event", zap.String(logging.FieldFile, event.Name), zap.String(logging.FieldOperation, event.Op.String()))
	w.debouncer.addEvent(event.Name)
}

// shouldProcessPath checks extension and include patterns
func (w *Watcher) shouldProcessPath(path string) bool {
	if !IsCorpusFile(path) {
		return false
	}
	if len(w.patterns) == 0 {
		return true
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	return MatchesAny(w.patterns, rel)
}

func (w *Watcher) flush(paths []string) {
	w.incrementStats(int64(len(paths)), 0)
	w.statsMu.Lock()
	w.batches++
	w.statsMu.Unlock()

	w.logger.Info("corpus files changed", zap.Int(logging.FieldCount, len(paths)))
	if w.onChange != nil && w.ctx.Err() == nil {
		w.onChange(paths)
	}
}

// incrementStats updates watch statistics
func (w *Watcher) incrementStats(events int64, errors int64) {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.eventsProcessed += events
	w.errorCount += errors
	if events > 0 {
		w.lastEventTime = time.Now()
	}
}

// eventDebouncer batches file events so one save triggers one reload
type eventDebouncer struct {
	paths    map[string]bool
	mutex    sync.Mutex
	debounce time.Duration
	timer    *time.Timer
	stopped  bool
	inflight sync.WaitGroup
	fire     func(paths []string)
}

// newEventDebouncer creates a new event debouncer
func newEventDebouncer(debounce time.Duration, fire func(paths []string)) *eventDebouncer {
	return &eventDebouncer{
		paths:    make(map[string]bool),
		debounce: debounce,
		fire:     fire,
	}
}

// addEvent records a path and restarts the quiet period
func (d *eventDebouncer) addEvent(path string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.stopped {
		return
	}
	d.paths[path] = true

	if d.timer != nil && d.timer.Stop() {
		d.inflight.Done()
	}
	d.inflight.Add(1)
	d.timer = time.AfterFunc(d.debounce, d.flush)
}

// flush delivers all accumulated paths in sorted order
func (d *eventDebouncer) flush() {
	defer d.inflight.Done()

	d.mutex.Lock()
	if d.stopped {
		d.mutex.Unlock()
		return
	}
	paths := make([]string, 0, len(d.paths))
	for p := range d.paths {
		paths = append(paths, p)
	}
	d.paths = make(map[string]bool)
	d.mutex.Unlock()

	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)
	d.fire(paths)
}

// stop cancels a pending flush and rejects new events
func (d *eventDebouncer) stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.stopped = true
	if d.timer != nil && d.timer.Stop() {
		d.inflight.Done()
	}
}

// wait blocks until a flush already running has returned
func (d *eventDebouncer) wait() {
	d.inflight.Wait()
}

func statDir(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}
