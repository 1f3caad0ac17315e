// Package watch ingests measurement files dropped into a directory.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"go-measure-pipeline/internal/errors"
	"go-measure-pipeline/internal/logger"
)

// HandleFunc processes one settled file
type HandleFunc func(ctx context.Context, path string) error

// DirWatcher calls a handler once a matching file has stopped changing for the
// settle period. Each file has its own timer, so a busy file never delays another.
type DirWatcher struct {
	dir     string
	pattern string
	settle  time.Duration
	handle  HandleFunc
	log     *zap.SugaredLogger

	watcher *fsnotify.Watcher
	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
	wg      sync.WaitGroup
}

// New creates a watcher on dir. pattern is a filepath.Match glob on the base name.
func New(dir, pattern string, settle time.Duration, handle HandleFunc, log *zap.SugaredLogger) (*DirWatcher, error) {
	if _, err := filepath.Match(pattern, "x"); err != nil {
		return nil, errors.Wrapf(err, "invalid watch pattern %q", pattern)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, errors.Wrapf(err, "failed to watch %s", dir)
	}

	return &DirWatcher{
		dir:     dir,
		pattern: pattern,
		settle:  settle,
		handle:  handle,
		log:     logger.Or(log).With("component", "watch"),
		watcher: watcher,
		timers:  make(map[string]*time.Timer),
	}, nil
}

// Run processes events until ctx is done, then waits for in-flight handlers
func (w *DirWatcher) Run(ctx context.Context) error {
	defer w.stop()
	w.log.Infow("Watching directory", "dir", w.dir, "pattern", w.pattern, "settle", w.settle)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if matched, _ := filepath.Match(w.pattern, filepath.Base(event.Name)); !matched {
				continue
			}
			w.log.Debugw("File changed", "file", event.Name, "op", event.Op.String())
			w.schedule(ctx, event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warnw("Watcher error", "error", err)
		}
	}
}

// schedule restarts the settle timer for path
func (w *DirWatcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if prev, ok := w.timers[path]; ok {
		prev.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(w.settle, func() { w.fire(ctx, path, t) })
	w.timers[path] = t
}

// fire handles path unless t was stopped or replaced by a later schedule
func (w *DirWatcher) fire(ctx context.Context, path string, t *time.Timer) {
	w.mu.Lock()
	if w.stopped || w.timers[path] != t {
		w.mu.Unlock()
		return
	}
	delete(w.timers, path)
	w.wg.Add(1)
	w.mu.Unlock()
	defer w.wg.Done()

	if ctx.Err() != nil {
		return
	}
	if err := w.handle(ctx, path); err != nil {
		w.log.Errorw("Failed to process file", "file", path, "error", err)
	}
}

func (w *DirWatcher) stop() {
	w.mu.Lock()
	w.stopped = true
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
	w.watcher.Close()
}
