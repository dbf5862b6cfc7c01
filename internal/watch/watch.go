// Package watch processes search response files as they appear in a
// directory.
package watch

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultSettleDelay is how long a file must stay unchanged before it is handled.
const DefaultSettleDelay = 500 * time.Millisecond

// Handler is called once per settled file.
type Handler func(ctx context.Context, path string) error

// Options configures a Watcher.
type Options struct {
	SettleDelay time.Duration
	// Extensions limits handled files by suffix. Empty means ".xml".
	Extensions []string
}

// Watcher debounces writes to files in one directory and hands each
// settled file to a Handler.
type Watcher struct {
	opts    Options
	mu      sync.Mutex
	pending map[string]*time.Timer
	ready   chan string
}

// New creates a Watcher.
func New(opts Options) *Watcher {
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = []string{".xml"}
	}
	return &Watcher{
		opts:    opts,
		pending: make(map[string]*time.Timer),
		ready:   make(chan string, 64),
	}
}

// Run watches dir until ctx is done. Handler errors are logged and do not
// stop the watch.
func (w *Watcher) Run(ctx context.Context, dir string, handle Handler) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return eris.Wrap(err, "watch: create watcher")
	}
	defer fw.Close() //nolint:errcheck

	if err := fw.Add(dir); err != nil {
		return eris.Wrapf(err, "watch: add %s", dir)
	}
	defer w.stopPending()

	log := zap.L().With(zap.String("dir", dir))
	log.Info("watching for search responses")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 && w.matches(event.Name) {
				w.settle(event.Name)
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				w.cancel(event.Name)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", zap.Error(err))
		case path := <-w.ready:
			if err := handle(ctx, path); err != nil {
				log.Error("handle file failed", zap.String("path", path), zap.Error(err))
			}
		}
	}
}

func (w *Watcher) matches(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.opts.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// settle restarts the quiet-period timer for path.
func (w *Watcher) settle(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(w.opts.SettleDelay, func() { w.fire(path, t) })
	w.pending[path] = t
}

// fire queues path unless t was replaced by a later settle while this
// callback waited for the lock.
func (w *Watcher) fire(path string, t *time.Timer) {
	w.mu.Lock()
	if w.pending[path] != t {
		w.mu.Unlock()
		return
	}
	delete(w.pending, path)
	w.mu.Unlock()
	w.ready <- path
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}
