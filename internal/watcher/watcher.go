package watcher

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"slate/internal/logging"
	"slate/internal/pathcache"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher evicts disk cache entries when watched directories change.
type Watcher struct {
	fsw      *fsnotify.Watcher
	cache    *pathcache.Cache
	logger   *slog.Logger
	debounce time.Duration

	mu      sync.Mutex
	roots   []string
	pending map[string]bool
	timer   *time.Timer

	onFlush func(keys []string)
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before pending changes are applied.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithFlushFunc registers a callback invoked with the evicted keys after
// each pass.
func WithFlushFunc(fn func(keys []string)) Option {
	return func(w *Watcher) { w.onFlush = fn }
}

// New creates a watcher feeding invalidations into cache. Call Run to
// start processing and Close to release the inotify handles.
func New(cache *pathcache.Cache, logger *slog.Logger, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fsw:      fsw,
		cache:    cache,
		logger:   logging.NewComponentLogger(logger, "watcher"),
		debounce: defaultDebounce,
		pending:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Watch registers a single directory.
func (w *Watcher) Watch(dir string) error {
	if err := w.fsw.Add(dir); err != nil {
		return err
	}
	w.addRoot(dir)
	return nil
}

// WatchTree registers root and every directory below it. Hidden
// directories are skipped; pipeline paths never contain them.
func (w *Watcher) WatchTree(root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
	if err != nil {
		return err
	}
	w.addRoot(root)
	return nil
}

func (w *Watcher) addRoot(dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, r := range w.roots {
		if r == dir {
			return
		}
	}
	w.roots = append(w.roots, dir)
}

// Run processes events until ctx is cancelled or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", logging.Error(err))
		}
	}
}

// Close stops the watcher and releases its handles.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.fsw.Close()
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}

	// New directories must be watched before anything lands in them.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.fsw.Add(event.Name); err != nil {
				w.logger.Warn("watch new directory",
					logging.String(logging.FieldPath, event.Name),
					logging.Error(err))
			}
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	dir := filepath.Dir(event.Name)
	// Listings keyed below a removed path are gone with it.
	if event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
		w.pending[event.Name] = true
	}
	w.mark(dir)
	for cur := filepath.Dir(dir); w.underRootLocked(cur); {
		w.mark(cur)
		next := filepath.Dir(cur)
		if next == cur {
			break
		}
		cur = next
	}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

// mark queues a key without downgrading an existing cascade.
func (w *Watcher) mark(key string) {
	if _, ok := w.pending[key]; !ok {
		w.pending[key] = false
	}
}

// underRootLocked reports whether path sits at or below a watch root.
func (w *Watcher) underRootLocked(path string) bool {
	for _, r := range w.roots {
		if path == r || strings.HasPrefix(path, r+"/") {
			return true
		}
	}
	return false
}

func (w *Watcher) flush() {
	w.mu.Lock()
	pending := w.pending
	w.pending = make(map[string]bool)
	onFlush := w.onFlush
	w.mu.Unlock()

	if len(pending) == 0 {
		return
	}

	keys := make([]string, 0, len(pending))
	for key, cascade := range pending {
		w.cache.Invalidate(pathcache.NamespaceDisk, key, cascade)
		keys = append(keys, key)
	}
	w.logger.Debug("evicted changed paths", logging.Int("keys", len(keys)))

	if onFlush != nil {
		onFlush(keys)
	}
}
