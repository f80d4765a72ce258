package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"slate/internal/logging"
	"slate/internal/pathcache"
)

func newTestWatcher(t *testing.T, cache *pathcache.Cache, opts ...Option) *Watcher {
	t.Helper()
	w, err := New(cache, logging.NewNop(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		_ = w.Close()
	})
	return w
}

// prime populates a disk entry and returns a counter of loader calls.
func prime(t *testing.T, cache *pathcache.Cache, key string) *int {
	t.Helper()
	loads := 0
	load := func(context.Context) (any, error) {
		loads++
		return key, nil
	}
	if _, err := cache.Obtain(context.Background(), pathcache.NamespaceDisk, key, false, load); err != nil {
		t.Fatalf("Obtain(%s): %v", key, err)
	}
	return &loads
}

func reload(t *testing.T, cache *pathcache.Cache, key string, loads *int) {
	t.Helper()
	load := func(context.Context) (any, error) {
		*loads++
		return key, nil
	}
	if _, err := cache.Obtain(context.Background(), pathcache.NamespaceDisk, key, false, load); err != nil {
		t.Fatalf("Obtain(%s): %v", key, err)
	}
}

func TestHandleEvictsDirectoryAndAncestors(t *testing.T) {
	cache := pathcache.New(logging.NewNop())
	w := newTestWatcher(t, cache, WithDebounce(time.Hour))

	root := t.TempDir()
	hero := filepath.Join(root, "assets", "char", "hero")
	if err := os.MkdirAll(hero, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := w.Watch(root); err != nil {
		t.Fatal(err)
	}

	heroLoads := prime(t, cache, hero)
	assetsLoads := prime(t, cache, filepath.Join(root, "assets"))
	otherLoads := prime(t, cache, filepath.Join(root, "shots"))

	w.handle(fsnotify.Event{Name: filepath.Join(hero, "hero_main_v003.ma"), Op: fsnotify.Create})
	w.flush()

	reload(t, cache, hero, heroLoads)
	if *heroLoads != 2 {
		t.Errorf("event directory should be evicted, loads = %d", *heroLoads)
	}
	reload(t, cache, filepath.Join(root, "assets"), assetsLoads)
	if *assetsLoads != 2 {
		t.Errorf("ancestors under the root should be evicted, loads = %d", *assetsLoads)
	}
	reload(t, cache, filepath.Join(root, "shots"), otherLoads)
	if *otherLoads != 1 {
		t.Errorf("unrelated directories should stay cached, loads = %d", *otherLoads)
	}
}

func TestRemoveCascadesBelowRemovedPath(t *testing.T) {
	cache := pathcache.New(logging.NewNop())
	w := newTestWatcher(t, cache, WithDebounce(time.Hour))

	root := t.TempDir()
	if err := w.Watch(root); err != nil {
		t.Fatal(err)
	}

	removed := filepath.Join(root, "assets", "char", "hero")
	nested := filepath.Join(removed, "maya", "rig")
	nestedLoads := prime(t, cache, nested)

	w.handle(fsnotify.Event{Name: removed, Op: fsnotify.Remove})
	w.flush()

	reload(t, cache, nested, nestedLoads)
	if *nestedLoads != 2 {
		t.Errorf("entries below a removed path should be evicted, loads = %d", *nestedLoads)
	}
}

func TestChmodIsIgnored(t *testing.T) {
	cache := pathcache.New(logging.NewNop())
	w := newTestWatcher(t, cache, WithDebounce(time.Hour))

	w.handle(fsnotify.Event{Name: "/j/dune/assets", Op: fsnotify.Chmod})

	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) != 0 {
		t.Fatalf("pending = %v", w.pending)
	}
}

func TestCoalescesBurstIntoOnePass(t *testing.T) {
	cache := pathcache.New(logging.NewNop())
	w := newTestWatcher(t, cache, WithDebounce(time.Hour))

	root := t.TempDir()
	if err := w.Watch(root); err != nil {
		t.Fatal(err)
	}

	renders := filepath.Join(root, "publish", "render")
	for i := 0; i < 50; i++ {
		name := filepath.Join(renders, "beauty.1001.exr")
		w.handle(fsnotify.Event{Name: name, Op: fsnotify.Write})
	}

	w.mu.Lock()
	got := len(w.pending)
	w.mu.Unlock()
	// renders dir plus its two ancestors under the root.
	if got != 3 {
		t.Fatalf("pending keys = %d, want 3", got)
	}
}

func waitFlush(t *testing.T, flushed <-chan []string) []string {
	t.Helper()
	select {
	case keys := <-flushed:
		return keys
	case <-time.After(5 * time.Second):
		t.Fatal("no flush within deadline")
		return nil
	}
}

func TestWatchTreeDeliversDiskEvents(t *testing.T) {
	cache := pathcache.New(logging.NewNop())
	flushed := make(chan []string, 8)
	w := newTestWatcher(t, cache,
		WithDebounce(50*time.Millisecond),
		WithFlushFunc(func(keys []string) { flushed <- keys }))

	root := t.TempDir()
	workDir := filepath.Join(root, "assets", "char", "hero", "maya", "rig")
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := w.WatchTree(root); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	if err := os.WriteFile(filepath.Join(workDir, "hero_main_v001.ma"), []byte("scene"), 0o644); err != nil {
		t.Fatal(err)
	}

	keys := waitFlush(t, flushed)
	found := false
	for _, k := range keys {
		if k == workDir {
			found = true
		}
	}
	if !found {
		t.Fatalf("flush should cover the written directory, keys = %v", keys)
	}
}

func TestNewDirectoriesAreWatched(t *testing.T) {
	cache := pathcache.New(logging.NewNop())
	flushed := make(chan []string, 8)
	w := newTestWatcher(t, cache,
		WithDebounce(50*time.Millisecond),
		WithFlushFunc(func(keys []string) { flushed <- keys }))

	root := t.TempDir()
	if err := w.WatchTree(root); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	sub := filepath.Join(root, "assets")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	waitFlush(t, flushed)

	if err := os.WriteFile(filepath.Join(sub, "f.ma"), []byte("scene"), 0o644); err != nil {
		t.Fatal(err)
	}
	keys := waitFlush(t, flushed)
	found := false
	for _, k := range keys {
		if k == sub {
			found = true
		}
	}
	if !found {
		t.Fatalf("events inside a new directory should evict it, keys = %v", keys)
	}
}
