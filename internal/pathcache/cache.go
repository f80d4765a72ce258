package pathcache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"slate/internal/logging"
)

// Namespace separates logically distinct data sources.
type Namespace string

const (
	// NamespaceDisk holds entries populated from filesystem scans.
	NamespaceDisk Namespace = "disk"
	// NamespaceTracker holds entries populated from the tracking service.
	NamespaceTracker Namespace = "tracker"
)

// Loader populates one key. Population is an ordinary blocking call; any
// timeout or retry policy belongs to the loader, not the cache.
type Loader func(ctx context.Context) (any, error)

type state int

const (
	stateEmpty state = iota
	statePopulating
	statePopulated
)

// round carries one in-flight population. Waiters read its result after
// done closes; the close happens after value and err are written.
type round struct {
	done  chan struct{}
	value any
	err   error
}

type entry struct {
	state state
	value any
	round *round
	// pendingInvalidate queues an invalidation issued mid-population; it
	// is applied when the round completes.
	pendingInvalidate bool
}

type entryKey struct {
	ns  Namespace
	key string
}

// Stats reports cache activity counters.
type Stats struct {
	Entries       int
	Hits          int
	Loads         int
	LoadErrors    int
	Invalidations int
}

// Cache is the process-lifetime path cache. All mutation goes through
// Obtain and Invalidate; it is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[entryKey]*entry
	stats   Stats
	logger  *slog.Logger
	debug   bool
}

// Option configures cache construction.
type Option func(*Cache)

// WithDebug makes stale-entry assertions fatal.
func WithDebug(debug bool) Option {
	return func(c *Cache) { c.debug = debug }
}

// New constructs an empty cache.
func New(logger *slog.Logger, opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[entryKey]*entry),
		logger:  logging.NewComponentLogger(logger, "pathcache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Obtain returns the cached value for key, populating it via load when the
// key is empty or force is set. Concurrent obtains for the same unpopulated
// key share a single loader invocation and all observe its value or error.
// A force obtain arriving while another round is in flight waits for that
// round to finish and then begins a fresh one of its own. A failed load
// leaves the key empty; the error is not cached.
func (c *Cache) Obtain(ctx context.Context, ns Namespace, key string, force bool, load Loader) (any, error) {
	k := entryKey{ns: ns, key: normKey(key)}
	for {
		c.mu.Lock()
		e, ok := c.entries[k]
		if !ok {
			e = &entry{}
			c.entries[k] = e
		}

		switch e.state {
		case statePopulated:
			if e.pendingInvalidate {
				// A populated entry can never carry a queued
				// invalidation; that transition clears on completion.
				c.mu.Unlock()
				if c.debug {
					panic(&StaleCacheError{Namespace: ns, Key: k.key})
				}
				return nil, &StaleCacheError{Namespace: ns, Key: k.key}
			}
			if !force {
				value := e.value
				c.stats.Hits++
				c.mu.Unlock()
				return value, nil
			}
			r := c.beginRound(e)
			c.mu.Unlock()
			return c.populate(ctx, k, e, r, load)

		case statePopulating:
			r := e.round
			c.mu.Unlock()
			select {
			case <-r.done:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			if force {
				// The shared round predates this call; go around and
				// begin a fresh one.
				continue
			}
			if r.err != nil {
				return nil, r.err
			}
			return r.value, nil

		default: // stateEmpty
			r := c.beginRound(e)
			c.mu.Unlock()
			return c.populate(ctx, k, e, r, load)
		}
	}
}

func (c *Cache) beginRound(e *entry) *round {
	e.state = statePopulating
	e.round = &round{done: make(chan struct{})}
	return e.round
}

func (c *Cache) populate(ctx context.Context, k entryKey, e *entry, r *round, load Loader) (any, error) {
	value, err := load(ctx)

	c.mu.Lock()
	r.value, r.err = value, err
	c.stats.Loads++
	switch {
	case err != nil:
		// A failed round leaves the key empty, which already satisfies
		// any invalidation queued while it ran.
		e.state = stateEmpty
		e.value = nil
		e.pendingInvalidate = false
		c.stats.LoadErrors++
		c.logger.Debug("population failed",
			logging.String(logging.FieldCacheNS, string(k.ns)),
			logging.String(logging.FieldCacheKey, k.key),
			logging.Error(err))
	case e.pendingInvalidate:
		// Invalidated mid-population: deliver the value to this round's
		// waiters but leave the entry empty for the next obtain.
		e.state = stateEmpty
		e.value = nil
		e.pendingInvalidate = false
	default:
		e.state = statePopulated
		e.value = value
	}
	e.round = nil
	close(r.done)
	c.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return value, nil
}

// Invalidate empties the key and, when cascade is set, every cached key
// nested under it within the same namespace. Keys currently populating are
// queued and emptied when their round completes.
func (c *Cache) Invalidate(ns Namespace, key string, cascade bool) {
	k := normKey(key)
	prefix := k + "/"

	c.mu.Lock()
	defer c.mu.Unlock()
	for ek, e := range c.entries {
		if ek.ns != ns {
			continue
		}
		if ek.key != k && !(cascade && strings.HasPrefix(ek.key, prefix)) {
			continue
		}
		c.stats.Invalidations++
		if e.state == statePopulating {
			e.pendingInvalidate = true
			continue
		}
		delete(c.entries, ek)
	}
}

// Clear empties every entry in the namespace.
func (c *Cache) Clear(ns Namespace) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for ek, e := range c.entries {
		if ek.ns != ns {
			continue
		}
		c.stats.Invalidations++
		if e.state == statePopulating {
			e.pendingInvalidate = true
			continue
		}
		delete(c.entries, ek)
	}
}

// Stats returns a snapshot of cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	stats := c.stats
	stats.Entries = len(c.entries)
	return stats
}

func normKey(key string) string {
	if len(key) > 1 {
		key = strings.TrimRight(key, "/")
	}
	return key
}

// Obtain is the typed wrapper around Cache.Obtain.
func Obtain[T any](ctx context.Context, c *Cache, ns Namespace, key string, force bool, load func(context.Context) (T, error)) (T, error) {
	value, err := c.Obtain(ctx, ns, key, force, func(ctx context.Context) (any, error) {
		return load(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := value.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache entry %s:%s holds %T, not %T", ns, key, value, zero)
	}
	return typed, nil
}
