// Package pathcache keeps an in-memory mirror of resolved pipeline state,
// keyed by absolute path (or logical id) within a namespace.
//
// Each key moves through Empty -> Populating -> Populated, and back to
// Empty on invalidation. At most one population runs per key: concurrent
// obtains for an unpopulated key wait for the in-flight loader rather than
// issuing duplicate disk or service reads, and every waiter of a round
// observes that round's value or error. Loader failures are never cached.
//
// Disk-derived and tracker-derived data live in separate namespaces so an
// invalidation of one source never silently serves the other's entry.
//
// Invalidation ordering: an invalidation issued while a key is populating
// is queued and applied when the population completes. The in-flight round
// still delivers its value to its waiters; the entry then starts empty for
// the next obtain.
package pathcache
