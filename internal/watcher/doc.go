// Package watcher turns filesystem change notifications into path cache
// invalidations so listings reflect files written by other processes on
// the same machine. Events are debounced and coalesced per directory
// before eviction; a burst of frame writes costs one invalidation pass.
package watcher
