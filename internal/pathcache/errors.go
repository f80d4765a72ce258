package pathcache

import (
	"errors"
	"fmt"
)

// ErrStaleCache tags reads of an entry that should have been invalidated.
// Seeing it means the cache's own state machine is broken; with cache
// debugging enabled it is raised as a panic instead.
var ErrStaleCache = errors.New("stale cache entry")

// StaleCacheError reports the offending key.
type StaleCacheError struct {
	Namespace Namespace
	Key       string
}

func (e *StaleCacheError) Error() string {
	return fmt.Sprintf("stale cache entry served for %s:%s", e.Namespace, e.Key)
}

func (e *StaleCacheError) Unwrap() error { return ErrStaleCache }
