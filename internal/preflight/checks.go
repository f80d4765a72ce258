package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"slate/internal/config"
	"slate/internal/services/tracker"
)

// minFreeBytes is the free-space floor below which the disk check fails.
// Renders and caches routinely write tens of gigabytes per version.
const minFreeBytes = 10 << 30

// CheckDirectoryAccess verifies that the directory exists and is
// readable/writable/traversable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDiskSpace verifies the filesystem holding path has free space.
func CheckDiskSpace(name, path string) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	detail := fmt.Sprintf("%s (%.1f GiB free)", path, float64(free)/(1<<30))
	if free < minFreeBytes {
		return Result{Name: name, Detail: detail + " below 10 GiB floor"}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckTracker verifies the tracking service is reachable and the key is
// valid. Single attempt, short timeout.
func CheckTracker(ctx context.Context, cfg config.Tracker) Result {
	const name = "Tracker"

	if cfg.URL == "" {
		return Result{Name: name, Detail: "missing url"}
	}
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "missing api key"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := tracker.NewClient(cfg, nil, tracker.WithRetry(1, 0))
	if err := client.Health(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeTrackerError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckMirrorPath verifies the mirror store's directory is writable. The
// store itself is not opened; it may be locked by a running process.
func CheckMirrorPath(path string) Result {
	const name = "Mirror store"
	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", dir, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", dir)}
	}
	if err := unix.Access(dir, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", dir, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (writable)", dir)}
}

func summarizeTrackerError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (tracker unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (tracker unreachable)"
	}
	return err.Error()
}
