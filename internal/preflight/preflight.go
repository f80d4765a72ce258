package preflight

import (
	"context"

	"slate/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable checks for the given config. Checks are
// only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Project) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Job root", cfg.JobRoot))
	results = append(results, CheckDiskSpace("Job root disk space", cfg.JobRoot))

	if cfg.Tracker.Enabled {
		results = append(results, CheckTracker(ctx, cfg.Tracker))
	}
	if cfg.Cache.StorePath != "" {
		results = append(results, CheckMirrorPath(cfg.Cache.StorePath))
	}

	return results
}

// Passed reports whether every result passed.
func Passed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
