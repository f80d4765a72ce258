package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Normalize trims whitespace, expands home-relative paths and fills blank
// fields from defaults. Called by Load before Validate.
func (p *Project) Normalize() {
	p.JobRoot = expandHome(strings.TrimSpace(p.JobRoot))
	p.Cache.StorePath = expandHome(strings.TrimSpace(p.Cache.StorePath))
	p.Log.Path = expandHome(strings.TrimSpace(p.Log.Path))

	p.Tracker.URL = strings.TrimRight(strings.TrimSpace(p.Tracker.URL), "/")
	p.Tracker.APIKey = strings.TrimSpace(p.Tracker.APIKey)
	if p.Tracker.RequestTimeout <= 0 {
		p.Tracker.RequestTimeout = defaultTrackerTimeout
	}

	p.Log.Level = strings.ToLower(strings.TrimSpace(p.Log.Level))
	if p.Log.Level == "" {
		p.Log.Level = defaultLogLevel
	}
	p.Log.Format = strings.ToLower(strings.TrimSpace(p.Log.Format))
	if p.Log.Format == "" {
		p.Log.Format = defaultLogFormat
	}

	for i, tmpl := range p.Templates {
		p.Templates[i].Name = strings.TrimSpace(tmpl.Name)
		p.Templates[i].Pattern = strings.TrimSpace(tmpl.Pattern)
	}
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return home
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
