package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// EnvConfigPath is the environment variable holding a config override path.
const EnvConfigPath = "SLATE_CONFIG"

// TemplateDef is a single named path pattern. Declaration order matters:
// when more than one template can parse a path, the first declared wins.
type TemplateDef struct {
	Name    string `toml:"name"`
	Pattern string `toml:"pattern"`
}

// TokenRule constrains the values a template token may take.
type TokenRule struct {
	// Filter is a space-separated list of substring terms; a term with a
	// "-" prefix denies values containing it, a plain term requires it.
	Filter string `toml:"filter"`
	// Len fixes the value width (zero-padded for digit tokens).
	Len int `toml:"len"`
	// IsDigit requires a purely numeric value.
	IsDigit bool `toml:"isdigit"`
	// Default is substituted when the token is absent at render time.
	Default string `toml:"default"`
	// Path marks tokens whose values may span directory separators.
	Path bool `toml:"path"`
}

// Defaults holds per-context fallback values.
type Defaults struct {
	// Extn maps a DCC name to its default scene file extension.
	Extn map[string]string `toml:"extn"`
}

// Pipeline holds path-model policy switches.
type Pipeline struct {
	// SharedVersioning pools version numbers across users on one task.
	SharedVersioning bool `toml:"shared_versioning"`
	// StrictParse makes multi-template matches an error instead of
	// first-declared-wins.
	StrictParse bool `toml:"strict_parse"`
}

// Tracker configures the production-tracking service client.
type Tracker struct {
	Enabled bool   `toml:"enabled"`
	URL     string `toml:"url"`
	APIKey  string `toml:"api_key"`
	// RequestTimeout is the per-call timeout in seconds.
	RequestTimeout int `toml:"request_timeout"`
	// Authoritative makes the tracker the source of entity discovery
	// instead of disk scans.
	Authoritative bool `toml:"authoritative"`
}

// Cache configures the path cache.
type Cache struct {
	// Debug makes stale-read assertions fatal.
	Debug bool `toml:"debug"`
	// StorePath enables the persistent SQLite mirror of tracker results.
	StorePath string `toml:"store_path"`
}

// Log configures logger construction.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Path   string `toml:"path"`
}

// Project is the full per-project configuration.
type Project struct {
	JobRoot   string               `toml:"job_root"`
	Templates []TemplateDef        `toml:"templates"`
	Tokens    map[string]TokenRule `toml:"tokens"`
	Defaults  Defaults             `toml:"defaults"`
	Tasks     map[string][]string  `toml:"tasks"`
	Pipeline  Pipeline             `toml:"pipeline"`
	Tracker   Tracker              `toml:"tracker"`
	Cache     Cache                `toml:"cache"`
	Log       Log                  `toml:"log"`
}

// Sample returns the embedded sample config text.
func Sample() string {
	return sampleConfig
}

// DefaultConfigPath returns the user-level config location.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "slate", "project.toml"), nil
}

// ProjectConfigPath returns the per-job config location under the job root.
func ProjectConfigPath(jobPath string) string {
	return filepath.Join(jobPath, ".slate", "project.toml")
}

// ResolvePath picks the config file to load: the explicit path if given,
// then $SLATE_CONFIG, then the per-job file, then the user-level file.
// An empty return means no file exists and built-in defaults apply.
func ResolvePath(explicit, jobPath string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env, nil
	}
	if jobPath != "" {
		candidate := ProjectConfigPath(jobPath)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	userPath, err := DefaultConfigPath()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		return userPath, nil
	}
	return "", nil
}

// Load reads the config at path, layered over built-in defaults. An empty
// path or a missing file yields the defaults; a malformed file is an error.
func Load(path string) (*Project, error) {
	cfg := Default()
	if path == "" {
		cfg.Normalize()
		return &cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg.Normalize()
			return &cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// WriteSample writes the embedded sample config to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

// TaskPriority returns the sort index of task within the given profile's
// declared task list, or a large index for unknown tasks.
func (p *Project) TaskPriority(profile, task string) int {
	tasks, ok := p.Tasks[profile]
	if !ok {
		return len(tasks) + 1000
	}
	for i, name := range tasks {
		if name == task {
			return i
		}
	}
	return len(tasks) + 1000
}

// KnownTask reports whether the task is declared for the profile. An empty
// task list accepts everything.
func (p *Project) KnownTask(profile, task string) bool {
	tasks, ok := p.Tasks[profile]
	if !ok || len(tasks) == 0 {
		return true
	}
	for _, name := range tasks {
		if name == task {
			return true
		}
	}
	return false
}
