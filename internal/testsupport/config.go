package testsupport

import (
	"testing"

	"slate/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t   testing.TB
	cfg *config.Project
}

// NewProject produces a project config rooted at a unique temp directory per
// test. It defaults common fields and applies any provided options.
func NewProject(t testing.TB, opts ...ConfigOption) *config.Project {
	t.Helper()

	cfgVal := config.Default()
	cfgVal.JobRoot = t.TempDir()
	cfgVal.Normalize()

	builder := &configBuilder{
		t:   t,
		cfg: &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithTemplates replaces the template set on the test config.
func WithTemplates(defs ...config.TemplateDef) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Templates = defs
	}
}

// WithTokenRule sets one token rule on the test config.
func WithTokenRule(name string, rule config.TokenRule) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Tokens[name] = rule
	}
}

// WithTasks replaces the task list for one entity profile.
func WithTasks(profile string, tasks ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Tasks[profile] = tasks
	}
}

// WithSharedVersioning toggles version pooling across users.
func WithSharedVersioning(shared bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.SharedVersioning = shared
	}
}

// WithStrictParse toggles multi-template matches being an error.
func WithStrictParse(strict bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.StrictParse = strict
	}
}

// WithTracker enables the tracker client against the given URL.
func WithTracker(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Tracker.Enabled = true
		b.cfg.Tracker.URL = url
		b.cfg.Tracker.APIKey = "test"
	}
}
