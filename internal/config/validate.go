package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. It runs at load so that
// template and token problems surface before first use.
func (p *Project) Validate() error {
	if err := p.validateTemplates(); err != nil {
		return err
	}
	if err := p.validateTokens(); err != nil {
		return err
	}
	if err := p.validateTasks(); err != nil {
		return err
	}
	if err := p.validateTracker(); err != nil {
		return err
	}
	return p.validateLog()
}

func (p *Project) validateTemplates() error {
	if len(p.Templates) == 0 {
		return errors.New("templates must declare at least one pattern")
	}
	seen := make(map[string]struct{}, len(p.Templates))
	for _, tmpl := range p.Templates {
		if tmpl.Name == "" {
			return errors.New("templates entry missing name")
		}
		if tmpl.Pattern == "" {
			return fmt.Errorf("template %q has an empty pattern", tmpl.Name)
		}
		if _, dup := seen[tmpl.Name]; dup {
			return fmt.Errorf("template %q declared more than once", tmpl.Name)
		}
		seen[tmpl.Name] = struct{}{}
		if strings.Count(tmpl.Pattern, "[") != strings.Count(tmpl.Pattern, "]") {
			return fmt.Errorf("template %q has unbalanced optional brackets", tmpl.Name)
		}
	}
	return nil
}

func (p *Project) validateTokens() error {
	for name, rule := range p.Tokens {
		if name == "" {
			return errors.New("tokens entry missing name")
		}
		if rule.Len < 0 {
			return fmt.Errorf("token %q has negative len", name)
		}
		if rule.Default != "" && rule.IsDigit && !isDigits(rule.Default) {
			return fmt.Errorf("token %q default %q is not numeric", name, rule.Default)
		}
		if rule.Default != "" && rule.Len > 0 && len(rule.Default) != rule.Len {
			return fmt.Errorf("token %q default %q does not match len %d", name, rule.Default, rule.Len)
		}
	}
	return nil
}

func (p *Project) validateTasks() error {
	for profile, tasks := range p.Tasks {
		if profile != "asset" && profile != "shot" {
			return fmt.Errorf("tasks profile %q must be asset or shot", profile)
		}
		for _, task := range tasks {
			if strings.TrimSpace(task) == "" {
				return fmt.Errorf("tasks.%s contains an empty task name", profile)
			}
		}
	}
	return nil
}

func (p *Project) validateTracker() error {
	if !p.Tracker.Enabled {
		return nil
	}
	if p.Tracker.URL == "" {
		return errors.New("tracker.url must be set when the tracker is enabled")
	}
	if p.Tracker.APIKey == "" {
		return errors.New("tracker.api_key must be set when the tracker is enabled")
	}
	return nil
}

func (p *Project) validateLog() error {
	switch p.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", p.Log.Format)
	}
	switch p.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", p.Log.Level)
	}
	return nil
}

func isDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
