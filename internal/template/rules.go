package template

import (
	"fmt"
	"regexp"
	"strings"

	"slate/internal/config"
)

// Rule constrains the values a token may take. The zero Rule accepts any
// value without a directory separator.
type Rule struct {
	// Require lists substrings the value must contain.
	Require []string
	// Deny lists substrings the value must not contain.
	Deny []string
	// Len fixes the value width when non-zero.
	Len int
	// IsDigit requires a purely numeric value.
	IsDigit bool
	// Default is substituted when the token is absent at render time.
	Default string
	// Path allows the value to span directory separators.
	Path bool
}

// RuleFromConfig converts a declarative token rule into its compiled form.
// The filter string is space-separated substring terms; a "-" prefix denies.
func RuleFromConfig(rc config.TokenRule) Rule {
	rule := Rule{
		Len:     rc.Len,
		IsDigit: rc.IsDigit,
		Default: rc.Default,
		Path:    rc.Path,
	}
	for _, term := range strings.Fields(rc.Filter) {
		if rest, ok := strings.CutPrefix(term, "-"); ok {
			if rest != "" {
				rule.Deny = append(rule.Deny, rest)
			}
			continue
		}
		rule.Require = append(rule.Require, term)
	}
	return rule
}

// Validate checks a candidate value against the rule.
func (r Rule) Validate(value string) error {
	if value == "" {
		return fmt.Errorf("value is empty")
	}
	if !r.Path && strings.Contains(value, "/") {
		return fmt.Errorf("value %q contains a directory separator", value)
	}
	if r.IsDigit && !isDigits(value) {
		return fmt.Errorf("value %q is non-numeric", value)
	}
	if r.Len > 0 && len(value) != r.Len {
		return fmt.Errorf("value %q fails len %d", value, r.Len)
	}
	for _, term := range r.Deny {
		if strings.Contains(value, term) {
			return fmt.Errorf("value %q contains denied %q", value, term)
		}
	}
	for _, term := range r.Require {
		if !strings.Contains(value, term) {
			return fmt.Errorf("value %q missing required %q", value, term)
		}
	}
	return nil
}

// expression returns the regexp fragment matching values this rule allows.
// Single-character deny terms are excluded from the character class so that
// parsing stays deterministic around literal separators; multi-character
// terms are enforced by Validate after the match.
func (r Rule) expression() string {
	if r.Path {
		return `.+`
	}
	if r.IsDigit {
		if r.Len > 0 {
			return fmt.Sprintf(`[0-9]{%d}`, r.Len)
		}
		return `[0-9]+`
	}
	excluded := "/"
	for _, term := range r.Deny {
		if len(term) == 1 {
			excluded += term
		}
	}
	class := fmt.Sprintf(`[^%s]`, regexp.QuoteMeta(excluded))
	if r.Len > 0 {
		return fmt.Sprintf(`%s{%d}`, class, r.Len)
	}
	return class + `+`
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
