package template

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"slate/internal/config"
	"slate/internal/logging"
)

var tokenRefRe = regexp.MustCompile(`\{([a-zA-Z][a-zA-Z0-9_]*)\}`)

// Match is a successful parse: the template that matched and its tokens.
type Match struct {
	Template *Template
	Data     map[string]string
}

// Engine holds every compiled template and token rule for one project.
// Construction happens once at config load; the engine is read-only
// afterwards and safe for concurrent use.
type Engine struct {
	templates []*Template
	byName    map[string]*Template
	rules     map[string]Rule
	strict    bool
	logger    *slog.Logger
}

// NewEngine compiles the project's templates. Patterns referencing other
// template names ({work_dir} inside work) are inlined first; reference
// cycles are a load error.
func NewEngine(cfg *config.Project, logger *slog.Logger) (*Engine, error) {
	e := &Engine{
		byName: make(map[string]*Template, len(cfg.Templates)),
		rules:  make(map[string]Rule, len(cfg.Tokens)),
		strict: cfg.Pipeline.StrictParse,
		logger: logging.NewComponentLogger(logger, "template"),
	}
	for name, rc := range cfg.Tokens {
		e.rules[name] = RuleFromConfig(rc)
	}

	patterns := make(map[string]string, len(cfg.Templates))
	for _, def := range cfg.Templates {
		patterns[def.Name] = def.Pattern
	}

	lookup := func(token string) Rule { return e.rules[token] }
	for _, def := range cfg.Templates {
		expanded, err := expandRefs(def.Name, patterns, nil)
		if err != nil {
			return nil, err
		}
		tmpl, err := Compile(def.Name, expanded, lookup)
		if err != nil {
			return nil, err
		}
		e.templates = append(e.templates, tmpl)
		e.byName[def.Name] = tmpl
	}

	e.logger.Debug("engine compiled",
		logging.Int("templates", len(e.templates)),
		logging.Int("rules", len(e.rules)))
	return e, nil
}

// expandRefs inlines template-name references within a pattern.
func expandRefs(name string, patterns map[string]string, stack []string) (string, error) {
	for _, seen := range stack {
		if seen == name {
			return "", fmt.Errorf("template %q: reference cycle via %s",
				stack[0], strings.Join(append(stack, name), " -> "))
		}
	}
	stack = append(stack, name)

	pattern := patterns[name]
	var b strings.Builder
	last := 0
	for _, loc := range tokenRefRe.FindAllStringSubmatchIndex(pattern, -1) {
		ref := pattern[loc[2]:loc[3]]
		if ref == name {
			return "", fmt.Errorf("template %q references itself", name)
		}
		if _, isTemplate := patterns[ref]; !isTemplate {
			continue
		}
		inner, err := expandRefs(ref, patterns, stack)
		if err != nil {
			return "", err
		}
		b.WriteString(pattern[last:loc[0]])
		b.WriteString(inner)
		last = loc[1]
	}
	b.WriteString(pattern[last:])
	return b.String(), nil
}

// Template returns the compiled template with the given name.
func (e *Engine) Template(name string) (*Template, bool) {
	tmpl, ok := e.byName[name]
	return tmpl, ok
}

// Templates returns every template in declared order.
func (e *Engine) Templates() []*Template {
	out := make([]*Template, len(e.templates))
	copy(out, e.templates)
	return out
}

// Rule returns the rule for a token, or the zero Rule when undeclared.
func (e *Engine) Rule(token string) Rule {
	return e.rules[token]
}

// Render resolves the named template against the supplied token values.
func (e *Engine) Render(name string, data map[string]string) (string, error) {
	tmpl, ok := e.byName[name]
	if !ok {
		return "", fmt.Errorf("unknown template %q", name)
	}
	return tmpl.Render(data)
}

// Parse matches a path against templates in declared order and returns the
// first success. When names are given only those templates are tried. In
// strict mode every candidate is tried and more than one match is an
// AmbiguousTemplateError.
func (e *Engine) Parse(path string, names ...string) (*Match, error) {
	candidates := e.templates
	if len(names) > 0 {
		candidates = make([]*Template, 0, len(names))
		for _, name := range names {
			tmpl, ok := e.byName[name]
			if !ok {
				return nil, fmt.Errorf("unknown template %q", name)
			}
			candidates = append(candidates, tmpl)
		}
	}

	tried := make([]string, 0, len(candidates))
	var matches []*Match
	for _, tmpl := range candidates {
		tried = append(tried, tmpl.Name)
		data, err := tmpl.Parse(path)
		if err != nil {
			continue
		}
		match := &Match{Template: tmpl, Data: data}
		if !e.strict {
			return match, nil
		}
		matches = append(matches, match)
	}

	switch len(matches) {
	case 0:
		return nil, &PathMismatchError{Path: NormPath(path), Templates: tried}
	case 1:
		return matches[0], nil
	default:
		names := make([]string, 0, len(matches))
		for _, m := range matches {
			names = append(names, m.Template.Name)
		}
		return nil, &AmbiguousTemplateError{Path: NormPath(path), Templates: names}
	}
}

// VerPadding returns the configured width of the ver token (default 3).
func (e *Engine) VerPadding() int {
	if rule, ok := e.rules["ver"]; ok && rule.Len > 0 {
		return rule.Len
	}
	return 3
}

// PadVersion renders a version number at the project's fixed width.
func (e *Engine) PadVersion(ver int) string {
	return fmt.Sprintf("%0*d", e.VerPadding(), ver)
}

// ParseVersion converts a zero-padded version string to its number.
func ParseVersion(value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("version %q is not numeric", value)
	}
	return n, nil
}
