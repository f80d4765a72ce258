package template

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Kind classifies what a template's rendered path points at.
type Kind int

const (
	// KindDir templates resolve to directories.
	KindDir Kind = iota
	// KindFile templates resolve to single files.
	KindFile
	// KindSequence templates resolve to frame sequences; their pattern
	// carries a %0Nd frame placeholder in place of a literal frame number.
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindSequence:
		return "sequence"
	default:
		return "dir"
	}
}

var (
	frameRe     = regexp.MustCompile(`%0\d+d`)
	tokenNameRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)
)

const maxOptionalGroups = 8

type segKind int

const (
	segLiteral segKind = iota
	segToken
	segGroup
)

type segment struct {
	kind  segKind
	text  string // literal text
	token string // token name
	group []segment
}

// variation is one concrete combination of optional-group toggles,
// compiled to a matching pattern. Parsing tries variations with the most
// tokens first so richer matches win.
type variation struct {
	segs   []segment
	tokens []string
	re     *regexp.Regexp
}

// Template is a compiled path pattern.
type Template struct {
	Name    string
	Pattern string
	Kind    Kind

	segments   []segment
	variations []*variation
	rule       func(string) Rule
}

// Compile parses a pattern into its segment tree and match variations.
// The lookup function supplies the rule for each token; it must return the
// zero Rule for unknown tokens.
func Compile(name, pattern string, lookup func(string) Rule) (*Template, error) {
	if lookup == nil {
		lookup = func(string) Rule { return Rule{} }
	}
	segs, err := parseSegments(pattern, false)
	if err != nil {
		return nil, fmt.Errorf("template %q: %w", name, err)
	}

	t := &Template{
		Name:     name,
		Pattern:  pattern,
		Kind:     classify(pattern),
		segments: segs,
		rule:     lookup,
	}
	if err := t.compileVariations(); err != nil {
		return nil, fmt.Errorf("template %q: %w", name, err)
	}
	return t, nil
}

// Tokens returns the token names referenced by the pattern, in order of
// first appearance, optional-group tokens included.
func (t *Template) Tokens() []string {
	var names []string
	seen := map[string]struct{}{}
	var walk func(segs []segment)
	walk = func(segs []segment) {
		for _, seg := range segs {
			switch seg.kind {
			case segToken:
				if _, ok := seen[seg.token]; !ok {
					seen[seg.token] = struct{}{}
					names = append(names, seg.token)
				}
			case segGroup:
				walk(seg.group)
			}
		}
	}
	walk(t.segments)
	return names
}

// IsSequence reports whether the template addresses a frame sequence.
func (t *Template) IsSequence() bool { return t.Kind == KindSequence }

// Render substitutes token values into the pattern. Required tokens fall
// back to their rule default when absent; optional groups are included only
// when every token inside was explicitly supplied and valid.
func (t *Template) Render(data map[string]string) (string, error) {
	var b strings.Builder
	for _, seg := range t.segments {
		switch seg.kind {
		case segLiteral:
			b.WriteString(seg.text)
		case segToken:
			value, err := t.resolve(seg.token, data, true)
			if err != nil {
				return "", err
			}
			b.WriteString(value)
		case segGroup:
			text, ok := t.renderGroup(seg.group, data)
			if ok {
				b.WriteString(text)
			}
		}
	}
	return NormPath(b.String()), nil
}

// renderGroup renders an optional group, reporting false when the group
// must be elided because a token is absent or invalid.
func (t *Template) renderGroup(segs []segment, data map[string]string) (string, bool) {
	var b strings.Builder
	for _, seg := range segs {
		switch seg.kind {
		case segLiteral:
			b.WriteString(seg.text)
		case segToken:
			value, err := t.resolve(seg.token, data, false)
			if err != nil {
				return "", false
			}
			b.WriteString(value)
		}
	}
	return b.String(), true
}

// resolve produces the final value for one token. Defaults apply only to
// required tokens; a supplied-but-invalid value is never rescued by the
// default.
func (t *Template) resolve(token string, data map[string]string, allowDefault bool) (string, error) {
	rule := t.rule(token)
	value, supplied := data[token]
	if !supplied || value == "" {
		if !allowDefault || rule.Default == "" {
			return "", &UnresolvedTokenError{
				Template: t.Name, Token: token, Reason: "missing value",
			}
		}
		value = rule.Default
	}
	value = rule.pad(value)
	if err := rule.Validate(value); err != nil {
		return "", &UnresolvedTokenError{
			Template: t.Name, Token: token, Value: value, Reason: err.Error(),
		}
	}
	return value, nil
}

// Parse extracts token values from a path. Variations with more tokens are
// tried first; a successful match must validate every token rule and
// re-render to the input path.
func (t *Template) Parse(p string) (map[string]string, error) {
	normed := NormPath(p)
	for _, v := range t.variations {
		data, ok := v.match(normed)
		if !ok {
			continue
		}
		if !t.validData(data) {
			continue
		}
		// Remap check: the tokens must reproduce the path exactly.
		if v.render(data) != normed {
			continue
		}
		return data, nil
	}
	return nil, &PathMismatchError{Path: normed, Templates: []string{t.Name}}
}

func (t *Template) validData(data map[string]string) bool {
	for token, value := range data {
		if err := t.rule(token).Validate(value); err != nil {
			return false
		}
	}
	return true
}

func (v *variation) match(p string) (map[string]string, bool) {
	m := v.re.FindStringSubmatch(p)
	if m == nil {
		return nil, false
	}
	data := make(map[string]string, len(v.tokens))
	for i, token := range v.tokens {
		value := m[i+1]
		if prev, seen := data[token]; seen && prev != value {
			return nil, false
		}
		data[token] = value
	}
	return data, true
}

func (v *variation) render(data map[string]string) string {
	var b strings.Builder
	for _, seg := range v.segs {
		if seg.kind == segLiteral {
			b.WriteString(seg.text)
			continue
		}
		b.WriteString(data[seg.token])
	}
	return b.String()
}

func (t *Template) compileVariations() error {
	var groups int
	for _, seg := range t.segments {
		if seg.kind == segGroup {
			groups++
		}
	}
	if groups > maxOptionalGroups {
		return fmt.Errorf("too many optional groups (%d)", groups)
	}

	for mask := 0; mask < 1<<groups; mask++ {
		var segs []segment
		groupIdx := 0
		for _, seg := range t.segments {
			switch seg.kind {
			case segGroup:
				if mask&(1<<groupIdx) != 0 {
					segs = append(segs, seg.group...)
				}
				groupIdx++
			default:
				segs = append(segs, seg)
			}
		}
		v, err := t.compileVariation(segs)
		if err != nil {
			return err
		}
		t.variations = append(t.variations, v)
	}

	// Richest variations match first.
	sort.SliceStable(t.variations, func(i, j int) bool {
		return len(t.variations[i].tokens) > len(t.variations[j].tokens)
	})
	return nil
}

func (t *Template) compileVariation(segs []segment) (*variation, error) {
	var expr strings.Builder
	expr.WriteString("^")
	v := &variation{segs: segs}
	for _, seg := range segs {
		if seg.kind == segLiteral {
			expr.WriteString(regexp.QuoteMeta(seg.text))
			continue
		}
		v.tokens = append(v.tokens, seg.token)
		expr.WriteString("(")
		expr.WriteString(t.rule(seg.token).expression())
		expr.WriteString(")")
	}
	expr.WriteString("$")

	re, err := regexp.Compile(expr.String())
	if err != nil {
		return nil, fmt.Errorf("compile pattern: %w", err)
	}
	v.re = re
	return v, nil
}

// pad zero-fills digit tokens up to the rule's fixed width so that callers
// may pass unpadded version numbers.
func (r Rule) pad(value string) string {
	if !r.IsDigit || r.Len <= 0 {
		return value
	}
	if !isDigits(value) || len(value) >= r.Len {
		return value
	}
	return strings.Repeat("0", r.Len-len(value)) + value
}

func parseSegments(pattern string, inGroup bool) ([]segment, error) {
	var segs []segment
	var literal strings.Builder

	flush := func() {
		if literal.Len() > 0 {
			segs = append(segs, segment{kind: segLiteral, text: literal.String()})
			literal.Reset()
		}
	}

	i := 0
	for i < len(pattern) {
		switch pattern[i] {
		case '{':
			end := strings.IndexByte(pattern[i:], '}')
			if end < 0 {
				return nil, fmt.Errorf("unterminated token at byte %d", i)
			}
			name := pattern[i+1 : i+end]
			if !tokenNameRe.MatchString(name) {
				return nil, fmt.Errorf("invalid token name %q", name)
			}
			flush()
			segs = append(segs, segment{kind: segToken, token: name})
			i += end + 1
		case '}':
			return nil, fmt.Errorf("unmatched '}' at byte %d", i)
		case '[':
			if inGroup {
				return nil, fmt.Errorf("nested optional group at byte %d", i)
			}
			end := strings.IndexByte(pattern[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("unterminated optional group at byte %d", i)
			}
			inner, err := parseSegments(pattern[i+1:i+end], true)
			if err != nil {
				return nil, err
			}
			if len(inner) == 0 {
				return nil, fmt.Errorf("empty optional group at byte %d", i)
			}
			hasToken := false
			for _, seg := range inner {
				if seg.kind == segToken {
					hasToken = true
				}
			}
			if !hasToken {
				return nil, fmt.Errorf("optional group at byte %d has no tokens", i)
			}
			flush()
			segs = append(segs, segment{kind: segGroup, group: inner})
			i += end + 1
		case ']':
			return nil, fmt.Errorf("unmatched ']' at byte %d", i)
		default:
			literal.WriteByte(pattern[i])
			i++
		}
	}
	flush()
	return segs, nil
}

func classify(pattern string) Kind {
	if frameRe.MatchString(pattern) {
		return KindSequence
	}
	stripped := strings.NewReplacer("[", "", "]", "").Replace(pattern)
	if strings.Contains(path.Base(stripped), ".") {
		return KindFile
	}
	return KindDir
}

// NormPath normalizes a path for template matching: forward slashes, NFC
// Unicode form, redundant separators collapsed.
func NormPath(p string) string {
	if p == "" {
		return p
	}
	p = strings.ReplaceAll(p, "\\", "/")
	p = norm.NFC.String(p)
	cleaned := path.Clean(p)
	if cleaned == "." {
		return ""
	}
	return cleaned
}
