package template

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnresolvedToken matches any render-time token failure.
var ErrUnresolvedToken = errors.New("unresolved token")

// ErrPathMismatch matches any parse-time failure to match a template.
var ErrPathMismatch = errors.New("path mismatch")

// ErrAmbiguousTemplate matches strict-mode multi-template parse results.
var ErrAmbiguousTemplate = errors.New("ambiguous template")

// UnresolvedTokenError reports a missing or invalid token at render time.
type UnresolvedTokenError struct {
	Template string
	Token    string
	Value    string
	Reason   string
}

func (e *UnresolvedTokenError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("template %q: token %q: %s", e.Template, e.Token, e.Reason)
	}
	return fmt.Sprintf("template %q: token %q as %q: %s", e.Template, e.Token, e.Value, e.Reason)
}

func (e *UnresolvedTokenError) Unwrap() error { return ErrUnresolvedToken }

// PathMismatchError reports that no template variant matched a path.
type PathMismatchError struct {
	Path      string
	Templates []string
}

func (e *PathMismatchError) Error() string {
	if len(e.Templates) == 1 {
		return fmt.Sprintf("path %q does not match template %q", e.Path, e.Templates[0])
	}
	return fmt.Sprintf("path %q does not match any template (tried %s)",
		e.Path, strings.Join(e.Templates, ", "))
}

func (e *PathMismatchError) Unwrap() error { return ErrPathMismatch }

// AmbiguousTemplateError reports that strict parsing matched more than one
// template for the same path.
type AmbiguousTemplateError struct {
	Path      string
	Templates []string
}

func (e *AmbiguousTemplateError) Error() string {
	return fmt.Sprintf("path %q matches multiple templates: %s",
		e.Path, strings.Join(e.Templates, ", "))
}

func (e *AmbiguousTemplateError) Unwrap() error { return ErrAmbiguousTemplate }
