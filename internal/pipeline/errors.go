package pipeline

import (
	"errors"
	"fmt"
)

// ErrNotAnEntity tags paths that match no entity template.
var ErrNotAnEntity = errors.New("not an entity path")

// NotAnEntityError reports a path that could not be read as an entity.
type NotAnEntityError struct {
	Path   string
	Reason string
}

func (e *NotAnEntityError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s is not an entity path", e.Path)
	}
	return fmt.Sprintf("%s is not an entity path: %s", e.Path, e.Reason)
}

func (e *NotAnEntityError) Unwrap() error { return ErrNotAnEntity }
