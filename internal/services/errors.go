package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrExternalSource tags loader failures from disk or the tracking service.
	ErrExternalSource = errors.New("external source error")
	// ErrValidation tags bad input from callers or config.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration tags unusable configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound tags lookups with no matching record.
	ErrNotFound = errors.New("not found")
	// ErrTimeout tags deadline failures from external calls.
	ErrTimeout = errors.New("timeout")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrExternalSource
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether the failure is worth retrying under the
// collaborator's policy. Validation and configuration failures are not.
func Retryable(err error) bool {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration), errors.Is(err, ErrNotFound):
		return false
	default:
		return true
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
