package services

import (
	"errors"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("connection refused")
	err := Wrap(ErrExternalSource, "tracker", "find entities", "job dune", base)

	if !errors.Is(err, ErrExternalSource) {
		t.Error("expected error to match ErrExternalSource")
	}
	if !errors.Is(err, base) {
		t.Error("expected error to wrap the original cause")
	}
	want := "external source error: tracker: find entities: job dune: connection refused"
	if err.Error() != want {
		t.Errorf("unexpected message: got %q want %q", err.Error(), want)
	}
}

func TestWrapNilMarkerDefaults(t *testing.T) {
	err := Wrap(nil, "disk", "scan", "", nil)
	if !errors.Is(err, ErrExternalSource) {
		t.Error("nil marker should default to ErrExternalSource")
	}
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{Wrap(ErrValidation, "template", "render", "bad token", nil), false},
		{Wrap(ErrConfiguration, "config", "load", "", nil), false},
		{Wrap(ErrNotFound, "tracker", "find tasks", "", nil), false},
		{Wrap(ErrExternalSource, "disk", "scan", "", nil), true},
		{Wrap(ErrTimeout, "tracker", "find entities", "", nil), true},
	}
	for _, tc := range cases {
		if got := Retryable(tc.err); got != tc.want {
			t.Errorf("Retryable(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
