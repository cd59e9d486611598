package services_test

import (
	"errors"
	"strings"
	"testing"

	"relcut/internal/services"
)

func TestWrapTagsMarkerAndCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := services.Wrap(services.ErrTransient, "publish", "create release", "", cause)

	if !errors.Is(err, services.ErrTransient) {
		t.Error("expected the marker to survive wrapping")
	}
	if !errors.Is(err, cause) {
		t.Error("expected the cause to survive wrapping")
	}
	if !strings.Contains(err.Error(), "publish: create release") {
		t.Errorf("error = %v, want stage and operation in message", err)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "verify", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Errorf("error = %v, want ErrTransient default", err)
	}
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		marker error
		want   bool
	}{
		{services.ErrValidation, false},
		{services.ErrConfiguration, false},
		{services.ErrTransient, true},
		{services.ErrExternalTool, true},
		{services.ErrTimeout, true},
	}
	for _, tc := range cases {
		err := services.Wrap(tc.marker, "stage", "op", "", nil)
		if got := services.Retryable(err); got != tc.want {
			t.Errorf("Retryable(%v) = %v, want %v", tc.marker, got, tc.want)
		}
	}
}
