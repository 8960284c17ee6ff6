package ontap_test

import (
	"testing"

	"github.com/AndreyAkinshin/ontap/internal/errors"
	"github.com/AndreyAkinshin/ontap/pkg/ontap"
)

// TestExitCodeValues verifies that exit code constants have the documented values.
func TestExitCodeValues(t *testing.T) {
	tests := []struct {
		name     string
		constant int
		expected int
	}{
		{"ExitSuccess", ontap.ExitSuccess, 0},
		{"ExitFailure", ontap.ExitFailure, 1},
		{"ExitConfigError", ontap.ExitConfigError, 2},
		{"ExitInvalidStream", ontap.ExitInvalidStream, 2},
		{"ExitEnvError", ontap.ExitEnvError, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.constant != tt.expected {
				t.Errorf("ontap.%s = %d, want %d", tt.name, tt.constant, tt.expected)
			}
		})
	}
}

// TestExitCodesFromErrors verifies that errors map onto the public codes.
func TestExitCodesFromErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ontap.ExitSuccess},
		{"config", errors.Config("bad format"), ontap.ExitConfigError},
		{"validation", errors.Validation("bad stream", nil), ontap.ExitInvalidStream},
		{"environment", errors.Environment("no cwd"), ontap.ExitEnvError},
		{"protocol", errors.Protocol("start", "twice"), ontap.ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.GetExitCode(tt.err); got != tt.want {
				t.Errorf("GetExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
