package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/AndreyAkinshin/ontap/internal/errors"
	"github.com/AndreyAkinshin/ontap/internal/sink"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	validInputs    = []string{"auto", "json", "test2json", "text", "v", "go"}
	validLogLevels = []string{"debug", "info", "warn", "warning", "error"}
)

// Validate checks a configuration for errors. Format names are normalized
// in place. The returned error is a config error wrapping a
// *ValidationError.
func Validate(cfg *Config) error {
	format, err := sink.NormalizeFormat(cfg.Format)
	if err != nil {
		return invalid("format", fmt.Sprintf("unknown format %q (want tapy or tapj)", cfg.Format))
	}
	cfg.Format = format

	cfg.Input = strings.ToLower(cfg.Input)
	if !slices.Contains(validInputs, cfg.Input) {
		return invalid("input", fmt.Sprintf("must be one of %s", strings.Join(validInputs, ", ")))
	}
	if cfg.Radius < 0 {
		return invalid("radius", "must be >= 0")
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if !slices.Contains(validLogLevels, cfg.LogLevel) {
		return invalid("log_level", fmt.Sprintf("must be one of %s", strings.Join(validLogLevels, ", ")))
	}
	return nil
}

func invalid(field, message string) error {
	v := &ValidationError{Field: field, Message: message}
	return &errors.OntapError{Kind: errors.KindConfig, Message: v.Error(), Cause: v}
}
