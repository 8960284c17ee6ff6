package config

import "github.com/AndreyAkinshin/ontap/internal/source"

// Default configuration values.
const (
	DefaultFormat   = "tapy"
	DefaultInput    = InputAuto
	DefaultLogLevel = "warn"
	DefaultRadius   = source.Radius
)

// Default returns a configuration holding only default values.
func Default() *Config {
	return &Config{
		Format:          DefaultFormat,
		Input:           DefaultInput,
		Radius:          DefaultRadius,
		FilterBacktrace: true,
		LogLevel:        DefaultLogLevel,
	}
}

// applyDefaults fills in values left empty by an explicit "" in a source.
func applyDefaults(cfg *Config) {
	if cfg.Format == "" {
		cfg.Format = DefaultFormat
	}
	if cfg.Input == "" {
		cfg.Input = DefaultInput
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
}
