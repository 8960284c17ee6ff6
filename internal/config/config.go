package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AndreyAkinshin/ontap/internal/errors"
	"github.com/AndreyAkinshin/ontap/internal/schema"
)

// Load reads a configuration file on top of the defaults. Fields absent
// from the file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, _, err := parse(data)
	return cfg, err
}

func parse(data []byte) (*Config, []string, error) {
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, nil, errors.Configf("failed to parse config file: %v", err)
	}
	applyDefaults(cfg)
	return cfg, detectUnknownFields(data), nil
}

// LoadAndValidate reads a config file, checks it against the embedded
// schema, applies defaults, validates, and returns warnings.
func LoadAndValidate(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, warnings, err := parse(data)
	if err != nil {
		return nil, nil, err
	}
	if err := schema.ValidateConfig(data); err != nil {
		return nil, warnings, errors.Configf("%s: %v", filepath.Base(path), err)
	}
	if err := Validate(cfg); err != nil {
		return nil, warnings, err
	}
	return cfg, warnings, nil
}

// LoadDir loads the configuration of a project root: defaults, then
// .ontap.json when present, then .env and ONTAP_* environment variables.
// A missing .ontap.json is not an error.
func LoadDir(root string) (*Config, []string, error) {
	cfg := Default()
	var warnings []string

	path := filepath.Join(root, FileName)
	if _, err := os.Stat(path); err == nil {
		cfg, warnings, err = LoadAndValidate(path)
		if err != nil {
			return nil, warnings, err
		}
	}

	env, err := Environ(filepath.Join(root, EnvFileName))
	if err != nil {
		return nil, warnings, err
	}
	if err := ApplyEnv(cfg, env); err != nil {
		return nil, warnings, err
	}
	if err := Validate(cfg); err != nil {
		return nil, warnings, err
	}
	return cfg, warnings, nil
}
