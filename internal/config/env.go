package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/AndreyAkinshin/ontap/internal/errors"
)

// EnvPrefix prefixes every environment variable ontap reads.
const EnvPrefix = "ONTAP_"

// Environ returns the ONTAP_* variables of the dotenv file at path merged
// with the process environment. Process variables win. A missing file is
// not an error. The process environment is not modified.
func Environ(path string) (map[string]string, error) {
	env := make(map[string]string)
	if _, err := os.Stat(path); err == nil {
		values, err := godotenv.Read(path)
		if err != nil {
			return nil, errors.Configf("failed to read %s: %v", path, err)
		}
		for k, v := range values {
			if strings.HasPrefix(k, EnvPrefix) {
				env[k] = v
			}
		}
	}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(k, EnvPrefix) {
			env[k] = v
		}
	}
	return env, nil
}

// ApplyEnv overrides cfg with the recognized ONTAP_* variables of env.
func ApplyEnv(cfg *Config, env map[string]string) error {
	for _, s := range []struct {
		key string
		dst *string
	}{
		{"FORMAT", &cfg.Format},
		{"INPUT", &cfg.Input},
		{"OUTPUT", &cfg.Output},
		{"ROOT", &cfg.Root},
		{"LOG_LEVEL", &cfg.LogLevel},
	} {
		if v, ok := env[EnvPrefix+s.key]; ok && v != "" {
			*s.dst = v
		}
	}

	if v, ok := env[EnvPrefix+"RADIUS"]; ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Configf("%sRADIUS: %q is not an integer", EnvPrefix, v)
		}
		cfg.Radius = n
	}

	for _, b := range []struct {
		key string
		dst *bool
	}{
		{"STRIP_ANSI", &cfg.StripANSI},
		{"VALIDATE", &cfg.Validate},
		{"FILTER_BACKTRACE", &cfg.FilterBacktrace},
	} {
		v, ok := env[EnvPrefix+b.key]
		if !ok || v == "" {
			continue
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Configf("%s%s: %q is not a boolean", EnvPrefix, b.key, v)
		}
		*b.dst = parsed
	}
	return nil
}
