package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// envPrefix is prepended to every environment override, e.g.
// SCRIBE_CHARSET.
const envPrefix = "SCRIBE_"

// Load reads configuration from a TOML file, applies environment
// overrides, and validates the result. A missing file is not an error;
// defaults are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults plus environment only.
	case err != nil:
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Parse decodes configuration from TOML bytes without touching the
// filesystem or the environment.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v, ok := lookup("CHARSET"); ok {
		cfg.Charset = v
	}
	if v, ok := lookup("LINE_TERMINATOR"); ok {
		cfg.LineTerminator = v
	}
	if v, ok := lookup("CHECKPOINT_INTERVAL"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sCHECKPOINT_INTERVAL: %w", envPrefix, err)
		}
		cfg.CheckpointInterval = n
	}
	if v, ok := lookup("LANGUAGE"); ok {
		cfg.Language = v
	}
	if v, ok := lookup("LANGUAGE_FILES"); ok {
		cfg.LanguageFiles = splitList(v)
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	if v, ok := lookup("HIGHLIGHT_SYNCHRONOUS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sHIGHLIGHT_SYNCHRONOUS: %w", envPrefix, err)
		}
		cfg.Highlight.Synchronous = b
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + key)
	return v, ok
}

func splitList(v string) []string {
	parts := strings.Split(v, string(os.PathListSeparator))
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
