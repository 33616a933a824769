package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix = "DYSCREEN_"
	envConfig = envPrefix + "CONFIG"
)

// sections are nested config tables reachable from env, e.g.
// DYSCREEN_ANOMALY_TIMEOUT_MS -> anomaly.timeout_ms.
var sections = []string{"anomaly_", "keystroke_", "reading_"}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if DYSCREEN_CONFIG is set
//  3. env (prefix DYSCREEN_)
//
// A feature list in the file replaces the default list rather than merging
// into it.
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(envConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", envKey)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := *base
	for key, list := range map[string]*[]FeatureConfig{
		"keystroke.features": &cfg.Keystroke.Features,
		"reading.features":   &cfg.Reading.Features,
	} {
		if k.Exists(key) {
			*list = nil
		}
	}
	if k.Exists("anomaly.args") {
		cfg.Anomaly.Args = nil
	}

	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps DYSCREEN_QUEUE_SIZE -> queue_size and
// DYSCREEN_ANOMALY_MODE -> anomaly.mode.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	for _, sec := range sections {
		if strings.HasPrefix(s, sec) {
			return strings.Replace(s, "_", ".", 1)
		}
	}
	return s
}
