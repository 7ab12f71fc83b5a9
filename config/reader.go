package config

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/a8m/envsubst"
	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"go.viam.com/superstructure/logging"
)

// Read reads a config from the given file. ${VAR} references in the file are expanded from the
// environment first, and SUPERSTRUCTURE_* variables override the result.
func Read(ctx context.Context, filePath string, logger logging.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(ctx, filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from. Fields absent from the document
// keep their Default values.
func FromReader(ctx context.Context, originalPath string, r io.Reader, logger logging.Logger) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if isYAML(originalPath) {
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, errors.Wrap(err, "failed to decode Config from yaml")
		}
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode Config from json")
	}
	cfg.ConfigFilePath = originalPath

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(""); err != nil {
		return nil, err
	}
	logger.Debugw("config read", "path", originalPath, "tick_period_ms", cfg.TickPeriodMS)
	return cfg, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// yamlToJSON re-encodes a YAML document as JSON so the json tags stay the single source of
// field names.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(doc)
}

// envOverrides holds the settings that can be changed without editing the file. Unset
// variables leave the pointers nil.
type envOverrides struct {
	TickPeriodMS         *int     `env:"SUPERSTRUCTURE_TICK_PERIOD_MS"`
	TransitionTimeoutSec *float64 `env:"SUPERSTRUCTURE_TRANSITION_TIMEOUT_SEC"`
	LogLevel             *string  `env:"SUPERSTRUCTURE_LOG_LEVEL"`
	DisabledAtStart      *bool    `env:"SUPERSTRUCTURE_DISABLED_AT_START"`
}

// ApplyEnv overrides cfg with any SUPERSTRUCTURE_* environment variables that are set.
func ApplyEnv(cfg *Config) error {
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return errors.Wrap(err, "parse env")
	}
	if overrides.TickPeriodMS != nil {
		cfg.TickPeriodMS = *overrides.TickPeriodMS
	}
	if overrides.TransitionTimeoutSec != nil {
		cfg.TransitionTimeoutSec = *overrides.TransitionTimeoutSec
	}
	if overrides.LogLevel != nil {
		cfg.LogLevel = *overrides.LogLevel
	}
	if overrides.DisabledAtStart != nil {
		cfg.DisabledAtStart = *overrides.DisabledAtStart
	}
	return nil
}
