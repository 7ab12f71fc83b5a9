package mechanism

import (
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"
)

const (
	defaultManualScale   = 1.0
	defaultCurrentWindow = 25
)

// HomingMode is the stop condition of the homing state machine.
type HomingMode string

// The supported stop conditions.
const (
	// HomingLimitSwitch stops when the reverse limit switch closes.
	HomingLimitSwitch HomingMode = "limit_switch"
	// HomingCurrent stops when the stator current exceeds a calibrated peak, for axes without a
	// limit switch.
	HomingCurrent HomingMode = "current"
)

// HomingConfig describes how an axis finds its reference.
type HomingConfig struct {
	Mode HomingMode `json:"mode" jsonschema:"enum=limit_switch,enum=current"`
	// Power is the open-loop output used to drive toward the hard stop. Its sign picks the
	// direction.
	Power           float64 `json:"power"`
	CurrentPeakAmps float64 `json:"current_peak_amps,omitempty"`
	// Position is what the encoder is re-referenced to once the stop condition is observed.
	Position float64 `json:"position"`
}

// Config describes one axis.
type Config struct {
	Name        string       `json:"name"`
	Unit        string       `json:"unit,omitempty"`
	Min         float64      `json:"min"`
	Max         float64      `json:"max"`
	Tolerance   float64      `json:"tolerance"`
	ManualScale float64      `json:"manual_scale,omitempty"`
	Homing      HomingConfig `json:"homing"`
	// CurrentWindow is the number of samples in the recent-current average.
	CurrentWindow int `json:"current_window,omitempty"`

	// Model and Attributes select and configure the backing actuator.
	Model      string                 `json:"model"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// Range returns the configured setpoint range.
func (cfg *Config) Range() Range {
	return Range{Min: cfg.Min, Max: cfg.Max}
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.Name == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "name")
	}
	if cfg.Model == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "model")
	}
	if cfg.Max <= cfg.Min {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("max (%v) must be greater than min (%v)", cfg.Max, cfg.Min))
	}
	if cfg.Tolerance <= 0 {
		return goutils.NewConfigValidationError(path, errors.New("tolerance must be positive"))
	}
	if cfg.ManualScale < 0 || cfg.ManualScale > 1 {
		return goutils.NewConfigValidationError(path, errors.New("manual_scale must be within [0, 1]"))
	}
	if cfg.CurrentWindow < 0 {
		return goutils.NewConfigValidationError(path, errors.New("current_window cannot be negative"))
	}
	return cfg.Homing.Validate(path + ".homing")
}

// Validate ensures all parts of the homing config are valid.
func (cfg *HomingConfig) Validate(path string) error {
	switch cfg.Mode {
	case HomingLimitSwitch:
	case HomingCurrent:
		if cfg.CurrentPeakAmps <= 0 {
			return goutils.NewConfigValidationError(path,
				errors.New("current_peak_amps must be positive for current homing"))
		}
	case "":
		return goutils.NewConfigValidationFieldRequiredError(path, "mode")
	default:
		return goutils.NewConfigValidationError(path, errors.Errorf("unknown homing mode %q", cfg.Mode))
	}
	if cfg.Power == 0 || cfg.Power < -1 || cfg.Power > 1 {
		return goutils.NewConfigValidationError(path, errors.New("power must be non-zero and within [-1, 1]"))
	}
	return nil
}

func (cfg Config) withDefaults() Config {
	if cfg.ManualScale == 0 {
		cfg.ManualScale = defaultManualScale
	}
	if cfg.CurrentWindow == 0 {
		cfg.CurrentWindow = defaultCurrentWindow
	}
	return cfg
}
