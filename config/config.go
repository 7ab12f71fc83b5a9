// Package config defines the robot configuration: the three axes, the intake, loop timing and
// the operator's initial selections, plus reading it from disk and the environment.
package config

import (
	"time"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/superstructure/components/actuator/fake"
	"go.viam.com/superstructure/components/intake"
	"go.viam.com/superstructure/components/mechanism"
	"go.viam.com/superstructure/logging"
	"go.viam.com/superstructure/prefs"
	"go.viam.com/superstructure/superstructure"
)

// Config describes an entire robot.
type Config struct {
	ConfigFilePath string `json:"-"`

	TickPeriodMS         int     `json:"tick_period_ms"`
	TransitionTimeoutSec float64 `json:"transition_timeout_sec"`
	DisabledAtStart      bool    `json:"disabled_at_start,omitempty"`
	LogLevel             string  `json:"log_level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`

	Elevator mechanism.Config `json:"elevator"`
	Pivot    mechanism.Config `json:"pivot"`
	Wrist    mechanism.Config `json:"wrist"`
	Intake   intake.Config    `json:"intake"`

	Preferences Preferences `json:"preferences,omitempty"`
}

// Preferences are operator selections made before the match. Unset fields stay unselected.
type Preferences struct {
	ScoreLevel   string `json:"score_level,omitempty" jsonschema:"enum=HIGH,enum=MID,enum=LOW_FRONT,enum=LOW_BACK"`
	PickupMode   string `json:"pickup_mode,omitempty" jsonschema:"enum=GROUND,enum=STATION"`
	DesiredPiece string `json:"desired_piece,omitempty" jsonschema:"enum=NONE,enum=CONE,enum=CUBE"`
}

// Validate ensures every preference names a known value.
func (p *Preferences) Validate(path string) error {
	if p.ScoreLevel != "" {
		if _, err := prefs.ParseScoreLevel(p.ScoreLevel); err != nil {
			return goutils.NewConfigValidationError(path, err)
		}
	}
	if p.PickupMode != "" {
		if _, err := prefs.ParsePickupMode(p.PickupMode); err != nil {
			return goutils.NewConfigValidationError(path, err)
		}
	}
	if p.DesiredPiece != "" {
		if _, err := prefs.ParseGamepiece(p.DesiredPiece); err != nil {
			return goutils.NewConfigValidationError(path, err)
		}
	}
	return nil
}

// Apply records the configured selections in store.
func (p *Preferences) Apply(store *prefs.Store) error {
	if p.ScoreLevel != "" {
		level, err := prefs.ParseScoreLevel(p.ScoreLevel)
		if err != nil {
			return err
		}
		store.SetScoreLevel(level)
	}
	if p.PickupMode != "" {
		mode, err := prefs.ParsePickupMode(p.PickupMode)
		if err != nil {
			return err
		}
		store.SetPickupMode(mode)
	}
	if p.DesiredPiece != "" {
		piece, err := prefs.ParseGamepiece(p.DesiredPiece)
		if err != nil {
			return err
		}
		store.SetDesiredPiece(piece)
	}
	return nil
}

// Validate ensures all parts of the config are valid.
func (c *Config) Validate(path string) error {
	if c.TickPeriodMS <= 0 {
		return goutils.NewConfigValidationError(path, errors.New("tick_period_ms must be positive"))
	}
	if c.TransitionTimeoutSec <= 0 {
		return goutils.NewConfigValidationError(path, errors.New("transition_timeout_sec must be positive"))
	}
	if c.LogLevel != "" {
		if _, err := logging.LevelFromString(c.LogLevel); err != nil {
			return goutils.NewConfigValidationError(path, err)
		}
	}
	for _, axis := range []struct {
		field string
		cfg   *mechanism.Config
	}{
		{"elevator", &c.Elevator},
		{"pivot", &c.Pivot},
		{"wrist", &c.Wrist},
	} {
		if err := axis.cfg.Validate(joinPath(path, axis.field)); err != nil {
			return err
		}
	}
	if err := c.Intake.Validate(joinPath(path, "intake")); err != nil {
		return err
	}
	if err := c.Preferences.Validate(joinPath(path, "preferences")); err != nil {
		return err
	}
	if err := superstructure.ValidateStates(c.Elevator.Range(), c.Pivot.Range(), c.Wrist.Range()); err != nil {
		return goutils.NewConfigValidationError(path, err)
	}
	return nil
}

// TickPeriod is the control loop period.
func (c *Config) TickPeriod() time.Duration {
	return time.Duration(c.TickPeriodMS) * time.Millisecond
}

// Superstructure returns the tuning handed to the superstructure.
func (c *Config) Superstructure() superstructure.Config {
	return superstructure.Config{
		TransitionTimeout: time.Duration(c.TransitionTimeoutSec * float64(time.Second)),
		HoldPower:         c.Intake.HoldPower,
		IntakePower:       c.Intake.IntakePower,
		EjectPower:        c.Intake.EjectPower,
	}
}

func joinPath(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}

// Default returns the competition robot, backed by simulated actuators whose plants match the
// real mechanisms closely enough to tune against.
func Default() *Config {
	return &Config{
		TickPeriodMS:         20,
		TransitionTimeoutSec: 3,
		LogLevel:             "info",
		Elevator: mechanism.Config{
			Name: "elevator", Unit: "m", Min: 0, Max: 1.2, Tolerance: 0.02, ManualScale: 0.5,
			Homing: mechanism.HomingConfig{Mode: mechanism.HomingLimitSwitch, Power: -0.2},
			Model:  fake.Model,
			Attributes: map[string]interface{}{
				"max_velocity": 1.5, "max_acceleration": 6.0,
				"reverse_hard_stop": 0.0, "forward_hard_stop": 1.25,
				"start_position": 0.05, "limit_switch": true,
			},
		},
		Pivot: mechanism.Config{
			Name: "pivot", Unit: "deg", Min: -45, Max: 100, Tolerance: 1.5, ManualScale: 1,
			Homing: mechanism.HomingConfig{
				Mode: mechanism.HomingCurrent, Power: -0.2, CurrentPeakAmps: 20, Position: -45,
			},
			Model: fake.Model,
			Attributes: map[string]interface{}{
				"max_velocity": 180.0, "max_acceleration": 720.0,
				"reverse_hard_stop": -45.0, "forward_hard_stop": 105.0,
				"start_position": -40.0, "latency_ms": 5.0,
			},
		},
		Wrist: mechanism.Config{
			Name: "wrist", Unit: "deg", Min: -10, Max: 130, Tolerance: 1.5, ManualScale: 0.5,
			Homing: mechanism.HomingConfig{
				Mode: mechanism.HomingCurrent, Power: 0.1, CurrentPeakAmps: 20, Position: 130,
			},
			Model: fake.Model,
			Attributes: map[string]interface{}{
				"max_velocity": 200.0, "max_acceleration": 800.0,
				"reverse_hard_stop": -15.0, "forward_hard_stop": 130.0,
				"start_position": 120.0,
			},
		},
		Intake: intake.Config{
			Name: "intake", HoldPower: 0.1, IntakePower: 0.8, EjectPower: -0.6,
			Model: fake.Model,
			Attributes: map[string]interface{}{
				"max_velocity": 100.0, "reverse_hard_stop": -1e9, "forward_hard_stop": 1e9,
			},
		},
	}
}
