package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.viam.com/test"

	"go.viam.com/superstructure/components/mechanism"
	"go.viam.com/superstructure/logging"
	"go.viam.com/superstructure/prefs"
)

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	test.That(t, os.WriteFile(path, []byte(contents), 0o600), test.ShouldBeNil)
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	test.That(t, cfg.Validate(""), test.ShouldBeNil)
	test.That(t, cfg.TickPeriod(), test.ShouldEqual, 20*time.Millisecond)

	ss := cfg.Superstructure()
	test.That(t, ss.TransitionTimeout, test.ShouldEqual, 3*time.Second)
	test.That(t, ss.IntakePower, test.ShouldEqual, 0.8)
	test.That(t, ss.EjectPower, test.ShouldEqual, -0.6)
}

func TestValidate(t *testing.T) {
	for _, tc := range []struct {
		name   string
		modify func(cfg *Config)
		errMsg string
	}{
		{"tick period", func(cfg *Config) { cfg.TickPeriodMS = 0 }, "tick_period_ms"},
		{"timeout", func(cfg *Config) { cfg.TransitionTimeoutSec = -1 }, "transition_timeout_sec"},
		{"log level", func(cfg *Config) { cfg.LogLevel = "loud" }, "unknown log level"},
		{"elevator name", func(cfg *Config) { cfg.Elevator.Name = "" }, "elevator"},
		{"pivot homing", func(cfg *Config) { cfg.Pivot.Homing.Mode = "" }, "pivot.homing"},
		{"intake power", func(cfg *Config) { cfg.Intake.EjectPower = -2 }, "eject_power"},
		{"score level", func(cfg *Config) { cfg.Preferences.ScoreLevel = "ROOF" }, "unknown score level"},
		{"states out of range", func(cfg *Config) { cfg.Elevator.Max = 1.0 }, "PLACE_HIGH"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.modify(cfg)
			err := cfg.Validate("")
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.errMsg)
		})
	}
}

func TestReadJSON(t *testing.T) {
	logger := logging.NewTestLogger(t)
	path := writeFile(t, "robot.json", `{
		"tick_period_ms": 10,
		"elevator": {"max": 1.3, "tolerance": 0.01},
		"preferences": {"score_level": "low-back", "pickup_mode": "station"}
	}`)

	cfg, err := Read(context.Background(), path, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ConfigFilePath, test.ShouldEqual, path)
	test.That(t, cfg.TickPeriodMS, test.ShouldEqual, 10)
	test.That(t, cfg.Elevator.Max, test.ShouldEqual, 1.3)
	test.That(t, cfg.Elevator.Tolerance, test.ShouldEqual, 0.01)
	// untouched fields keep their defaults
	test.That(t, cfg.Elevator.Name, test.ShouldEqual, "elevator")
	test.That(t, cfg.Pivot.Homing.Mode, test.ShouldEqual, mechanism.HomingCurrent)

	store := prefs.NewStore()
	test.That(t, cfg.Preferences.Apply(store), test.ShouldBeNil)
	level, ok := store.ScoreLevel()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, level, test.ShouldEqual, prefs.ScoreLowBack)
	mode, ok := store.PickupMode()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, mode, test.ShouldEqual, prefs.PickupStation)
}

func TestReadYAMLWithSubstitution(t *testing.T) {
	logger := logging.NewTestLogger(t)
	t.Setenv("WRIST_PEAK", "25")
	path := writeFile(t, "robot.yaml", `
transition_timeout_sec: 1.5
wrist:
  homing:
    mode: current
    power: 0.15
    current_peak_amps: ${WRIST_PEAK}
    position: 130
intake:
  hold_power: 0.05
`)

	cfg, err := Read(context.Background(), path, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.TransitionTimeoutSec, test.ShouldEqual, 1.5)
	test.That(t, cfg.Wrist.Homing.CurrentPeakAmps, test.ShouldEqual, 25.0)
	test.That(t, cfg.Wrist.Homing.Power, test.ShouldEqual, 0.15)
	test.That(t, cfg.Intake.HoldPower, test.ShouldEqual, 0.05)
	test.That(t, cfg.Intake.IntakePower, test.ShouldEqual, 0.8)
}

func TestReadErrors(t *testing.T) {
	logger := logging.NewTestLogger(t)

	_, err := Read(context.Background(), filepath.Join(t.TempDir(), "missing.json"), logger)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = Read(context.Background(), writeFile(t, "bad.json", `{"tick_period_ms": "fast"}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "failed to decode Config from json")

	_, err = Read(context.Background(), writeFile(t, "bad.yml", "elevator: [1, 2"), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "yaml")

	_, err = Read(context.Background(), writeFile(t, "invalid.json", `{"pivot": {"max": -50}}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "pivot")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("SUPERSTRUCTURE_TICK_PERIOD_MS", "5")
	t.Setenv("SUPERSTRUCTURE_TRANSITION_TIMEOUT_SEC", "0.5")
	t.Setenv("SUPERSTRUCTURE_DISABLED_AT_START", "true")

	cfg := Default()
	test.That(t, ApplyEnv(cfg), test.ShouldBeNil)
	test.That(t, cfg.TickPeriodMS, test.ShouldEqual, 5)
	test.That(t, cfg.TransitionTimeoutSec, test.ShouldEqual, 0.5)
	test.That(t, cfg.DisabledAtStart, test.ShouldBeTrue)
	test.That(t, cfg.LogLevel, test.ShouldEqual, "info")

	t.Setenv("SUPERSTRUCTURE_TICK_PERIOD_MS", "soon")
	err := ApplyEnv(Default())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "parse env")
}

func TestSchema(t *testing.T) {
	raw, err := SchemaJSON()
	test.That(t, err, test.ShouldBeNil)

	var doc map[string]interface{}
	test.That(t, json.Unmarshal(raw, &doc), test.ShouldBeNil)
	props, ok := doc["properties"].(map[string]interface{})
	test.That(t, ok, test.ShouldBeTrue)
	for _, field := range []string{"tick_period_ms", "elevator", "pivot", "wrist", "intake", "preferences"} {
		test.That(t, props, test.ShouldContainKey, field)
	}
	test.That(t, props, test.ShouldNotContainKey, "ConfigFilePath")
	test.That(t, strings.Contains(string(raw), "current_peak_amps"), test.ShouldBeTrue)
}

func TestReadSampleConfig(t *testing.T) {
	cfg, err := Read(context.Background(), filepath.Join("..", "etc", "configs", "sim.yaml"), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Wrist.Homing.CurrentPeakAmps, test.ShouldEqual, 20.0)
	test.That(t, cfg.Elevator.Homing.Mode, test.ShouldEqual, mechanism.HomingLimitSwitch)
	test.That(t, cfg.Preferences.DesiredPiece, test.ShouldEqual, "CONE")
	test.That(t, cfg.Elevator.Attributes["limit_switch"], test.ShouldEqual, true)
}
