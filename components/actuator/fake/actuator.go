// Package fake implements a simulated actuator plant. It moves under a trapezoid profile in
// closed-loop mode, at power times max velocity in open-loop mode, and stops dead against
// its hard stops where it draws stall current.
package fake

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"

	"go.viam.com/superstructure/components/actuator"
	"go.viam.com/superstructure/control"
	"go.viam.com/superstructure/logging"
)

// Model is the registered model name of the simulated actuator.
const Model = "fake"

const (
	defaultMaxVelocity     = 1.0
	defaultMaxAcceleration = 4.0
	defaultStallCurrent    = 40.0
	defaultFreeCurrent     = 2.0
	stopEpsilon            = 1e-9
)

// Config describes the simulated plant. Positions are in mechanism units of the true
// (physical) axis; the encoder starts at zero wherever the axis happens to be.
type Config struct {
	MaxVelocity     float64 `json:"max_velocity,omitempty"`
	MaxAcceleration float64 `json:"max_acceleration,omitempty"`
	ReverseHardStop float64 `json:"reverse_hard_stop"`
	ForwardHardStop float64 `json:"forward_hard_stop"`
	StartPosition   float64 `json:"start_position"`
	LimitSwitch     bool    `json:"limit_switch"`
	StallCurrent    float64 `json:"stall_current,omitempty"`
	FreeCurrent     float64 `json:"free_current,omitempty"`
	LatencyMS       float64 `json:"latency_ms,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.ForwardHardStop <= cfg.ReverseHardStop {
		return errors.Errorf("%s: forward_hard_stop (%v) must be above reverse_hard_stop (%v)",
			path, cfg.ForwardHardStop, cfg.ReverseHardStop)
	}
	if cfg.StartPosition < cfg.ReverseHardStop || cfg.StartPosition > cfg.ForwardHardStop {
		return errors.Errorf("%s: start_position (%v) must be between the hard stops", path, cfg.StartPosition)
	}
	if cfg.MaxVelocity < 0 || cfg.MaxAcceleration < 0 || cfg.LatencyMS < 0 {
		return errors.Errorf("%s: max_velocity, max_acceleration and latency_ms cannot be negative", path)
	}
	return nil
}

// DecodeConfig converts raw attributes into a Config, filling defaults.
func DecodeConfig(attributes map[string]interface{}) (*Config, error) {
	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, errors.Wrap(err, "cannot decode fake actuator attributes")
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.MaxVelocity == 0 {
		cfg.MaxVelocity = defaultMaxVelocity
	}
	if cfg.MaxAcceleration == 0 {
		cfg.MaxAcceleration = defaultMaxAcceleration
	}
	if cfg.StallCurrent == 0 {
		cfg.StallCurrent = defaultStallCurrent
	}
	if cfg.FreeCurrent == 0 {
		cfg.FreeCurrent = defaultFreeCurrent
	}
}

func init() {
	actuator.RegisterModel(Model, func(
		ctx context.Context,
		name string,
		attributes map[string]interface{},
		clk clock.Clock,
		logger logging.Logger,
	) (actuator.Actuator, error) {
		cfg, err := DecodeConfig(attributes)
		if err != nil {
			return nil, err
		}
		return NewActuator(name, *cfg, clk, logger)
	})
}

type mode int

const (
	modeIdle mode = iota
	modePosition
	modePower
)

// Actuator is a simulated motor controller with encoder, current sensing and an optional
// reverse limit switch.
type Actuator struct {
	mu sync.Mutex

	name    string
	cfg     Config
	profile control.TrapezoidProfile
	clock   clock.Clock
	logger  logging.Logger

	last     time.Time
	position float64
	velocity float64
	pushing  bool
	offset   float64

	mode     mode
	setpoint float64
	power    float64
}

// NewActuator returns a simulated actuator resting at cfg.StartPosition. Zero limits and
// currents take their defaults.
func NewActuator(name string, cfg Config, clk clock.Clock, logger logging.Logger) (*Actuator, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(name); err != nil {
		return nil, err
	}
	profile := control.TrapezoidProfile{MaxVelocity: cfg.MaxVelocity, MaxAcceleration: cfg.MaxAcceleration}
	if err := profile.Validate(); err != nil {
		return nil, errors.Wrapf(err, "actuator %s", name)
	}
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = logging.NewBlankLogger(name)
	}
	return &Actuator{
		name:     name,
		cfg:      cfg,
		profile:  profile,
		clock:    clk,
		logger:   logger,
		last:     clk.Now(),
		position: cfg.StartPosition,
		offset:   cfg.StartPosition,
	}, nil
}

// SetPosition starts profiled motion toward setpoint, given in encoder units.
func (a *Actuator) SetPosition(ctx context.Context, setpoint float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.integrate()
	a.mode = modePosition
	a.setpoint = setpoint
	return nil
}

// SetPower drives open-loop at pct of max velocity.
func (a *Actuator) SetPower(ctx context.Context, pct float64) error {
	if pct < -1 || pct > 1 || math.IsNaN(pct) {
		return actuator.NewPowerOutOfRangeError(a.name, pct)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.integrate()
	a.mode = modePower
	a.power = pct
	return nil
}

// Stop zeroes the output. The plant stops immediately.
func (a *Actuator) Stop(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.integrate()
	a.mode = modeIdle
	a.power = 0
	a.velocity = 0
	a.pushing = false
	return nil
}

// ResetPosition re-references the encoder so the current position reads as position.
func (a *Actuator) ResetPosition(ctx context.Context, position float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.integrate()
	a.offset = a.position - position
	a.logger.Debugw("encoder re-referenced", "actuator", a.name, "position", position, "true_position", a.position)
	if a.mode == modePosition {
		// the controller holds where it is rather than chasing a stale reference
		a.setpoint = position
	}
	return nil
}

// Sample advances the plant to the clock's now and reads its sensors.
func (a *Actuator) Sample(ctx context.Context) (actuator.Sample, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.integrate()

	latency := time.Duration(a.cfg.LatencyMS * float64(time.Millisecond))
	encoder := a.position - a.offset
	return actuator.Sample{
		Position:     encoder - a.velocity*latency.Seconds(),
		Velocity:     a.velocity,
		Current:      a.currentInLock(),
		Latency:      latency,
		ReverseLimit: a.cfg.LimitSwitch && a.position <= a.cfg.ReverseHardStop+stopEpsilon,
		ForwardLimit: a.cfg.LimitSwitch && a.position >= a.cfg.ForwardHardStop-stopEpsilon,
	}, nil
}

// Properties returns the supported optional features.
func (a *Actuator) Properties(ctx context.Context) (actuator.Properties, error) {
	return actuator.Properties{PositionReporting: true, LimitSwitch: a.cfg.LimitSwitch}, nil
}

// TruePosition returns the physical position of the axis, independent of the encoder
// reference.
func (a *Actuator) TruePosition() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.position
}

// Setpoint returns the closed-loop setpoint in encoder units and whether the actuator is in
// closed-loop mode.
func (a *Actuator) Setpoint() (float64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.setpoint, a.mode == modePosition
}

// Power returns the open-loop output, zero unless in open-loop mode.
func (a *Actuator) Power() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode != modePower {
		return 0
	}
	return a.power
}

func (a *Actuator) currentInLock() float64 {
	switch {
	case a.pushing:
		return a.cfg.StallCurrent
	case math.Abs(a.velocity) > stopEpsilon:
		return a.cfg.FreeCurrent
	default:
		return 0
	}
}

// integrate must be called with the lock held.
func (a *Actuator) integrate() {
	now := a.clock.Now()
	dt := now.Sub(a.last)
	a.last = now
	if dt <= 0 {
		return
	}

	desired := 0.0
	switch a.mode {
	case modeIdle:
		a.velocity = 0
	case modePower:
		a.velocity = a.power * a.cfg.MaxVelocity
		desired = a.velocity
		a.position += a.velocity * dt.Seconds()
	case modePosition:
		target := a.setpoint + a.offset
		a.position, a.velocity = a.profile.Next(a.position, a.velocity, target, dt)
		desired = a.velocity
		if desired == 0 {
			desired = target - a.position
		}
	}

	a.pushing = false
	if a.position <= a.cfg.ReverseHardStop {
		a.position = a.cfg.ReverseHardStop
		a.velocity = 0
		a.pushing = desired < 0
	} else if a.position >= a.cfg.ForwardHardStop {
		a.position = a.cfg.ForwardHardStop
		a.velocity = 0
		a.pushing = desired > 0
	}
}
