// Package intake implements the end effector roller: an open-loop passthrough with no
// position control.
package intake

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/superstructure/components/actuator"
	"go.viam.com/superstructure/control"
	"go.viam.com/superstructure/logging"
	"go.viam.com/superstructure/utils"
)

// Config describes the intake and the powers the superstructure uses for it.
type Config struct {
	Name string `json:"name"`
	// HoldPower keeps a game piece seated.
	HoldPower float64 `json:"hold_power"`
	// IntakePower pulls a cone in. Cubes use the opposite sign.
	IntakePower float64 `json:"intake_power"`
	// EjectPower pushes a cone out. Cubes use the opposite sign.
	EjectPower float64 `json:"eject_power"`

	Model      string                 `json:"model"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.Name == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "name")
	}
	if cfg.Model == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "model")
	}
	for field, power := range map[string]float64{
		"hold_power":   cfg.HoldPower,
		"intake_power": cfg.IntakePower,
		"eject_power":  cfg.EjectPower,
	} {
		if power < -1 || power > 1 {
			return goutils.NewConfigValidationError(path, errors.Errorf("%s must be within [-1, 1]", field))
		}
	}
	return nil
}

// Telemetry is a read-only snapshot of the intake.
type Telemetry struct {
	Name          string
	Power         float64
	Current       float64
	RecentCurrent float64
}

// An Intake is an open-loop roller.
type Intake interface {
	Name() string
	SetPower(ctx context.Context, pct float64) error
	Power() float64
	Stop(ctx context.Context) error
	Update(ctx context.Context) error
	Telemetry() Telemetry
}

type intake struct {
	mu     sync.Mutex
	name   string
	act    actuator.Actuator
	logger logging.Logger

	power         float64
	current       float64
	recentCurrent *control.MovingAverage
}

// New returns an Intake driving act.
func New(cfg Config, act actuator.Actuator, logger logging.Logger) (Intake, error) {
	if err := cfg.Validate(cfg.Name); err != nil {
		return nil, err
	}
	if act == nil {
		return nil, errors.Errorf("intake %q needs an actuator", cfg.Name)
	}
	return &intake{
		name:          cfg.Name,
		act:           act,
		logger:        logger,
		recentCurrent: control.NewMovingAverage(25),
	}, nil
}

func (in *intake) Name() string {
	return in.name
}

// SetPower clamps pct to [-1, 1] and applies it. Repeating the current power is free.
func (in *intake) SetPower(ctx context.Context, pct float64) error {
	pct = utils.ClampPower(pct)
	in.mu.Lock()
	defer in.mu.Unlock()
	if err := in.act.SetPower(ctx, pct); err != nil {
		return errors.Wrapf(err, "cannot set %s power", in.name)
	}
	if pct != in.power {
		in.logger.Debugw("intake power", "power", pct)
	}
	in.power = pct
	return nil
}

func (in *intake) Power() float64 {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.power
}

func (in *intake) Stop(ctx context.Context) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.power = 0
	return in.act.Stop(ctx)
}

func (in *intake) Update(ctx context.Context) error {
	s, err := in.act.Sample(ctx)
	if err != nil {
		return errors.Wrapf(err, "cannot sample %s", in.name)
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	in.current = s.Current
	in.recentCurrent.Next(s.Current)
	return nil
}

func (in *intake) Telemetry() Telemetry {
	in.mu.Lock()
	defer in.mu.Unlock()
	return Telemetry{
		Name:          in.name,
		Power:         in.power,
		Current:       in.current,
		RecentCurrent: in.recentCurrent.Value(),
	}
}
