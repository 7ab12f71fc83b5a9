package mechanism

import (
	"context"
	"math"
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/superstructure/components/actuator"
	"go.viam.com/superstructure/control"
	"go.viam.com/superstructure/logging"
	"go.viam.com/superstructure/utils"
)

// axis is the Mechanism implementation backed by an actuator.Actuator.
type axis struct {
	mu     sync.Mutex
	cfg    Config
	act    actuator.Actuator
	logger logging.Logger

	sample        actuator.Sample
	position      float64
	recentCurrent *control.MovingAverage

	mode      Mode
	target    float64
	hasTarget bool
	homed     bool
}

// New returns a Mechanism driving act. The axis starts unhomed with no target. act must report
// position, and must have a limit switch when the axis homes against one.
func New(ctx context.Context, cfg Config, act actuator.Actuator, logger logging.Logger) (Mechanism, error) {
	if err := cfg.Validate(cfg.Name); err != nil {
		return nil, err
	}
	if act == nil {
		return nil, errors.Errorf("mechanism %q needs an actuator", cfg.Name)
	}
	props, err := act.Properties(ctx)
	if err != nil {
		return nil, err
	}
	if !props.PositionReporting || (cfg.Homing.Mode == HomingLimitSwitch && !props.LimitSwitch) {
		return nil, actuator.NewPropertyUnsupportedError(props, cfg.Name)
	}
	cfg = cfg.withDefaults()
	return &axis{
		cfg:           cfg,
		act:           act,
		logger:        logger,
		recentCurrent: control.NewMovingAverage(cfg.CurrentWindow),
		mode:          ModeIdle,
	}, nil
}

func (a *axis) Name() string {
	return a.cfg.Name
}

func (a *axis) Range() Range {
	return a.cfg.Range()
}

func (a *axis) SetTarget(ctx context.Context, value float64) error {
	if err := a.cfg.Range().Check(a.cfg.Name, value); err != nil {
		var se *SetpointError
		if errors.As(err, &se) {
			a.logger.Warnw("setpoint rejected", "axis", se.Axis, "kind", se.Kind.String(),
				"bound", se.Bound, "requested", se.Requested)
		}
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.act.SetPosition(ctx, value); err != nil {
		return errors.Wrapf(err, "cannot apply %s setpoint %v", a.cfg.Name, value)
	}
	a.target = value
	a.hasTarget = true
	a.homed = false
	a.mode = ModeClosedLoop
	return nil
}

func (a *axis) Position() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.position
}

func (a *axis) Target() (float64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.target, a.hasTarget
}

func (a *axis) IsAtTarget() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.isAtTargetInLock()
}

func (a *axis) isAtTargetInLock() bool {
	return a.hasTarget && math.Abs(a.position-a.target) < a.cfg.Tolerance
}

func (a *axis) DriveManual(ctx context.Context, pct float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := utils.ClampPower(pct) * a.cfg.ManualScale
	if err := a.act.SetPower(ctx, out); err != nil {
		return errors.Wrapf(err, "cannot drive %s manually", a.cfg.Name)
	}
	a.homed = false
	a.hasTarget = false
	a.mode = ModeManual
	return nil
}

func (a *axis) IsHomed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.homed
}

func (a *axis) Stop(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hasTarget = false
	a.mode = ModeIdle
	return a.act.Stop(ctx)
}

func (a *axis) Update(ctx context.Context) error {
	s, err := a.act.Sample(ctx)
	if err != nil {
		return errors.Wrapf(err, "cannot sample %s", a.cfg.Name)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sample = s
	a.position = control.LatencyCompensate(s.Position, s.Velocity, s.Latency)
	a.recentCurrent.Next(s.Current)
	return nil
}

func (a *axis) Telemetry() Telemetry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Telemetry{
		Name:          a.cfg.Name,
		Unit:          a.cfg.Unit,
		Mode:          a.mode,
		Position:      a.position,
		Velocity:      a.sample.Velocity,
		Target:        a.target,
		HasTarget:     a.hasTarget,
		AtTarget:      a.isAtTargetInLock(),
		Tolerance:     a.cfg.Tolerance,
		Homed:         a.homed,
		Current:       a.sample.Current,
		RecentCurrent: a.recentCurrent.Value(),
		ForwardLimit:  a.sample.ForwardLimit,
		ReverseLimit:  a.sample.ReverseLimit,
	}
}
