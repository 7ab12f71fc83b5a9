package mechanism

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Home is a polling state machine meant to be called once per control tick.
//
// When homed and not forced it returns true without touching the actuator. Otherwise it
// drives open-loop toward the hard stop and returns false until the stop condition shows up
// in the latched sample; on that tick it stops, re-references the encoder to the configured
// home position and returns true. Forcing while homed starts over.
func (a *axis) Home(ctx context.Context, force bool) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.homed && !force {
		return true, nil
	}
	if a.mode != ModeHoming {
		a.logger.Debugw("homing started", "mode", a.cfg.Homing.Mode, "power", a.cfg.Homing.Power, "forced", force)
		a.homed = false
		a.hasTarget = false
		a.mode = ModeHoming
	}

	if !a.stopConditionInLock() {
		// reapplied every tick in case something else touched the output
		if err := a.act.SetPower(ctx, a.cfg.Homing.Power); err != nil {
			return false, errors.Wrapf(err, "cannot drive %s toward its hard stop", a.cfg.Name)
		}
		return false, nil
	}

	err := multierr.Combine(
		a.act.Stop(ctx),
		a.act.ResetPosition(ctx, a.cfg.Homing.Position),
	)
	if err != nil {
		return false, errors.Wrapf(err, "cannot finish homing %s", a.cfg.Name)
	}
	a.position = a.cfg.Homing.Position
	a.homed = true
	a.mode = ModeIdle
	a.recentCurrent.Reset()
	a.logger.Infow("homed", "position", a.cfg.Homing.Position, "current", a.sample.Current)
	return true, nil
}

func (a *axis) stopConditionInLock() bool {
	switch a.cfg.Homing.Mode {
	case HomingLimitSwitch:
		if a.cfg.Homing.Power < 0 {
			return a.sample.ReverseLimit
		}
		return a.sample.ForwardLimit
	case HomingCurrent:
		return a.sample.Current > a.cfg.Homing.CurrentPeakAmps
	default:
		return false
	}
}
