// Package control contains the motion primitives used by closed-loop axes: a trapezoid
// velocity profile, a moving-average filter and latency compensation of sensor samples.
package control

import (
	"math"
	"time"

	"github.com/pkg/errors"

	"go.viam.com/superstructure/utils"
)

// snapWindow is the remaining distance under which the profile lands exactly on target.
const snapWindow = 1e-9

// TrapezoidProfile generates position/velocity steps toward a target under velocity and
// acceleration limits, the way a motion-magic style controller drives an axis.
type TrapezoidProfile struct {
	MaxVelocity     float64
	MaxAcceleration float64
}

// Validate ensures the limits are usable.
func (p TrapezoidProfile) Validate() error {
	if p.MaxVelocity <= 0 {
		return errors.Errorf("trapezoid profile needs a positive max velocity, got %v", p.MaxVelocity)
	}
	if p.MaxAcceleration <= 0 {
		return errors.Errorf("trapezoid profile needs a positive max acceleration, got %v", p.MaxAcceleration)
	}
	return nil
}

// Next advances one step of length dt from (pos, vel) toward target and returns the new
// position and velocity. The step lands exactly on target once the remaining distance fits
// inside it, so a stationary target is always reached in a finite number of steps.
func (p TrapezoidProfile) Next(pos, vel, target float64, dt time.Duration) (float64, float64) {
	dtS := dt.Seconds()
	if dtS <= 0 {
		return pos, vel
	}
	remaining := target - pos
	dist := math.Abs(remaining)
	if dist <= snapWindow {
		return target, 0
	}
	dir := utils.Sign(remaining)

	// fastest speed from which we can still stop at the target
	vStop := math.Sqrt(2 * p.MaxAcceleration * dist)
	desired := dir * math.Min(p.MaxVelocity, vStop)

	dv := p.MaxAcceleration * dtS
	newVel := utils.Clamp(desired, vel-dv, vel+dv)
	step := newVel * dtS

	if utils.Sign(step) == dir && math.Abs(step) >= dist {
		return target, 0
	}
	return pos + step, newVel
}
