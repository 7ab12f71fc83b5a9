// Package mechanism defines one independently actuated axis of the superstructure: a
// bounds-checked closed-loop setpoint, a polling homing state machine and a manual override.
//
// Elevator, pivot and wrist share a single implementation. They differ only in configuration:
// range, tolerance, homing stop condition and manual authority.
package mechanism

import (
	"context"
)

// A Mechanism owns one physical axis.
//
// None of the methods block. Position, IsAtTarget and Telemetry reflect the samples latched
// by the most recent Update, so they are consistent within one control tick.
type Mechanism interface {
	// Name is the axis name, e.g. "elevator".
	Name() string

	// SetTarget validates value against the axis range and, only if it is in range, applies it
	// through the closed-loop controller. A rejected value leaves the previous target in place
	// and returns a *SetpointError.
	SetTarget(ctx context.Context, value float64) error

	// Position returns the latency-compensated position estimate.
	Position() float64

	// Target returns the last commanded target and whether there is one.
	Target() (float64, bool)

	// IsAtTarget is true when a target is commanded and the position is within tolerance of it.
	IsAtTarget() bool

	// DriveManual bypasses closed-loop control. pct is clamped to [-1, 1] and scaled by the
	// axis' manual authority.
	DriveManual(ctx context.Context, pct float64) error

	// Home advances the homing state machine by one tick and reports whether the axis is homed.
	Home(ctx context.Context, force bool) (bool, error)

	// IsHomed reports whether the axis is resting on its established reference.
	IsHomed() bool

	// Stop zeroes the output. The homed flag is kept.
	Stop(ctx context.Context) error

	// Update latches this tick's sensor sample.
	Update(ctx context.Context) error

	Telemetry() Telemetry
	Range() Range
}

// Mode is what an axis is currently doing.
type Mode string

// The axis modes.
const (
	ModeIdle       Mode = "idle"
	ModeClosedLoop Mode = "closed_loop"
	ModeManual     Mode = "manual"
	ModeHoming     Mode = "homing"
)

// Telemetry is a read-only snapshot of an axis for dashboards.
type Telemetry struct {
	Name          string
	Unit          string
	Mode          Mode
	Position      float64
	Velocity      float64
	Target        float64
	HasTarget     bool
	AtTarget      bool
	Tolerance     float64
	Homed         bool
	Current       float64
	RecentCurrent float64
	ForwardLimit  bool
	ReverseLimit  bool
}

// Range is the closed interval of valid setpoints.
type Range struct {
	Min float64
	Max float64
}

// Check returns a *SetpointError for values outside the range. axis names the mechanism in
// the error.
func (r Range) Check(axis string, value float64) error {
	if value < r.Min {
		return NewSetpointTooLowError(axis, r.Min, value)
	}
	if value > r.Max {
		return NewSetpointTooHighError(axis, r.Max, value)
	}
	return nil
}

// Contains reports whether value is a valid setpoint.
func (r Range) Contains(value float64) bool {
	return value >= r.Min && value <= r.Max
}
