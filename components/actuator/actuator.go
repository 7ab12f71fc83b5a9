// Package actuator defines the hardware boundary of a mechanism: one motor controller paired
// with the sensors that report its position, velocity, current and limit switches.
//
// Implementations run their own closed-loop control on SetPosition. The core never reads
// registers or speaks a bus protocol; everything beneath this interface is opaque.
package actuator

import (
	"context"
	"time"
)

// Sample is one reading of an actuator's sensors.
type Sample struct {
	// Position is the encoder position in mechanism units relative to the last reference
	// set with ResetPosition.
	Position float64
	// Velocity in mechanism units per second.
	Velocity float64
	// Current is the stator current in amps.
	Current float64
	// Latency is how old Position was when the sample was taken.
	Latency time.Duration

	ForwardLimit bool
	ReverseLimit bool
}

// Properties describes what optional features an actuator supports.
type Properties struct {
	PositionReporting bool
	LimitSwitch       bool
}

// An Actuator is a motor controller plus its sensors.
type Actuator interface {
	// SetPosition commands closed-loop motion toward setpoint, in mechanism units.
	SetPosition(ctx context.Context, setpoint float64) error

	// SetPower commands open-loop output in [-1, 1].
	SetPower(ctx context.Context, pct float64) error

	// Stop zeroes the output.
	Stop(ctx context.Context) error

	// ResetPosition re-references the encoder so the current position reads as position.
	ResetPosition(ctx context.Context, position float64) error

	// Sample reads the sensors.
	Sample(ctx context.Context) (Sample, error)

	// Properties returns the supported optional features.
	Properties(ctx context.Context) (Properties, error)
}
