// Package inject provides an actuator whose methods can be overridden per test.
package inject

import (
	"context"

	"go.viam.com/superstructure/components/actuator"
)

// Actuator is an injected actuator. Unset funcs fall through to the embedded Actuator.
type Actuator struct {
	actuator.Actuator
	SetPositionFunc   func(ctx context.Context, setpoint float64) error
	SetPowerFunc      func(ctx context.Context, pct float64) error
	StopFunc          func(ctx context.Context) error
	ResetPositionFunc func(ctx context.Context, position float64) error
	SampleFunc        func(ctx context.Context) (actuator.Sample, error)
	PropertiesFunc    func(ctx context.Context) (actuator.Properties, error)
}

// SetPosition calls the injected SetPosition or the real version.
func (a *Actuator) SetPosition(ctx context.Context, setpoint float64) error {
	if a.SetPositionFunc == nil {
		return a.Actuator.SetPosition(ctx, setpoint)
	}
	return a.SetPositionFunc(ctx, setpoint)
}

// SetPower calls the injected SetPower or the real version.
func (a *Actuator) SetPower(ctx context.Context, pct float64) error {
	if a.SetPowerFunc == nil {
		return a.Actuator.SetPower(ctx, pct)
	}
	return a.SetPowerFunc(ctx, pct)
}

// Stop calls the injected Stop or the real version.
func (a *Actuator) Stop(ctx context.Context) error {
	if a.StopFunc == nil {
		return a.Actuator.Stop(ctx)
	}
	return a.StopFunc(ctx)
}

// ResetPosition calls the injected ResetPosition or the real version.
func (a *Actuator) ResetPosition(ctx context.Context, position float64) error {
	if a.ResetPositionFunc == nil {
		return a.Actuator.ResetPosition(ctx, position)
	}
	return a.ResetPositionFunc(ctx, position)
}

// Sample calls the injected Sample or the real version.
func (a *Actuator) Sample(ctx context.Context) (actuator.Sample, error) {
	if a.SampleFunc == nil {
		return a.Actuator.Sample(ctx)
	}
	return a.SampleFunc(ctx)
}

// Properties calls the injected Properties or the real version.
func (a *Actuator) Properties(ctx context.Context) (actuator.Properties, error) {
	if a.PropertiesFunc == nil {
		return a.Actuator.Properties(ctx)
	}
	return a.PropertiesFunc(ctx)
}
