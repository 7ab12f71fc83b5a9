package fake

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"

	"go.viam.com/superstructure/components/actuator"
	"go.viam.com/superstructure/logging"
)

func newTestActuator(t *testing.T, cfg Config) (*Actuator, *clock.Mock) {
	t.Helper()
	mockClock := clock.NewMock()
	a, err := NewActuator("test", cfg, mockClock, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return a, mockClock
}

func step(ctx context.Context, t *testing.T, a *Actuator, mockClock *clock.Mock, n int) actuator.Sample {
	t.Helper()
	var s actuator.Sample
	for i := 0; i < n; i++ {
		mockClock.Add(20 * time.Millisecond)
		var err error
		s, err = a.Sample(ctx)
		test.That(t, err, test.ShouldBeNil)
	}
	return s
}

func TestClosedLoopReachesSetpoint(t *testing.T) {
	ctx := context.Background()
	a, mockClock := newTestActuator(t, Config{
		MaxVelocity: 1, MaxAcceleration: 4, ReverseHardStop: 0, ForwardHardStop: 1.25, LimitSwitch: true,
	})

	s := step(ctx, t, a, mockClock, 1)
	test.That(t, s.Position, test.ShouldEqual, 0)
	test.That(t, s.ReverseLimit, test.ShouldBeTrue)

	test.That(t, a.SetPosition(ctx, 1.0), test.ShouldBeNil)
	s = step(ctx, t, a, mockClock, 5)
	test.That(t, s.Velocity, test.ShouldBeGreaterThan, 0)
	test.That(t, s.Velocity, test.ShouldBeLessThanOrEqualTo, 1)
	test.That(t, s.Current, test.ShouldEqual, defaultFreeCurrent)
	test.That(t, s.ReverseLimit, test.ShouldBeFalse)

	s = step(ctx, t, a, mockClock, 200)
	test.That(t, s.Position, test.ShouldEqual, 1.0)
	test.That(t, s.Velocity, test.ShouldEqual, 0)
	test.That(t, s.Current, test.ShouldEqual, 0)
	setpoint, closedLoop := a.Setpoint()
	test.That(t, closedLoop, test.ShouldBeTrue)
	test.That(t, setpoint, test.ShouldEqual, 1.0)
}

func TestOpenLoopIntoHardStop(t *testing.T) {
	ctx := context.Background()
	a, mockClock := newTestActuator(t, Config{
		MaxVelocity: 100, MaxAcceleration: 400, ReverseHardStop: -15, ForwardHardStop: 130,
		StartPosition: 100, StallCurrent: 35,
	})

	// encoder starts at zero wherever the axis rests
	s := step(ctx, t, a, mockClock, 1)
	test.That(t, s.Position, test.ShouldEqual, 0)

	test.That(t, a.SetPower(ctx, 0.5), test.ShouldBeNil)
	test.That(t, a.Power(), test.ShouldEqual, 0.5)
	s = step(ctx, t, a, mockClock, 1)
	test.That(t, s.Velocity, test.ShouldEqual, 50)
	test.That(t, s.Position, test.ShouldAlmostEqual, 1.0)

	s = step(ctx, t, a, mockClock, 50)
	test.That(t, a.TruePosition(), test.ShouldEqual, 130)
	test.That(t, s.Current, test.ShouldEqual, 35)
	test.That(t, s.Velocity, test.ShouldEqual, 0)
	test.That(t, s.ForwardLimit, test.ShouldBeFalse)

	test.That(t, a.ResetPosition(ctx, 130), test.ShouldBeNil)
	test.That(t, a.Stop(ctx), test.ShouldBeNil)
	s = step(ctx, t, a, mockClock, 1)
	test.That(t, s.Position, test.ShouldEqual, 130)
	test.That(t, s.Current, test.ShouldEqual, 0)
	test.That(t, a.Power(), test.ShouldEqual, 0)

	err := a.SetPower(ctx, 1.5)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "must be within [-1, 1]")
}

func TestLatency(t *testing.T) {
	ctx := context.Background()
	a, mockClock := newTestActuator(t, Config{
		MaxVelocity: 10, MaxAcceleration: 100, ReverseHardStop: 0, ForwardHardStop: 100, LatencyMS: 10,
	})
	test.That(t, a.SetPower(ctx, 1), test.ShouldBeNil)
	s := step(ctx, t, a, mockClock, 5)
	test.That(t, s.Latency, test.ShouldEqual, 10*time.Millisecond)
	test.That(t, s.Velocity, test.ShouldEqual, 10)
	// reported 0.1 units behind the true 1.0
	test.That(t, s.Position, test.ShouldAlmostEqual, 0.9)
}

func TestDecodeConfig(t *testing.T) {
	cfg, err := DecodeConfig(map[string]interface{}{
		"reverse_hard_stop": -45,
		"forward_hard_stop": "100",
		"limit_switch":      true,
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ReverseHardStop, test.ShouldEqual, -45)
	test.That(t, cfg.ForwardHardStop, test.ShouldEqual, 100)
	test.That(t, cfg.LimitSwitch, test.ShouldBeTrue)
	test.That(t, cfg.MaxVelocity, test.ShouldEqual, defaultMaxVelocity)
	test.That(t, cfg.StallCurrent, test.ShouldEqual, defaultStallCurrent)

	_, err = DecodeConfig(map[string]interface{}{"max_rpm": 10})
	test.That(t, err, test.ShouldNotBeNil)

	bad := Config{ReverseHardStop: 1, ForwardHardStop: 0}
	test.That(t, bad.Validate("wrist").Error(), test.ShouldContainSubstring, "must be above")
	bad = Config{ReverseHardStop: 0, ForwardHardStop: 1, StartPosition: 2}
	test.That(t, bad.Validate("wrist").Error(), test.ShouldContainSubstring, "between the hard stops")
}

func TestRegistered(t *testing.T) {
	a, err := actuator.New(context.Background(), Model, "elevator",
		map[string]interface{}{"forward_hard_stop": 1.25}, clock.NewMock(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	props, err := a.Properties(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, props.PositionReporting, test.ShouldBeTrue)
	test.That(t, props.LimitSwitch, test.ShouldBeFalse)

	_, err = actuator.New(context.Background(), "talonfx", "elevator", nil, clock.NewMock(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `unknown actuator model "talonfx"`)
	test.That(t, actuator.Models(), test.ShouldContain, Model)
}
