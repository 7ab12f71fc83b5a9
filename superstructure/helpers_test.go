package superstructure

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap/zaptest/observer"
	"go.viam.com/test"

	"go.viam.com/superstructure/components/actuator/fake"
	"go.viam.com/superstructure/components/intake"
	"go.viam.com/superstructure/components/mechanism"
	"go.viam.com/superstructure/logging"
	"go.viam.com/superstructure/prefs"
)

const tickPeriod = 20 * time.Millisecond

type harness struct {
	ss    *Superstructure
	store *prefs.Store
	clock *clock.Mock
	logs  *observer.ObservedLogs

	elevator, pivot, wrist, roller *fake.Actuator
}

func testConfig() Config {
	return Config{TransitionTimeout: 3 * time.Second, HoldPower: 0.1, IntakePower: 0.8, EjectPower: -0.6}
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	logger, logs := logging.NewObservedTestLogger(t)
	mockClock := clock.NewMock()
	h := &harness{store: prefs.NewStore(), clock: mockClock, logs: logs}

	newAxis := func(mcfg mechanism.Config, plant fake.Config) (mechanism.Mechanism, *fake.Actuator) {
		act, err := fake.NewActuator(mcfg.Name, plant, mockClock, logger)
		test.That(t, err, test.ShouldBeNil)
		m, err := mechanism.New(context.Background(), mcfg, act, logger.Sublogger(mcfg.Name))
		test.That(t, err, test.ShouldBeNil)
		return m, act
	}

	elevator, elevatorAct := newAxis(mechanism.Config{
		Name: "elevator", Unit: "m", Min: 0, Max: 1.2, Tolerance: 0.02, ManualScale: 0.5,
		Homing: mechanism.HomingConfig{Mode: mechanism.HomingLimitSwitch, Power: -0.2, Position: 0},
		Model:  fake.Model,
	}, fake.Config{MaxVelocity: 1.5, MaxAcceleration: 6, ReverseHardStop: 0, ForwardHardStop: 1.25, LimitSwitch: true})
	pivot, pivotAct := newAxis(mechanism.Config{
		Name: "pivot", Unit: "deg", Min: -45, Max: 100, Tolerance: 1.5, ManualScale: 1,
		Homing: mechanism.HomingConfig{Mode: mechanism.HomingCurrent, Power: -0.2, CurrentPeakAmps: 20, Position: -45},
		Model:  fake.Model,
	}, fake.Config{MaxVelocity: 180, MaxAcceleration: 720, ReverseHardStop: -45, ForwardHardStop: 105, LatencyMS: 5})
	wrist, wristAct := newAxis(mechanism.Config{
		Name: "wrist", Unit: "deg", Min: -10, Max: 130, Tolerance: 1.5, ManualScale: 0.5,
		Homing: mechanism.HomingConfig{Mode: mechanism.HomingCurrent, Power: 0.1, CurrentPeakAmps: 20, Position: 130},
		Model:  fake.Model,
	}, fake.Config{MaxVelocity: 200, MaxAcceleration: 800, ReverseHardStop: -15, ForwardHardStop: 130, StartPosition: 120})

	roller, err := fake.NewActuator("intake", fake.Config{
		MaxVelocity: 100, ReverseHardStop: -1e9, ForwardHardStop: 1e9,
	}, mockClock, logger)
	test.That(t, err, test.ShouldBeNil)
	in, err := intake.New(intake.Config{Name: "intake", Model: fake.Model}, roller, logger.Sublogger("intake"))
	test.That(t, err, test.ShouldBeNil)

	h.ss, err = New(cfg, elevator, pivot, wrist, in, h.store, mockClock, logger.Sublogger("superstructure"))
	test.That(t, err, test.ShouldBeNil)
	h.elevator, h.pivot, h.wrist, h.roller = elevatorAct, pivotAct, wristAct, roller
	return h
}

func (h *harness) tick(ctx context.Context, t *testing.T) {
	t.Helper()
	h.clock.Add(tickPeriod)
	test.That(t, h.ss.Periodic(ctx), test.ShouldBeNil)
}

// tickUntil ticks until cond holds, at most max times, and reports whether it held.
func (h *harness) tickUntil(ctx context.Context, t *testing.T, max int, cond func() bool) bool {
	t.Helper()
	for i := 0; i < max; i++ {
		if cond() {
			return true
		}
		h.tick(ctx, t)
	}
	return cond()
}

// home polls HomeAll once per tick until every axis is homed.
func (h *harness) home(ctx context.Context, t *testing.T) {
	t.Helper()
	for i := 0; i < 500; i++ {
		h.tick(ctx, t)
		homed, err := h.ss.HomeAll(ctx, false)
		test.That(t, err, test.ShouldBeNil)
		if homed {
			return
		}
	}
	t.Fatal("superstructure never homed")
}

// transition requests target and ticks until the transition ends.
func (h *harness) transition(ctx context.Context, t *testing.T, target *State) *Transition {
	t.Helper()
	tr, err := h.ss.TransitionTo(ctx, target)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, h.tickUntil(ctx, t, 1000, tr.Done), test.ShouldBeTrue)
	return tr
}

func (h *harness) targets() (float64, float64, float64) {
	e, _ := h.ss.Elevator().Target()
	p, _ := h.ss.Pivot().Target()
	w, _ := h.ss.Wrist().Target()
	return e, p, w
}

func (h *harness) assertAt(t *testing.T, s *State) {
	t.Helper()
	test.That(t, math.Abs(h.ss.Elevator().Position()-s.Elevator), test.ShouldBeLessThan, 0.02)
	test.That(t, math.Abs(h.ss.Pivot().Position()-s.Pivot), test.ShouldBeLessThan, 1.5)
	test.That(t, math.Abs(h.ss.Wrist().Position()-s.Wrist), test.ShouldBeLessThan, 1.5)
}
