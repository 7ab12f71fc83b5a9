// Package superstructure coordinates the elevator, pivot and wrist as one manipulator. It moves
// them together between named states, chaining through waypoint states where a direct move
// could hit the frame, and owns homing, manual override and the intake.
package superstructure

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/superstructure/components/intake"
	"go.viam.com/superstructure/components/mechanism"
	"go.viam.com/superstructure/logging"
	"go.viam.com/superstructure/operation"
	"go.viam.com/superstructure/prefs"
)

// SubsystemName is the requirement name commands use for the superstructure.
const SubsystemName = "superstructure"

const defaultTransitionTimeout = 3 * time.Second

// Config holds the superstructure's tuning.
type Config struct {
	// TransitionTimeout bounds each leg of a transition. The homing leg is not bounded.
	TransitionTimeout time.Duration
	HoldPower         float64
	IntakePower       float64
	EjectPower        float64
}

// Superstructure is the manipulator state machine. It is ticked by Periodic and is safe to
// command from other goroutines between ticks.
type Superstructure struct {
	mu     sync.Mutex
	cfg    Config
	clock  clock.Clock
	logger logging.Logger
	store  *prefs.Store
	ops    *operation.SingleOperationManager

	elevator mechanism.Mechanism
	pivot    mechanism.Mechanism
	wrist    mechanism.Mechanism
	intake   intake.Intake

	phase       Phase
	initialized bool
	current     *State
	// departed is the last named state the axes reached, nil after manual control.
	departed   *State
	active     *Transition
	lastResult Result
	// forcedPass is set while a forced homing pass has restarted the axes and not yet finished.
	forcedPass bool
}

// New returns an uninitialized superstructure. Every named state must be reachable within the
// axes' ranges.
func New(
	cfg Config,
	elevator, pivot, wrist mechanism.Mechanism,
	in intake.Intake,
	store *prefs.Store,
	clk clock.Clock,
	logger logging.Logger,
) (*Superstructure, error) {
	if elevator == nil || pivot == nil || wrist == nil || in == nil {
		return nil, errors.New("superstructure needs an elevator, pivot, wrist and intake")
	}
	if err := ValidateStates(elevator.Range(), pivot.Range(), wrist.Range()); err != nil {
		return nil, errors.Wrap(err, "named states do not fit the configured axes")
	}
	if cfg.TransitionTimeout <= 0 {
		cfg.TransitionTimeout = defaultTransitionTimeout
	}
	if store == nil {
		store = prefs.NewStore()
	}
	if clk == nil {
		clk = clock.New()
	}
	store.SetNeedHome(true)
	return &Superstructure{
		cfg:      cfg,
		clock:    clk,
		logger:   logger,
		store:    store,
		ops:      operation.NewSingleOperationManager(clk),
		elevator: elevator,
		pivot:    pivot,
		wrist:    wrist,
		intake:   in,
		phase:    PhaseUninitialized,
	}, nil
}

// Name is the subsystem name.
func (ss *Superstructure) Name() string {
	return SubsystemName
}

// Elevator returns the elevator axis.
func (ss *Superstructure) Elevator() mechanism.Mechanism { return ss.elevator }

// Pivot returns the pivot axis.
func (ss *Superstructure) Pivot() mechanism.Mechanism { return ss.pivot }

// Wrist returns the wrist axis.
func (ss *Superstructure) Wrist() mechanism.Mechanism { return ss.wrist }

// Intake returns the intake.
func (ss *Superstructure) Intake() intake.Intake { return ss.intake }

func (ss *Superstructure) mechanisms() []mechanism.Mechanism {
	return []mechanism.Mechanism{ss.elevator, ss.pivot, ss.wrist}
}

// TransitionTo takes ownership of the superstructure and starts driving to target. Any active
// transition ends as Preempted. The first leg is applied by the next Periodic.
//
// An uninitialized superstructure homes first. Between named states, as after a preemption or
// a timeout, the route starts from the state the axes last left. After manual control the
// nearest named state is the first leg. The transition is cancelled if ctx is.
func (ss *Superstructure) TransitionTo(ctx context.Context, target *State) (*Transition, error) {
	if target == nil {
		return nil, errors.New("cannot transition to an indeterminate state")
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()

	var route []*State
	switch {
	case !ss.initialized:
		route = []*State{Home}
		if target != Home {
			rest, err := Route(Home, target)
			if err != nil {
				return nil, err
			}
			route = append(route, rest...)
		}
	case ss.current != nil || ss.departed != nil:
		from := ss.current
		if from == nil {
			from = ss.departed
		}
		var err error
		if route, err = Route(from, target); err != nil {
			return nil, err
		}
	default:
		nearest := ss.nearestInLock()
		route = []*State{nearest}
		if target != nearest {
			rest, err := Route(nearest, target)
			if err != nil {
				return nil, err
			}
			route = append(route, rest...)
		}
	}

	ss.preemptInLock()
	ss.forcedPass = false
	op := ss.ops.New(ctx, "TransitionTo", target.Name)
	t := newTransition(op, target, route)
	ss.active = t
	ss.phase = PhaseTransitioning
	ss.logger.Debugw("transition requested", "id", t.ID(), "target", target.Name, "route", t.String())
	return t, nil
}

// CancelTransition ends t as Cancelled if it still owns the superstructure. The axes hold
// whatever setpoints they were last given.
func (ss *Superstructure) CancelTransition(t *Transition) {
	if t == nil {
		return
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.active != t {
		return
	}
	ss.endActiveInLock(Cancelled)
}

// Periodic runs one control tick: it latches every axis' sample and then advances the active
// transition, if any.
func (ss *Superstructure) Periodic(ctx context.Context) error {
	var errs error
	for _, m := range ss.mechanisms() {
		errs = multierr.Append(errs, m.Update(ctx))
	}
	errs = multierr.Append(errs, ss.intake.Update(ctx))

	ss.mu.Lock()
	defer ss.mu.Unlock()
	t := ss.active
	if t == nil {
		return errs
	}
	if t.op.Cancelled() {
		ss.endActiveInLock(Cancelled)
		return errs
	}

	now := ss.clock.Now()
	leg, first := t.currentLeg(now)
	if first {
		ss.current = nil
		ss.logger.Debugw("transition leg", "id", t.ID(), "leg", leg.Name, "target", t.Target().Name)
	}

	if leg == Home {
		homed, err := ss.homeAllInLock(ctx, false)
		errs = multierr.Append(errs, err)
		errs = multierr.Append(errs, ss.intake.SetPower(ctx, 0))
		if homed {
			ss.legReachedInLock(t, leg)
		}
		return errs
	}

	errs = multierr.Append(errs, ss.applyInLock(ctx, leg))
	if ss.atInLock(leg, false) {
		ss.legReachedInLock(t, leg)
		return errs
	}
	if elapsed := t.legElapsed(now); elapsed >= ss.cfg.TransitionTimeout {
		ss.logger.Warnw("transition timed out", "id", t.ID(), "target", t.Target().Name, "leg", leg.Name,
			"elapsed", elapsed, "elevator", ss.elevator.Position(), "pivot", ss.pivot.Position(),
			"wrist", ss.wrist.Position())
		ss.endActiveInLock(TimedOut)
	}
	return errs
}

func (ss *Superstructure) applyInLock(ctx context.Context, s *State) error {
	return multierr.Combine(
		ss.elevator.SetTarget(ctx, s.Elevator),
		ss.pivot.SetTarget(ctx, s.Pivot),
		ss.wrist.SetTarget(ctx, s.Wrist),
		ss.intake.SetPower(ctx, ss.intakePower(s.Intake)),
	)
}

func (ss *Superstructure) legReachedInLock(t *Transition, leg *State) {
	ss.current = leg
	ss.departed = leg
	if !t.advance() {
		return
	}
	t.finish(Completed, ss.clock.Now())
	ss.ops.Done(t.op)
	ss.active = nil
	ss.lastResult = Completed
	ss.phase = PhaseIdle
	ss.logger.Infow("transition completed", "id", t.ID(), "state", leg.Name)
}

// endActiveInLock ends the active transition with result. The axes keep their setpoints.
func (ss *Superstructure) endActiveInLock(result Result) {
	t := ss.active
	if t == nil {
		return
	}
	t.finish(result, ss.clock.Now())
	ss.ops.Done(t.op)
	ss.active = nil
	ss.lastResult = result
	ss.current = ss.reachedInLock()
	if ss.initialized {
		ss.phase = PhaseIdle
	} else {
		ss.phase = PhaseUninitialized
	}
	if result != TimedOut {
		ss.logger.Debugw("transition ended", "id", t.ID(), "target", t.Target().Name, "result", result.String())
	}
}

func (ss *Superstructure) preemptInLock() {
	if ss.active != nil {
		ss.endActiveInLock(Preempted)
	}
}

// ManualControl drives every axis open loop and the intake directly, abandoning any active
// transition. Inputs are expected to be deadbanded already. While in manual the configuration
// is indeterminate.
func (ss *Superstructure) ManualControl(ctx context.Context, wrist, pivot, elevator, intakePct float64) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.preemptInLock()
	if ss.phase != PhaseManual {
		ss.logger.Debug("manual control")
	}
	ss.phase = PhaseManual
	ss.current = nil
	ss.departed = nil
	ss.forcedPass = false
	return multierr.Combine(
		ss.wrist.DriveManual(ctx, wrist),
		ss.pivot.DriveManual(ctx, pivot),
		ss.elevator.DriveManual(ctx, elevator),
		ss.intake.SetPower(ctx, intakePct),
	)
}

// EndManual stops the axes if the superstructure is in manual control.
func (ss *Superstructure) EndManual(ctx context.Context) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.phase != PhaseManual {
		return nil
	}
	return ss.stopInLock(ctx)
}

// HomeAll advances every axis' homing state machine by one tick and reports whether all three
// are homed. Any active transition is abandoned. With force the first call of a pass restarts
// every axis; later calls keep polling that pass until all three are homed, so force may be
// passed on every tick.
func (ss *Superstructure) HomeAll(ctx context.Context, force bool) (bool, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.preemptInLock()
	homed, err := ss.homeAllInLock(ctx, force)
	if homed {
		ss.phase = PhaseIdle
		ss.current = Home
		ss.departed = Home
	}
	return homed, err
}

func (ss *Superstructure) homeAllInLock(ctx context.Context, force bool) (bool, error) {
	restart := force && !ss.forcedPass
	if restart {
		ss.forcedPass = true
	}
	all := true
	var errs error
	for _, m := range ss.mechanisms() {
		homed, err := m.Home(ctx, restart)
		errs = multierr.Append(errs, err)
		all = all && homed
	}
	if !all {
		return false, errs
	}
	ss.forcedPass = false
	if !ss.initialized {
		ss.initialized = true
		ss.logger.Info("all axes homed")
	}
	ss.store.SetNeedHome(false)
	return true, errs
}

// Stop abandons any active transition and zeroes every output.
func (ss *Superstructure) Stop(ctx context.Context) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.stopInLock(ctx)
}

func (ss *Superstructure) stopInLock(ctx context.Context) error {
	ss.endActiveInLock(Cancelled)
	ss.forcedPass = false
	err := multierr.Combine(
		ss.elevator.Stop(ctx),
		ss.pivot.Stop(ctx),
		ss.wrist.Stop(ctx),
		ss.intake.Stop(ctx),
	)
	ss.current = ss.reachedInLock()
	if ss.initialized {
		ss.phase = PhaseIdle
	} else {
		ss.phase = PhaseUninitialized
	}
	return err
}

// Status returns a snapshot of the state machine.
func (ss *Superstructure) Status() Status {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	st := Status{
		Phase:       ss.phase,
		Current:     ss.current,
		LastResult:  ss.lastResult,
		Initialized: ss.initialized,
	}
	if t := ss.active; t != nil {
		st.Requested = t.Target()
		st.Leg = t.Leg()
		st.TransitionID = t.ID()
	}
	return st
}

// CurrentState is the named state the axes are at, nil when indeterminate.
func (ss *Superstructure) CurrentState() *State {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.current
}

// Active returns the transition that owns the superstructure, or nil.
func (ss *Superstructure) Active() *Transition {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.active
}

// intakePower maps a behavior to an output. Cubes run the rollers the opposite way.
func (ss *Superstructure) intakePower(b IntakeBehavior) float64 {
	var power float64
	switch b {
	case IntakeStop:
		return 0
	case IntakeHold:
		power = ss.cfg.HoldPower
	case IntakeIn:
		power = ss.cfg.IntakePower
	case IntakeOut:
		power = ss.cfg.EjectPower
	}
	if ss.store.DesiredPiece() == prefs.GamepieceCube {
		power = -power
	}
	return power
}

func (ss *Superstructure) positionsInLock() axisPositions {
	return axisPositions{
		elevator: ss.elevator.Position(),
		pivot:    ss.pivot.Position(),
		wrist:    ss.wrist.Position(),
	}
}

func (ss *Superstructure) nearestInLock() *State {
	return nearestState(ss.positionsInLock(), ss.elevator.Range(), ss.pivot.Range(), ss.wrist.Range())
}

// atInLock reports whether every axis is within tolerance of s. With positionOnly the axes'
// commanded targets are ignored and only measured positions compared.
func (ss *Superstructure) atInLock(s *State, positionOnly bool) bool {
	if !positionOnly {
		return ss.elevator.IsAtTarget() && ss.pivot.IsAtTarget() && ss.wrist.IsAtTarget()
	}
	for _, c := range []struct {
		m      mechanism.Mechanism
		target float64
	}{
		{ss.elevator, s.Elevator},
		{ss.pivot, s.Pivot},
		{ss.wrist, s.Wrist},
	} {
		if math.Abs(c.m.Position()-c.target) >= c.m.Telemetry().Tolerance {
			return false
		}
	}
	return true
}

// reachedInLock returns the named state every axis is physically within tolerance of, or nil.
func (ss *Superstructure) reachedInLock() *State {
	if !ss.initialized {
		return nil
	}
	for _, s := range allStates {
		if ss.atInLock(s, true) {
			return s
		}
	}
	return nil
}
