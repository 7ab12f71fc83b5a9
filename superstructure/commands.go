package superstructure

import (
	"context"
	"fmt"

	"go.viam.com/superstructure/command"
	"go.viam.com/superstructure/prefs"
	"go.viam.com/superstructure/utils"
)

const manualDeadband = 0.1

// TransitionCommand drives the superstructure to a fixed state and finishes when the
// transition ends, whatever its result.
type TransitionCommand struct {
	command.Base
	ss         *Superstructure
	target     *State
	transition *Transition
}

// NewTransitionCommand returns a command that transitions to target.
func NewTransitionCommand(ss *Superstructure, target *State) *TransitionCommand {
	return &TransitionCommand{
		Base:   command.NewBase(fmt.Sprintf("TransitionTo(%s)", target.Name), SubsystemName),
		ss:     ss,
		target: target,
	}
}

// Target is the state the command drives to.
func (c *TransitionCommand) Target() *State {
	return c.target
}

// Transition is the transition started by Initialize, nil before.
func (c *TransitionCommand) Transition() *Transition {
	return c.transition
}

// Initialize starts the transition.
func (c *TransitionCommand) Initialize(ctx context.Context) error {
	t, err := c.ss.TransitionTo(ctx, c.target)
	if err != nil {
		return err
	}
	c.transition = t
	return nil
}

// Execute does nothing; the superstructure's Periodic drives the transition.
func (c *TransitionCommand) Execute(ctx context.Context) error {
	return nil
}

// End cancels the transition on interruption, but only if it still owns the superstructure.
func (c *TransitionCommand) End(ctx context.Context, interrupted bool) {
	if interrupted {
		c.ss.CancelTransition(c.transition)
	}
}

// IsFinished is true once the transition has ended.
func (c *TransitionCommand) IsFinished() bool {
	return c.transition != nil && c.transition.Done()
}

// resolvingCommand picks its target state when it starts executing, not when it is built,
// and then delegates its whole lifecycle to a fresh TransitionCommand.
type resolvingCommand struct {
	command.Base
	ss      *Superstructure
	resolve func() (*State, string, bool)
	inner   *TransitionCommand
	skipped bool
}

func (c *resolvingCommand) Name() string {
	if c.inner == nil {
		return c.Base.Name() + "(null)"
	}
	return c.Base.Name() + "(" + c.inner.Name() + ")"
}

// Resolved returns the state chosen by the last Initialize, nil if nothing was chosen.
func (c *resolvingCommand) Resolved() *State {
	if c.inner == nil {
		return nil
	}
	return c.inner.Target()
}

func (c *resolvingCommand) Initialize(ctx context.Context) error {
	c.inner = nil
	c.skipped = false
	target, pref, ok := c.resolve()
	if !ok {
		c.skipped = true
		c.ss.logger.Warnw("no operator preference selected yet, not moving", "command", c.Base.Name(), "preference", pref)
		return nil
	}
	c.inner = NewTransitionCommand(c.ss, target)
	return c.inner.Initialize(ctx)
}

func (c *resolvingCommand) Execute(ctx context.Context) error {
	if c.inner == nil {
		return nil
	}
	return c.inner.Execute(ctx)
}

func (c *resolvingCommand) End(ctx context.Context, interrupted bool) {
	if c.inner != nil {
		c.inner.End(ctx, interrupted)
	}
}

func (c *resolvingCommand) IsFinished() bool {
	if c.skipped {
		return true
	}
	return c.inner != nil && c.inner.IsFinished()
}

// NewTransitionToPlace returns a command that reads the score level when it starts and moves
// to the matching place state.
func NewTransitionToPlace(ss *Superstructure, store *prefs.Store) command.Command {
	return &resolvingCommand{
		Base: command.NewBase("TransitionToPlace", SubsystemName),
		ss:   ss,
		resolve: func() (*State, string, bool) {
			level, ok := store.ScoreLevel()
			if !ok {
				return nil, "score_level", false
			}
			return PlaceState(level.PlaceLevel()), "score_level", true
		},
	}
}

// NewTransitionToPickup returns a command that reads the pickup mode when it starts and moves
// to the matching pickup state.
func NewTransitionToPickup(ss *Superstructure, store *prefs.Store) command.Command {
	return &resolvingCommand{
		Base: command.NewBase("TransitionToPickup", SubsystemName),
		ss:   ss,
		resolve: func() (*State, string, bool) {
			mode, ok := store.PickupMode()
			if !ok {
				return nil, "pickup_mode", false
			}
			return PickupState(mode), "pickup_mode", true
		},
	}
}

// PlaceState maps a place level to its state.
func PlaceState(level prefs.PlaceLevel) *State {
	switch level {
	case prefs.PlaceHigh:
		return PlaceHigh
	case prefs.PlaceMiddle:
		return PlaceMid
	case prefs.PlaceLow:
		return PlaceLow
	}
	return PlaceLow
}

// PickupState maps a pickup mode to its state.
func PickupState(mode prefs.PickupMode) *State {
	if mode == prefs.PickupStation {
		return PickupStation
	}
	return PickupGround
}

type manualControlCommand struct {
	command.Base
	ss                             *Superstructure
	elevator, pivot, wrist, intake func() float64
}

// NewManualControlCommand forwards joystick axes to ManualControl every tick. Axis inputs are
// deadbanded and halved; the intake input passes straight through. It never finishes.
func NewManualControlCommand(ss *Superstructure, elevator, pivot, wrist, intakeIn func() float64) command.Command {
	return &manualControlCommand{
		Base:     command.NewBase("ManualControl", SubsystemName),
		ss:       ss,
		elevator: elevator,
		pivot:    pivot,
		wrist:    wrist,
		intake:   intakeIn,
	}
}

func (c *manualControlCommand) Initialize(ctx context.Context) error { return nil }

func (c *manualControlCommand) Execute(ctx context.Context) error {
	return c.ss.ManualControl(ctx,
		utils.Deadband(c.wrist(), manualDeadband)/2,
		utils.Deadband(c.pivot(), manualDeadband)/2,
		utils.Deadband(c.elevator(), manualDeadband)/2,
		c.intake(),
	)
}

func (c *manualControlCommand) End(ctx context.Context, interrupted bool) {
	if err := c.ss.EndManual(ctx); err != nil {
		c.ss.logger.Warnw("cannot stop after manual control", "error", err)
	}
}

func (c *manualControlCommand) IsFinished() bool { return false }

type homeCommand struct {
	command.Base
	ss    *Superstructure
	force bool
	homed bool
}

// NewHomeCommand homes every axis and finishes once all are homed. With force the homing
// state machines restart even if already homed.
func NewHomeCommand(ss *Superstructure, force bool) command.Command {
	name := "HomeAll"
	if force {
		name = "HomeAll(force)"
	}
	return &homeCommand{Base: command.NewBase(name, SubsystemName), ss: ss, force: force}
}

func (c *homeCommand) Initialize(ctx context.Context) error {
	c.homed = false
	return nil
}

func (c *homeCommand) Execute(ctx context.Context) error {
	homed, err := c.ss.HomeAll(ctx, c.force)
	c.homed = homed
	return err
}

func (c *homeCommand) End(ctx context.Context, interrupted bool) {
	if interrupted && !c.homed {
		if err := c.ss.Stop(ctx); err != nil {
			c.ss.logger.Warnw("cannot stop interrupted homing", "error", err)
		}
	}
}

func (c *homeCommand) IsFinished() bool { return c.homed }

// NewSetScoreLevelCommand records a score level. It runs while disabled.
func NewSetScoreLevelCommand(store *prefs.Store, level prefs.ScoreLevel) command.Command {
	return command.NewInstant(fmt.Sprintf("SetScoreLevel(%s)", level), func(ctx context.Context) error {
		store.SetScoreLevel(level)
		return nil
	})
}

// NewSetPickupModeCommand records a pickup mode. It runs while disabled.
func NewSetPickupModeCommand(store *prefs.Store, mode prefs.PickupMode) command.Command {
	return command.NewInstant(fmt.Sprintf("SetPickupMode(%s)", mode), func(ctx context.Context) error {
		store.SetPickupMode(mode)
		return nil
	})
}

// NewSetDesiredPieceCommand records the game piece the operator is going for. It runs while
// disabled.
func NewSetDesiredPieceCommand(store *prefs.Store, piece prefs.Gamepiece) command.Command {
	return command.NewInstant(fmt.Sprintf("SetDesiredPiece(%s)", piece), func(ctx context.Context) error {
		store.SetDesiredPiece(piece)
		return nil
	})
}

// NewSetHeldPieceCommand records the game piece the operator sees in the intake. It runs
// while disabled.
func NewSetHeldPieceCommand(store *prefs.Store, piece prefs.Gamepiece) command.Command {
	return command.NewInstant(fmt.Sprintf("SetHeldPiece(%s)", piece), func(ctx context.Context) error {
		store.SetHeldPiece(piece)
		return nil
	})
}
