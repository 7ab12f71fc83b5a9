package robot

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/atomic"

	"go.viam.com/superstructure/command"
	"go.viam.com/superstructure/prefs"
	"go.viam.com/superstructure/superstructure"
)

// binding is the command a button schedules. A forced binding restarts its command when it is
// already running, so pressing "place" again re-reads the score level.
type binding struct {
	cmd   command.Command
	force bool
}

// manualInputs are the latest joystick axes, written by the operator interface and read by the
// manual control command every tick.
type manualInputs struct {
	elevator atomic.Float64
	pivot    atomic.Float64
	wrist    atomic.Float64
	intake   atomic.Float64
}

func (r *Robot) newBindings() map[string]binding {
	transition := func(s *superstructure.State) binding {
		return binding{cmd: superstructure.NewTransitionCommand(r.ss, s)}
	}
	instant := func(cmd command.Command) binding {
		return binding{cmd: cmd}
	}
	return map[string]binding{
		// driver
		"place":   {cmd: superstructure.NewTransitionToPlace(r.ss, r.store), force: true},
		"pickup":  {cmd: superstructure.NewTransitionToPickup(r.ss, r.store), force: true},
		"standby": transition(superstructure.Standby),
		"stow":    transition(superstructure.Stow),
		"home":    transition(superstructure.Home),
		"rehome":  {cmd: superstructure.NewHomeCommand(r.ss, true), force: true},
		"manual": {cmd: superstructure.NewManualControlCommand(r.ss,
			r.manual.elevator.Load, r.manual.pivot.Load, r.manual.wrist.Load, r.manual.intake.Load)},

		// operator
		"score-high":      instant(superstructure.NewSetScoreLevelCommand(r.store, prefs.ScoreHigh)),
		"score-mid":       instant(superstructure.NewSetScoreLevelCommand(r.store, prefs.ScoreMid)),
		"score-low-front": instant(superstructure.NewSetScoreLevelCommand(r.store, prefs.ScoreLowFront)),
		"score-low-back":  instant(superstructure.NewSetScoreLevelCommand(r.store, prefs.ScoreLowBack)),
		"pickup-ground":   instant(superstructure.NewSetPickupModeCommand(r.store, prefs.PickupGround)),
		"pickup-station":  instant(superstructure.NewSetPickupModeCommand(r.store, prefs.PickupStation)),
		"cone":            instant(superstructure.NewSetDesiredPieceCommand(r.store, prefs.GamepieceCone)),
		"cube":            instant(superstructure.NewSetDesiredPieceCommand(r.store, prefs.GamepieceCube)),
		"holding-cone":    instant(superstructure.NewSetHeldPieceCommand(r.store, prefs.GamepieceCone)),
		"holding-cube":    instant(superstructure.NewSetHeldPieceCommand(r.store, prefs.GamepieceCube)),
		"released":        instant(superstructure.NewSetHeldPieceCommand(r.store, prefs.GamepieceNone)),
	}
}

// Buttons returns the names Press accepts, sorted.
func (r *Robot) Buttons() []string {
	names := lo.Keys(r.bindings)
	sort.Strings(names)
	return names
}

// Press schedules the command bound to button. It reports false if the command was not
// scheduled because the robot is disabled.
func (r *Robot) Press(ctx context.Context, button string) (bool, error) {
	b, ok := r.bindings[strings.ToLower(button)]
	if !ok {
		return false, errors.Errorf("unknown button %q, expected one of %s", button, strings.Join(r.Buttons(), ", "))
	}
	if b.force {
		r.scheduler.Cancel(ctx, b.cmd)
	}
	scheduled := r.scheduler.Schedule(ctx, b.cmd)
	r.logger.Debugw("button pressed", "button", button, "command", b.cmd.Name(), "scheduled", scheduled)
	return scheduled, nil
}

// SetManualInputs records joystick axes for the "manual" binding. Values are raw stick
// positions; deadband and scaling happen in the command.
func (r *Robot) SetManualInputs(elevator, pivot, wrist, intakePct float64) {
	r.manual.elevator.Store(elevator)
	r.manual.pivot.Store(pivot)
	r.manual.wrist.Store(wrist)
	r.manual.intake.Store(intakePct)
}

// IsRunning reports whether the command bound to button is scheduled.
func (r *Robot) IsRunning(button string) bool {
	b, ok := r.bindings[strings.ToLower(button)]
	return ok && r.scheduler.IsScheduled(b.cmd)
}
