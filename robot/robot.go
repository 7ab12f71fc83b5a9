// Package robot assembles a complete robot from a config: actuators, the three mechanisms, the
// intake, the preference store, the superstructure and the command scheduler. It runs the
// fixed-rate control loop and maps operator buttons to commands.
package robot

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/superstructure/command"
	"go.viam.com/superstructure/components/actuator"
	// register the simulated actuator model.
	_ "go.viam.com/superstructure/components/actuator/fake"
	"go.viam.com/superstructure/components/intake"
	"go.viam.com/superstructure/components/mechanism"
	"go.viam.com/superstructure/config"
	"go.viam.com/superstructure/logging"
	"go.viam.com/superstructure/prefs"
	"go.viam.com/superstructure/superstructure"
	"go.viam.com/superstructure/utils"
)

// Robot is a running robot.
type Robot struct {
	cfg    *config.Config
	clock  clock.Clock
	logger logging.Logger

	actuators []actuator.Actuator
	elevator  mechanism.Mechanism
	pivot     mechanism.Mechanism
	wrist     mechanism.Mechanism
	intake    intake.Intake
	store     *prefs.Store
	ss        *superstructure.Superstructure
	scheduler *command.Scheduler
	bindings  map[string]binding
	manual    manualInputs

	ticks atomic.Int64

	mu      sync.Mutex
	workers *utils.StoppableWorkers
}

// New builds every part described by cfg. The robot starts enabled unless the config says
// otherwise, but nothing moves until Tick is called or Start runs the loop.
func New(ctx context.Context, cfg *config.Config, clk clock.Clock, logger logging.Logger) (*Robot, error) {
	if err := cfg.Validate(""); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.New()
	}
	r := &Robot{cfg: cfg, clock: clk, logger: logger}

	var err error
	if r.elevator, err = r.newMechanism(ctx, cfg.Elevator); err != nil {
		return nil, err
	}
	if r.pivot, err = r.newMechanism(ctx, cfg.Pivot); err != nil {
		return nil, err
	}
	if r.wrist, err = r.newMechanism(ctx, cfg.Wrist); err != nil {
		return nil, err
	}

	act, err := r.newActuator(ctx, cfg.Intake.Model, cfg.Intake.Name, cfg.Intake.Attributes)
	if err != nil {
		return nil, err
	}
	if r.intake, err = intake.New(cfg.Intake, act, logger.Sublogger(cfg.Intake.Name)); err != nil {
		return nil, err
	}

	r.store = prefs.NewStore()
	if err := cfg.Preferences.Apply(r.store); err != nil {
		return nil, err
	}

	r.ss, err = superstructure.New(
		cfg.Superstructure(), r.elevator, r.pivot, r.wrist, r.intake, r.store, clk,
		logger.Sublogger(superstructure.SubsystemName),
	)
	if err != nil {
		return nil, err
	}

	r.scheduler = command.NewScheduler(logger.Sublogger("scheduler"))
	r.scheduler.RegisterSubsystem(r.ss)
	r.bindings = r.newBindings()
	if !cfg.DisabledAtStart {
		r.scheduler.SetEnabled(ctx, true)
	}
	return r, nil
}

func (r *Robot) newActuator(
	ctx context.Context,
	model, name string,
	attributes map[string]interface{},
) (actuator.Actuator, error) {
	act, err := actuator.New(ctx, model, name, attributes, r.clock, r.logger.Sublogger(name))
	if err != nil {
		return nil, err
	}
	r.actuators = append(r.actuators, act)
	return act, nil
}

func (r *Robot) newMechanism(ctx context.Context, cfg mechanism.Config) (mechanism.Mechanism, error) {
	act, err := r.newActuator(ctx, cfg.Model, cfg.Name, cfg.Attributes)
	if err != nil {
		return nil, err
	}
	m, err := mechanism.New(ctx, cfg, act, r.logger.Sublogger(cfg.Name))
	if err != nil {
		return nil, errors.Wrapf(err, "cannot build %s", cfg.Name)
	}
	return m, nil
}

// Superstructure returns the superstructure.
func (r *Robot) Superstructure() *superstructure.Superstructure {
	return r.ss
}

// Preferences returns the operator preference store.
func (r *Robot) Preferences() *prefs.Store {
	return r.store
}

// Scheduler returns the command scheduler.
func (r *Robot) Scheduler() *command.Scheduler {
	return r.scheduler
}

// Config returns the config the robot was built from.
func (r *Robot) Config() *config.Config {
	return r.cfg
}

// Tick runs one control loop iteration.
func (r *Robot) Tick(ctx context.Context) error {
	r.ticks.Inc()
	return r.scheduler.Run(ctx)
}

// Start runs Tick at the configured period on a background worker until Close.
func (r *Robot) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.workers != nil {
		return
	}
	r.workers = utils.NewStoppableWorkers(ctx, r.loop)
}

func (r *Robot) loop(ctx context.Context) {
	ticker := r.clock.Ticker(r.cfg.TickPeriod())
	defer ticker.Stop()
	for {
		if !goutils.SelectContextOrWaitChan(ctx, ticker.C) {
			return
		}
		// the scheduler already logs anything that fails
		goutils.UncheckedError(r.Tick(ctx))
	}
}

// Enable lets commands run.
func (r *Robot) Enable(ctx context.Context) {
	r.scheduler.SetEnabled(ctx, true)
}

// Disable interrupts every command that cannot run while disabled and stops all outputs.
func (r *Robot) Disable(ctx context.Context) error {
	r.scheduler.SetEnabled(ctx, false)
	return r.ss.Stop(ctx)
}

// Close stops the control loop, interrupts every command and stops every actuator.
func (r *Robot) Close(ctx context.Context) error {
	r.mu.Lock()
	workers := r.workers
	r.workers = nil
	r.mu.Unlock()
	if workers != nil {
		workers.Stop()
	}

	r.scheduler.CancelAll(ctx)
	err := r.ss.Stop(ctx)
	for _, act := range r.actuators {
		err = multierr.Append(err, act.Stop(ctx))
	}
	return err
}
