package command

import (
	"context"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/multierr"

	"go.viam.com/superstructure/logging"
)

type scheduled struct {
	cmd         Command
	initialized bool
}

// Scheduler owns the running commands. All methods are safe to call from any goroutine; Run
// is expected to be called from a single control loop.
type Scheduler struct {
	mu         sync.Mutex
	logger     logging.Logger
	subsystems []Subsystem
	defaults   map[string]Command
	running    []*scheduled
	enabled    bool
}

// NewScheduler returns a disabled scheduler with no subsystems.
func NewScheduler(logger logging.Logger) *Scheduler {
	return &Scheduler{logger: logger, defaults: map[string]Command{}}
}

// RegisterSubsystem adds subsystems whose Periodic runs at the start of every tick.
func (s *Scheduler) RegisterSubsystem(subsystems ...Subsystem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subsystems = append(s.subsystems, subsystems...)
}

// SetDefaultCommand sets the command scheduled for subsystem whenever nothing else requires
// it. The command must require the subsystem.
func (s *Scheduler) SetDefaultCommand(subsystem Subsystem, cmd Command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !lo.Contains(cmd.Requirements(), subsystem.Name()) {
		s.logger.Warnw("default command does not require its subsystem, ignoring",
			"command", cmd.Name(), "subsystem", subsystem.Name())
		return
	}
	s.defaults[subsystem.Name()] = cmd
}

// Schedule starts cmd on the next tick, interrupting every running command that shares one of
// its requirements. It returns false if the command cannot run while disabled. Scheduling a
// command that is already scheduled does nothing.
func (s *Scheduler) Schedule(ctx context.Context, cmd Command) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduleInLock(ctx, cmd)
}

func (s *Scheduler) scheduleInLock(ctx context.Context, cmd Command) bool {
	if !s.enabled && !cmd.RunsWhenDisabled() {
		s.logger.Debugw("not scheduling command while disabled", "command", cmd.Name())
		return false
	}
	if s.indexInLock(cmd) >= 0 {
		return true
	}
	reqs := cmd.Requirements()
	kept := s.running[:0]
	for _, sc := range s.running {
		if len(reqs) > 0 && lo.Some(sc.cmd.Requirements(), reqs) {
			s.logger.Debugw("command preempted", "command", sc.cmd.Name(), "by", cmd.Name())
			if sc.initialized {
				sc.cmd.End(ctx, true)
			}
			continue
		}
		kept = append(kept, sc)
	}
	s.running = append(kept, &scheduled{cmd: cmd})
	return true
}

// Cancel interrupts cmd if it is scheduled.
func (s *Scheduler) Cancel(ctx context.Context, cmd Command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexInLock(cmd)
	if idx < 0 {
		return
	}
	sc := s.running[idx]
	s.running = append(s.running[:idx], s.running[idx+1:]...)
	if sc.initialized {
		sc.cmd.End(ctx, true)
	}
}

// CancelAll interrupts every scheduled command.
func (s *Scheduler) CancelAll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelWhereInLock(ctx, func(Command) bool { return true })
}

// IsScheduled reports whether cmd is scheduled.
func (s *Scheduler) IsScheduled(cmd Command) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexInLock(cmd) >= 0
}

// Running returns the names of the scheduled commands in scheduling order.
func (s *Scheduler) Running() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Map(s.running, func(sc *scheduled, _ int) string { return sc.cmd.Name() })
}

// SetEnabled enables or disables the robot. Disabling interrupts every command that does not
// run while disabled.
func (s *Scheduler) SetEnabled(ctx context.Context, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enabled == enabled {
		return
	}
	s.enabled = enabled
	s.logger.Infow("robot enable changed", "enabled", enabled)
	if !enabled {
		s.cancelWhereInLock(ctx, func(cmd Command) bool { return !cmd.RunsWhenDisabled() })
	}
}

// Enabled reports whether the robot is enabled.
func (s *Scheduler) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Run advances one tick. Errors from subsystems and commands are logged and returned combined;
// a failing command is interrupted, everything else keeps running.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs error
	for _, sub := range s.subsystems {
		if err := sub.Periodic(ctx); err != nil {
			s.logger.Errorw("subsystem periodic failed", "subsystem", sub.Name(), "error", err)
			errs = multierr.Append(errs, err)
		}
	}

	s.scheduleDefaultsInLock(ctx)

	kept := s.running[:0]
	for _, sc := range s.running {
		if !sc.initialized {
			sc.initialized = true
			if err := sc.cmd.Initialize(ctx); err != nil {
				s.logger.Errorw("command failed to initialize", "command", sc.cmd.Name(), "error", err)
				errs = multierr.Append(errs, err)
				sc.cmd.End(ctx, true)
				continue
			}
		}
		if err := sc.cmd.Execute(ctx); err != nil {
			s.logger.Errorw("command failed", "command", sc.cmd.Name(), "error", err)
			errs = multierr.Append(errs, err)
			sc.cmd.End(ctx, true)
			continue
		}
		if sc.cmd.IsFinished() {
			sc.cmd.End(ctx, false)
			s.logger.Debugw("command finished", "command", sc.cmd.Name())
			continue
		}
		kept = append(kept, sc)
	}
	// nil the tail so finished commands can be collected
	for i := len(kept); i < len(s.running); i++ {
		s.running[i] = nil
	}
	s.running = kept
	return errs
}

func (s *Scheduler) scheduleDefaultsInLock(ctx context.Context) {
	for _, sub := range s.subsystems {
		cmd, ok := s.defaults[sub.Name()]
		if !ok || s.indexInLock(cmd) >= 0 {
			continue
		}
		if s.requiredInLock(sub.Name()) {
			continue
		}
		s.scheduleInLock(ctx, cmd)
	}
}

func (s *Scheduler) requiredInLock(subsystem string) bool {
	return lo.ContainsBy(s.running, func(sc *scheduled) bool {
		return lo.Contains(sc.cmd.Requirements(), subsystem)
	})
}

func (s *Scheduler) cancelWhereInLock(ctx context.Context, pred func(Command) bool) {
	kept := s.running[:0]
	for _, sc := range s.running {
		if !pred(sc.cmd) {
			kept = append(kept, sc)
			continue
		}
		if sc.initialized {
			sc.cmd.End(ctx, true)
		}
	}
	s.running = kept
}

func (s *Scheduler) indexInLock(cmd Command) int {
	for i, sc := range s.running {
		if sc.cmd == cmd {
			return i
		}
	}
	return -1
}
