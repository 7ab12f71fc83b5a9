// Package command runs commands against subsystems on a fixed-rate tick.
//
// A command declares the subsystems it requires. Scheduling a command preempts every running
// command that shares a requirement; nothing ever queues. Each Run is one control tick: the
// subsystems' Periodic, then newly scheduled commands are initialized, then every running
// command executes and is checked for completion.
package command

import (
	"context"
	"fmt"
	"strings"
)

// A Command is a unit of robot behavior with a lifecycle driven by the Scheduler.
type Command interface {
	Name() string
	// Requirements are the names of the subsystems the command uses exclusively.
	Requirements() []string
	// RunsWhenDisabled commands may be scheduled and keep running while the robot is disabled.
	RunsWhenDisabled() bool

	// Initialize is called once, on the first tick after scheduling.
	Initialize(ctx context.Context) error
	// Execute is called every tick while scheduled, starting with the tick of Initialize.
	Execute(ctx context.Context) error
	// End is called once when the command finishes or is interrupted.
	End(ctx context.Context, interrupted bool)
	IsFinished() bool
}

// A Subsystem is a robot resource commands can require. Periodic runs once per tick before
// any command.
type Subsystem interface {
	Name() string
	Periodic(ctx context.Context) error
}

// Base carries the static parts of a command and is meant to be embedded.
type Base struct {
	name             string
	requirements     []string
	runsWhenDisabled bool
}

// NewBase returns a Base with the given name and requirements.
func NewBase(name string, requirements ...string) Base {
	return Base{name: name, requirements: requirements}
}

// IgnoringDisable returns a copy of b that runs while the robot is disabled.
func (b Base) IgnoringDisable() Base {
	b.runsWhenDisabled = true
	return b
}

// Name returns the command name.
func (b Base) Name() string {
	return b.name
}

// Requirements returns the required subsystem names.
func (b Base) Requirements() []string {
	return b.requirements
}

// RunsWhenDisabled reports whether the command runs while disabled.
func (b Base) RunsWhenDisabled() bool {
	return b.runsWhenDisabled
}

type instant struct {
	Base
	fn func(ctx context.Context) error
}

// NewInstant returns a command that calls fn once and finishes. It runs while disabled so it
// can be used for operator selections.
func NewInstant(name string, fn func(ctx context.Context) error, requirements ...string) Command {
	return &instant{Base: NewBase(name, requirements...).IgnoringDisable(), fn: fn}
}

func (c *instant) Initialize(ctx context.Context) error {
	return c.fn(ctx)
}

func (c *instant) Execute(ctx context.Context) error { return nil }

func (c *instant) End(ctx context.Context, interrupted bool) {}

func (c *instant) IsFinished() bool { return true }

type run struct {
	Base
	fn func(ctx context.Context) error
}

// NewRun returns a command that calls fn every tick and never finishes on its own.
func NewRun(name string, fn func(ctx context.Context) error, requirements ...string) Command {
	return &run{Base: NewBase(name, requirements...), fn: fn}
}

func (c *run) Initialize(ctx context.Context) error { return nil }

func (c *run) Execute(ctx context.Context) error {
	return c.fn(ctx)
}

func (c *run) End(ctx context.Context, interrupted bool) {}

func (c *run) IsFinished() bool { return false }

type sequence struct {
	commands []Command
	index    int
	started  bool
}

// NewSequence returns a command running cmds one after another. It requires the union of
// their requirements and runs while disabled only if all of them do.
func NewSequence(cmds ...Command) Command {
	return &sequence{commands: cmds}
}

func (s *sequence) Name() string {
	names := make([]string, 0, len(s.commands))
	for _, c := range s.commands {
		names = append(names, c.Name())
	}
	return fmt.Sprintf("Sequence(%s)", strings.Join(names, ", "))
}

func (s *sequence) Requirements() []string {
	seen := map[string]struct{}{}
	var reqs []string
	for _, c := range s.commands {
		for _, r := range c.Requirements() {
			if _, ok := seen[r]; !ok {
				seen[r] = struct{}{}
				reqs = append(reqs, r)
			}
		}
	}
	return reqs
}

func (s *sequence) RunsWhenDisabled() bool {
	for _, c := range s.commands {
		if !c.RunsWhenDisabled() {
			return false
		}
	}
	return true
}

func (s *sequence) Initialize(ctx context.Context) error {
	s.index = 0
	s.started = false
	return nil
}

func (s *sequence) Execute(ctx context.Context) error {
	for s.index < len(s.commands) {
		current := s.commands[s.index]
		if !s.started {
			s.started = true
			if err := current.Initialize(ctx); err != nil {
				current.End(ctx, true)
				s.index = len(s.commands)
				return err
			}
		}
		if err := current.Execute(ctx); err != nil {
			return err
		}
		if !current.IsFinished() {
			return nil
		}
		current.End(ctx, false)
		s.index++
		s.started = false
	}
	return nil
}

func (s *sequence) End(ctx context.Context, interrupted bool) {
	if interrupted && s.started && s.index < len(s.commands) {
		s.commands[s.index].End(ctx, true)
	}
}

func (s *sequence) IsFinished() bool {
	return s.index >= len(s.commands)
}
