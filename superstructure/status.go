package superstructure

import (
	"github.com/google/uuid"
)

// Phase is the superstructure's coarse state.
type Phase int

// The phases. The superstructure is Uninitialized until every axis has homed once.
const (
	PhaseUninitialized Phase = iota
	PhaseIdle
	PhaseTransitioning
	PhaseManual
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseIdle:
		return "idle"
	case PhaseTransitioning:
		return "transitioning"
	case PhaseManual:
		return "manual"
	}
	return "unknown"
}

// Status is a read-only snapshot for telemetry.
type Status struct {
	Phase Phase
	// Current is the named state the axes are at, nil when indeterminate.
	Current *State
	// Requested is the target of the active transition.
	Requested    *State
	Leg          *State
	TransitionID uuid.UUID
	LastResult   Result
	Initialized  bool
}
