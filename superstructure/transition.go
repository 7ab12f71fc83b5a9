package superstructure

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"go.viam.com/superstructure/operation"
)

// Result is how a transition ended.
type Result int

// The transition results. A transition is Pending until it ends.
const (
	Pending Result = iota
	Completed
	TimedOut
	Preempted
	Cancelled
)

func (r Result) String() string {
	switch r {
	case Pending:
		return "pending"
	case Completed:
		return "completed"
	case TimedOut:
		return "timed_out"
	case Preempted:
		return "preempted"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

// A Transition is one request to drive the superstructure to a target state through a chain
// of adjacent states. At most one transition owns the superstructure at a time.
type Transition struct {
	mu sync.Mutex

	id     uuid.UUID
	target *State
	route  []*State
	op     *operation.Operation

	leg        int
	legApplied bool
	legStarted time.Time
	result     Result
	ended      time.Time
}

func newTransition(op *operation.Operation, target *State, route []*State) *Transition {
	return &Transition{id: op.ID, op: op, target: target, route: route}
}

// ID identifies the transition.
func (t *Transition) ID() uuid.UUID {
	return t.id
}

// Target is the requested state.
func (t *Transition) Target() *State {
	return t.target
}

// Route is the chain of states the transition drives through, ending with Target.
func (t *Transition) Route() []*State {
	return append([]*State(nil), t.route...)
}

// Leg returns the state currently being driven to, or nil once the transition has ended.
func (t *Transition) Leg() *State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.result != Pending || t.leg >= len(t.route) {
		return nil
	}
	return t.route[t.leg]
}

// Result is Pending while the transition runs.
func (t *Transition) Result() Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result
}

// Done reports whether the transition has ended for any reason.
func (t *Transition) Done() bool {
	return t.Result() != Pending
}

func (t *Transition) String() string {
	names := make([]string, 0, len(t.route))
	for _, s := range t.route {
		names = append(names, s.Name)
	}
	return t.target.Name + " via [" + strings.Join(names, " ") + "]"
}

// finish records the result once; later calls are ignored.
func (t *Transition) finish(result Result, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.result != Pending {
		return false
	}
	t.result = result
	t.ended = now
	return true
}

// currentLeg returns the leg state and, the first time it is asked for a leg, records now as
// the leg's start.
func (t *Transition) currentLeg(now time.Time) (*State, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	first := !t.legApplied
	if first {
		t.legApplied = true
		t.legStarted = now
	}
	return t.route[t.leg], first
}

func (t *Transition) legElapsed(now time.Time) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return now.Sub(t.legStarted)
}

// advance moves to the next leg and reports whether the route is exhausted.
func (t *Transition) advance() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.leg++
	t.legApplied = false
	return t.leg >= len(t.route)
}
