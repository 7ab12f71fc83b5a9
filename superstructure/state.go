package superstructure

import (
	"math"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"go.viam.com/superstructure/components/mechanism"
)

// IntakeBehavior is what the intake does while the superstructure is in a state.
type IntakeBehavior int

// The intake behaviors.
const (
	IntakeStop IntakeBehavior = iota
	IntakeHold
	IntakeIn
	IntakeOut
)

func (b IntakeBehavior) String() string {
	switch b {
	case IntakeStop:
		return "stop"
	case IntakeHold:
		return "hold"
	case IntakeIn:
		return "in"
	case IntakeOut:
		return "out"
	}
	return "unknown"
}

// A State is a named configuration of the three axes plus an intake behavior. States are
// defined once below and shared by pointer; compare them with ==.
type State struct {
	Name     string
	Elevator float64
	Pivot    float64
	Wrist    float64
	Intake   IntakeBehavior
}

func (s *State) String() string {
	if s == nil {
		return "indeterminate"
	}
	return s.Name
}

// The named states. Elevator in meters, pivot and wrist in degrees.
var (
	Home          = &State{Name: "HOME", Elevator: 0, Pivot: -45, Wrist: 130, Intake: IntakeStop}
	Stow          = &State{Name: "STOW", Elevator: 0, Pivot: 0, Wrist: 120, Intake: IntakeHold}
	Standby       = &State{Name: "STANDBY", Elevator: 0.3, Pivot: 45, Wrist: 90, Intake: IntakeHold}
	PlaceHigh     = &State{Name: "PLACE_HIGH", Elevator: 1.15, Pivot: 50, Wrist: 40, Intake: IntakeHold}
	PlaceMid      = &State{Name: "PLACE_MID", Elevator: 0.75, Pivot: 45, Wrist: 50, Intake: IntakeHold}
	PlaceLow      = &State{Name: "PLACE_LOW", Elevator: 0.2, Pivot: -20, Wrist: 30, Intake: IntakeHold}
	PickupGround  = &State{Name: "PICKUP_GROUND", Elevator: 0.1, Pivot: -30, Wrist: 10, Intake: IntakeIn}
	PickupStation = &State{Name: "PICKUP_STATION", Elevator: 0.9, Pivot: 60, Wrist: 70, Intake: IntakeIn}
)

var allStates = []*State{Home, Stow, Standby, PlaceHigh, PlaceMid, PlaceLow, PickupGround, PickupStation}

// adjacency lists the pairs the superstructure may move between directly. Straight-line
// motion between any other pair could hit the frame, so those moves go through waypoints.
var adjacency = map[*State][]*State{}

func init() {
	for _, pair := range [][2]*State{
		{Home, Stow},
		{Stow, Standby},
		{Stow, PlaceLow},
		{Stow, PickupGround},
		{Standby, PlaceHigh},
		{Standby, PlaceMid},
		{Standby, PlaceLow},
		{Standby, PickupGround},
		{Standby, PickupStation},
		{PlaceHigh, PlaceMid},
	} {
		adjacency[pair[0]] = append(adjacency[pair[0]], pair[1])
		adjacency[pair[1]] = append(adjacency[pair[1]], pair[0])
	}
}

// States returns every named state in definition order.
func States() []*State {
	return append([]*State(nil), allStates...)
}

// StateByName looks a state up by its name.
func StateByName(name string) (*State, bool) {
	return lo.Find(allStates, func(s *State) bool { return s.Name == name })
}

// Adjacent reports whether the superstructure may move between a and b directly.
func Adjacent(a, b *State) bool {
	return lo.Contains(adjacency[a], b)
}

// Neighbors returns the states directly reachable from s.
func Neighbors(s *State) []*State {
	return append([]*State(nil), adjacency[s]...)
}

// Route returns the shortest chain of states from from to to, excluding from and ending with
// to. Moving to the state you are in yields just that state. Ties go to the neighbor listed
// first in the adjacency table.
func Route(from, to *State) ([]*State, error) {
	if from == nil || to == nil {
		return nil, errors.New("cannot route to or from an indeterminate state")
	}
	if from == to {
		return []*State{to}, nil
	}
	prev := map[*State]*State{from: nil}
	queue := []*State{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == to {
			break
		}
		for _, next := range adjacency[cur] {
			if _, seen := prev[next]; seen {
				continue
			}
			prev[next] = cur
			queue = append(queue, next)
		}
	}
	if _, ok := prev[to]; !ok {
		return nil, errors.Errorf("no route from %s to %s", from.Name, to.Name)
	}
	var route []*State
	for s := to; s != from; s = prev[s] {
		route = append(route, s)
	}
	return lo.Reverse(route), nil
}

// ValidateStates checks every named state's targets against the axis ranges.
func ValidateStates(elevator, pivot, wrist mechanism.Range) error {
	var errs error
	for _, s := range allStates {
		for _, check := range []struct {
			name  string
			r     mechanism.Range
			value float64
		}{
			{"elevator", elevator, s.Elevator},
			{"pivot", pivot, s.Pivot},
			{"wrist", wrist, s.Wrist},
		} {
			if err := check.r.Check(check.name, check.value); err != nil {
				errs = multierr.Append(errs, errors.Wrapf(err, "state %s", s.Name))
			}
		}
	}
	return errs
}

type axisPositions struct {
	elevator, pivot, wrist float64
}

// nearestState returns the named state closest to the given positions, with each axis'
// error normalized by the width of its range.
func nearestState(pos axisPositions, elevator, pivot, wrist mechanism.Range) *State {
	return lo.MinBy(allStates, func(a, b *State) bool {
		return distance(pos, a, elevator, pivot, wrist) < distance(pos, b, elevator, pivot, wrist)
	})
}

func distance(pos axisPositions, s *State, elevator, pivot, wrist mechanism.Range) float64 {
	norm := func(v, target float64, r mechanism.Range) float64 {
		return (v - target) / (r.Max - r.Min)
	}
	return math.Hypot(math.Hypot(
		norm(pos.elevator, s.Elevator, elevator),
		norm(pos.pivot, s.Pivot, pivot)),
		norm(pos.wrist, s.Wrist, wrist))
}
