package superstructure

import (
	"testing"

	"go.viam.com/test"

	"go.viam.com/superstructure/components/mechanism"
)

func TestRoute(t *testing.T) {
	for _, tc := range []struct {
		from, to *State
		expected []*State
	}{
		{Stow, PlaceHigh, []*State{Standby, PlaceHigh}},
		{Home, PickupGround, []*State{Stow, PickupGround}},
		{Home, PlaceHigh, []*State{Stow, Standby, PlaceHigh}},
		{PlaceHigh, PlaceMid, []*State{PlaceMid}},
		{PickupStation, Home, []*State{Standby, Stow, Home}},
		{Stow, Stow, []*State{Stow}},
	} {
		t.Run(tc.from.Name+"->"+tc.to.Name, func(t *testing.T) {
			route, err := Route(tc.from, tc.to)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, route, test.ShouldResemble, tc.expected)
		})
	}

	_, err := Route(nil, Stow)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestAdjacency(t *testing.T) {
	test.That(t, Adjacent(Stow, Standby), test.ShouldBeTrue)
	test.That(t, Adjacent(Standby, Stow), test.ShouldBeTrue)
	test.That(t, Adjacent(Stow, PlaceHigh), test.ShouldBeFalse)
	test.That(t, Neighbors(Home), test.ShouldResemble, []*State{Stow})

	// every state can reach every other, and each hop of a route is a direct move
	for _, from := range States() {
		for _, to := range States() {
			route, err := Route(from, to)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, route[len(route)-1], test.ShouldEqual, to)
			prev := from
			for _, s := range route {
				if s != prev {
					test.That(t, Adjacent(prev, s), test.ShouldBeTrue)
				}
				prev = s
			}
		}
	}
}

func TestStateByName(t *testing.T) {
	s, ok := StateByName("PICKUP_GROUND")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, s, test.ShouldEqual, PickupGround)
	test.That(t, s.Elevator, test.ShouldEqual, 0.1)
	test.That(t, s.Pivot, test.ShouldEqual, -30)
	test.That(t, s.Wrist, test.ShouldEqual, 10)

	_, ok = StateByName("SCORE")
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, len(States()), test.ShouldEqual, 8)
	test.That(t, States()[0], test.ShouldEqual, Home)

	var indeterminate *State
	test.That(t, indeterminate.String(), test.ShouldEqual, "indeterminate")
}

func TestValidateStates(t *testing.T) {
	elevator := mechanism.Range{Min: 0, Max: 1.2}
	pivot := mechanism.Range{Min: -45, Max: 100}
	wrist := mechanism.Range{Min: -10, Max: 130}
	test.That(t, ValidateStates(elevator, pivot, wrist), test.ShouldBeNil)

	err := ValidateStates(mechanism.Range{Min: 0, Max: 1.0}, pivot, wrist)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "state PLACE_HIGH")
	test.That(t, mechanism.IsSetpointTooHigh(err), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldNotContainSubstring, "PLACE_MID")
}

func TestNearestState(t *testing.T) {
	elevator := mechanism.Range{Min: 0, Max: 1.2}
	pivot := mechanism.Range{Min: -45, Max: 100}
	wrist := mechanism.Range{Min: -10, Max: 130}
	for _, tc := range []struct {
		pos      axisPositions
		expected *State
	}{
		{axisPositions{0.29, 44, 91}, Standby},
		{axisPositions{0.01, -40, 128}, Home},
		{axisPositions{1.0, 48, 45}, PlaceHigh},
		{axisPositions{0.12, -28, 5}, PickupGround},
	} {
		test.That(t, nearestState(tc.pos, elevator, pivot, wrist), test.ShouldEqual, tc.expected)
	}
}
