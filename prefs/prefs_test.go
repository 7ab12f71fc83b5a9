package prefs

import (
	"sync"
	"testing"

	"go.viam.com/test"
)

func TestPlaceLevel(t *testing.T) {
	for _, tc := range []struct {
		score    ScoreLevel
		expected PlaceLevel
	}{
		{ScoreHigh, PlaceHigh},
		{ScoreMid, PlaceMiddle},
		{ScoreLowFront, PlaceLow},
		{ScoreLowBack, PlaceLow},
	} {
		t.Run(tc.score.String(), func(t *testing.T) {
			test.That(t, tc.score.PlaceLevel(), test.ShouldEqual, tc.expected)
		})
	}
}

func TestParse(t *testing.T) {
	level, err := ParseScoreLevel("low-front")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, ScoreLowFront)
	level, err = ParseScoreLevel(ScoreLowBack.String())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, ScoreLowBack)
	_, err = ParseScoreLevel("top")
	test.That(t, err, test.ShouldNotBeNil)

	mode, err := ParsePickupMode("Station")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mode, test.ShouldEqual, PickupStation)
	_, err = ParsePickupMode("shelf")
	test.That(t, err, test.ShouldNotBeNil)

	piece, err := ParseGamepiece("cube")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, piece, test.ShouldEqual, GamepieceCube)
	piece, err = ParseGamepiece("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, piece, test.ShouldEqual, GamepieceNone)
}

func TestStore(t *testing.T) {
	s := NewStore()
	_, ok := s.ScoreLevel()
	test.That(t, ok, test.ShouldBeFalse)
	_, ok = s.PickupMode()
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, s.NeedHome(), test.ShouldBeTrue)
	test.That(t, s.DesiredPiece(), test.ShouldEqual, GamepieceNone)

	s.SetScoreLevel(ScoreHigh)
	level, ok := s.ScoreLevel()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, level, test.ShouldEqual, ScoreHigh)

	s.SetPickupMode(PickupStation)
	s.SetDesiredPiece(GamepieceCube)
	s.SetHeldPiece(GamepieceCone)
	s.SetNeedHome(false)

	test.That(t, s.Snapshot(), test.ShouldResemble, Snapshot{
		ScoreLevel:    ScoreHigh,
		ScoreLevelSet: true,
		PickupMode:    PickupStation,
		PickupModeSet: true,
		DesiredPiece:  GamepieceCube,
		HeldPiece:     GamepieceCone,
	})
}

func TestStoreConcurrentWriter(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			s.SetScoreLevel(ScoreLevel(i % 4))
		}
	}()
	for i := 0; i < 1000; i++ {
		if level, ok := s.ScoreLevel(); ok {
			test.That(t, level.PlaceLevel(), test.ShouldBeIn, []PlaceLevel{PlaceHigh, PlaceMiddle, PlaceLow})
		}
	}
	wg.Wait()
	level, _ := s.ScoreLevel()
	test.That(t, level, test.ShouldEqual, ScoreLowBack)
}

func TestFirstSelectionSeenWhole(t *testing.T) {
	for i := 0; i < 200; i++ {
		s := NewStore()
		done := make(chan struct{})
		go func() {
			defer close(done)
			s.SetScoreLevel(ScoreLowBack)
			s.SetPickupMode(PickupStation)
		}()
		// once a selection reads as set it is never the zero value
		for {
			level, levelSet := s.ScoreLevel()
			if levelSet {
				test.That(t, level, test.ShouldEqual, ScoreLowBack)
			}
			mode, modeSet := s.PickupMode()
			if modeSet {
				test.That(t, mode, test.ShouldEqual, PickupStation)
				break
			}
		}
		<-done
	}
}
