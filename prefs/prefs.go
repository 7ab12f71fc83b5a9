// Package prefs holds the operator's selections: score level, pickup mode and game pieces.
//
// Operator input handlers write these at any time, even while the robot is disabled; the
// control loop reads them once per tick. Each field is an atomic so a writer and the loop may
// run on different goroutines.
package prefs

import (
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

// ScoreLevel is the operator's selected scoring row.
type ScoreLevel int32

// The score levels.
const (
	ScoreHigh ScoreLevel = iota
	ScoreMid
	ScoreLowFront
	ScoreLowBack
)

// PlaceLevel is a score level collapsed to the rows the superstructure can place at.
type PlaceLevel int32

// The place levels.
const (
	PlaceHigh PlaceLevel = iota
	PlaceMiddle
	PlaceLow
)

// PlaceLevel maps both low score levels to PlaceLow.
func (l ScoreLevel) PlaceLevel() PlaceLevel {
	switch l {
	case ScoreHigh:
		return PlaceHigh
	case ScoreMid:
		return PlaceMiddle
	case ScoreLowFront, ScoreLowBack:
		return PlaceLow
	}
	return PlaceLow
}

func (l ScoreLevel) String() string {
	switch l {
	case ScoreHigh:
		return "HIGH"
	case ScoreMid:
		return "MID"
	case ScoreLowFront:
		return "LOW_FRONT"
	case ScoreLowBack:
		return "LOW_BACK"
	}
	return "UNKNOWN"
}

func (l PlaceLevel) String() string {
	switch l {
	case PlaceHigh:
		return "HIGH"
	case PlaceMiddle:
		return "MIDDLE"
	case PlaceLow:
		return "LOW"
	}
	return "UNKNOWN"
}

// ParseScoreLevel parses a case-insensitive score level name.
func ParseScoreLevel(s string) (ScoreLevel, error) {
	switch normalize(s) {
	case "HIGH":
		return ScoreHigh, nil
	case "MID", "MIDDLE":
		return ScoreMid, nil
	case "LOW_FRONT":
		return ScoreLowFront, nil
	case "LOW_BACK":
		return ScoreLowBack, nil
	}
	return ScoreHigh, errors.Errorf("unknown score level %q", s)
}

// PickupMode is where the operator wants to pick up from.
type PickupMode int32

// The pickup modes.
const (
	PickupGround PickupMode = iota
	PickupStation
)

func (m PickupMode) String() string {
	switch m {
	case PickupGround:
		return "GROUND"
	case PickupStation:
		return "STATION"
	}
	return "UNKNOWN"
}

// ParsePickupMode parses a case-insensitive pickup mode name.
func ParsePickupMode(s string) (PickupMode, error) {
	switch normalize(s) {
	case "GROUND":
		return PickupGround, nil
	case "STATION":
		return PickupStation, nil
	}
	return PickupGround, errors.Errorf("unknown pickup mode %q", s)
}

// Gamepiece is a game piece kind.
type Gamepiece int32

// The game pieces.
const (
	GamepieceNone Gamepiece = iota
	GamepieceCone
	GamepieceCube
)

func (g Gamepiece) String() string {
	switch g {
	case GamepieceNone:
		return "NONE"
	case GamepieceCone:
		return "CONE"
	case GamepieceCube:
		return "CUBE"
	}
	return "UNKNOWN"
}

// ParseGamepiece parses a case-insensitive game piece name.
func ParseGamepiece(s string) (Gamepiece, error) {
	switch normalize(s) {
	case "NONE", "":
		return GamepieceNone, nil
	case "CONE":
		return GamepieceCone, nil
	case "CUBE":
		return GamepieceCube, nil
	}
	return GamepieceNone, errors.Errorf("unknown game piece %q", s)
}

func normalize(s string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "-", "_")
}

// Store is the shared preference object. The zero value has nothing selected.
type Store struct {
	// score level and pickup mode are stored plus one so that zero means never selected and a
	// reader sees the value and whether it was set in one load
	scoreLevel   atomic.Int32
	pickupMode   atomic.Int32
	desiredPiece atomic.Int32
	heldPiece    atomic.Int32
	needHome     atomic.Bool
}

// NewStore returns a store with nothing selected and the robot marked as needing to home.
func NewStore() *Store {
	s := &Store{}
	s.needHome.Store(true)
	return s
}

// SetScoreLevel records the operator's score level.
func (s *Store) SetScoreLevel(l ScoreLevel) {
	s.scoreLevel.Store(int32(l) + 1)
}

// ScoreLevel returns the score level and whether one was ever selected.
func (s *Store) ScoreLevel() (ScoreLevel, bool) {
	v := s.scoreLevel.Load()
	if v == 0 {
		return ScoreHigh, false
	}
	return ScoreLevel(v - 1), true
}

// SetPickupMode records the operator's pickup mode.
func (s *Store) SetPickupMode(m PickupMode) {
	s.pickupMode.Store(int32(m) + 1)
}

// PickupMode returns the pickup mode and whether one was ever selected.
func (s *Store) PickupMode() (PickupMode, bool) {
	v := s.pickupMode.Load()
	if v == 0 {
		return PickupGround, false
	}
	return PickupMode(v - 1), true
}

// SetDesiredPiece records which piece the operator is going for.
func (s *Store) SetDesiredPiece(g Gamepiece) {
	s.desiredPiece.Store(int32(g))
}

// DesiredPiece returns the piece the operator is going for.
func (s *Store) DesiredPiece() Gamepiece {
	return Gamepiece(s.desiredPiece.Load())
}

// SetHeldPiece records which piece is in the intake.
func (s *Store) SetHeldPiece(g Gamepiece) {
	s.heldPiece.Store(int32(g))
}

// HeldPiece returns the piece in the intake.
func (s *Store) HeldPiece() Gamepiece {
	return Gamepiece(s.heldPiece.Load())
}

// SetNeedHome raises or clears the operator's "needs home" indicator.
func (s *Store) SetNeedHome(need bool) {
	s.needHome.Store(need)
}

// NeedHome reports whether the superstructure has yet to establish its reference.
func (s *Store) NeedHome() bool {
	return s.needHome.Load()
}

// Snapshot is a copy of every preference for display.
type Snapshot struct {
	ScoreLevel    ScoreLevel
	ScoreLevelSet bool
	PickupMode    PickupMode
	PickupModeSet bool
	DesiredPiece  Gamepiece
	HeldPiece     Gamepiece
	NeedHome      bool
}

// Snapshot copies the store. Each preference is read with one load, but different
// preferences may come from either side of a concurrent write.
func (s *Store) Snapshot() Snapshot {
	level, levelSet := s.ScoreLevel()
	mode, modeSet := s.PickupMode()
	return Snapshot{
		ScoreLevel:    level,
		ScoreLevelSet: levelSet,
		PickupMode:    mode,
		PickupModeSet: modeSet,
		DesiredPiece:  s.DesiredPiece(),
		HeldPiece:     s.HeldPiece(),
		NeedHome:      s.NeedHome(),
	}
}
