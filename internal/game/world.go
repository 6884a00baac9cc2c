package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Player is one arena participant. All fields are plain values so a world
// copy fully detaches the player.
type Player struct {
	Handle     int
	Pos        mgl64.Vec2
	Heading    float64
	Alive      bool
	TrailTimer FrameTimer
}

// Direction returns the unit vector the player is facing.
func (p Player) Direction() mgl64.Vec2 {
	return headingVec(p.Heading)
}

// Trail is a single dot left behind a moving player.
type Trail struct {
	Owner      int
	Pos        mgl64.Vec2
	DeathTimer FrameTimer
}

// World holds the complete deterministic match state. Everything that
// influences the simulation lives here; rollback snapshots are Clone copies.
type World struct {
	Tuning  Tuning
	Players [2]Player
	Trails  []Trail
}

// NewWorld builds the initial arena with both players on the horizontal
// axis facing away from each other.
func NewWorld(tuning Tuning) *World {
	tuning = tuning.Normalized()
	w := &World{Tuning: tuning}
	w.Players[0] = Player{
		Handle:     0,
		Pos:        mgl64.Vec2{-1, 0},
		Heading:    math.Pi,
		Alive:      true,
		TrailTimer: newFrameTimer(tuning.TrailSpawnPeriodFrames),
	}
	w.Players[1] = Player{
		Handle:     1,
		Pos:        mgl64.Vec2{1, 0},
		Heading:    0,
		Alive:      true,
		TrailTimer: newFrameTimer(tuning.TrailSpawnPeriodFrames),
	}
	return w
}

// Clone returns a deep copy sharing no mutable state with the receiver.
func (w *World) Clone() *World {
	if w == nil {
		return nil
	}
	c := *w
	c.Trails = append([]Trail(nil), w.Trails...)
	return &c
}

// AliveCount returns how many players are still in the round.
func (w *World) AliveCount() int {
	count := 0
	for i := range w.Players {
		if w.Players[i].Alive {
			count++
		}
	}
	return count
}

// RoundOver reports whether at most one player remains. winner is the
// surviving handle, or -1 when the round ended in a draw.
func (w *World) RoundOver() (winner int, over bool) {
	alive := -1
	count := 0
	for i := range w.Players {
		if w.Players[i].Alive {
			alive = w.Players[i].Handle
			count++
		}
	}
	switch count {
	case 0:
		return -1, true
	case 1:
		return alive, true
	default:
		return 0, false
	}
}

func headingVec(angle float64) mgl64.Vec2 {
	return mgl64.Vec2{math.Cos(angle), math.Sin(angle)}
}
