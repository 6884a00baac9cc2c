package game

import (
	"math"
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func near(got, want float64) bool {
	return math.Abs(got-want) <= 1e-9
}

func stepUntilElimination(t *testing.T, w *World, limit int) (int, StepResult) {
	t.Helper()
	for frame := 1; frame <= limit; frame++ {
		result := w.Step([2]Input{})
		if len(result.Eliminations) > 0 {
			return frame, result
		}
	}
	t.Fatalf("no elimination within %d frames", limit)
	return 0, StepResult{}
}

func TestStepMovesPlayersApart(t *testing.T) {
	w := NewWorld(DefaultTuning())
	w.Step([2]Input{})

	if !near(w.Players[1].Pos.X(), 1.03) || !near(w.Players[1].Pos.Y(), 0) {
		t.Fatalf("player 1 should advance along +x, got %v", w.Players[1].Pos)
	}
	if !near(w.Players[0].Pos.X(), -1.03) || !near(w.Players[0].Pos.Y(), 0) {
		t.Fatalf("player 0 should advance along -x, got %v", w.Players[0].Pos)
	}
}

func TestStepSteering(t *testing.T) {
	w := NewWorld(DefaultTuning())
	w.Step([2]Input{1: InputLeft})

	if !near(w.Players[1].Heading, 0.13) {
		t.Fatalf("left input should turn counterclockwise, heading %v", w.Players[1].Heading)
	}
	wantX := 1 + math.Cos(0.13)*0.03
	wantY := math.Sin(0.13) * 0.03
	if !near(w.Players[1].Pos.X(), wantX) || !near(w.Players[1].Pos.Y(), wantY) {
		t.Fatalf("rotation should apply before movement, got %v", w.Players[1].Pos)
	}

	opposed := NewWorld(DefaultTuning())
	opposed.Step([2]Input{1: InputLeft | InputRight})
	if !near(opposed.Players[1].Heading, 0) {
		t.Fatalf("opposing directions should cancel, heading %v", opposed.Players[1].Heading)
	}
}

func TestStepDashDoublesSpeed(t *testing.T) {
	w := NewWorld(DefaultTuning())
	w.Step([2]Input{1: InputDash})

	if !near(w.Players[1].Pos.X(), 1.06) {
		t.Fatalf("dash should cover twice the distance, got %v", w.Players[1].Pos)
	}
}

func TestTrailSpawnCadenceAndOffset(t *testing.T) {
	w := NewWorld(DefaultTuning())

	if result := w.Step([2]Input{}); result.TrailsSpawned != 0 || len(w.Trails) != 0 {
		t.Fatalf("no trails expected on frame 1, got %d", len(w.Trails))
	}
	if result := w.Step([2]Input{}); result.TrailsSpawned != 2 || len(w.Trails) != 2 {
		t.Fatalf("both players should drop a trail on frame 2, got %d", len(w.Trails))
	}

	var found *Trail
	for i := range w.Trails {
		if w.Trails[i].Owner == 1 {
			found = &w.Trails[i]
		}
	}
	if found == nil {
		t.Fatalf("missing trail for player 1")
	}
	// Dot sits half a body plus half a dot behind the mover.
	if !near(found.Pos.X(), 1.06-0.475) || !near(found.Pos.Y(), 0) {
		t.Fatalf("unexpected trail position %v", found.Pos)
	}

	w.Step([2]Input{})
	w.Step([2]Input{})
	if len(w.Trails) != 4 {
		t.Fatalf("expected 4 trails after frame 4, got %d", len(w.Trails))
	}
}

func TestTrailsExpireAfterLifetime(t *testing.T) {
	tuning := DefaultTuning()
	tuning.TrailSpawnPeriodFrames = 1
	tuning.TrailLengthFrames = 3
	w := NewWorld(tuning)

	for frame := 1; frame <= 3; frame++ {
		if result := w.Step([2]Input{}); result.TrailsExpired != 0 {
			t.Fatalf("no trail should expire by frame %d", frame)
		}
	}
	result := w.Step([2]Input{})
	if result.TrailsExpired != 2 {
		t.Fatalf("first pair of trails should expire on frame 4, got %d", result.TrailsExpired)
	}
	if len(w.Trails) != 6 {
		t.Fatalf("expected 3 live pairs, got %d trails", len(w.Trails))
	}
}

func TestBoundaryEliminationWhenIdle(t *testing.T) {
	w := NewWorld(DefaultTuning())
	frame, result := stepUntilElimination(t, w, 200)

	if frame != 117 {
		t.Fatalf("idle players should cross the boundary on frame 117, got %d", frame)
	}
	if len(result.Eliminations) != 2 {
		t.Fatalf("both players should leave together, got %+v", result.Eliminations)
	}
	for _, e := range result.Eliminations {
		if e.Cause != EliminationBoundary {
			t.Fatalf("expected boundary cause, got %+v", e)
		}
	}
	if winner, over := w.RoundOver(); !over || winner != -1 {
		t.Fatalf("double elimination should draw, got winner=%d over=%v", winner, over)
	}
}

func TestTrailContactEliminates(t *testing.T) {
	w := NewWorld(DefaultTuning())
	w.Trails = append(w.Trails, Trail{
		Owner:      0,
		Pos:        mgl64.Vec2{1.6, 0},
		DeathTimer: newFrameTimer(w.Tuning.TrailLengthFrames),
	})

	var hit *Elimination
	var hitFrame int
	for frame := 1; frame <= 20 && hit == nil; frame++ {
		result := w.Step([2]Input{})
		if len(result.Eliminations) > 0 {
			hit = &result.Eliminations[0]
			hitFrame = frame
		}
	}
	if hit == nil {
		t.Fatalf("player 1 should run into the planted trail")
	}
	if hit.Handle != 1 || hit.Cause != EliminationTrail {
		t.Fatalf("unexpected elimination %+v", hit)
	}
	// 0.6 apart closing at 0.03 per frame against a 0.475 threshold.
	if hitFrame != 5 {
		t.Fatalf("expected contact on frame 5, got %d", hitFrame)
	}
	if !w.Players[0].Alive {
		t.Fatalf("player 0 should be unaffected")
	}
}

func TestDeadPlayersStayInert(t *testing.T) {
	w := NewWorld(DefaultTuning())
	for frame := 1; frame <= 117; frame++ {
		w.Step([2]Input{})
	}
	if w.AliveCount() != 0 {
		t.Fatalf("expected both players out after frame 117")
	}

	pos := w.Players[1].Pos
	for frame := 118; frame <= 200; frame++ {
		result := w.Step([2]Input{1: InputLeft | InputDash})
		if result.TrailsSpawned != 0 {
			t.Fatalf("dead players must not spawn trails")
		}
		if len(result.Eliminations) != 0 {
			t.Fatalf("eliminations must not repeat, got %+v", result.Eliminations)
		}
	}
	if w.Players[1].Pos != pos {
		t.Fatalf("dead players must not move")
	}
	if len(w.Trails) != 0 {
		t.Fatalf("all trails should decay after the round, %d left", len(w.Trails))
	}
}

func TestStepDeterminism(t *testing.T) {
	script := func(frame int) [2]Input {
		var inputs [2]Input
		if frame%3 == 0 {
			inputs[0] |= InputLeft
		}
		if frame%5 == 0 {
			inputs[1] |= InputRight
		}
		if frame%7 == 0 {
			inputs[0] |= InputDash
		}
		if frame%11 == 0 {
			inputs[1] |= InputDash | InputLeft
		}
		return inputs
	}

	a := NewWorld(DefaultTuning())
	b := NewWorld(DefaultTuning())
	for frame := 1; frame <= 400; frame++ {
		inputs := script(frame)
		a.Step(inputs)
		b.Step(inputs)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("identical input scripts must produce identical worlds")
	}
}
