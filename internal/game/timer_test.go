package game

import (
	"errors"
	"testing"
)

func mustTimer(t *testing.T, period uint32) FrameTimer {
	t.Helper()
	timer, err := NewFrameTimer(period)
	if err != nil {
		t.Fatalf("NewFrameTimer(%d): %v", period, err)
	}
	return timer
}

func TestFrameTimerCadence(t *testing.T) {
	timer := mustTimer(t, 2)

	if timer.Finished() {
		t.Fatalf("fresh timer reported finished")
	}

	finishes := make([]int, 0, 3)
	for frame := 1; frame <= 6; frame++ {
		timer.Tick()
		if timer.Finished() {
			finishes = append(finishes, frame)
		}
	}

	want := []int{2, 4, 6}
	if len(finishes) != len(want) {
		t.Fatalf("expected finishes at %v, got %v", want, finishes)
	}
	for i := range want {
		if finishes[i] != want[i] {
			t.Fatalf("expected finishes at %v, got %v", want, finishes)
		}
	}
}

func TestFrameTimerFinishedHoldsUntilNextTick(t *testing.T) {
	timer := mustTimer(t, 3)
	timer.Tick()
	timer.Tick()
	timer.Tick()
	if !timer.Finished() {
		t.Fatalf("expected finish on third tick")
	}
	if !timer.Finished() {
		t.Fatalf("finished state should persist until the next tick")
	}
	timer.Tick()
	if timer.Finished() {
		t.Fatalf("finished state should clear on the next tick")
	}
}

func TestFrameTimerRejectsZeroPeriod(t *testing.T) {
	if _, err := NewFrameTimer(0); !errors.Is(err, ErrZeroPeriod) {
		t.Fatalf("expected ErrZeroPeriod, got %v", err)
	}
}

func TestFrameTimerCopiesIndependently(t *testing.T) {
	timer := mustTimer(t, 4)
	timer.Tick()

	copied := timer
	copied.Tick()
	copied.Tick()
	copied.Tick()

	if !copied.Finished() {
		t.Fatalf("copy should finish after four ticks")
	}
	if timer.Finished() {
		t.Fatalf("original should be unaffected by ticking the copy")
	}
}
