package game

import "errors"

// ErrZeroPeriod rejects frame timers that could never wrap.
var ErrZeroPeriod = errors.New("game: frame timer period must be at least one frame")

// FrameTimer counts simulation frames toward a recurring deadline. It is a
// plain value so snapshot copies carry it with no extra work.
type FrameTimer struct {
	framesLeft uint32
	period     uint32
	wrapped    bool
}

// NewFrameTimer returns a timer that finishes every period frames.
func NewFrameTimer(period uint32) (FrameTimer, error) {
	if period < 1 {
		return FrameTimer{}, ErrZeroPeriod
	}
	return newFrameTimer(period), nil
}

// newFrameTimer skips validation for periods already normalized by Tuning.
func newFrameTimer(period uint32) FrameTimer {
	return FrameTimer{framesLeft: period, period: period}
}

// Tick advances the timer by one frame.
func (t *FrameTimer) Tick() *FrameTimer {
	t.framesLeft--
	if t.framesLeft == 0 {
		t.framesLeft = t.period
		t.wrapped = true
	} else {
		t.wrapped = false
	}
	return t
}

// Finished reports whether the most recent Tick completed a period. A timer
// that has never ticked reports false.
func (t *FrameTimer) Finished() bool {
	return t.wrapped
}

// Period returns the configured frame count.
func (t *FrameTimer) Period() uint32 {
	return t.period
}
