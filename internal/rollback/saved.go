package rollback

import "github.com/awesomecuber/tron/internal/game"

// savedStates is a ring of world snapshots keyed by frame. Capacity only
// needs to cover the deepest possible rollback, so older slots are
// overwritten as the session advances.
type savedStates struct {
	slots  []*game.World
	frames []Frame
}

func newSavedStates(capacity int) *savedStates {
	if capacity < 2 {
		capacity = 2
	}
	return &savedStates{
		slots:  make([]*game.World, capacity),
		frames: make([]Frame, capacity),
	}
}

// put stores a snapshot of the world as it stands entering the given frame.
// The world is cloned so later live mutations cannot leak into the slot.
func (s *savedStates) put(frame Frame, w *game.World) {
	idx := int(frame) % len(s.slots)
	s.slots[idx] = w.Clone()
	s.frames[idx] = frame
}

// get returns a detached copy of the snapshot for the frame, or nil when the
// slot has been overwritten or never filled.
func (s *savedStates) get(frame Frame) *game.World {
	idx := int(frame) % len(s.slots)
	if s.slots[idx] == nil || s.frames[idx] != frame {
		return nil
	}
	return s.slots[idx].Clone()
}
