package rollback

import "github.com/awesomecuber/tron/internal/game"

// inputQueue stores one player's confirmed inputs densely by frame.
// Confirmations must stay contiguous; the redundant send windows guarantee
// that every gap a lost packet would leave is covered by a later packet.
type inputQueue struct {
	inputs []game.Input
}

// confirmedThrough returns the newest confirmed frame, NullFrame when empty.
func (q *inputQueue) confirmedThrough() Frame {
	return Frame(len(q.inputs)) - 1
}

// confirmNext appends the input for the next unconfirmed frame.
func (q *inputQueue) confirmNext(in game.Input) Frame {
	q.inputs = append(q.inputs, in)
	return q.confirmedThrough()
}

// at returns the confirmed input for a frame; ok is false when the frame is
// not confirmed yet.
func (q *inputQueue) at(frame Frame) (game.Input, bool) {
	if frame >= 0 && frame < Frame(len(q.inputs)) {
		return q.inputs[frame], true
	}
	return 0, false
}

// inputFor returns the input to simulate a frame with: the confirmed value
// when available, otherwise the newest confirmed input repeated as the
// prediction. confirmed is false for predicted values.
func (q *inputQueue) inputFor(frame Frame) (in game.Input, confirmed bool) {
	if in, ok := q.at(frame); ok {
		return in, true
	}
	if len(q.inputs) == 0 {
		return 0, false
	}
	return q.inputs[len(q.inputs)-1], false
}

// window returns the confirmed inputs in [start, confirmedThrough] as raw
// bytes, nil when start is past the confirmed range.
func (q *inputQueue) window(start Frame) []byte {
	if start < 0 {
		start = 0
	}
	if start >= Frame(len(q.inputs)) {
		return nil
	}
	out := make([]byte, 0, Frame(len(q.inputs))-start)
	for _, in := range q.inputs[start:] {
		out = append(out, byte(in))
	}
	return out
}
