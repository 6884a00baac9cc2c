// Package rollback implements a two-player rollback session: inputs are
// confirmed locally after a fixed delay, exchanged as redundant windows over
// an unreliable channel, and mispredictions are repaired by restoring a
// snapshot and resimulating with the corrected history.
package rollback

// Frame counts simulation steps since the session started. Frame 0 is the
// first simulated frame.
type Frame int64

// NullFrame marks "no frame", used for unset acknowledgements and rollback
// markers.
const NullFrame Frame = -1
