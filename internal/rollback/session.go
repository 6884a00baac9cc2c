package rollback

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/awesomecuber/tron/internal/game"
	"github.com/awesomecuber/tron/internal/telemetry"
	"github.com/awesomecuber/tron/internal/transport"
	"github.com/awesomecuber/tron/logging"
	loggingNetcode "github.com/awesomecuber/tron/logging/netcode"
)

const (
	metricFramesAdvanced   = "rollback_frames_advanced"
	metricRollbacks        = "rollback_rollbacks"
	metricRollbackDepth    = "rollback_last_depth"
	metricPredictionStalls = "rollback_prediction_stalls"
	metricInputConflicts   = "rollback_input_conflicts"
)

// ErrPredictionLimit reports that the session refused to simulate further
// ahead of the remote peer's confirmed inputs. The frame was not advanced;
// the caller should retry on its next tick.
var ErrPredictionLimit = errors.New("rollback: prediction limit reached")

// Channel is the packet transport between the two peers. Send is fire and
// forget; Poll drains everything received since the previous call.
type Channel interface {
	Send(transport.Packet) error
	Poll() ([]transport.Packet, error)
}

// Config carries the per-session parameters. Tuning holds the values both
// peers must share, including the input delay; PredictionWindow is local.
type Config struct {
	LocalHandle      int
	PredictionWindow int
	Tuning           game.Tuning
}

// DefaultConfig returns a session setup for the first player.
func DefaultConfig() Config {
	return Config{
		LocalHandle:      0,
		PredictionWindow: 8,
		Tuning:           game.DefaultTuning(),
	}
}

func (cfg Config) normalized() Config {
	normalized := cfg
	if normalized.PredictionWindow < 1 {
		normalized.PredictionWindow = 8
	}
	normalized.Tuning = normalized.Tuning.Normalized()
	return normalized
}

// Deps carries the session's collaborators. Channel is required; the rest
// default to no-ops.
type Deps struct {
	Channel   Channel
	Publisher logging.Publisher
	Logger    telemetry.Logger
	Metrics   telemetry.Metrics
}

func (d Deps) normalized() Deps {
	normalized := d
	if normalized.Publisher == nil {
		normalized.Publisher = logging.NopPublisher()
	}
	if normalized.Logger == nil {
		normalized.Logger = telemetry.LoggerFunc(func(string, ...any) {})
	}
	if normalized.Metrics == nil {
		normalized.Metrics = telemetry.WrapMetrics(nil)
	}
	return normalized
}

// Stats is a point-in-time view of session health counters.
type Stats struct {
	Frame             Frame
	RemoteConfirmed   Frame
	AckedByRemote     Frame
	Rollbacks         uint64
	ResimulatedFrames uint64
	PredictionStalls  uint64
	InputConflicts    uint64
}

// Session drives one peer's view of a two-player match. Methods are not safe
// for concurrent use; a single driver goroutine owns the session.
type Session struct {
	cfg    Config
	deps   Deps
	delay  Frame
	window int

	world  *game.World
	frame  Frame
	queues [2]inputQueue
	used   [2][]game.Input
	saved  *savedStates

	ackedByRemote Frame
	rollbackFrom  Frame

	stats Stats
}

// NewSession builds a session at frame 0. The local player's first delay
// frames are confirmed blank so both peers' wire histories start at frame 0.
func NewSession(cfg Config, deps Deps) (*Session, error) {
	cfg = cfg.normalized()
	if cfg.LocalHandle < 0 || cfg.LocalHandle > 1 {
		return nil, fmt.Errorf("rollback: local handle %d out of range", cfg.LocalHandle)
	}
	if deps.Channel == nil {
		return nil, errors.New("rollback: channel is required")
	}
	deps = deps.normalized()

	s := &Session{
		cfg:           cfg,
		deps:          deps,
		delay:         Frame(cfg.Tuning.InputDelayFrames),
		window:        cfg.PredictionWindow,
		world:         game.NewWorld(cfg.Tuning),
		saved:         newSavedStates(cfg.PredictionWindow + 2),
		ackedByRemote: NullFrame,
		rollbackFrom:  NullFrame,
	}
	s.saved.put(0, s.world)

	for i := Frame(0); i < s.delay; i++ {
		s.queues[cfg.LocalHandle].confirmNext(0)
	}
	return s, nil
}

// LocalHandle returns which player this session controls.
func (s *Session) LocalHandle() int {
	return s.cfg.LocalHandle
}

// Frame returns the next frame the session will simulate.
func (s *Session) Frame() Frame {
	return s.frame
}

// Snapshot returns a detached copy of the current world.
func (s *Session) Snapshot() *game.World {
	return s.world.Clone()
}

// Stats returns the session's health counters.
func (s *Session) Stats() Stats {
	stats := s.stats
	stats.Frame = s.frame
	stats.RemoteConfirmed = s.remoteConfirmed()
	stats.AckedByRemote = s.ackedByRemote
	return stats
}

// AdvanceFrame runs one simulation frame. localInput is sampled now and
// applied after the tuning's input delay. Remote packets received since the
// last call are folded in first; a contradicted prediction triggers a
// rollback and resimulation before the new frame runs. When the remote peer
// is more than the prediction window behind, the session sends its window
// anyway, leaves the simulation untouched and returns ErrPredictionLimit.
func (s *Session) AdvanceFrame(localInput game.Input) (game.StepResult, error) {
	if err := s.pollRemote(); err != nil {
		return game.StepResult{}, err
	}
	if err := s.applyPendingRollback(); err != nil {
		return game.StepResult{}, err
	}

	if s.frame-s.remoteConfirmed() > Frame(s.window) {
		s.stats.PredictionStalls++
		s.deps.Metrics.Add(metricPredictionStalls, 1)
		loggingNetcode.PredictionLimit(context.Background(), s.deps.Publisher, int64(s.frame), s.peerRef(s.remoteHandle()), loggingNetcode.PredictionLimitPayload{
			Frame:     int64(s.frame),
			Confirmed: int64(s.remoteConfirmed()),
			Limit:     s.window,
		}, nil)
		s.sendWindow()
		return game.StepResult{}, ErrPredictionLimit
	}

	s.queues[s.cfg.LocalHandle].confirmNext(localInput)
	s.sendWindow()

	inputs := s.inputsFor(s.frame)
	result := s.world.Step(inputs)
	s.used[0] = append(s.used[0], inputs[0])
	s.used[1] = append(s.used[1], inputs[1])
	s.frame++
	s.saved.put(s.frame, s.world)
	s.deps.Metrics.Add(metricFramesAdvanced, 1)
	return result, nil
}

func (s *Session) remoteHandle() int {
	return 1 - s.cfg.LocalHandle
}

func (s *Session) remoteConfirmed() Frame {
	return s.queues[s.remoteHandle()].confirmedThrough()
}

func (s *Session) inputsFor(frame Frame) [2]game.Input {
	var inputs [2]game.Input
	for h := range s.queues {
		in, _ := s.queues[h].inputFor(frame)
		inputs[h] = in
	}
	return inputs
}

func (s *Session) pollRemote() error {
	packets, err := s.deps.Channel.Poll()
	if err != nil {
		return fmt.Errorf("poll channel: %w", err)
	}
	for _, pkt := range packets {
		s.applyPacket(pkt)
	}
	return nil
}

func (s *Session) applyPacket(pkt transport.Packet) {
	remote := s.remoteHandle()
	if pkt.Handle != remote {
		s.deps.Logger.Printf("ignoring packet claiming handle %d", pkt.Handle)
		return
	}

	ack := Frame(pkt.Ack)
	if limit := s.queues[s.cfg.LocalHandle].confirmedThrough(); ack > limit {
		ack = limit
	}
	if ack > s.ackedByRemote {
		previous := s.ackedByRemote
		s.ackedByRemote = ack
		loggingNetcode.AckAdvanced(context.Background(), s.deps.Publisher, int64(s.frame), s.peerRef(remote), loggingNetcode.AckPayload{
			Previous: int64(previous),
			Ack:      int64(ack),
		}, nil)
	}

	q := &s.queues[remote]
	for i, raw := range pkt.Inputs {
		frame := Frame(pkt.Start) + Frame(i)
		in := game.Input(raw)

		if have, ok := q.at(frame); ok {
			if have != in {
				s.stats.InputConflicts++
				s.deps.Metrics.Add(metricInputConflicts, 1)
				loggingNetcode.InputConflict(context.Background(), s.deps.Publisher, int64(s.frame), s.peerRef(remote), loggingNetcode.InputConflictPayload{
					Frame:   int64(frame),
					Kept:    uint8(have),
					Dropped: uint8(in),
				}, nil)
			}
			continue
		}
		if frame != q.confirmedThrough()+1 {
			// Gap: a later packet's window covers it.
			break
		}
		q.confirmNext(in)
		if frame < s.frame && s.used[remote][frame] != in {
			if s.rollbackFrom == NullFrame || frame < s.rollbackFrom {
				s.rollbackFrom = frame
			}
		}
	}
}

func (s *Session) applyPendingRollback() error {
	if s.rollbackFrom == NullFrame {
		return nil
	}
	from := s.rollbackFrom
	s.rollbackFrom = NullFrame
	if from >= s.frame {
		return nil
	}

	w := s.saved.get(from)
	if w == nil {
		return fmt.Errorf("rollback: no snapshot covers frame %d", from)
	}

	for f := from; f < s.frame; f++ {
		inputs := s.inputsFor(f)
		w.Step(inputs)
		s.used[0][f] = inputs[0]
		s.used[1][f] = inputs[1]
		s.saved.put(f+1, w)
	}
	s.world = w

	depth := s.frame - from
	s.stats.Rollbacks++
	s.stats.ResimulatedFrames += uint64(depth)
	s.deps.Metrics.Add(metricRollbacks, 1)
	s.deps.Metrics.Store(metricRollbackDepth, uint64(depth))
	loggingNetcode.Rollback(context.Background(), s.deps.Publisher, int64(s.frame), s.peerRef(s.remoteHandle()), loggingNetcode.RollbackPayload{
		From:  int64(from),
		To:    int64(s.frame),
		Depth: int64(depth),
	}, nil)
	return nil
}

func (s *Session) sendWindow() {
	local := s.cfg.LocalHandle
	start := s.ackedByRemote + 1
	pkt := transport.Packet{
		Handle: local,
		Start:  int64(start),
		Inputs: s.queues[local].window(start),
		Ack:    int64(s.remoteConfirmed()),
	}
	if err := s.deps.Channel.Send(pkt); err != nil {
		s.deps.Logger.Printf("send frame window: %v", err)
	}
}

func (s *Session) peerRef(handle int) logging.EntityRef {
	return logging.EntityRef{ID: strconv.Itoa(handle), Kind: logging.EntityKindPeer}
}
