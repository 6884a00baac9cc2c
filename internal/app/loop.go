package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/awesomecuber/tron/internal/game"
	"github.com/awesomecuber/tron/internal/rollback"
	"github.com/awesomecuber/tron/internal/signal"
	"github.com/awesomecuber/tron/internal/telemetry"
	"github.com/awesomecuber/tron/internal/transport"
	"github.com/awesomecuber/tron/logging"
	loggingMatch "github.com/awesomecuber/tron/logging/match"
)

// DriverState tracks which phase the run loop is in.
type DriverState int

const (
	DriverMatchmaking DriverState = iota
	DriverInGame
)

// InputSource supplies the local input bits once per tick.
type InputSource interface {
	Read() game.Input
}

// InputSourceFunc adapts a function to InputSource.
type InputSourceFunc func() game.Input

func (f InputSourceFunc) Read() game.Input { return f() }

// Matchmaker yields the negotiated match. *signal.Negotiator satisfies it.
type Matchmaker interface {
	Poll() (signal.Match, bool, error)
}

// PeerChannel is a packet channel that can be pointed at the matched
// peer. *transport.UDPChannel satisfies it.
type PeerChannel interface {
	Connect(remoteAddr string) error
	Send(transport.Packet) error
	Poll() ([]transport.Packet, error)
}

// Report is handed to Hooks.AfterFrame after every forward frame. World
// is a detached snapshot and Result covers only the frame just
// simulated, never resimulated history. Winner is meaningful only when
// RoundOver is true; -1 means a draw.
type Report struct {
	Frame     rollback.Frame
	World     *game.World
	Result    game.StepResult
	RoundOver bool
	Winner    int
	Stats     rollback.Stats
	Elapsed   time.Duration
}

// Hooks let the embedding binary observe the loop, typically to render.
// Callbacks run on the driver goroutine between ticks; keep them fast.
type Hooks struct {
	AfterFrame func(Report)
}

// DriverConfig carries the loop parameters shared with the session.
type DriverConfig struct {
	Tuning           game.Tuning
	PredictionWindow int
}

func (cfg DriverConfig) normalized() DriverConfig {
	normalized := cfg
	normalized.Tuning = normalized.Tuning.Normalized()
	if normalized.PredictionWindow < 1 {
		normalized.PredictionWindow = rollback.DefaultConfig().PredictionWindow
	}
	return normalized
}

// DriverDeps carries the driver's collaborators. Matchmaker and Channel
// are required; the rest default to no-ops.
type DriverDeps struct {
	Matchmaker Matchmaker
	Channel    PeerChannel
	Input      InputSource
	Hooks      Hooks
	Publisher  logging.Publisher
	Logger     telemetry.Logger
	Metrics    telemetry.Metrics
}

func (d DriverDeps) normalized() DriverDeps {
	normalized := d
	if normalized.Input == nil {
		normalized.Input = InputSourceFunc(func() game.Input { return 0 })
	}
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

// Driver owns the fixed-rate loop: it polls matchmaking until a peer is
// found, then advances the rollback session once per tick. Nothing in
// the loop blocks; a session waiting on remote inputs skips ticks.
type Driver struct {
	cfg  DriverConfig
	deps DriverDeps

	state   DriverState
	session *rollback.Session

	finished     bool
	lastStallLog time.Time
}

// NewDriver builds a driver in the matchmaking state.
func NewDriver(cfg DriverConfig, deps DriverDeps) (*Driver, error) {
	if deps.Matchmaker == nil {
		return nil, errors.New("app: matchmaker is required")
	}
	if deps.Channel == nil {
		return nil, errors.New("app: peer channel is required")
	}
	return &Driver{
		cfg:  cfg.normalized(),
		deps: deps.normalized(),
	}, nil
}

// State reports which phase the driver is in.
func (d *Driver) State() DriverState {
	return d.state
}

// Run ticks at the tuning's rate until ctx is cancelled or the run
// fails. Matchmaking failures and session errors abort with the cause;
// cancellation is a clean shutdown.
func (d *Driver) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(d.cfg.Tuning.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := d.tick(ctx); err != nil {
				return err
			}
		}
	}
}

func (d *Driver) tick(ctx context.Context) error {
	switch d.state {
	case DriverMatchmaking:
		return d.pollMatch(ctx)
	case DriverInGame:
		return d.advance(ctx)
	}
	return nil
}

func (d *Driver) pollMatch(ctx context.Context) error {
	match, ok, err := d.deps.Matchmaker.Poll()
	if err != nil {
		return fmt.Errorf("matchmaking: %w", err)
	}
	if !ok {
		return nil
	}

	if err := d.deps.Channel.Connect(match.RemoteAddr); err != nil {
		return fmt.Errorf("connect to peer: %w", err)
	}

	session, err := rollback.NewSession(rollback.Config{
		LocalHandle:      match.LocalHandle,
		PredictionWindow: d.cfg.PredictionWindow,
		Tuning:           d.cfg.Tuning,
	}, rollback.Deps{
		Channel:   d.deps.Channel,
		Publisher: d.deps.Publisher,
		Logger:    d.deps.Logger,
		Metrics:   d.deps.Metrics,
	})
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	d.session = session
	d.state = DriverInGame

	d.deps.Logger.Printf("session ready: handle %d against %s at %s", match.LocalHandle, match.RemoteID, match.RemoteAddr)
	loggingMatch.SessionReady(ctx, d.deps.Publisher, logging.EntityRef{ID: match.LocalID, Kind: logging.EntityKindPeer}, loggingMatch.SessionReadyPayload{
		LocalHandle:  match.LocalHandle,
		RemoteHandle: 1 - match.LocalHandle,
		RemoteAddr:   match.RemoteAddr,
		InputDelay:   d.cfg.Tuning.InputDelayFrames,
	}, nil)
	return nil
}

func (d *Driver) advance(ctx context.Context) error {
	started := time.Now()

	result, err := d.session.AdvanceFrame(d.deps.Input.Read())
	if err != nil {
		if errors.Is(err, rollback.ErrPredictionLimit) {
			if time.Since(d.lastStallLog) >= time.Second {
				d.lastStallLog = time.Now()
				d.deps.Logger.Printf("waiting for remote inputs at frame %d", d.session.Frame())
			}
			return nil
		}
		return fmt.Errorf("advance frame %d: %w", d.session.Frame(), err)
	}

	frame := d.session.Frame() - 1
	world := d.session.Snapshot()

	for _, elim := range result.Eliminations {
		loggingMatch.PlayerEliminated(ctx, d.deps.Publisher, int64(frame), playerRef(elim.Handle), loggingMatch.EliminatedPayload{
			Handle: elim.Handle,
			Cause:  string(elim.Cause),
		}, nil)
	}

	winner, over := world.RoundOver()
	if over && !d.finished {
		d.finished = true
		loggingMatch.Finished(ctx, d.deps.Publisher, int64(frame), logging.EntityRef{}, loggingMatch.FinishedPayload{
			Winner: winner,
		}, nil)
	}

	if d.deps.Hooks.AfterFrame != nil {
		d.deps.Hooks.AfterFrame(Report{
			Frame:     frame,
			World:     world,
			Result:    result,
			RoundOver: over,
			Winner:    winner,
			Stats:     d.session.Stats(),
			Elapsed:   time.Since(started),
		})
	}
	return nil
}

func playerRef(handle int) logging.EntityRef {
	return logging.EntityRef{ID: strconv.Itoa(handle), Kind: logging.EntityKindPlayer}
}

var _ PeerChannel = (*transport.UDPChannel)(nil)
var _ Matchmaker = (*signal.Negotiator)(nil)
