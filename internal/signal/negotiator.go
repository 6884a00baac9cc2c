package signal

import (
	"context"
	"errors"
	"fmt"

	"github.com/awesomecuber/tron/internal/telemetry"
	"github.com/awesomecuber/tron/logging"
	loggingMatch "github.com/awesomecuber/tron/logging/match"
)

// ErrTuningMismatch reports that the remote peer announced a different
// tuning checksum. The simulations would desync on frame one, so the
// match is refused outright.
var ErrTuningMismatch = errors.New("signal: tuning checksum mismatch")

// State tracks matchmaking progress.
type State int

const (
	StateIdle State = iota
	StateAwaitingPeers
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingPeers:
		return "awaiting-peers"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Match is the negotiation outcome. LocalHandle is 0 for the peer whose
// id sorts first, so both sides agree without another round trip.
type Match struct {
	LocalID     string
	RemoteID    string
	RemoteAddr  string
	LocalHandle int
}

// Config carries the negotiation parameters. LocalAddr is the UDP
// address announced to the peer; Checksum must equal the remote's.
type Config struct {
	ServerURL string
	Room      string
	LocalAddr string
	Checksum  string
}

// DefaultConfig matches the stock relay on the loopback interface.
func DefaultConfig() Config {
	return Config{
		ServerURL: "ws://127.0.0.1:3536",
		Room:      "arena",
	}
}

func (cfg Config) normalized() Config {
	normalized := cfg
	defaults := DefaultConfig()
	if normalized.ServerURL == "" {
		normalized.ServerURL = defaults.ServerURL
	}
	if normalized.Room == "" {
		normalized.Room = defaults.Room
	}
	return normalized
}

// Deps carries the negotiator's collaborators; both default to no-ops.
type Deps struct {
	Publisher logging.Publisher
	Logger    telemetry.Logger
}

func (d Deps) normalized() Deps {
	normalized := d
	if normalized.Publisher == nil {
		normalized.Publisher = logging.NopPublisher()
	}
	if normalized.Logger == nil {
		normalized.Logger = telemetry.LoggerFunc(func(string, ...any) {})
	}
	return normalized
}

// Negotiator runs matchmaking for one peer. Methods are not safe for
// concurrent use; the driver polls it from the tick loop.
type Negotiator struct {
	cfg  Config
	deps Deps

	state  State
	client *client

	localID    string
	remoteID   string
	remoteAddr string
	err        error
}

// NewNegotiator builds an idle negotiator.
func NewNegotiator(cfg Config, deps Deps) *Negotiator {
	return &Negotiator{
		cfg:  cfg.normalized(),
		deps: deps.normalized(),
	}
}

// State reports matchmaking progress.
func (n *Negotiator) State() State {
	return n.state
}

// Start dials the relay, joins the room and announces the local
// address and tuning checksum.
func (n *Negotiator) Start() error {
	if n.state != StateIdle {
		return fmt.Errorf("signal: negotiator already started (%s)", n.state)
	}

	c, err := dialRoom(n.cfg.ServerURL, n.cfg.Room, n.deps.Logger)
	if err != nil {
		return n.fail(err)
	}
	n.client = c

	if err := c.send(Message{Type: TypeAnnounce, Addr: n.cfg.LocalAddr, Checksum: n.cfg.Checksum}); err != nil {
		return n.fail(fmt.Errorf("announce to room: %w", err))
	}

	n.state = StateAwaitingPeers
	return nil
}

// Poll folds in buffered relay messages without blocking. It yields the
// match exactly once, when both the welcome and the remote announcement
// have arrived. Failures are terminal; every later Poll repeats them.
func (n *Negotiator) Poll() (Match, bool, error) {
	switch n.state {
	case StateIdle:
		return Match{}, false, errors.New("signal: negotiator not started")
	case StateReady:
		return Match{}, false, nil
	case StateFailed:
		return Match{}, false, n.err
	}

	msgs, err := n.client.poll()
	for _, msg := range msgs {
		if applyErr := n.apply(msg); applyErr != nil {
			return Match{}, false, n.fail(applyErr)
		}
	}

	if n.localID != "" && n.remoteID != "" {
		match := Match{
			LocalID:    n.localID,
			RemoteID:   n.remoteID,
			RemoteAddr: n.remoteAddr,
		}
		if n.remoteID < n.localID {
			match.LocalHandle = 1
		}
		n.state = StateReady
		return match, true, nil
	}

	// A connection that drops after delivering everything needed is
	// harmless, so the error is only surfaced here.
	if err != nil {
		return Match{}, false, n.fail(err)
	}
	return Match{}, false, nil
}

func (n *Negotiator) apply(msg Message) error {
	switch msg.Type {
	case TypeWelcome:
		n.localID = msg.PeerID
		n.deps.Logger.Printf("joined room %s as %s", msg.Room, msg.PeerID)
	case TypePeer:
		if msg.PeerID == "" || msg.PeerID == n.localID {
			return nil
		}
		if n.remoteID != "" {
			if msg.PeerID != n.remoteID {
				return fmt.Errorf("signal: unexpected extra peer %s", msg.PeerID)
			}
			return nil
		}
		if msg.Checksum != n.cfg.Checksum {
			return fmt.Errorf("%w: ours %s, theirs %s", ErrTuningMismatch, n.cfg.Checksum, msg.Checksum)
		}
		n.remoteID = msg.PeerID
		n.remoteAddr = msg.Addr
		loggingMatch.PeerJoined(context.Background(), n.deps.Publisher, logging.EntityRef{ID: msg.PeerID, Kind: logging.EntityKindPeer}, loggingMatch.PeerJoinedPayload{
			PeerID: msg.PeerID,
			Peers:  2,
		}, nil)
	default:
		n.deps.Logger.Printf("unknown signaling message type %q", msg.Type)
	}
	return nil
}

func (n *Negotiator) fail(err error) error {
	if n.state == StateFailed {
		return n.err
	}
	n.state = StateFailed
	n.err = err
	loggingMatch.Failed(context.Background(), n.deps.Publisher, logging.EntityRef{ID: n.localID, Kind: logging.EntityKindPeer}, loggingMatch.FailedPayload{
		Reason: err.Error(),
	}, nil)
	if n.client != nil {
		n.client.close()
	}
	return err
}

// Close abandons matchmaking. A negotiator closed before Ready keeps no
// partial state and may be started again.
func (n *Negotiator) Close() error {
	if n.client == nil {
		return nil
	}
	err := n.client.close()
	if n.state == StateAwaitingPeers {
		n.state = StateIdle
		n.localID = ""
		n.remoteID = ""
		n.remoteAddr = ""
	}
	return err
}
