package signal

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	nethttp "net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/awesomecuber/tron/internal/telemetry"
)

const (
	writeWait  = 10 * time.Second
	closeGrace = time.Second
)

// RelayConfig carries the relay's collaborators.
type RelayConfig struct {
	Logger telemetry.Logger
}

// Relay is the rendezvous websocket server. Each connection joins the
// room named by the URL path; the relay assigns peer ids and forwards
// announcements between the room's peers. It never inspects addresses
// or checksums beyond rewriting unspecified hosts.
type Relay struct {
	logger   telemetry.Logger
	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu    sync.Mutex
	rooms map[string]*room
}

type room struct {
	capacity int
	peers    map[string]*relayPeer
}

type relayPeer struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex

	addr      string
	checksum  string
	announced bool
}

// NewRelay constructs a relay with empty rooms.
func NewRelay(cfg RelayConfig) *Relay {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	return &Relay{
		logger:   logger,
		upgrader: upgrader,
		rooms:    make(map[string]*room),
	}
}

// Handle serves one peer connection for its whole lifetime.
func (r *Relay) Handle(w nethttp.ResponseWriter, req *nethttp.Request) {
	roomName := strings.Trim(req.URL.Path, "/")
	if roomName == "" {
		nethttp.Error(w, "missing room", nethttp.StatusBadRequest)
		return
	}
	capacity, err := strconv.Atoi(req.URL.Query().Get("next"))
	if err != nil || capacity != roomCapacity {
		nethttp.Error(w, "unsupported room size", nethttp.StatusBadRequest)
		return
	}

	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Printf("upgrade failed for room %s: %v", roomName, err)
		return
	}

	peer := &relayPeer{
		id:   fmt.Sprintf("peer-%d", r.nextID.Add(1)),
		conn: conn,
	}

	if !r.join(roomName, peer) {
		r.logger.Printf("refusing %s, room %s is full", peer.id, roomName)
		message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "room full")
		conn.WriteMessage(websocket.CloseMessage, message)
		// Drain until the close reply so the refusal reaches the peer
		// before the connection tears down.
		conn.SetReadDeadline(time.Now().Add(closeGrace))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		conn.Close()
		return
	}
	defer r.leave(roomName, peer)

	if err := peer.send(Message{Type: TypeWelcome, PeerID: peer.id, Room: roomName}); err != nil {
		r.logger.Printf("failed to welcome %s: %v", peer.id, err)
		return
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			r.logger.Printf("discarding malformed message from %s: %v", peer.id, err)
			continue
		}

		switch msg.Type {
		case TypeAnnounce:
			r.announce(roomName, peer, msg)
		default:
			r.logger.Printf("unknown message type %q from %s", msg.Type, peer.id)
		}
	}
}

func (r *Relay) join(name string, peer *relayPeer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm := r.rooms[name]
	if rm == nil {
		rm = &room{capacity: roomCapacity, peers: make(map[string]*relayPeer, roomCapacity)}
		r.rooms[name] = rm
	}
	if len(rm.peers) >= rm.capacity {
		return false
	}
	rm.peers[peer.id] = peer
	return true
}

func (r *Relay) leave(name string, peer *relayPeer) {
	r.mu.Lock()
	if rm := r.rooms[name]; rm != nil {
		delete(rm.peers, peer.id)
		if len(rm.peers) == 0 {
			delete(r.rooms, name)
		}
	}
	r.mu.Unlock()
	peer.conn.Close()
}

// announce records the peer's address and cross-delivers announcements
// both ways, so join order does not matter.
func (r *Relay) announce(name string, peer *relayPeer, msg Message) {
	addr := rewriteUnspecifiedHost(msg.Addr, peer.conn.RemoteAddr())

	r.mu.Lock()
	peer.addr = addr
	peer.checksum = msg.Checksum
	peer.announced = true

	var deliveries []delivery
	if rm := r.rooms[name]; rm != nil {
		for _, other := range rm.peers {
			if other.id == peer.id || !other.announced {
				continue
			}
			deliveries = append(deliveries,
				delivery{to: other, msg: Message{Type: TypePeer, PeerID: peer.id, Addr: addr, Checksum: msg.Checksum}},
				delivery{to: peer, msg: Message{Type: TypePeer, PeerID: other.id, Addr: other.addr, Checksum: other.checksum}},
			)
		}
	}
	r.mu.Unlock()

	for _, d := range deliveries {
		if err := d.to.send(d.msg); err != nil {
			r.logger.Printf("failed to forward announcement to %s: %v", d.to.id, err)
		}
	}
}

type delivery struct {
	to  *relayPeer
	msg Message
}

func (p *relayPeer) send(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return p.conn.WriteMessage(websocket.TextMessage, data)
}

// rewriteUnspecifiedHost substitutes the observed remote IP when a peer
// announces a wildcard listen address. Anything unparseable passes
// through untouched.
func rewriteUnspecifiedHost(addr string, remote net.Addr) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if host != "" {
		ip := net.ParseIP(host)
		if ip == nil || !ip.IsUnspecified() {
			return addr
		}
	}
	observed, _, err := net.SplitHostPort(remote.String())
	if err != nil {
		return addr
	}
	return net.JoinHostPort(observed, port)
}
