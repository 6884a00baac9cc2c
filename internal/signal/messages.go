// Package signal pairs two peers through a small websocket rendezvous
// relay. Peers join a named room, announce their UDP address and tuning
// checksum, and learn the other peer's announcement. The relay forwards
// announcements without inspecting them.
package signal

import (
	"fmt"
	"net/url"
)

// Message is the envelope for everything crossing the rendezvous socket.
// Type selects which fields are meaningful.
type Message struct {
	Type     string `json:"type"`
	PeerID   string `json:"peerId,omitempty"`
	Room     string `json:"room,omitempty"`
	Addr     string `json:"addr,omitempty"`
	Checksum string `json:"checksum,omitempty"`
}

const (
	// TypeWelcome is sent by the relay after a join and carries the
	// assigned peer id.
	TypeWelcome = "welcome"
	// TypeAnnounce is sent by a peer to publish its UDP address and
	// tuning checksum to the room.
	TypeAnnounce = "announce"
	// TypePeer is sent by the relay to deliver another peer's
	// announcement.
	TypePeer = "peer"
)

// roomCapacity is the only room size the relay accepts. The query
// parameter stays on the wire so the relay can refuse anything else.
const roomCapacity = 2

func roomURL(serverURL, room string) (string, error) {
	parsed, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("parse signaling url: %w", err)
	}
	if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		return "", fmt.Errorf("signaling url %q must use ws or wss", serverURL)
	}
	parsed.Path = "/" + room
	query := url.Values{}
	query.Set("next", fmt.Sprintf("%d", roomCapacity))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
