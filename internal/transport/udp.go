package transport

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/awesomecuber/tron/internal/telemetry"
)

const (
	metricPacketsSent     = "transport_packets_sent"
	metricPacketsReceived = "transport_packets_received"
	metricPacketsDropped  = "transport_packets_dropped"
	metricDecodeErrors    = "transport_decode_errors"
	metricStrangerDrops   = "transport_stranger_drops"
)

var (
	// ErrChannelClosed is returned once a channel has been shut down.
	ErrChannelClosed = errors.New("transport: channel closed")
	// ErrNotConnected is returned when sending before a remote is set.
	ErrNotConnected = errors.New("transport: no remote peer")
)

// UDPConfig configures a UDPChannel.
type UDPConfig struct {
	// ListenAddr is the local bind address, ":0" for an ephemeral port.
	ListenAddr string
	// InboxLimit bounds buffered inbound packets; the oldest are dropped
	// first since newer packets supersede them.
	InboxLimit int
	Logger     telemetry.Logger
	Metrics    telemetry.Metrics
}

func (cfg UDPConfig) normalized() UDPConfig {
	normalized := cfg
	if normalized.ListenAddr == "" {
		normalized.ListenAddr = ":0"
	}
	if normalized.InboxLimit <= 0 {
		normalized.InboxLimit = 256
	}
	if normalized.Logger == nil {
		normalized.Logger = telemetry.LoggerFunc(func(string, ...any) {})
	}
	return normalized
}

// UDPChannel exchanges packets with a single remote peer over UDP.
// Datagrams from other sources are ignored.
type UDPChannel struct {
	cfg  UDPConfig
	conn *net.UDPConn

	mu      sync.Mutex
	remote  *net.UDPAddr
	inbox   []Packet
	closed  bool
	started bool

	readOnce sync.Once
	done     chan struct{}
}

// ListenUDP binds the local socket. The channel cannot send or receive until
// Connect supplies the remote address.
func ListenUDP(cfg UDPConfig) (*UDPChannel, error) {
	cfg = cfg.normalized()
	addr, err := net.ResolveUDPAddr("udp", cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve listen address %q: %w", cfg.ListenAddr, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen udp %q: %w", cfg.ListenAddr, err)
	}
	return &UDPChannel{cfg: cfg, conn: conn, done: make(chan struct{})}, nil
}

// LocalAddr returns the bound address, including the resolved port.
func (c *UDPChannel) LocalAddr() string {
	if c == nil || c.conn == nil {
		return ""
	}
	return c.conn.LocalAddr().String()
}

// Connect fixes the remote peer and starts the read loop.
func (c *UDPChannel) Connect(remoteAddr string) error {
	addr, err := net.ResolveUDPAddr("udp", remoteAddr)
	if err != nil {
		return fmt.Errorf("resolve remote address %q: %w", remoteAddr, err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrChannelClosed
	}
	c.remote = addr
	c.mu.Unlock()

	c.readOnce.Do(func() {
		c.mu.Lock()
		c.started = true
		c.mu.Unlock()
		go c.readLoop()
	})
	return nil
}

// Send encodes and transmits one packet to the connected peer.
func (c *UDPChannel) Send(pkt Packet) error {
	c.mu.Lock()
	remote := c.remote
	closed := c.closed
	c.mu.Unlock()

	if closed {
		return ErrChannelClosed
	}
	if remote == nil {
		return ErrNotConnected
	}

	data, err := Encode(pkt)
	if err != nil {
		return err
	}
	if _, err := c.conn.WriteToUDP(data, remote); err != nil {
		return fmt.Errorf("send packet: %w", err)
	}
	if c.cfg.Metrics != nil {
		c.cfg.Metrics.Add(metricPacketsSent, 1)
	}
	return nil
}

// Poll drains every packet received since the previous call.
func (c *UDPChannel) Poll() ([]Packet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrChannelClosed
	}
	if len(c.inbox) == 0 {
		return nil, nil
	}
	drained := c.inbox
	c.inbox = nil
	return drained, nil
}

// Close shuts the socket down and stops the read loop.
func (c *UDPChannel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	started := c.started
	c.mu.Unlock()

	err := c.conn.Close()
	if started {
		<-c.done
	}
	return err
}

func (c *UDPChannel) readLoop() {
	defer close(c.done)
	buffer := make([]byte, 2048)
	for {
		n, addr, err := c.conn.ReadFromUDP(buffer)
		if err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if closed {
				return
			}
			c.cfg.Logger.Printf("udp read failed: %v", err)
			continue
		}

		c.mu.Lock()
		remote := c.remote
		c.mu.Unlock()
		if remote == nil || !addr.IP.Equal(remote.IP) || addr.Port != remote.Port {
			if c.cfg.Metrics != nil {
				c.cfg.Metrics.Add(metricStrangerDrops, 1)
			}
			continue
		}

		pkt, err := Decode(buffer[:n])
		if err != nil {
			if c.cfg.Metrics != nil {
				c.cfg.Metrics.Add(metricDecodeErrors, 1)
			}
			c.cfg.Logger.Printf("dropping undecodable packet from %s: %v", addr, err)
			continue
		}

		c.mu.Lock()
		if len(c.inbox) >= c.cfg.InboxLimit {
			copy(c.inbox, c.inbox[1:])
			c.inbox[len(c.inbox)-1] = pkt
			if c.cfg.Metrics != nil {
				c.cfg.Metrics.Add(metricPacketsDropped, 1)
			}
		} else {
			c.inbox = append(c.inbox, pkt)
		}
		c.mu.Unlock()
		if c.cfg.Metrics != nil {
			c.cfg.Metrics.Add(metricPacketsReceived, 1)
		}
	}
}
