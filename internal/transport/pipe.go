package transport

import "sync"

// PipeChannel is an in-memory packet channel. Pairs built with Pipe deliver
// instantly and losslessly, which makes them useful for local sessions and
// deterministic tests.
type PipeChannel struct {
	mu     sync.Mutex
	peer   *PipeChannel
	inbox  []Packet
	closed bool
}

// Pipe returns two linked channels; packets sent on one arrive on the other.
func Pipe() (*PipeChannel, *PipeChannel) {
	a := &PipeChannel{}
	b := &PipeChannel{}
	a.peer = b
	b.peer = a
	return a, b
}

// Send delivers one packet to the linked peer.
func (c *PipeChannel) Send(pkt Packet) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrChannelClosed
	}
	peer := c.peer
	c.mu.Unlock()

	pkt.Inputs = append([]byte(nil), pkt.Inputs...)

	peer.mu.Lock()
	defer peer.mu.Unlock()
	if peer.closed {
		return ErrChannelClosed
	}
	peer.inbox = append(peer.inbox, pkt)
	return nil
}

// Poll drains every packet received since the previous call.
func (c *PipeChannel) Poll() ([]Packet, error) {
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

// Close stops both delivery directions for this endpoint.
func (c *PipeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.inbox = nil
	return nil
}
