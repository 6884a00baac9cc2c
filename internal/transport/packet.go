package transport

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrMalformedPacket marks payloads that decode but fail validation.
var ErrMalformedPacket = errors.New("transport: malformed packet")

// Packet is one datagram between peers. It carries a redundant window of
// confirmed inputs starting at frame Start, one byte per frame, plus the
// newest remote frame the sender has applied. A packet with no inputs is a
// bare acknowledgement.
type Packet struct {
	Handle int    `msgpack:"h"`
	Start  int64  `msgpack:"s"`
	Inputs []byte `msgpack:"i"`
	Ack    int64  `msgpack:"a"`
}

// End returns the frame just past the carried input window.
func (p Packet) End() int64 {
	return p.Start + int64(len(p.Inputs))
}

// Encode serializes a packet for the wire.
func Encode(p Packet) ([]byte, error) {
	data, err := msgpack.Marshal(&p)
	if err != nil {
		return nil, fmt.Errorf("encode packet: %w", err)
	}
	return data, nil
}

// Decode parses and validates a wire payload.
func Decode(data []byte) (Packet, error) {
	var p Packet
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return Packet{}, fmt.Errorf("decode packet: %w", err)
	}
	if p.Handle < 0 || p.Handle > 1 {
		return Packet{}, fmt.Errorf("%w: handle %d", ErrMalformedPacket, p.Handle)
	}
	if p.Start < 0 {
		return Packet{}, fmt.Errorf("%w: start frame %d", ErrMalformedPacket, p.Start)
	}
	if p.Ack < -1 {
		return Packet{}, fmt.Errorf("%w: ack %d", ErrMalformedPacket, p.Ack)
	}
	return p, nil
}
