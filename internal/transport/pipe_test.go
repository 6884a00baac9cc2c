package transport

import (
	"errors"
	"testing"
)

func TestPipeDeliversInOrder(t *testing.T) {
	a, b := Pipe()

	for frame := int64(0); frame < 3; frame++ {
		if err := a.Send(Packet{Handle: 0, Start: frame, Inputs: []byte{byte(frame)}, Ack: -1}); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}

	received, err := b.Poll()
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if len(received) != 3 {
		t.Fatalf("expected 3 packets, got %d", len(received))
	}
	for i, pkt := range received {
		if pkt.Start != int64(i) {
			t.Fatalf("packet %d out of order: %+v", i, pkt)
		}
	}

	if again, _ := b.Poll(); len(again) != 0 {
		t.Fatalf("second poll should be empty, got %d", len(again))
	}
}

func TestPipeDetachesInputBytes(t *testing.T) {
	a, b := Pipe()

	inputs := []byte{1, 2, 3}
	if err := a.Send(Packet{Inputs: inputs, Ack: -1}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	inputs[0] = 99

	received, err := b.Poll()
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if received[0].Inputs[0] != 1 {
		t.Fatalf("sender mutation leaked into delivered packet")
	}
}

func TestPipeClosedEndpoints(t *testing.T) {
	a, b := Pipe()
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := a.Send(Packet{Ack: -1}); !errors.Is(err, ErrChannelClosed) {
		t.Fatalf("send to closed peer should fail, got %v", err)
	}
	if _, err := b.Poll(); !errors.Is(err, ErrChannelClosed) {
		t.Fatalf("poll on closed endpoint should fail, got %v", err)
	}
}
