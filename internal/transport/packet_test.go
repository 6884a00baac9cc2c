package transport

import (
	"bytes"
	"errors"
	"testing"
)

func TestPacketRoundTrip(t *testing.T) {
	original := Packet{
		Handle: 1,
		Start:  42,
		Inputs: []byte{0b001, 0b010, 0b100, 0},
		Ack:    40,
	}

	data, err := Encode(original)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if decoded.Handle != original.Handle || decoded.Start != original.Start || decoded.Ack != original.Ack {
		t.Fatalf("header mismatch: %+v", decoded)
	}
	if !bytes.Equal(decoded.Inputs, original.Inputs) {
		t.Fatalf("inputs mismatch: %v", decoded.Inputs)
	}
	if decoded.End() != 46 {
		t.Fatalf("expected window end 46, got %d", decoded.End())
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte{0xc1, 0xff, 0x00}); err == nil {
		t.Fatalf("expected error for garbage payload")
	}
}

func TestDecodeRejectsInvalidFields(t *testing.T) {
	cases := []struct {
		name string
		pkt  Packet
	}{
		{name: "negative start", pkt: Packet{Handle: 0, Start: -1}},
		{name: "handle out of range", pkt: Packet{Handle: 2}},
		{name: "ack below sentinel", pkt: Packet{Ack: -2}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := Encode(tc.pkt)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if _, err := Decode(data); !errors.Is(err, ErrMalformedPacket) {
				t.Fatalf("expected ErrMalformedPacket, got %v", err)
			}
		})
	}
}
