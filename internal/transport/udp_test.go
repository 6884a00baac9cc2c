package transport

import (
	"testing"
	"time"

	"github.com/awesomecuber/tron/internal/telemetry"
	"github.com/awesomecuber/tron/logging"
)

func newLoopbackPair(t *testing.T) (*UDPChannel, *UDPChannel) {
	t.Helper()

	a, err := ListenUDP(UDPConfig{ListenAddr: "127.0.0.1:0"})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })

	b, err := ListenUDP(UDPConfig{ListenAddr: "127.0.0.1:0"})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })

	if err := a.Connect(b.LocalAddr()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := b.Connect(a.LocalAddr()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return a, b
}

func pollOne(t *testing.T, c *UDPChannel) Packet {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		packets, err := c.Poll()
		if err != nil {
			t.Fatalf("Poll: %v", err)
		}
		if len(packets) > 0 {
			return packets[0]
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("no packet arrived before deadline")
	return Packet{}
}

func TestUDPChannelExchangesPackets(t *testing.T) {
	a, b := newLoopbackPair(t)

	sent := Packet{Handle: 0, Start: 7, Inputs: []byte{1, 0, 5}, Ack: 3}
	if err := a.Send(sent); err != nil {
		t.Fatalf("Send: %v", err)
	}

	got := pollOne(t, b)
	if got.Handle != sent.Handle || got.Start != sent.Start || got.Ack != sent.Ack {
		t.Fatalf("unexpected packet %+v", got)
	}
	if len(got.Inputs) != 3 || got.Inputs[2] != 5 {
		t.Fatalf("unexpected inputs %v", got.Inputs)
	}

	reply := Packet{Handle: 1, Start: 0, Inputs: []byte{2}, Ack: 9}
	if err := b.Send(reply); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got := pollOne(t, a); got.Handle != 1 || got.Ack != 9 {
		t.Fatalf("unexpected reply %+v", got)
	}
}

func TestUDPChannelIgnoresStrangers(t *testing.T) {
	var counters logging.Metrics

	a, err := ListenUDP(UDPConfig{ListenAddr: "127.0.0.1:0"})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })

	b, err := ListenUDP(UDPConfig{ListenAddr: "127.0.0.1:0", Metrics: telemetry.WrapMetrics(&counters)})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })

	if err := a.Connect(b.LocalAddr()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := b.Connect(a.LocalAddr()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	stranger, err := ListenUDP(UDPConfig{ListenAddr: "127.0.0.1:0"})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	t.Cleanup(func() { _ = stranger.Close() })
	if err := stranger.Connect(b.LocalAddr()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if err := stranger.Send(Packet{Handle: 0, Start: 99, Ack: -1}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := a.Send(Packet{Handle: 0, Start: 1, Ack: -1}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	got := pollOne(t, b)
	if got.Start != 1 {
		t.Fatalf("stranger packet should be ignored, got %+v", got)
	}
	if extra, _ := b.Poll(); len(extra) != 0 {
		t.Fatalf("unexpected extra packets %v", extra)
	}

	deadline := time.Now().Add(2 * time.Second)
	for counters.Value(metricStrangerDrops) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if drops := counters.Value(metricStrangerDrops); drops != 1 {
		t.Fatalf("expected 1 counted stranger drop, got %d", drops)
	}
}

func TestUDPSendBeforeConnect(t *testing.T) {
	c, err := ListenUDP(UDPConfig{ListenAddr: "127.0.0.1:0"})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if err := c.Send(Packet{Ack: -1}); err != ErrNotConnected {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}
