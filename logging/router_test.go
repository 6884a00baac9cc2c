package logging_test

import (
	"context"
	"testing"
	"time"

	"github.com/awesomecuber/tron/logging"
	"github.com/awesomecuber/tron/logging/sinks"
)

func newTestRouter(t *testing.T, cfg logging.Config, named []logging.NamedSink) *logging.Router {
	t.Helper()
	router, err := logging.NewRouter(cfg, nil, named)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = router.Close(ctx)
	})
	return router
}

func waitForEvents(t *testing.T, sink *sinks.MemorySink, want int) []logging.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		events := sink.Events()
		if len(events) >= want {
			return events
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d events, got %d", want, len(sink.Events()))
	return nil
}

func TestRouterDeliversToEnabledSinksOnly(t *testing.T) {
	enabled := sinks.NewMemorySink()
	disabled := sinks.NewMemorySink()

	cfg := logging.DefaultConfig()
	cfg.EnabledSinks = []string{"memory"}
	router := newTestRouter(t, cfg, []logging.NamedSink{
		{Name: "memory", Sink: enabled},
		{Name: "other", Sink: disabled},
	})

	router.Publish(context.Background(), logging.Event{
		Type:     "system.test",
		Frame:    3,
		Severity: logging.SeverityInfo,
	})

	events := waitForEvents(t, enabled, 1)
	if events[0].Type != "system.test" {
		t.Fatalf("unexpected event type %q", events[0].Type)
	}
	if events[0].Frame != 3 {
		t.Fatalf("unexpected frame %d", events[0].Frame)
	}
	if got := len(disabled.Events()); got != 0 {
		t.Fatalf("disabled sink received %d events", got)
	}
	if stats := router.Stats(); stats.EventsTotal != 1 {
		t.Fatalf("expected 1 routed event, got %d", stats.EventsTotal)
	}
}

func TestRouterFiltersBelowMinimumSeverity(t *testing.T) {
	mem := sinks.NewMemorySink()

	cfg := logging.DefaultConfig()
	cfg.EnabledSinks = []string{"memory"}
	cfg.MinimumSeverity = logging.SeverityWarn
	router := newTestRouter(t, cfg, []logging.NamedSink{{Name: "memory", Sink: mem}})

	router.Publish(context.Background(), logging.Event{Type: "system.debug", Severity: logging.SeverityDebug})
	router.Publish(context.Background(), logging.Event{Type: "system.warn", Severity: logging.SeverityWarn})

	events := waitForEvents(t, mem, 1)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Type != "system.warn" {
		t.Fatalf("severity filter kept %q", events[0].Type)
	}
}

func TestRouterStampsClockAndFields(t *testing.T) {
	mem := sinks.NewMemorySink()
	stamp := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

	cfg := logging.DefaultConfig()
	cfg.EnabledSinks = []string{"memory"}
	cfg.Fields = map[string]any{"build": "test"}
	router, err := logging.NewRouter(cfg, logging.ClockFunc(func() time.Time { return stamp }), []logging.NamedSink{{Name: "memory", Sink: mem}})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = router.Close(ctx)
	})

	router.Publish(context.Background(), logging.Event{Type: "system.test", Severity: logging.SeverityInfo})

	events := waitForEvents(t, mem, 1)
	if !events[0].Time.Equal(stamp) {
		t.Fatalf("expected stamped time %v, got %v", stamp, events[0].Time)
	}
	if events[0].Extra["build"] != "test" {
		t.Fatalf("expected config field on event, got %v", events[0].Extra)
	}
}

// gatedSink blocks inside Write until released so a test can saturate the
// router queue deterministically.
type gatedSink struct {
	entered chan struct{}
	release chan struct{}
	mem     *sinks.MemorySink
}

func (s *gatedSink) Write(event logging.Event) error {
	s.entered <- struct{}{}
	<-s.release
	return s.mem.Write(event)
}

func (s *gatedSink) Close(ctx context.Context) error {
	return s.mem.Close(ctx)
}

func TestRouterDropsInsteadOfBlocking(t *testing.T) {
	gate := &gatedSink{
		entered: make(chan struct{}, 8),
		release: make(chan struct{}),
		mem:     sinks.NewMemorySink(),
	}

	cfg := logging.DefaultConfig()
	cfg.EnabledSinks = []string{"gate"}
	cfg.BufferSize = 1
	router := newTestRouter(t, cfg, []logging.NamedSink{{Name: "gate", Sink: gate}})

	publish := func(name logging.EventType) {
		router.Publish(context.Background(), logging.Event{Type: name, Severity: logging.SeverityInfo})
	}

	// The first event occupies the sink, the second fills the queue, so the
	// third has nowhere to go.
	publish("system.first")
	<-gate.entered
	publish("system.second")
	publish("system.third")

	close(gate.release)

	events := waitForEvents(t, gate.mem, 2)
	if events[0].Type != "system.first" || events[1].Type != "system.second" {
		t.Fatalf("unexpected delivery order %v", events)
	}
	stats := router.Stats()
	if stats.EventsTotal != 2 {
		t.Fatalf("expected 2 routed events, got %d", stats.EventsTotal)
	}
	if stats.DroppedTotal != 1 {
		t.Fatalf("expected 1 dropped event, got %d", stats.DroppedTotal)
	}
}
