package logging

import (
	"context"
	"log"
	"maps"
	"os"
	"slices"
	"sync/atomic"
	"time"
)

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock reads the wall clock. Simulation code never touches it; it
// exists so infrastructure can be tested with a fake clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// Sink receives routed events from the router's dispatch goroutine, one
// call at a time. A sink that holds on to an event past Write must clone it.
type Sink interface {
	Write(Event) error
	Close(context.Context) error
}

type NamedSink struct {
	Name string
	Sink Sink
}

// Router queues published events and hands them to sinks on a single
// dispatch goroutine. Publish never blocks: when the queue is full the
// event is dropped and counted instead of stalling the frame loop.
type Router struct {
	queue chan Event
	stop  chan struct{}
	done  chan struct{}

	sinks       []*routedSink
	clock       Clock
	minSeverity Severity
	fields      map[string]any
	fallback    *log.Logger
	warnEvery   time.Duration

	closed       atomic.Bool
	routed       atomic.Uint64
	dropped      atomic.Uint64
	nextDropWarn atomic.Int64
}

// routedSink tracks one sink's failure state. Only the dispatch goroutine
// touches failures and mutedUntil.
type routedSink struct {
	name       string
	sink       Sink
	failures   int
	mutedUntil time.Time
}

type RouterStats struct {
	EventsTotal  uint64
	DroppedTotal uint64
}

// NewRouter starts a router over the sinks cfg enables. A nil clock falls
// back to the system clock.
func NewRouter(cfg Config, clock Clock, sinks []NamedSink) (*Router, error) {
	if clock == nil {
		clock = SystemClock{}
	}
	buffer := cfg.BufferSize
	if buffer <= 0 {
		buffer = 512
	}
	warnEvery := cfg.DropWarnInterval
	if warnEvery <= 0 {
		warnEvery = 5 * time.Second
	}

	r := &Router{
		queue:       make(chan Event, buffer),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
		clock:       clock,
		minSeverity: cfg.MinimumSeverity,
		fallback:    log.New(os.Stderr, "[logging] ", log.LstdFlags),
		warnEvery:   warnEvery,
	}
	if len(cfg.Fields) > 0 {
		r.fields = maps.Clone(cfg.Fields)
	}
	for _, named := range sinks {
		if named.Sink == nil {
			continue
		}
		if len(cfg.EnabledSinks) > 0 && !slices.Contains(cfg.EnabledSinks, named.Name) {
			continue
		}
		r.sinks = append(r.sinks, &routedSink{name: named.Name, sink: named.Sink})
	}

	go r.dispatch()
	return r, nil
}

// Publish enqueues one event. Events with an empty type, published after
// Close, or arriving against a full queue are dropped.
func (r *Router) Publish(ctx context.Context, event Event) {
	if event.Type == "" || r.closed.Load() {
		return
	}
	select {
	case r.queue <- event:
	default:
		r.noteDrop(event)
	}
}

// Close stops the dispatcher, delivers what was already queued and closes
// every sink. A second call returns nil without doing anything.
func (r *Router) Close(ctx context.Context) error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(r.stop)
	select {
	case <-r.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	var firstErr error
	for _, rs := range r.sinks {
		if err := rs.sink.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Stats reports how many events were routed to sinks and dropped so far.
func (r *Router) Stats() RouterStats {
	return RouterStats{
		EventsTotal:  r.routed.Load(),
		DroppedTotal: r.dropped.Load(),
	}
}

func (r *Router) dispatch() {
	defer close(r.done)
	for {
		select {
		case event := <-r.queue:
			r.deliver(event)
		case <-r.stop:
			for {
				select {
				case event := <-r.queue:
					r.deliver(event)
				default:
					return
				}
			}
		}
	}
}

func (r *Router) deliver(event Event) {
	if event.Severity < r.minSeverity {
		return
	}
	if event.Time.IsZero() {
		event.Time = r.clock.Now()
	}
	if len(r.fields) > 0 {
		event = event.Clone()
		if event.Extra == nil {
			event.Extra = make(map[string]any, len(r.fields))
		}
		for key, value := range r.fields {
			if _, set := event.Extra[key]; !set {
				event.Extra[key] = value
			}
		}
	}
	r.routed.Add(1)
	for _, rs := range r.sinks {
		r.write(rs, event)
	}
}

func (r *Router) write(rs *routedSink, event Event) {
	err := rs.sink.Write(event)
	if err == nil {
		rs.failures = 0
		rs.mutedUntil = time.Time{}
		return
	}
	rs.failures++
	if now := time.Now(); now.After(rs.mutedUntil) {
		r.fallback.Printf("sink %s failed %d times: %v", rs.name, rs.failures, err)
		rs.mutedUntil = now.Add(r.warnEvery)
	}
}

func (r *Router) noteDrop(event Event) {
	r.dropped.Add(1)
	now := time.Now().UnixNano()
	deadline := r.nextDropWarn.Load()
	if now < deadline {
		return
	}
	if r.nextDropWarn.CompareAndSwap(deadline, now+r.warnEvery.Nanoseconds()) {
		r.fallback.Printf("queue full, dropping %s at frame %d", event.Type, event.Frame)
	}
}
