package logging

import (
	"maps"
	"slices"
	"time"
)

// EventType names a structured event. Types are dot-scoped by category,
// "netcode.rollback" for example, so sinks can group and filter them.
type EventType string

// Severity orders events for filtering.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarn
	SeverityError
)

// String returns the lowercase name sinks print.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

type EntityKind string

const (
	EntityKindUnknown EntityKind = "unknown"
	EntityKindPlayer  EntityKind = "player"
	EntityKindTrail   EntityKind = "trail"
	EntityKindPeer    EntityKind = "peer"
	EntityKindSession EntityKind = "session"
)

// EntityRef points an event at a player handle, a remote peer or the
// session itself.
type EntityRef struct {
	ID   string     `json:"id"`
	Kind EntityKind `json:"kind"`
}

const (
	CategoryGameplay = "gameplay"
	CategoryNetcode  = "netcode"
	CategoryMatch    = "match"
	CategorySystem   = "system"
)

// Event is the structured record routed to sinks. Frame is the simulation
// frame the event describes; -1 for events raised before a session exists.
type Event struct {
	Type     EventType      `json:"type"`
	Frame    int64          `json:"frame"`
	Time     time.Time      `json:"time"`
	Actor    EntityRef      `json:"actor"`
	Targets  []EntityRef    `json:"targets,omitempty"`
	Severity Severity       `json:"severity"`
	Category string         `json:"category,omitempty"`
	Payload  any            `json:"payload,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

// Clone detaches the event's reference fields so a sink can hold on to it
// without sharing state with the publisher.
func (e Event) Clone() Event {
	detached := e
	if len(e.Targets) > 0 {
		detached.Targets = slices.Clone(e.Targets)
	}
	if e.Extra != nil {
		detached.Extra = maps.Clone(e.Extra)
	}
	return detached
}
