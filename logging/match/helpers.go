package match

import (
	"context"

	"github.com/awesomecuber/tron/logging"
)

const (
	// EventPeerJoined is emitted when the signaling room reports a participant.
	EventPeerJoined logging.EventType = "match.peer_joined"
	// EventSessionReady is emitted once both peers agreed on handles and addresses.
	EventSessionReady logging.EventType = "match.session_ready"
	// EventFailed is emitted when matchmaking cannot produce a session.
	EventFailed logging.EventType = "match.failed"
	// EventPlayerEliminated is emitted when a player leaves the round.
	EventPlayerEliminated logging.EventType = "match.player_eliminated"
	// EventFinished is emitted when a round resolves to a winner or a draw.
	EventFinished logging.EventType = "match.finished"
)

// PeerJoinedPayload reports the room occupancy after a join.
type PeerJoinedPayload struct {
	PeerID string `json:"peerId"`
	Peers  int    `json:"peers"`
}

// SessionReadyPayload captures the negotiated session parameters.
type SessionReadyPayload struct {
	LocalHandle  int    `json:"localHandle"`
	RemoteHandle int    `json:"remoteHandle"`
	RemoteAddr   string `json:"remoteAddr"`
	InputDelay   int64  `json:"inputDelay"`
}

// FailedPayload explains why matchmaking aborted.
type FailedPayload struct {
	Reason string `json:"reason"`
}

// EliminatedPayload names the cause of an elimination.
type EliminatedPayload struct {
	Handle int    `json:"handle"`
	Cause  string `json:"cause"`
}

// FinishedPayload reports the round outcome. Winner is -1 for a draw.
type FinishedPayload struct {
	Winner int `json:"winner"`
}

// PeerJoined publishes an info event for a room join.
func PeerJoined(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload PeerJoinedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventPeerJoined,
		Frame:    -1,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryMatch,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// SessionReady publishes an info event once negotiation completed.
func SessionReady(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload SessionReadyPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventSessionReady,
		Frame:    -1,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryMatch,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// Failed publishes an error event when matchmaking aborts.
func Failed(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload FailedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventFailed,
		Frame:    -1,
		Actor:    actor,
		Severity: logging.SeverityError,
		Category: logging.CategoryMatch,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// PlayerEliminated publishes an info event for an elimination.
func PlayerEliminated(ctx context.Context, pub logging.Publisher, frame int64, actor logging.EntityRef, payload EliminatedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventPlayerEliminated,
		Frame:    frame,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryMatch,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// Finished publishes an info event for the round outcome.
func Finished(ctx context.Context, pub logging.Publisher, frame int64, actor logging.EntityRef, payload FinishedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventFinished,
		Frame:    frame,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryMatch,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
