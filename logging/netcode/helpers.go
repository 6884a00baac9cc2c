package netcode

import (
	"context"

	"github.com/awesomecuber/tron/logging"
)

const (
	// EventRollback is emitted after a mispredicted frame forces a resimulation.
	EventRollback logging.EventType = "netcode.rollback"
	// EventPredictionLimit is emitted when the session refuses to advance past the prediction window.
	EventPredictionLimit logging.EventType = "netcode.prediction_limit"
	// EventInputConflict is emitted when a peer re-confirms a frame with different bits.
	EventInputConflict logging.EventType = "netcode.input_conflict"
	// EventAckAdvanced is emitted when a peer acknowledges a newer frame.
	EventAckAdvanced logging.EventType = "netcode.ack_advanced"
)

// RollbackPayload captures the span of a resimulation.
type RollbackPayload struct {
	From  int64 `json:"from"`
	To    int64 `json:"to"`
	Depth int64 `json:"depth"`
}

// PredictionLimitPayload captures how far the session ran ahead of confirmations.
type PredictionLimitPayload struct {
	Frame     int64 `json:"frame"`
	Confirmed int64 `json:"confirmed"`
	Limit     int   `json:"limit"`
}

// InputConflictPayload records the winning and discarded input bits.
type InputConflictPayload struct {
	Frame   int64 `json:"frame"`
	Kept    uint8 `json:"kept"`
	Dropped uint8 `json:"dropped"`
}

// AckPayload captures acknowledgement progression details.
type AckPayload struct {
	Previous int64 `json:"previous"`
	Ack      int64 `json:"ack"`
}

// Rollback publishes a debug event describing a completed resimulation.
func Rollback(ctx context.Context, pub logging.Publisher, frame int64, actor logging.EntityRef, payload RollbackPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventRollback,
		Frame:    frame,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryNetcode,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// PredictionLimit publishes a warning when the prediction window is exhausted.
func PredictionLimit(ctx context.Context, pub logging.Publisher, frame int64, actor logging.EntityRef, payload PredictionLimitPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventPredictionLimit,
		Frame:    frame,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetcode,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// InputConflict publishes a warning when a frame is re-confirmed with different bits.
func InputConflict(ctx context.Context, pub logging.Publisher, frame int64, actor logging.EntityRef, payload InputConflictPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventInputConflict,
		Frame:    frame,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetcode,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// AckAdvanced publishes a debug event when a peer acknowledgement advances.
func AckAdvanced(ctx context.Context, pub logging.Publisher, frame int64, actor logging.EntityRef, payload AckPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventAckAdvanced,
		Frame:    frame,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryNetcode,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
