package network

import (
	"context"

	"github.com/moxitooo/zzzmeika/logging"
)

const (
	// EventMalformedMessage is emitted when an inbound frame cannot be decoded.
	EventMalformedMessage logging.EventType = "network.malformed_message"
	// EventUnknownMessage is emitted when an inbound frame carries an unsupported type.
	EventUnknownMessage logging.EventType = "network.unknown_message"
	// EventSendFailed is emitted when an outbound frame cannot be queued or written.
	EventSendFailed logging.EventType = "network.send_failed"
)

// MessagePayload describes a rejected inbound frame.
type MessagePayload struct {
	Type  string `json:"type,omitempty"`
	Bytes int    `json:"bytes"`
	Error string `json:"error,omitempty"`
}

// SendFailedPayload describes a failed outbound delivery.
type SendFailedPayload struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// MalformedMessage publishes a warning for an undecodable frame.
func MalformedMessage(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload MessagePayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventMalformedMessage,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
		Payload:  payload,
		Extra:    extra,
	})
}

// UnknownMessage publishes a debug event for a frame with an unsupported type.
func UnknownMessage(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload MessagePayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventUnknownMessage,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryNetwork,
		Payload:  payload,
		Extra:    extra,
	})
}

// SendFailed publishes a warning when delivery to one connection fails.
func SendFailed(ctx context.Context, pub logging.Publisher, room string, actor logging.EntityRef, payload SendFailedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSendFailed,
		Room:     room,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
		Payload:  payload,
		Extra:    extra,
	})
}
