package lifecycle

import (
	"context"

	"github.com/moxitooo/zzzmeika/logging"
)

const (
	// EventSessionConnected is emitted when a connection is accepted.
	EventSessionConnected logging.EventType = "lifecycle.session_connected"
	// EventRoomJoined is emitted when a session enters a room.
	EventRoomJoined logging.EventType = "lifecycle.room_joined"
	// EventRoomLeft is emitted when a session leaves a room without disconnecting.
	EventRoomLeft logging.EventType = "lifecycle.room_left"
	// EventSessionDisconnected is emitted when a connection is torn down.
	EventSessionDisconnected logging.EventType = "lifecycle.session_disconnected"
)

// SessionConnectedPayload captures the identity assigned to a new connection.
type SessionConnectedPayload struct {
	PlayerName string `json:"playerName"`
	Codec      string `json:"codec"`
}

// RoomPayload captures the room a session moved into or out of.
type RoomPayload struct {
	PlayerName string `json:"playerName"`
	Members    int    `json:"members"`
}

// SessionDisconnectedPayload captures why a session left.
type SessionDisconnectedPayload struct {
	Reason string `json:"reason"`
}

func SessionConnected(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload SessionConnectedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSessionConnected,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	})
}

func RoomJoined(ctx context.Context, pub logging.Publisher, room string, actor logging.EntityRef, payload RoomPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventRoomJoined,
		Room:     room,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	})
}

func RoomLeft(ctx context.Context, pub logging.Publisher, room string, actor logging.EntityRef, payload RoomPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventRoomLeft,
		Room:     room,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	})
}

// SessionDisconnected publishes a disconnect event.
func SessionDisconnected(ctx context.Context, pub logging.Publisher, room string, actor logging.EntityRef, payload SessionDisconnectedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSessionDisconnected,
		Room:     room,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	})
}
