package gameplay

import (
	"context"

	"github.com/moxitooo/zzzmeika/logging"
)

const (
	// EventFoodEaten is emitted when a snake consumes a food item.
	EventFoodEaten logging.EventType = "gameplay.food_eaten"
	// EventPowerUpSpawned is emitted when a power-up is placed in a room.
	EventPowerUpSpawned logging.EventType = "gameplay.powerup_spawned"
	// EventPowerUpCollected is emitted when a snake picks up a power-up.
	EventPowerUpCollected logging.EventType = "gameplay.powerup_collected"
	// EventPowerUpExpired is emitted when a timed effect runs out.
	EventPowerUpExpired logging.EventType = "gameplay.powerup_expired"
	// EventPlayerDied is emitted when a snake collides.
	EventPlayerDied logging.EventType = "gameplay.player_died"
	// EventPlayerRespawned is emitted after the respawn delay.
	EventPlayerRespawned logging.EventType = "gameplay.player_respawned"
	// EventObstaclesRegenerated is emitted when a room rebuilds its walls.
	EventObstaclesRegenerated logging.EventType = "gameplay.obstacles_regenerated"
)

// FoodEatenPayload captures the score change of a pickup.
type FoodEatenPayload struct {
	Kind       string `json:"kind"`
	Points     int    `json:"points"`
	Multiplier int    `json:"multiplier"`
	Score      int    `json:"score"`
}

// PowerUpPayload identifies a power-up and where it was.
type PowerUpPayload struct {
	Kind string `json:"kind"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

// PlayerDiedPayload captures the cause and final score of a death.
type PlayerDiedPayload struct {
	Cause  string `json:"cause"`
	Score  int    `json:"score"`
	Length int    `json:"length"`
}

// ObstaclesPayload summarises a regenerated layout.
type ObstaclesPayload struct {
	Count int `json:"count"`
}

func FoodEaten(ctx context.Context, pub logging.Publisher, room string, actor logging.EntityRef, payload FoodEatenPayload, extra map[string]any) {
	publish(ctx, pub, EventFoodEaten, logging.SeverityDebug, room, actor, payload, extra)
}

func PowerUpSpawned(ctx context.Context, pub logging.Publisher, room string, payload PowerUpPayload, extra map[string]any) {
	publish(ctx, pub, EventPowerUpSpawned, logging.SeverityInfo, room, logging.RoomRef(room), payload, extra)
}

func PowerUpCollected(ctx context.Context, pub logging.Publisher, room string, actor logging.EntityRef, payload PowerUpPayload, extra map[string]any) {
	publish(ctx, pub, EventPowerUpCollected, logging.SeverityInfo, room, actor, payload, extra)
}

func PowerUpExpired(ctx context.Context, pub logging.Publisher, room string, actor logging.EntityRef, payload PowerUpPayload, extra map[string]any) {
	publish(ctx, pub, EventPowerUpExpired, logging.SeverityDebug, room, actor, payload, extra)
}

func PlayerDied(ctx context.Context, pub logging.Publisher, room string, actor logging.EntityRef, payload PlayerDiedPayload, extra map[string]any) {
	publish(ctx, pub, EventPlayerDied, logging.SeverityInfo, room, actor, payload, extra)
}

func PlayerRespawned(ctx context.Context, pub logging.Publisher, room string, actor logging.EntityRef, extra map[string]any) {
	publish(ctx, pub, EventPlayerRespawned, logging.SeverityDebug, room, actor, nil, extra)
}

func ObstaclesRegenerated(ctx context.Context, pub logging.Publisher, room string, actor logging.EntityRef, payload ObstaclesPayload, extra map[string]any) {
	publish(ctx, pub, EventObstaclesRegenerated, logging.SeverityInfo, room, actor, payload, extra)
}

func publish(ctx context.Context, pub logging.Publisher, typ logging.EventType, sev logging.Severity, room string, actor logging.EntityRef, payload any, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     typ,
		Room:     room,
		Actor:    actor,
		Severity: sev,
		Category: logging.CategoryGameplay,
		Payload:  payload,
		Extra:    extra,
	})
}
