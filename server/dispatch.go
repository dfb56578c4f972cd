package server

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/moxitooo/zzzmeika/internal/game"
	"github.com/moxitooo/zzzmeika/internal/leaderboard"
	"github.com/moxitooo/zzzmeika/internal/net/proto"
	"github.com/moxitooo/zzzmeika/internal/schedule"
	"github.com/moxitooo/zzzmeika/logging"
	"github.com/moxitooo/zzzmeika/logging/gameplay"
	"github.com/moxitooo/zzzmeika/logging/lifecycle"
	"github.com/moxitooo/zzzmeika/logging/network"
	"github.com/moxitooo/zzzmeika/logging/persistence"
)

const kindRespawn schedule.Kind = "respawn"

func effectTimerKind(kind game.EffectKind) schedule.Kind {
	return schedule.Kind("effect:" + string(kind))
}

// HandleFrame decodes a raw frame with the session's codec and dispatches it.
// Malformed and unknown frames are logged and dropped.
func (h *Hub) HandleFrame(ctx context.Context, id string, payload []byte) {
	s := h.lookup(id)
	if s == nil {
		return
	}
	codec := proto.JSON
	if s.conn != nil && s.conn.Codec() != nil {
		codec = s.conn.Codec()
	}

	msg, err := codec.Decode(payload)
	if err != nil {
		h.telemetry.RecordFrame(true)
		info := network.MessagePayload{Bytes: len(payload), Error: err.Error()}
		if errors.Is(err, proto.ErrUnknownType) {
			if unknown, ok := msg.(proto.Unknown); ok {
				info.Type = unknown.Type
			}
			network.UnknownMessage(ctx, h.publisher, logging.SessionRef(id), info, nil)
			return
		}
		h.logger.Printf("drop malformed frame from %s: %v", id, err)
		network.MalformedMessage(ctx, h.publisher, logging.SessionRef(id), info, nil)
		return
	}
	h.telemetry.RecordFrame(false)
	h.Dispatch(ctx, id, msg)
}

// Dispatch applies one decoded client message for the session.
func (h *Hub) Dispatch(ctx context.Context, id string, msg proto.Inbound) {
	s := h.lookup(id)
	if s == nil {
		return
	}
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if s.closed.Load() {
		return
	}

	switch m := msg.(type) {
	case proto.JoinGame:
		h.handleJoin(ctx, s, m)
	case proto.PlayerMove:
		h.handleMove(ctx, s, m)
	case proto.ChatMessage:
		h.handleChat(ctx, s, m)
	case proto.ChangeGameMode:
		h.handleChangeMode(ctx, s, m)
	case proto.ChangeFieldSize:
		h.handleChangeSize(ctx, s, m)
	case proto.RestartGame:
		h.handleRestart(ctx, s)
	case proto.Unknown:
		network.UnknownMessage(ctx, h.publisher, logging.SessionRef(id), network.MessagePayload{Type: m.Type}, nil)
	}
}

func (h *Hub) handleJoin(ctx context.Context, s *session, m proto.JoinGame) {
	key := s.key
	if mode, ok := game.ParseMode(m.GameMode); ok {
		key.Mode = mode
	}
	if size, ok := game.ParseFieldSize(m.FieldSize); ok {
		key.Size = size
	}
	name := strings.TrimSpace(m.PlayerName)
	if name != "" {
		name = truncateRunes(name, h.cfg.MaxNameLength)
	}

	h.switchRoom(ctx, s, key, name, func(room *game.Room) proto.Outbound {
		return proto.GameJoined{
			PlayerID:   s.id,
			PlayerName: s.player.Name,
			GameMode:   string(key.Mode),
			FieldSize:  string(key.Size),
			GameState:  room.Snapshot(),
		}
	})
}

func (h *Hub) handleChangeMode(ctx context.Context, s *session, m proto.ChangeGameMode) {
	mode, ok := game.ParseMode(m.Mode)
	if !ok {
		return
	}
	key := game.Key{Mode: mode, Size: s.key.Size}
	h.switchRoom(ctx, s, key, "", func(room *game.Room) proto.Outbound {
		return proto.GameModeChanged{
			GameMode:  string(key.Mode),
			FieldSize: string(key.Size),
			GameState: room.Snapshot(),
		}
	})
}

func (h *Hub) handleChangeSize(ctx context.Context, s *session, m proto.ChangeFieldSize) {
	size, ok := game.ParseFieldSize(m.Size)
	if !ok {
		return
	}
	key := game.Key{Mode: s.key.Mode, Size: size}
	h.switchRoom(ctx, s, key, "", func(room *game.Room) proto.Outbound {
		return proto.FieldSizeChanged{
			GameMode:  string(key.Mode),
			FieldSize: string(key.Size),
			GameState: room.Snapshot(),
		}
	})
}

// switchRoom moves s out of its current room and into the room for key with a
// fresh snake. reply builds the direct confirmation from the new room, which
// is sent before the room-wide player_joined.
func (h *Hub) switchRoom(ctx context.Context, s *session, key game.Key, name string, reply func(*game.Room) proto.Outbound) {
	if old := s.room.Swap(nil); old != nil {
		old.Lock()
		h.leaveLocked(ctx, s, old)
		old.Unlock()
	}
	h.timers.CancelAll(s.id)

	// The player belongs to no room here, so its fields are ours.
	if name != "" {
		s.player.Name = name
	}
	s.key = key

	room := h.registry.Get(key)
	room.Lock()
	defer room.Unlock()

	room.Add(s.player)
	room.Reset(s.player)
	s.room.Store(room)

	roomKey := room.Key().String()
	h.sendLocked(ctx, roomKey, s, reply(room))
	roster := room.Roster()
	h.broadcastLocked(ctx, room, proto.PlayerJoined{
		PlayerID:   s.id,
		PlayerName: s.player.Name,
		Players:    roster,
	})
	lifecycle.RoomJoined(ctx, h.publisher, roomKey, logging.SessionRef(s.id), lifecycle.RoomPayload{
		PlayerName: s.player.Name,
		Members:    len(roster),
	}, nil)
}

func (h *Hub) handleMove(ctx context.Context, s *session, m proto.PlayerMove) {
	room := s.room.Load()
	if room == nil {
		return
	}
	room.Lock()
	defer room.Unlock()

	now := h.cfg.Now()
	result := room.Move(s.player, m.Direction, now)
	switch result.Outcome {
	case game.MoveIgnored:
		return
	case game.MoveDied:
		h.telemetry.RecordMove()
		h.handleDeathLocked(ctx, s, room, result)
		return
	}
	h.telemetry.RecordMove()

	roomKey := room.Key().String()
	actor := logging.SessionRef(s.id)
	if pickup := result.Food; pickup != nil {
		h.sendLocked(ctx, roomKey, s, proto.ScoreUpdate{
			Score:        s.player.Score,
			PointsEarned: pickup.Points,
			Multiplier:   pickup.Multiplier,
			FoodEaten:    s.player.FoodEaten,
		})
		h.broadcastLocked(ctx, room, proto.PlayersUpdate{Players: room.Roster()})
		gameplay.FoodEaten(ctx, h.publisher, roomKey, actor, gameplay.FoodEatenPayload{
			Kind:       pickup.Eaten.Type,
			Points:     pickup.Points,
			Multiplier: pickup.Multiplier,
			Score:      s.player.Score,
		}, nil)
	}
	if spawned := result.Spawned; spawned != nil {
		gameplay.PowerUpSpawned(ctx, h.publisher, roomKey, gameplay.PowerUpPayload{
			Kind: string(spawned.Type),
			X:    spawned.X,
			Y:    spawned.Y,
		}, nil)
	}
	if collected := result.Collected; collected != nil {
		h.armEffectLocked(s, collected.Type, collected.DurationValue())
		h.sendLocked(ctx, roomKey, s, proto.BuffCollected{
			BuffType: string(collected.Type),
			Duration: collected.Duration,
		})
		gameplay.PowerUpCollected(ctx, h.publisher, roomKey, actor, gameplay.PowerUpPayload{
			Kind: string(collected.Type),
			X:    collected.X,
			Y:    collected.Y,
		}, nil)
	}
	h.broadcastLocked(ctx, room, proto.GameState{GameState: room.Snapshot()})
}

// handleDeathLocked announces a death, persists the score once per life and
// schedules the respawn. No game_state follows; the respawn sends one.
func (h *Hub) handleDeathLocked(ctx context.Context, s *session, room *game.Room, result game.MoveResult) {
	h.telemetry.RecordDeath()
	h.timers.CancelAll(s.id)

	p := s.player
	roomKey := room.Key().String()
	if p.Score > 0 && !p.RecordSaved {
		p.RecordSaved = true
		h.persistRecord(s.id, leaderboard.Record{
			PlayerName:  p.Name,
			Score:       p.Score,
			SnakeLength: len(p.Body),
			FoodEaten:   p.FoodEaten,
			GameMode:    string(room.Key().Mode),
			FieldSize:   string(room.Key().Size),
		})
	}

	h.sendLocked(ctx, roomKey, s, proto.PlayerDiedNotice{Score: p.Score})
	h.broadcastLocked(ctx, room, proto.PlayerDied{
		PlayerID:   s.id,
		PlayerName: p.Name,
		Score:      p.Score,
	})
	gameplay.PlayerDied(ctx, h.publisher, roomKey, logging.SessionRef(s.id), gameplay.PlayerDiedPayload{
		Cause:  string(result.Cause),
		Score:  p.Score,
		Length: len(p.Body),
	}, nil)

	h.timers.Arm(s.id, kindRespawn, h.cfg.RespawnDelay, func(ticket schedule.Ticket) {
		h.respawn(s, ticket)
	})
}

func (h *Hub) respawn(s *session, ticket schedule.Ticket) {
	room := s.room.Load()
	if room == nil {
		return
	}
	room.Lock()
	defer room.Unlock()
	if !room.Has(s.player) || !h.timers.Claim(ticket) {
		return
	}
	if s.player.Alive {
		return
	}

	ctx := context.Background()
	roomKey := room.Key().String()
	room.Reset(s.player)
	h.sendLocked(ctx, roomKey, s, proto.PlayerRespawn{})
	h.broadcastLocked(ctx, room, proto.PlayersUpdate{Players: room.Roster()})
	h.broadcastLocked(ctx, room, proto.GameState{GameState: room.Snapshot()})
	gameplay.PlayerRespawned(ctx, h.publisher, roomKey, logging.SessionRef(s.id), nil)
}

// armEffectLocked (re)starts the expiry timer for an effect. Re-collecting an
// active effect replaces the pending expiry.
func (h *Hub) armEffectLocked(s *session, kind game.EffectKind, d time.Duration) {
	h.timers.Arm(s.id, effectTimerKind(kind), d, func(ticket schedule.Ticket) {
		h.expireEffect(s, kind, ticket)
	})
}

func (h *Hub) expireEffect(s *session, kind game.EffectKind, ticket schedule.Ticket) {
	room := s.room.Load()
	if room == nil {
		return
	}
	room.Lock()
	defer room.Unlock()
	if !room.Has(s.player) || !h.timers.Claim(ticket) {
		return
	}
	if !room.ExpireEffect(s.player, kind) {
		return
	}

	ctx := context.Background()
	roomKey := room.Key().String()
	h.sendLocked(ctx, roomKey, s, proto.BuffExpired{BuffType: string(kind)})
	gameplay.PowerUpExpired(ctx, h.publisher, roomKey, logging.SessionRef(s.id), gameplay.PowerUpPayload{
		Kind: string(kind),
	}, nil)
}

func (h *Hub) handleChat(ctx context.Context, s *session, m proto.ChatMessage) {
	room := s.room.Load()
	if room == nil {
		return
	}
	text := strings.TrimSpace(m.Text)
	if text == "" {
		return
	}
	text = truncateRunes(text, h.cfg.MaxChatLength)

	room.Lock()
	defer room.Unlock()
	if !room.Has(s.player) {
		return
	}
	h.broadcastLocked(ctx, room, proto.ChatBroadcast{
		PlayerID:   s.id,
		PlayerName: s.player.Name,
		Message:    text,
		Timestamp:  h.cfg.Now().UnixMilli(),
	})
}

func (h *Hub) handleRestart(ctx context.Context, s *session) {
	room := s.room.Load()
	if room == nil {
		return
	}
	room.Lock()
	defer room.Unlock()
	if !room.Has(s.player) {
		return
	}

	h.timers.CancelAll(s.id)
	regenerated := room.Restart(s.player)

	roomKey := room.Key().String()
	if regenerated {
		gameplay.ObstaclesRegenerated(ctx, h.publisher, roomKey, logging.SessionRef(s.id), gameplay.ObstaclesPayload{
			Count: len(room.Obstacles()),
		}, nil)
	}
	h.sendLocked(ctx, roomKey, s, proto.GameRestarted{GameState: room.Snapshot()})
	h.broadcastLocked(ctx, room, proto.PlayersUpdate{Players: room.Roster()})
	h.broadcastLocked(ctx, room, proto.GameState{GameState: room.Snapshot()})
}

// persistRecord writes a finished run on its own goroutine so gameplay never
// waits on the database.
func (h *Hub) persistRecord(id string, rec leaderboard.Record) {
	if h.store == nil {
		return
	}
	h.storeWG.Add(1)
	go func() {
		defer h.storeWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), h.cfg.StoreTimeout)
		defer cancel()

		actor := logging.SessionRef(id)
		info := persistence.RecordPayload{
			PlayerName: rec.PlayerName,
			Score:      rec.Score,
			GameMode:   rec.GameMode,
			FieldSize:  rec.FieldSize,
		}
		recordID, inserted, err := h.store.AddRecord(ctx, rec)
		if err != nil {
			h.telemetry.RecordStore(false, false, true)
			h.logger.Printf("store record for %s: %v", rec.PlayerName, err)
			persistence.StoreFailed(ctx, h.publisher, actor, persistence.FailurePayload{Op: "add_record", Error: err.Error()}, nil)
			return
		}
		if !inserted {
			h.telemetry.RecordStore(false, true, false)
			persistence.RecordDuplicate(ctx, h.publisher, actor, info, nil)
			return
		}
		h.telemetry.RecordStore(true, false, false)
		info.RecordID = recordID
		persistence.RecordStored(ctx, h.publisher, actor, info, nil)

		removed, err := h.store.Cleanup(ctx)
		if err != nil {
			h.logger.Printf("leaderboard cleanup: %v", err)
			persistence.StoreFailed(ctx, h.publisher, actor, persistence.FailurePayload{Op: "cleanup", Error: err.Error()}, nil)
			return
		}
		if removed > 0 {
			persistence.Cleanup(ctx, h.publisher, actor, persistence.CleanupPayload{Removed: removed}, nil)
		}
	}()
}

func truncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
