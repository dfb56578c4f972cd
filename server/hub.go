package server

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/moxitooo/zzzmeika/internal/game"
	"github.com/moxitooo/zzzmeika/internal/net/proto"
	"github.com/moxitooo/zzzmeika/internal/schedule"
	"github.com/moxitooo/zzzmeika/internal/telemetry"
	"github.com/moxitooo/zzzmeika/logging"
	"github.com/moxitooo/zzzmeika/logging/lifecycle"
	"github.com/moxitooo/zzzmeika/logging/network"
)

// HubDeps carries the collaborators the hub reports to. Every field is
// optional.
type HubDeps struct {
	Logger      telemetry.Logger
	Publisher   logging.Publisher
	Metrics     telemetry.Metrics
	Leaderboard Leaderboard
}

// Hub owns every live session and the room registry. Room state is guarded by
// each room's own lock; h.mu only guards the session table.
type Hub struct {
	cfg       HubConfig
	registry  *game.Registry
	timers    *schedule.Timers
	logger    telemetry.Logger
	publisher logging.Publisher
	store     Leaderboard
	telemetry *telemetryCounters

	mu       sync.RWMutex
	sessions map[string]*session
	identity *rand.Rand

	storeWG sync.WaitGroup
	closed  atomic.Bool
}

// session is one connected client. opMu serializes dispatch and disconnect
// for the session so membership changes never interleave.
type session struct {
	id     string
	conn   Conn
	player *game.Player
	key    game.Key

	opMu   sync.Mutex
	room   atomic.Pointer[game.Room]
	closed atomic.Bool
}

// NewHub creates a hub with an empty registry.
func NewHub(cfg HubConfig, deps HubDeps) *Hub {
	cfg = cfg.normalized()
	seed := cfg.Seed
	if seed == "" {
		seed = fmt.Sprintf("%d", time.Now().UnixNano())
	}

	logger := deps.Logger
	if logger == nil {
		logger = telemetry.NopLogger()
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = logging.NopPublisher()
	}

	return &Hub{
		cfg:       cfg,
		registry:  game.NewRegistry(seed),
		timers:    schedule.NewTimers(cfg.AfterFunc),
		logger:    logger,
		publisher: publisher,
		store:     deps.Leaderboard,
		telemetry: newTelemetryCounters(deps.Metrics),
		sessions:  make(map[string]*session),
		identity:  game.NewDeterministicRNG(seed, "identity"),
	}
}

// Registry exposes the rooms for diagnostics and tests.
func (h *Hub) Registry() *game.Registry { return h.registry }

// Connect registers a connection under a fresh session id with a generated
// name and color. The session joins no room until it sends join_game.
func (h *Hub) Connect(ctx context.Context, conn Conn) string {
	id := uuid.NewString()

	h.mu.Lock()
	name := fmt.Sprintf("Player%d", h.identity.Intn(1000))
	color := game.Palette[h.identity.Intn(len(game.Palette))]
	h.sessions[id] = &session{
		id:     id,
		conn:   conn,
		player: game.NewPlayer(id, name, color),
		key:    game.Key{Mode: game.DefaultMode, Size: game.DefaultFieldSize},
	}
	h.mu.Unlock()

	codec := ""
	if conn != nil && conn.Codec() != nil {
		codec = conn.Codec().Name()
	}
	lifecycle.SessionConnected(ctx, h.publisher, logging.SessionRef(id), lifecycle.SessionConnectedPayload{
		PlayerName: name,
		Codec:      codec,
	}, nil)
	return id
}

// Disconnect removes the session from its room, cancels its timers and closes
// the connection. Calling it more than once is harmless.
func (h *Hub) Disconnect(ctx context.Context, id, reason string) bool {
	h.mu.Lock()
	s, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()
	if !ok {
		return false
	}

	s.opMu.Lock()
	s.closed.Store(true)
	roomKey := ""
	if room := s.room.Swap(nil); room != nil {
		roomKey = room.Key().String()
		room.Lock()
		h.leaveLocked(ctx, s, room)
		room.Unlock()
	}
	h.timers.CancelAll(s.id)
	s.opMu.Unlock()

	if s.conn != nil {
		if err := s.conn.Close(); err != nil && !errors.Is(err, ErrConnectionClosed) {
			h.logger.Printf("close connection for %s: %v", id, err)
		}
	}
	lifecycle.SessionDisconnected(ctx, h.publisher, roomKey, logging.SessionRef(id), lifecycle.SessionDisconnectedPayload{
		Reason: reason,
	}, nil)
	return true
}

// leaveLocked removes s from room and tells the remaining members. The room
// lock must be held.
func (h *Hub) leaveLocked(ctx context.Context, s *session, room *game.Room) {
	if !room.Remove(s.player) {
		return
	}
	h.timers.CancelAll(s.id)
	roster := room.Roster()
	h.broadcastLocked(ctx, room, proto.PlayerLeft{
		PlayerID:   s.id,
		PlayerName: s.player.Name,
		Players:    roster,
	})
	lifecycle.RoomLeft(ctx, h.publisher, room.Key().String(), logging.SessionRef(s.id), lifecycle.RoomPayload{
		PlayerName: s.player.Name,
		Members:    len(roster),
	}, nil)
}

func (h *Hub) lookup(id string) *session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sessions[id]
}

// SessionCount reports the number of connected sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// sendLocked encodes msg with the session's codec and queues it. Failures are
// logged and counted; they never abort the caller.
func (h *Hub) sendLocked(ctx context.Context, room string, s *session, msg proto.Outbound) {
	if s == nil || s.conn == nil {
		return
	}
	codec := s.conn.Codec()
	if codec == nil {
		codec = proto.JSON
	}
	frame, err := codec.Encode(msg)
	if err != nil {
		h.reportSendFailure(ctx, room, s.id, msg, err)
		return
	}
	h.write(ctx, room, s, msg, frame)
}

func (h *Hub) write(ctx context.Context, room string, s *session, msg proto.Outbound, frame []byte) {
	if err := s.conn.Write(frame); err != nil {
		h.reportSendFailure(ctx, room, s.id, msg, err)
		return
	}
	h.telemetry.RecordSend(len(frame))
}

func (h *Hub) reportSendFailure(ctx context.Context, room, id string, msg proto.Outbound, err error) {
	h.telemetry.RecordSendFailure()
	h.logger.Printf("send %s to %s failed: %v", msg.MessageType(), id, err)
	network.SendFailed(ctx, h.publisher, room, logging.SessionRef(id), network.SendFailedPayload{
		Type:  msg.MessageType(),
		Error: err.Error(),
	}, nil)
}

// broadcastLocked sends msg to every member of room, encoding once per codec.
// The room lock must be held so members observe messages in mutation order.
func (h *Hub) broadcastLocked(ctx context.Context, room *game.Room, msg proto.Outbound) {
	roomKey := room.Key().String()
	frames := make(map[string][]byte)
	for _, member := range room.Members() {
		s := h.lookup(member.ID)
		if s == nil || s.conn == nil {
			continue
		}
		codec := s.conn.Codec()
		if codec == nil {
			codec = proto.JSON
		}
		frame, ok := frames[codec.Name()]
		if !ok {
			encoded, err := codec.Encode(msg)
			if err != nil {
				h.reportSendFailure(ctx, roomKey, s.id, msg, err)
				continue
			}
			frame = encoded
			frames[codec.Name()] = frame
		}
		h.write(ctx, roomKey, s, msg, frame)
	}
}

// Diagnostics is the JSON document served on /diagnostics.
type Diagnostics struct {
	Sessions      int               `json:"sessions"`
	PendingTimers int               `json:"pendingTimers"`
	Rooms         []game.RoomInfo   `json:"rooms"`
	Telemetry     telemetrySnapshot `json:"telemetry"`
}

func (h *Hub) Diagnostics() Diagnostics {
	rooms := h.registry.Rooms()
	infos := make([]game.RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		infos = append(infos, room.Describe())
	}
	return Diagnostics{
		Sessions:      h.SessionCount(),
		PendingTimers: h.timers.Len(),
		Rooms:         infos,
		Telemetry:     h.telemetry.Snapshot(),
	}
}

// Close disconnects every session and waits for pending leaderboard writes
// or ctx, whichever comes first.
func (h *Hub) Close(ctx context.Context) error {
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}

	h.mu.RLock()
	ids := make([]string, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	h.mu.RUnlock()
	for _, id := range ids {
		h.Disconnect(ctx, id, "shutdown")
	}

	done := make(chan struct{})
	go func() {
		h.storeWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for leaderboard writes: %w", ctx.Err())
	}
}
