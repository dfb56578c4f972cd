package proto

import "github.com/moxitooo/zzzmeika/internal/game"

// Server message type identifiers.
const (
	TypeGameJoined       = "game_joined"
	TypePlayerJoined     = "player_joined"
	TypePlayerLeft       = "player_left"
	TypeGameState        = "game_state"
	TypePlayerDied       = "player_died"
	TypePlayerRespawn    = "player_respawn"
	TypeGameModeChanged  = "game_mode_changed"
	TypeFieldSizeChanged = "field_size_changed"
	TypeGameRestarted    = "game_restarted"
	TypeBuffExpired      = "buff_expired"
	TypeBuffCollected    = "buff_collected"
	TypePlayersUpdate    = "players_update"
	TypeScoreUpdate      = "score_update"
)

// Outbound is the closed set of server messages. frame stamps the type field
// onto a copy so callers never set it by hand.
type Outbound interface {
	MessageType() string
	frame() any
}

type GameJoined struct {
	Type       string         `json:"type"`
	PlayerID   string         `json:"playerId"`
	PlayerName string         `json:"playerName"`
	GameMode   string         `json:"gameMode"`
	FieldSize  string         `json:"fieldSize"`
	GameState  game.GameState `json:"gameState"`
}

type PlayerJoined struct {
	Type       string               `json:"type"`
	PlayerID   string               `json:"playerId"`
	PlayerName string               `json:"playerName"`
	Players    []game.PlayerSummary `json:"players"`
}

type PlayerLeft struct {
	Type       string               `json:"type"`
	PlayerID   string               `json:"playerId"`
	PlayerName string               `json:"playerName"`
	Players    []game.PlayerSummary `json:"players"`
}

// GameState flattens the snapshot next to the type field.
type GameState struct {
	Type string `json:"type"`
	game.GameState
}

// PlayerDiedNotice is the direct death message to the dying session.
type PlayerDiedNotice struct {
	Type  string `json:"type"`
	Score int    `json:"score"`
}

// PlayerDied is the room-wide death announcement.
type PlayerDied struct {
	Type       string `json:"type"`
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Score      int    `json:"score"`
}

type PlayerRespawn struct {
	Type string `json:"type"`
}

type ChatBroadcast struct {
	Type       string `json:"type"`
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Message    string `json:"message"`
	Timestamp  int64  `json:"timestamp"`
}

type GameModeChanged struct {
	Type      string         `json:"type"`
	GameMode  string         `json:"gameMode"`
	FieldSize string         `json:"fieldSize"`
	GameState game.GameState `json:"gameState"`
}

type FieldSizeChanged struct {
	Type      string         `json:"type"`
	GameMode  string         `json:"gameMode"`
	FieldSize string         `json:"fieldSize"`
	GameState game.GameState `json:"gameState"`
}

type GameRestarted struct {
	Type      string         `json:"type"`
	GameState game.GameState `json:"gameState"`
}

type BuffExpired struct {
	Type     string `json:"type"`
	BuffType string `json:"buffType"`
}

type BuffCollected struct {
	Type     string `json:"type"`
	BuffType string `json:"buffType"`
	Duration int64  `json:"duration"`
}

type PlayersUpdate struct {
	Type    string               `json:"type"`
	Players []game.PlayerSummary `json:"players"`
}

type ScoreUpdate struct {
	Type         string `json:"type"`
	Score        int    `json:"score"`
	PointsEarned int    `json:"pointsEarned"`
	Multiplier   int    `json:"multiplier"`
	FoodEaten    int    `json:"foodEaten"`
}

func (GameJoined) MessageType() string       { return TypeGameJoined }
func (PlayerJoined) MessageType() string     { return TypePlayerJoined }
func (PlayerLeft) MessageType() string       { return TypePlayerLeft }
func (GameState) MessageType() string        { return TypeGameState }
func (PlayerDiedNotice) MessageType() string { return TypePlayerDied }
func (PlayerDied) MessageType() string       { return TypePlayerDied }
func (PlayerRespawn) MessageType() string    { return TypePlayerRespawn }
func (ChatBroadcast) MessageType() string    { return TypeChatMessage }
func (GameModeChanged) MessageType() string  { return TypeGameModeChanged }
func (FieldSizeChanged) MessageType() string { return TypeFieldSizeChanged }
func (GameRestarted) MessageType() string    { return TypeGameRestarted }
func (BuffExpired) MessageType() string      { return TypeBuffExpired }
func (BuffCollected) MessageType() string    { return TypeBuffCollected }
func (PlayersUpdate) MessageType() string    { return TypePlayersUpdate }
func (ScoreUpdate) MessageType() string      { return TypeScoreUpdate }

func (m GameJoined) frame() any       { m.Type = TypeGameJoined; return m }
func (m PlayerJoined) frame() any     { m.Type = TypePlayerJoined; return m }
func (m PlayerLeft) frame() any       { m.Type = TypePlayerLeft; return m }
func (m GameState) frame() any        { m.Type = TypeGameState; return m }
func (m PlayerDiedNotice) frame() any { m.Type = TypePlayerDied; return m }
func (m PlayerDied) frame() any       { m.Type = TypePlayerDied; return m }
func (m PlayerRespawn) frame() any    { m.Type = TypePlayerRespawn; return m }
func (m ChatBroadcast) frame() any    { m.Type = TypeChatMessage; return m }
func (m GameModeChanged) frame() any  { m.Type = TypeGameModeChanged; return m }
func (m FieldSizeChanged) frame() any { m.Type = TypeFieldSizeChanged; return m }
func (m GameRestarted) frame() any    { m.Type = TypeGameRestarted; return m }
func (m BuffExpired) frame() any      { m.Type = TypeBuffExpired; return m }
func (m BuffCollected) frame() any    { m.Type = TypeBuffCollected; return m }
func (m PlayersUpdate) frame() any    { m.Type = TypePlayersUpdate; return m }
func (m ScoreUpdate) frame() any      { m.Type = TypeScoreUpdate; return m }
