package proto

import (
	"errors"
	"fmt"

	"github.com/moxitooo/zzzmeika/internal/game"
)

var (
	// ErrMalformed marks a frame that could not be decoded into a message.
	ErrMalformed = errors.New("proto: malformed message")
	// ErrUnknownType marks a well-formed frame with an unsupported type.
	ErrUnknownType = errors.New("proto: unknown message type")
)

// Client message type identifiers.
const (
	TypeJoinGame        = "join_game"
	TypePlayerMove      = "player_move"
	TypeChatMessage     = "chat_message"
	TypeChangeGameMode  = "change_game_mode"
	TypeChangeFieldSize = "change_field_size"
	TypeRestartGame     = "restart_game"
)

// Inbound is the closed set of client messages.
type Inbound interface {
	MessageType() string
	inbound()
}

type JoinGame struct {
	PlayerName string
	GameMode   string
	FieldSize  string
}

type PlayerMove struct {
	Direction game.Direction
}

type ChatMessage struct {
	Text string
}

type ChangeGameMode struct {
	Mode string
}

type ChangeFieldSize struct {
	Size string
}

type RestartGame struct{}

// Unknown carries the type of a frame the server does not understand.
type Unknown struct {
	Type string
}

func (JoinGame) MessageType() string        { return TypeJoinGame }
func (PlayerMove) MessageType() string      { return TypePlayerMove }
func (ChatMessage) MessageType() string     { return TypeChatMessage }
func (ChangeGameMode) MessageType() string  { return TypeChangeGameMode }
func (ChangeFieldSize) MessageType() string { return TypeChangeFieldSize }
func (RestartGame) MessageType() string     { return TypeRestartGame }
func (u Unknown) MessageType() string       { return u.Type }

func (JoinGame) inbound()        {}
func (PlayerMove) inbound()      {}
func (ChatMessage) inbound()     {}
func (ChangeGameMode) inbound()  {}
func (ChangeFieldSize) inbound() {}
func (RestartGame) inbound()     {}
func (Unknown) inbound()         {}

// clientEnvelope is the union of every inbound field.
type clientEnvelope struct {
	Type       string          `json:"type"`
	PlayerName string          `json:"playerName"`
	GameMode   string          `json:"gameMode"`
	FieldSize  string          `json:"fieldSize"`
	Direction  *game.Direction `json:"direction"`
	Text       string          `json:"text"`
	Mode       string          `json:"mode"`
	Size       string          `json:"size"`
}

// toInbound maps a decoded envelope onto its message case.
func (env clientEnvelope) toInbound() (Inbound, error) {
	switch env.Type {
	case TypeJoinGame:
		return JoinGame{PlayerName: env.PlayerName, GameMode: env.GameMode, FieldSize: env.FieldSize}, nil
	case TypePlayerMove:
		if env.Direction == nil {
			return nil, fmt.Errorf("%w: player_move without direction", ErrMalformed)
		}
		if !unitStep(*env.Direction) {
			return nil, fmt.Errorf("%w: direction %+v is not a unit step", ErrMalformed, *env.Direction)
		}
		return PlayerMove{Direction: *env.Direction}, nil
	case TypeChatMessage:
		return ChatMessage{Text: env.Text}, nil
	case TypeChangeGameMode:
		return ChangeGameMode{Mode: env.Mode}, nil
	case TypeChangeFieldSize:
		return ChangeFieldSize{Size: env.Size}, nil
	case TypeRestartGame:
		return RestartGame{}, nil
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	default:
		return Unknown{Type: env.Type}, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

func unitStep(d game.Direction) bool {
	ax, ay := d.DX, d.DY
	if ax < 0 {
		ax = -ax
	}
	if ay < 0 {
		ay = -ay
	}
	return ax+ay == 1
}

// DecodeInbound decodes a JSON text frame.
func DecodeInbound(payload []byte) (Inbound, error) {
	return JSON.Decode(payload)
}
