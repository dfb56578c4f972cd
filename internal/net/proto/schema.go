package proto

import (
	"reflect"

	"github.com/invopop/jsonschema"
)

// Schema documents. They mirror the envelope per message type so the
// generated schema lists exactly the fields each message accepts.

type directionDoc struct {
	DX int `json:"dx" jsonschema:"required,enum=-1,enum=0,enum=1"`
	DY int `json:"dy" jsonschema:"required,enum=-1,enum=0,enum=1"`
}

type joinGameDoc struct {
	Type       string `json:"type" jsonschema:"required,enum=join_game"`
	PlayerName string `json:"playerName,omitempty" jsonschema:"maxLength=32"`
	GameMode   string `json:"gameMode,omitempty" jsonschema:"enum=classic,enum=walls"`
	FieldSize  string `json:"fieldSize,omitempty" jsonschema:"enum=small,enum=medium,enum=large"`
}

type playerMoveDoc struct {
	Type      string       `json:"type" jsonschema:"required,enum=player_move"`
	Direction directionDoc `json:"direction" jsonschema:"required"`
}

type chatMessageDoc struct {
	Type string `json:"type" jsonschema:"required,enum=chat_message"`
	Text string `json:"text" jsonschema:"required"`
}

type changeGameModeDoc struct {
	Type string `json:"type" jsonschema:"required,enum=change_game_mode"`
	Mode string `json:"mode" jsonschema:"required,enum=classic,enum=walls"`
}

type changeFieldSizeDoc struct {
	Type string `json:"type" jsonschema:"required,enum=change_field_size"`
	Size string `json:"size" jsonschema:"required,enum=small,enum=medium,enum=large"`
}

type restartGameDoc struct {
	Type string `json:"type" jsonschema:"required,enum=restart_game"`
}

var inboundDocs = []struct {
	title string
	doc   any
}{
	{TypeJoinGame, joinGameDoc{}},
	{TypePlayerMove, playerMoveDoc{}},
	{TypeChatMessage, chatMessageDoc{}},
	{TypeChangeGameMode, changeGameModeDoc{}},
	{TypeChangeFieldSize, changeFieldSizeDoc{}},
	{TypeRestartGame, restartGameDoc{}},
}

// InboundSchema describes every client message as one alternative of a
// oneOf.
func InboundSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}

	alternatives := make([]*jsonschema.Schema, 0, len(inboundDocs))
	for _, entry := range inboundDocs {
		schema := reflector.ReflectFromType(reflect.TypeOf(entry.doc))
		if schema == nil {
			continue
		}
		schema.Version = ""
		schema.Title = entry.title
		alternatives = append(alternatives, schema)
	}

	return &jsonschema.Schema{
		Version:     jsonschema.Version,
		Title:       "Snake Client Messages",
		Description: "Frames accepted on the game websocket.",
		OneOf:       alternatives,
	}
}
