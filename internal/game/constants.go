package game

import "time"

// Mode selects the boundary policy of a room.
type Mode string

const (
	ModeClassic Mode = "classic"
	ModeWalls   Mode = "walls"
)

// FieldSize selects one of the three grid tiers.
type FieldSize string

const (
	FieldSmall  FieldSize = "small"
	FieldMedium FieldSize = "medium"
	FieldLarge  FieldSize = "large"
)

const (
	DefaultMode      = ModeClassic
	DefaultFieldSize = FieldMedium
)

// FieldSpec holds the grid dimensions and client cell size of a tier.
type FieldSpec struct {
	Width    int `json:"width"`
	Height   int `json:"height"`
	GridSize int `json:"gridSize"`
}

var fieldSpecs = map[FieldSize]FieldSpec{
	FieldSmall:  {Width: 15, Height: 15, GridSize: 25},
	FieldMedium: {Width: 20, Height: 20, GridSize: 20},
	FieldLarge:  {Width: 25, Height: 25, GridSize: 16},
}

// obstacleTier scales straight and L-shaped obstacle counts per field size.
type obstacleTier struct {
	baseCount   int
	countSpread int
	maxLength   int
	lShapes     int
}

var obstacleTiers = map[FieldSize]obstacleTier{
	FieldSmall:  {baseCount: 4, countSpread: 3, maxLength: 4, lShapes: 1},
	FieldMedium: {baseCount: 6, countSpread: 4, maxLength: 5, lShapes: 2},
	FieldLarge:  {baseCount: 8, countSpread: 5, maxLength: 6, lShapes: 3},
}

const (
	obstacleAttempts      = 20
	lShapeAttempts        = 15
	safeZoneRadius        = 3
	foodRandomAttempts    = 100
	powerUpAttempts       = 100
	spawnAttempts         = 100
	spawnMargin           = 3
	initialSnakeLength    = 3
	InitialFoodCount      = 10
	PowerUpScoreThreshold = 100
)

// FoodKind describes one of the food variants.
type FoodKind struct {
	Type   string
	Points int
	Color  string
}

var foodKinds = []FoodKind{
	{Type: "apple", Points: 10, Color: "#FF4444"},
	{Type: "orange", Points: 20, Color: "#FFA500"},
	{Type: "banana", Points: 15, Color: "#FFFF00"},
}

// EffectKind names a timed effect granted by a power-up.
type EffectKind string

const EffectDoublePoints EffectKind = "double_points"

// PowerUpKind describes a power-up variant and the effect it grants.
type PowerUpKind struct {
	Effect   EffectKind
	Duration time.Duration
	Color    string
	Points   int
}

var powerUpKinds = map[EffectKind]PowerUpKind{
	EffectDoublePoints: {Effect: EffectDoublePoints, Duration: 10 * time.Second, Color: "#FF00FF"},
}

// Palette is the fixed set of snake colors handed out to new sessions.
var Palette = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FFEAA7",
	"#DDA0DD", "#98D8C8", "#F7DC6F", "#BB8FCE", "#85C1E9",
}

// ParseMode reports whether raw names a known mode.
func ParseMode(raw string) (Mode, bool) {
	switch Mode(raw) {
	case ModeClassic, ModeWalls:
		return Mode(raw), true
	}
	return "", false
}

// ParseFieldSize reports whether raw names a known field size.
func ParseFieldSize(raw string) (FieldSize, bool) {
	size := FieldSize(raw)
	if _, ok := fieldSpecs[size]; ok {
		return size, true
	}
	return "", false
}

// SpecFor returns the grid dimensions of a field size, falling back to medium.
func SpecFor(size FieldSize) FieldSpec {
	if spec, ok := fieldSpecs[size]; ok {
		return spec
	}
	return fieldSpecs[FieldMedium]
}

// PowerUpKindFor looks up the definition of an effect kind.
func PowerUpKindFor(kind EffectKind) (PowerUpKind, bool) {
	def, ok := powerUpKinds[kind]
	return def, ok
}
