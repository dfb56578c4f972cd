package game

import (
	"fmt"
	"time"
)

// Key identifies a room by mode and field size.
type Key struct {
	Mode Mode
	Size FieldSize
}

func (k Key) String() string {
	return fmt.Sprintf("%s_%s", k.Mode, k.Size)
}

// Point is a grid cell.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Point) Add(d Direction) Point {
	return Point{X: p.X + d.DX, Y: p.Y + d.DY}
}

// Direction is a unit movement vector.
type Direction struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

// Reverses reports whether next is the exact opposite of d on a moving axis.
func (d Direction) Reverses(next Direction) bool {
	return (d.DX != 0 && next.DX == -d.DX) || (d.DY != 0 && next.DY == -d.DY)
}

// Obstacle is an axis-aligned rectangle of blocked cells.
type Obstacle struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Contains reports whether p lies inside the rectangle.
func (o Obstacle) Contains(p Point) bool {
	return p.X >= o.X && p.X < o.X+o.Width && p.Y >= o.Y && p.Y < o.Y+o.Height
}

// Overlaps reports whether two rectangles share at least one cell.
func (o Obstacle) Overlaps(other Obstacle) bool {
	return o.X < other.X+other.Width &&
		o.X+o.Width > other.X &&
		o.Y < other.Y+other.Height &&
		o.Y+o.Height > other.Y
}

// Food is a pickup worth a fixed number of points.
type Food struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Points int    `json:"points"`
	Color  string `json:"color"`
	Type   string `json:"type"`
}

func (f Food) Position() Point { return Point{X: f.X, Y: f.Y} }

// PowerUp is a pickup that grants a timed effect.
type PowerUp struct {
	X        int        `json:"x"`
	Y        int        `json:"y"`
	Type     EffectKind `json:"type"`
	Duration int64      `json:"duration"`
	Color    string     `json:"color"`
	Points   int        `json:"points"`
}

func (p PowerUp) Position() Point { return Point{X: p.X, Y: p.Y} }

// DurationValue converts the millisecond wire duration back to a time.Duration.
func (p PowerUp) DurationValue() time.Duration {
	return time.Duration(p.Duration) * time.Millisecond
}
