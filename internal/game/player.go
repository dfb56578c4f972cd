package game

import (
	"sort"
	"time"
)

// Player is the per-session simulation state. Fields are only touched while
// holding the lock of the room the player is a member of, or while the player
// belongs to no room.
type Player struct {
	ID          string
	Name        string
	Color       string
	Body        []Point
	Direction   Direction
	Alive       bool
	Score       int
	FoodEaten   int
	Effects     map[EffectKind]time.Time
	RecordSaved bool

	joinSeq uint64
}

func NewPlayer(id, name, color string) *Player {
	return &Player{
		ID:        id,
		Name:      name,
		Color:     color,
		Direction: Direction{DX: 1, DY: 0},
		Effects:   make(map[EffectKind]time.Time),
	}
}

// Head returns the first body segment, or the zero point for an empty body.
func (p *Player) Head() Point {
	if len(p.Body) == 0 {
		return Point{}
	}
	return p.Body[0]
}

func (p *Player) HasEffect(kind EffectKind) bool {
	_, ok := p.Effects[kind]
	return ok
}

// Multiplier is the score factor applied to food pickups.
func (p *Player) Multiplier() int {
	if p.HasEffect(EffectDoublePoints) {
		return 2
	}
	return 1
}

// ActivateEffect records an effect expiring after d. Re-activating replaces
// the previous expiry.
func (p *Player) ActivateEffect(kind EffectKind, now time.Time, d time.Duration) time.Time {
	if p.Effects == nil {
		p.Effects = make(map[EffectKind]time.Time)
	}
	expiry := now.Add(d)
	p.Effects[kind] = expiry
	return expiry
}

// ExpireEffect removes kind and reports whether it was active.
func (p *Player) ExpireEffect(kind EffectKind) bool {
	if _, ok := p.Effects[kind]; !ok {
		return false
	}
	delete(p.Effects, kind)
	return true
}

func (p *Player) ClearEffects() {
	for kind := range p.Effects {
		delete(p.Effects, kind)
	}
}

// ActiveEffects lists the active effect kinds in a stable order.
func (p *Player) ActiveEffects() []EffectKind {
	kinds := make([]EffectKind, 0, len(p.Effects))
	for kind := range p.Effects {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
