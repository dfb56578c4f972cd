package game

import "time"

type MoveOutcome int

const (
	// MoveIgnored leaves the room untouched: dead or foreign player, or a
	// 180 degree reversal.
	MoveIgnored MoveOutcome = iota
	MoveApplied
	MoveDied
)

// DeathCause names what a snake collided with.
type DeathCause string

const (
	CauseBoundary DeathCause = "boundary"
	CauseObstacle DeathCause = "obstacle"
	CauseSelf     DeathCause = "self"
	CauseSnake    DeathCause = "snake"
)

// FoodPickup describes a food item consumed during a move.
type FoodPickup struct {
	Eaten       Food
	Replacement Food
	Points      int
	Multiplier  int
}

// MoveResult reports everything a single move changed.
type MoveResult struct {
	Outcome   MoveOutcome
	Cause     DeathCause
	Head      Point
	Food      *FoodPickup
	Collected *PowerUp
	Spawned   *PowerUp
}

// Move advances p by one cell in dir. Collision checks run against the body
// before the tail is popped, so the cell the tail is about to vacate is still
// lethal. Pickups are resolved before the body grows, and replacement food and
// power-ups are placed afterwards so they never land on the new head.
func (r *Room) Move(p *Player, dir Direction, now time.Time) MoveResult {
	if !r.Has(p) || !p.Alive || len(p.Body) == 0 {
		return MoveResult{Outcome: MoveIgnored}
	}
	if p.Direction.Reverses(dir) {
		return MoveResult{Outcome: MoveIgnored}
	}
	p.Direction = dir

	head := p.Head().Add(dir)
	width, height := r.spec.Width, r.spec.Height

	if r.key.Mode == ModeWalls {
		if !InBounds(head, width, height) {
			return r.kill(p, CauseBoundary, head)
		}
		if r.IsInObstacle(head) {
			return r.kill(p, CauseObstacle, head)
		}
	} else {
		head.X = wrap(head.X, width)
		head.Y = wrap(head.Y, height)
	}

	for _, seg := range p.Body {
		if seg == head {
			return r.kill(p, CauseSelf, head)
		}
	}
	for _, other := range r.members {
		if other == p || !other.Alive {
			continue
		}
		for _, seg := range other.Body {
			if seg == head {
				return r.kill(p, CauseSnake, head)
			}
		}
	}

	result := MoveResult{Outcome: MoveApplied, Head: head}

	foodIndex := r.foodAt(head)
	if foodIndex >= 0 {
		eaten := r.foods[foodIndex]
		multiplier := p.Multiplier()
		points := eaten.Points * multiplier
		p.Score += points
		p.FoodEaten++
		result.Food = &FoodPickup{Eaten: eaten, Points: points, Multiplier: multiplier}
		r.foods = append(r.foods[:foodIndex], r.foods[foodIndex+1:]...)
	}

	if idx := r.powerUpAt(head); idx >= 0 {
		collected := r.powerUps[idx]
		r.powerUps = append(r.powerUps[:idx], r.powerUps[idx+1:]...)
		p.ActivateEffect(collected.Type, now, collected.DurationValue())
		result.Collected = &collected
	}

	body := make([]Point, 0, len(p.Body)+1)
	body = append(body, head)
	if result.Food != nil {
		body = append(body, p.Body...)
	} else {
		body = append(body, p.Body[:len(p.Body)-1]...)
	}
	p.Body = body

	if result.Food != nil {
		replacement := r.gen.Food(r)
		r.foods = append(r.foods, Food{})
		copy(r.foods[foodIndex+1:], r.foods[foodIndex:])
		r.foods[foodIndex] = replacement
		result.Food.Replacement = replacement

		if p.Score >= PowerUpScoreThreshold && !r.hasPowerUp(EffectDoublePoints) {
			if spawned, ok := r.gen.PowerUp(r, EffectDoublePoints); ok {
				r.powerUps = append(r.powerUps, spawned)
				result.Spawned = &spawned
			}
		}
	}

	return result
}

func (r *Room) kill(p *Player, cause DeathCause, head Point) MoveResult {
	p.Alive = false
	p.ClearEffects()
	return MoveResult{Outcome: MoveDied, Cause: cause, Head: head}
}

func wrap(v, dim int) int {
	if dim <= 0 {
		return v
	}
	v %= dim
	if v < 0 {
		v += dim
	}
	return v
}

// Reset places a fresh snake for p and clears score, counters, effects and
// the persisted flag. The player's previous body does not block placement.
func (r *Room) Reset(p *Player) {
	p.Alive = false
	p.Body = r.gen.SnakeStart(r)
	p.Direction = Direction{DX: 1, DY: 0}
	p.Score = 0
	p.FoodEaten = 0
	p.RecordSaved = false
	p.ClearEffects()
	p.Alive = true
}

// Restart regenerates obstacles in walls mode and then resets p. New
// obstacles never cover a living body, food or power-up. It reports whether
// the layout changed.
func (r *Room) Restart(p *Player) bool {
	p.Alive = false
	p.Body = nil
	regenerated := r.RegenerateObstacles()
	r.Reset(p)
	return regenerated
}

// RegenerateObstacles rebuilds the layout of a walls room around the current
// occupants.
func (r *Room) RegenerateObstacles() bool {
	if r.key.Mode != ModeWalls {
		return false
	}
	occ := r.Occupancy()
	r.obstacles = r.gen.Obstacles(r.key.Size, func(candidate Obstacle) bool {
		for x := candidate.X; x < candidate.X+candidate.Width; x++ {
			for y := candidate.Y; y < candidate.Y+candidate.Height; y++ {
				if occ.Has(Point{X: x, Y: y}) {
					return true
				}
			}
		}
		return false
	})
	return true
}

// ExpireEffect clears an effect from a member; it reports false when the
// player left the room or the effect was no longer active.
func (r *Room) ExpireEffect(p *Player, kind EffectKind) bool {
	if !r.Has(p) {
		return false
	}
	return p.ExpireEffect(kind)
}
