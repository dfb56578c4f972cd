package game

import (
	"math/rand"

	"github.com/zyedidia/generic/mapset"
)

// Generator places obstacles, food, power-ups and fresh snakes. It is not safe
// for concurrent use; each room owns one and drives it under the room lock.
type Generator struct {
	rng *rand.Rand
}

func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = NewDeterministicRNG("", "generator")
	}
	return &Generator{rng: rng}
}

// Intn exposes the generator stream for callers that need a roll tied to the
// same seed.
func (g *Generator) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return g.rng.Intn(n)
}

// Obstacles builds straight walls followed by L-shaped pairs for the given
// tier. Candidates overlapping the safe zone, an accepted obstacle, or for
// which reject returns true are retried a bounded number of times and then
// dropped.
func (g *Generator) Obstacles(size FieldSize, reject func(Obstacle) bool) []Obstacle {
	spec := SpecFor(size)
	tier, ok := obstacleTiers[size]
	if !ok {
		tier = obstacleTiers[FieldMedium]
	}
	width, height := spec.Width, spec.Height

	count := tier.baseCount
	if tier.countSpread > 0 {
		count += g.rng.Intn(tier.countSpread)
	}

	obstacles := make([]Obstacle, 0, count+2*tier.lShapes)
	acceptable := func(candidate Obstacle, accepted []Obstacle) bool {
		if blocksSafeZone(candidate, width, height) {
			return false
		}
		for _, obs := range accepted {
			if candidate.Overlaps(obs) {
				return false
			}
		}
		if reject != nil && reject(candidate) {
			return false
		}
		return true
	}

	for i := 0; i < count; i++ {
		for attempt := 0; attempt < obstacleAttempts; attempt++ {
			candidate := g.straightObstacle(width, height, tier.maxLength)
			if acceptable(candidate, obstacles) {
				obstacles = append(obstacles, candidate)
				break
			}
		}
	}

	for i := 0; i < tier.lShapes; i++ {
		for attempt := 0; attempt < lShapeAttempts; attempt++ {
			parts := g.lShape(width, height)
			ok := true
			for _, part := range parts {
				if !acceptable(part, obstacles) {
					ok = false
					break
				}
			}
			if ok {
				obstacles = append(obstacles, parts[:]...)
				break
			}
		}
	}

	return obstacles
}

func (g *Generator) straightObstacle(width, height, maxLength int) Obstacle {
	horizontal := g.rng.Float64() > 0.5
	length := 2
	if maxLength > 1 {
		length += g.rng.Intn(maxLength - 1)
	}
	if horizontal {
		return Obstacle{X: g.Intn(width - length), Y: g.Intn(height), Width: length, Height: 1}
	}
	return Obstacle{X: g.Intn(width), Y: g.Intn(height - length), Width: 1, Height: length}
}

// lShape returns a 3-cell bar joined to a 2-cell stub in one of four
// orientations anchored at a random base cell.
func (g *Generator) lShape(width, height int) [2]Obstacle {
	bx := g.Intn(width - 3)
	by := g.Intn(height - 3)
	switch g.rng.Intn(4) {
	case 0:
		return [2]Obstacle{{X: bx, Y: by, Width: 3, Height: 1}, {X: bx, Y: by + 1, Width: 1, Height: 2}}
	case 1:
		return [2]Obstacle{{X: bx, Y: by, Width: 3, Height: 1}, {X: bx + 2, Y: by + 1, Width: 1, Height: 2}}
	case 2:
		return [2]Obstacle{{X: bx, Y: by + 2, Width: 3, Height: 1}, {X: bx, Y: by, Width: 1, Height: 2}}
	default:
		return [2]Obstacle{{X: bx, Y: by + 2, Width: 3, Height: 1}, {X: bx + 2, Y: by, Width: 1, Height: 2}}
	}
}

// Food picks a random variant and places it, degrading from random samples to
// a full scan, then to a scan that ignores obstacles, then to any random cell.
func (g *Generator) Food(f Field) Food {
	kind := foodKinds[g.rng.Intn(len(foodKinds))]
	pos := g.foodCell(f)
	return Food{X: pos.X, Y: pos.Y, Points: kind.Points, Color: kind.Color, Type: kind.Type}
}

func (g *Generator) foodCell(f Field) Point {
	width, height := f.Dimensions()
	occ := f.Occupancy()

	for attempt := 0; attempt < foodRandomAttempts; attempt++ {
		p := Point{X: g.Intn(width), Y: g.Intn(height)}
		if validCell(f, occ, p) {
			return p
		}
	}

	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			p := Point{X: x, Y: y}
			if validCell(f, occ, p) {
				return p
			}
		}
	}

	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			p := Point{X: x, Y: y}
			if !occ.Has(p) {
				return p
			}
		}
	}

	return Point{X: g.Intn(width), Y: g.Intn(height)}
}

// PowerUp samples interior cells with a one-cell margin. It reports false when
// no valid cell was found.
func (g *Generator) PowerUp(f Field, kind EffectKind) (PowerUp, bool) {
	def, ok := PowerUpKindFor(kind)
	if !ok {
		return PowerUp{}, false
	}
	width, height := f.Dimensions()
	if width < 3 || height < 3 {
		return PowerUp{}, false
	}
	occ := f.Occupancy()
	for attempt := 0; attempt < powerUpAttempts; attempt++ {
		p := Point{X: g.Intn(width-2) + 1, Y: g.Intn(height-2) + 1}
		if !validCell(f, occ, p) {
			continue
		}
		return PowerUp{
			X:        p.X,
			Y:        p.Y,
			Type:     def.Effect,
			Duration: def.Duration.Milliseconds(),
			Color:    def.Color,
			Points:   def.Points,
		}, true
	}
	return PowerUp{}, false
}

// SnakeStart returns a horizontal three-segment body, head first, facing
// right. When no valid placement is found the body is centred on the grid.
func (g *Generator) SnakeStart(f Field) []Point {
	width, height := f.Dimensions()
	occ := f.Occupancy()

	if width > 2*spawnMargin && height > 2*spawnMargin {
		for attempt := 0; attempt < spawnAttempts; attempt++ {
			head := Point{
				X: g.Intn(width-2*spawnMargin) + spawnMargin,
				Y: g.Intn(height-2*spawnMargin) + spawnMargin,
			}
			body := snakeBody(head)
			if allValid(f, occ, body) {
				return body
			}
		}
	}
	return snakeBody(Point{X: width / 2, Y: height / 2})
}

func snakeBody(head Point) []Point {
	body := make([]Point, initialSnakeLength)
	for i := range body {
		body[i] = Point{X: head.X - i, Y: head.Y}
	}
	return body
}

func allValid(f Field, occ mapset.Set[Point], cells []Point) bool {
	for _, c := range cells {
		if !validCell(f, occ, c) {
			return false
		}
	}
	return true
}
