package game

import "github.com/zyedidia/generic/mapset"

func InBounds(p Point, width, height int) bool {
	return p.X >= 0 && p.X < width && p.Y >= 0 && p.Y < height
}

func InObstacle(p Point, obstacles []Obstacle) bool {
	for _, obs := range obstacles {
		if obs.Contains(p) {
			return true
		}
	}
	return false
}

// SafeZone is the square around the grid center kept free of obstacles.
func SafeZone(width, height int) Obstacle {
	cx, cy := width/2, height/2
	return Obstacle{
		X:      cx - safeZoneRadius,
		Y:      cy - safeZoneRadius,
		Width:  2*safeZoneRadius + 1,
		Height: 2*safeZoneRadius + 1,
	}
}

// blocksSafeZone rejects rectangles that touch or cover the safe zone. The
// comparison is inclusive on both edges, so a one-cell gap is kept on the
// low sides.
func blocksSafeZone(o Obstacle, width, height int) bool {
	cx, cy := width/2, height/2
	return o.X <= cx+safeZoneRadius &&
		o.X+o.Width >= cx-safeZoneRadius &&
		o.Y <= cy+safeZoneRadius &&
		o.Y+o.Height >= cy-safeZoneRadius
}

// Field is the read-only view of a room used by the generator. Room
// implements it; callers must hold the room lock.
type Field interface {
	Dimensions() (width, height int)
	// Blocked reports whether p is inside an obstacle that the room's mode
	// treats as solid.
	Blocked(p Point) bool
	// Occupancy collects every cell held by a living body, food or power-up.
	Occupancy() mapset.Set[Point]
}

func validCell(f Field, occ mapset.Set[Point], p Point) bool {
	w, h := f.Dimensions()
	return InBounds(p, w, h) && !f.Blocked(p) && !occ.Has(p)
}

func (r *Room) Dimensions() (int, int) {
	return r.spec.Width, r.spec.Height
}

func (r *Room) IsInBounds(p Point) bool {
	return InBounds(p, r.spec.Width, r.spec.Height)
}

func (r *Room) IsInObstacle(p Point) bool {
	return InObstacle(p, r.obstacles)
}

func (r *Room) Blocked(p Point) bool {
	return r.key.Mode == ModeWalls && r.IsInObstacle(p)
}

// IsOccupied checks living bodies, food and power-ups. excludeFood skips the
// food at that index; pass -1 to check every food.
func (r *Room) IsOccupied(p Point, excludeFood int) bool {
	for _, member := range r.members {
		if !member.Alive {
			continue
		}
		for _, seg := range member.Body {
			if seg == p {
				return true
			}
		}
	}
	for i, food := range r.foods {
		if i == excludeFood {
			continue
		}
		if food.Position() == p {
			return true
		}
	}
	for _, pu := range r.powerUps {
		if pu.Position() == p {
			return true
		}
	}
	return false
}

func (r *Room) IsValidSpawnCell(p Point) bool {
	return r.IsInBounds(p) && !r.Blocked(p) && !r.IsOccupied(p, -1)
}

func (r *Room) Occupancy() mapset.Set[Point] {
	occ := mapset.New[Point]()
	for _, member := range r.members {
		if !member.Alive {
			continue
		}
		for _, seg := range member.Body {
			occ.Put(seg)
		}
	}
	for _, food := range r.foods {
		occ.Put(food.Position())
	}
	for _, pu := range r.powerUps {
		occ.Put(pu.Position())
	}
	return occ
}
