package game

import "sort"

// PlayerState is the per-player part of a game state snapshot.
type PlayerState struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Snake       []Point      `json:"snake"`
	Score       int          `json:"score"`
	Color       string       `json:"color"`
	ActiveBuffs []EffectKind `json:"activeBuffs"`
}

// GameState is the full room view sent to clients.
type GameState struct {
	Foods    []Food        `json:"foods"`
	Players  []PlayerState `json:"players"`
	Walls    []Obstacle    `json:"walls"`
	Buffs    []PowerUp     `json:"buffs"`
	Width    int           `json:"width"`
	Height   int           `json:"height"`
	GridSize int           `json:"gridSize"`
}

// PlayerSummary is the roster entry; it carries no body data.
type PlayerSummary struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Score       int          `json:"score"`
	Color       string       `json:"color"`
	ActiveBuffs []EffectKind `json:"activeBuffs"`
	Alive       bool         `json:"alive"`
}

// Snapshot copies the room state. Only living members are included.
func (r *Room) Snapshot() GameState {
	state := GameState{
		Foods:    make([]Food, len(r.foods)),
		Players:  make([]PlayerState, 0, len(r.members)),
		Walls:    make([]Obstacle, len(r.obstacles)),
		Buffs:    make([]PowerUp, len(r.powerUps)),
		Width:    r.spec.Width,
		Height:   r.spec.Height,
		GridSize: r.spec.GridSize,
	}
	copy(state.Foods, r.foods)
	copy(state.Walls, r.obstacles)
	copy(state.Buffs, r.powerUps)

	for _, p := range r.Members() {
		if !p.Alive {
			continue
		}
		state.Players = append(state.Players, PlayerState{
			ID:          p.ID,
			Name:        p.Name,
			Snake:       append([]Point(nil), p.Body...),
			Score:       p.Score,
			Color:       p.Color,
			ActiveBuffs: p.ActiveEffects(),
		})
	}
	return state
}

// Roster lists every member by descending score; ties keep join order.
func (r *Room) Roster() []PlayerSummary {
	members := r.Members()
	out := make([]PlayerSummary, 0, len(members))
	for _, p := range members {
		out = append(out, PlayerSummary{
			ID:          p.ID,
			Name:        p.Name,
			Score:       p.Score,
			Color:       p.Color,
			ActiveBuffs: p.ActiveEffects(),
			Alive:       p.Alive,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
