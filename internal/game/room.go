package game

import (
	"math/rand"
	"sort"
	"sync"
)

// Room is one simulation instance. Every method except Describe expects the
// caller to hold the room lock.
type Room struct {
	mu sync.Mutex

	key       Key
	spec      FieldSpec
	gen       *Generator
	obstacles []Obstacle
	foods     []Food
	powerUps  []PowerUp
	members   map[string]*Player
	nextSeq   uint64
}

// NewRoom builds the initial layout: obstacles in walls mode, then the
// starting food set.
func NewRoom(key Key, rng *rand.Rand) *Room {
	r := &Room{
		key:     key,
		spec:    SpecFor(key.Size),
		gen:     NewGenerator(rng),
		members: make(map[string]*Player),
	}
	if key.Mode == ModeWalls {
		r.obstacles = r.gen.Obstacles(key.Size, nil)
	}
	r.foods = make([]Food, 0, InitialFoodCount)
	for i := 0; i < InitialFoodCount; i++ {
		r.foods = append(r.foods, r.gen.Food(r))
	}
	return r
}

func (r *Room) Lock()   { r.mu.Lock() }
func (r *Room) Unlock() { r.mu.Unlock() }

func (r *Room) Key() Key { return r.key }

func (r *Room) Spec() FieldSpec { return r.spec }

// Generator exposes the room's seeded generator.
func (r *Room) Generator() *Generator { return r.gen }

// Add makes p a member. Join order is remembered for stable roster ties.
func (r *Room) Add(p *Player) {
	if p == nil {
		return
	}
	r.nextSeq++
	p.joinSeq = r.nextSeq
	r.members[p.ID] = p
}

// Remove drops p from the member set and reports whether it was present.
func (r *Room) Remove(p *Player) bool {
	if p == nil {
		return false
	}
	current, ok := r.members[p.ID]
	if !ok || current != p {
		return false
	}
	delete(r.members, p.ID)
	return true
}

// Has reports whether p is currently a member of the room.
func (r *Room) Has(p *Player) bool {
	if p == nil {
		return false
	}
	current, ok := r.members[p.ID]
	return ok && current == p
}

func (r *Room) MemberCount() int { return len(r.members) }

// Members returns the members in join order.
func (r *Room) Members() []*Player {
	out := make([]*Player, 0, len(r.members))
	for _, p := range r.members {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].joinSeq < out[j].joinSeq })
	return out
}

func (r *Room) Obstacles() []Obstacle { return append([]Obstacle(nil), r.obstacles...) }

func (r *Room) Foods() []Food { return append([]Food(nil), r.foods...) }

func (r *Room) PowerUps() []PowerUp { return append([]PowerUp(nil), r.powerUps...) }

// RoomInfo is a point-in-time summary used by diagnostics.
type RoomInfo struct {
	Key       string `json:"key"`
	Members   int    `json:"members"`
	Foods     int    `json:"foods"`
	PowerUps  int    `json:"powerUps"`
	Obstacles int    `json:"obstacles"`
}

// Describe acquires the room lock itself.
func (r *Room) Describe() RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RoomInfo{
		Key:       r.key.String(),
		Members:   len(r.members),
		Foods:     len(r.foods),
		PowerUps:  len(r.powerUps),
		Obstacles: len(r.obstacles),
	}
}

func (r *Room) foodAt(p Point) int {
	for i, food := range r.foods {
		if food.Position() == p {
			return i
		}
	}
	return -1
}

func (r *Room) powerUpAt(p Point) int {
	for i, pu := range r.powerUps {
		if pu.Position() == p {
			return i
		}
	}
	return -1
}

func (r *Room) hasPowerUp(kind EffectKind) bool {
	for _, pu := range r.powerUps {
		if pu.Type == kind {
			return true
		}
	}
	return false
}
