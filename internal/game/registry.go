package game

import (
	"sort"
	"sync"
)

// Registry owns every room. Rooms are created on first reference and live for
// the lifetime of the registry.
type Registry struct {
	mu    sync.Mutex
	seed  string
	rooms map[Key]*Room
}

func NewRegistry(seed string) *Registry {
	return &Registry{seed: seed, rooms: make(map[Key]*Room)}
}

// Get returns the room for key, creating it when absent. Unknown modes and
// sizes are normalised to the defaults.
func (g *Registry) Get(key Key) *Room {
	key = normaliseKey(key)
	g.mu.Lock()
	defer g.mu.Unlock()
	if room, ok := g.rooms[key]; ok {
		return room
	}
	room := NewRoom(key, NewDeterministicRNG(g.seed, "room:"+key.String()))
	g.rooms[key] = room
	return room
}

// Lookup returns an existing room without creating one.
func (g *Registry) Lookup(key Key) (*Room, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	room, ok := g.rooms[key]
	return room, ok
}

func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rooms)
}

// Rooms lists the rooms ordered by key.
func (g *Registry) Rooms() []*Room {
	g.mu.Lock()
	out := make([]*Room, 0, len(g.rooms))
	for _, room := range g.rooms {
		out = append(out, room)
	}
	g.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].key.String() < out[j].key.String() })
	return out
}

func normaliseKey(key Key) Key {
	if _, ok := ParseMode(string(key.Mode)); !ok {
		key.Mode = DefaultMode
	}
	if _, ok := ParseFieldSize(string(key.Size)); !ok {
		key.Size = DefaultFieldSize
	}
	return key
}
