package grid

import (
	"fmt"
	"math/rand"
	"sort"
)

// Tile is an integer grid coordinate.
type Tile struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Room is an immutable named rectangle on the grid. Capacity 0 means
// unlimited. Doors are listed in map-file order.
type Room struct {
	Name            string
	Rect            [4]int // x, y, w, h
	Doors           []Tile
	Capacity        int
	Type            string
	DefaultActivity string
}

func (r *Room) Contains(x, y int) bool {
	rx, ry, rw, rh := r.Rect[0], r.Rect[1], r.Rect[2], r.Rect[3]
	return x >= rx && x < rx+rw && y >= ry && y < ry+rh
}

func (r *Room) Center() Tile {
	return Tile{X: r.Rect[0] + r.Rect[2]/2, Y: r.Rect[1] + r.Rect[3]/2}
}

// Grid is the walkability map plus room metadata. It is read-only after
// construction; the simulation only queries it.
type Grid struct {
	Width    int
	Height   int
	TileSize int

	passability [][]int
	rooms       map[string]*Room
	roomOrder   []string
	spawns      map[string][]Tile

	interiorCache map[string][]Tile
}

// New builds a grid directly from in-memory data. Used by tests and by Load.
func New(width, height int, passability [][]int, rooms []*Room, spawns map[string][]Tile) *Grid {
	g := &Grid{
		Width:         width,
		Height:        height,
		TileSize:      1,
		passability:   passability,
		rooms:         make(map[string]*Room, len(rooms)),
		spawns:        spawns,
		interiorCache: make(map[string][]Tile),
	}
	for _, r := range rooms {
		g.rooms[r.Name] = r
		g.roomOrder = append(g.roomOrder, r.Name)
	}
	return g
}

func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

func (g *Grid) Walkable(x, y int) bool {
	return g.InBounds(x, y) && g.passability[y][x] == 1
}

// Rooms returns room metadata keyed by name. Callers must not mutate.
func (g *Grid) Rooms() map[string]*Room { return g.rooms }

// RoomNames returns room names in map-file order.
func (g *Grid) RoomNames() []string { return g.roomOrder }

func (g *Grid) Room(name string) (*Room, bool) {
	r, ok := g.rooms[name]
	return r, ok
}

func (g *Grid) RoomCenter(name string) (Tile, error) {
	r, ok := g.rooms[name]
	if !ok {
		return Tile{}, fmt.Errorf("unknown room %q", name)
	}
	return r.Center(), nil
}

func (g *Grid) RoomEntryPoints(name string) []Tile {
	r, ok := g.rooms[name]
	if !ok {
		return nil
	}
	return r.Doors
}

// RoomInteriorTargets returns walkable tiles inside the room that are
// 4-adjacent to a door tile, in deterministic scan order. These are the
// preferred destinations for actors entering the room.
func (g *Grid) RoomInteriorTargets(name string) []Tile {
	if cached, ok := g.interiorCache[name]; ok {
		return cached
	}
	r, ok := g.rooms[name]
	if !ok {
		return nil
	}
	seen := make(map[Tile]bool)
	var targets []Tile
	for _, door := range r.Doors {
		for _, n := range [4]Tile{
			{door.X + 1, door.Y}, {door.X - 1, door.Y},
			{door.X, door.Y + 1}, {door.X, door.Y - 1},
		} {
			if seen[n] || !r.Contains(n.X, n.Y) || !g.Walkable(n.X, n.Y) {
				continue
			}
			seen[n] = true
			targets = append(targets, n)
		}
	}
	sort.Slice(targets, func(i, j int) bool {
		if targets[i].Y != targets[j].Y {
			return targets[i].Y < targets[j].Y
		}
		return targets[i].X < targets[j].X
	})
	g.interiorCache[name] = targets
	return targets
}

func (g *Grid) RoomForPosition(x, y int) *Room {
	for _, name := range g.roomOrder {
		if r := g.rooms[name]; r.Contains(x, y) {
			return r
		}
	}
	return nil
}

// TileIDs flattens the passability layer row-major for wire encoding:
// 1 walkable, 0 wall.
func (g *Grid) TileIDs() []uint16 {
	out := make([]uint16, 0, g.Width*g.Height)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			out = append(out, uint16(g.passability[y][x]))
		}
	}
	return out
}

// SpawnPoints returns configured spawn tiles for a role. An empty role
// returns the union of all configured spawn tiles.
func (g *Grid) SpawnPoints(role string) []Tile {
	if role != "" {
		return g.spawns[role]
	}
	var all []Tile
	for _, key := range sortedKeys(g.spawns) {
		all = append(all, g.spawns[key]...)
	}
	return all
}

// RandomRoomTile picks a tile in the room rect, preferring a walkable one.
// The naive pick is retried against neighbors before giving up.
func (g *Grid) RandomRoomTile(name string, rng *rand.Rand) (Tile, error) {
	r, ok := g.rooms[name]
	if !ok {
		return Tile{}, fmt.Errorf("unknown room %q", name)
	}
	rx, ry, rw, rh := r.Rect[0], r.Rect[1], r.Rect[2], r.Rect[3]
	pick := Tile{X: rx + rng.Intn(rw), Y: ry + rng.Intn(rh)}
	if g.Walkable(pick.X, pick.Y) {
		return pick, nil
	}
	// Local search fallback around the naive pick.
	for radius := 1; radius < rw+rh; radius++ {
		for dy := -radius; dy <= radius; dy++ {
			for dx := -radius; dx <= radius; dx++ {
				cand := Tile{X: pick.X + dx, Y: pick.Y + dy}
				if r.Contains(cand.X, cand.Y) && g.Walkable(cand.X, cand.Y) {
					return cand, nil
				}
			}
		}
	}
	return pick, nil
}

func sortedKeys(m map[string][]Tile) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
