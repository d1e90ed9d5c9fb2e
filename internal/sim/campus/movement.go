package campus

import (
	"container/list"

	"campussim/internal/grid"
	"campussim/internal/pathfind"
)

const defaultPathCacheSize = 128

type pathCacheKey struct {
	start grid.Tile
	goal  grid.Tile
}

type pathCacheEntry struct {
	key  pathCacheKey
	path []grid.Tile
}

// Planner computes a walkable path between two tiles. It matches the
// signature of pathfind.AStar and exists so tests can count invocations.
type Planner func(w pathfind.World, start, goal grid.Tile, blocked map[grid.Tile]bool) []grid.Tile

// MovementSystem routes actors across the grid. Paths between recurring
// start/goal pairs are kept in a small LRU cache; requests carrying a
// dynamic blocked set bypass the cache since their result is positional.
type MovementSystem struct {
	grid      *grid.Grid
	planner   Planner
	cacheSize int
	cache     map[pathCacheKey]*list.Element
	order     *list.List
}

func NewMovementSystem(g *grid.Grid) *MovementSystem {
	return &MovementSystem{
		grid:      g,
		planner:   pathfind.AStar,
		cacheSize: defaultPathCacheSize,
		cache:     make(map[pathCacheKey]*list.Element),
		order:     list.New(),
	}
}

// SetPlanner swaps the path planner. Used by tests.
func (m *MovementSystem) SetPlanner(p Planner) {
	if p != nil {
		m.planner = p
	}
}

// PlanIfNeeded computes a path for the actor's current target when none is
// staged. An actor already at its target gets an empty path and counts as
// arrived on the next Step.
func (m *MovementSystem) PlanIfNeeded(a *Actor, blocked map[grid.Tile]bool) {
	if a.Target == nil || len(a.Path) > 0 {
		return
	}
	start := a.Position()
	goal := *a.Target
	if start == goal {
		return
	}
	path := m.lookupOrPlan(start, goal, blocked)
	if len(path) > 1 {
		// Drop the start tile; the path holds only tiles left to walk.
		a.Path = append([]grid.Tile(nil), path[1:]...)
	}
}

func (m *MovementSystem) lookupOrPlan(start, goal grid.Tile, blocked map[grid.Tile]bool) []grid.Tile {
	if len(blocked) > 0 {
		return m.planner(m.grid, start, goal, blocked)
	}
	key := pathCacheKey{start: start, goal: goal}
	if el, ok := m.cache[key]; ok {
		m.order.MoveToFront(el)
		return el.Value.(*pathCacheEntry).path
	}
	path := m.planner(m.grid, start, goal, nil)
	if path != nil {
		el := m.order.PushFront(&pathCacheEntry{key: key, path: path})
		m.cache[key] = el
		if m.order.Len() > m.cacheSize {
			oldest := m.order.Back()
			m.order.Remove(oldest)
			delete(m.cache, oldest.Value.(*pathCacheEntry).key)
		}
	}
	return path
}

// Invalidate clears all cached paths. Called when the walkable surface
// changes.
func (m *MovementSystem) Invalidate() {
	m.cache = make(map[pathCacheKey]*list.Element)
	m.order.Init()
}

// Step walks the actor up to steps tiles along its staged path, stalling
// in place when the next tile is occupied. It reports whether the actor is
// at its target after the move.
func (m *MovementSystem) Step(a *Actor, occupied map[grid.Tile]bool, steps int) bool {
	if a.Target == nil {
		return false
	}
	for i := 0; i < steps && len(a.Path) > 0; i++ {
		next := a.Path[0]
		if occupied[next] {
			break
		}
		a.X, a.Y = next.X, next.Y
		a.Path = a.Path[1:]
	}
	return a.Position() == *a.Target
}
