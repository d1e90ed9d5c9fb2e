package pathfind

import (
	"testing"

	"campussim/internal/grid"
)

type openField struct {
	w, h int
}

func (f openField) Walkable(x, y int) bool {
	return x >= 0 && y >= 0 && x < f.w && y < f.h
}

type walledField struct {
	openField
	walls map[grid.Tile]bool
}

func (f walledField) Walkable(x, y int) bool {
	return f.openField.Walkable(x, y) && !f.walls[grid.Tile{X: x, Y: y}]
}

func TestAStarStraightLine(t *testing.T) {
	f := openField{w: 10, h: 10}
	path := AStar(f, grid.Tile{X: 0, Y: 0}, grid.Tile{X: 4, Y: 0}, nil)
	if len(path) != 5 {
		t.Fatalf("path length = %d, want 5", len(path))
	}
	if path[0] != (grid.Tile{X: 0, Y: 0}) || path[4] != (grid.Tile{X: 4, Y: 0}) {
		t.Fatalf("path endpoints wrong: %v", path)
	}
	for i := 1; i < len(path); i++ {
		if Heuristic(path[i-1], path[i]) != 1 {
			t.Fatalf("non-adjacent step %v -> %v", path[i-1], path[i])
		}
	}
}

func TestAStarStartEqualsGoal(t *testing.T) {
	f := openField{w: 5, h: 5}
	path := AStar(f, grid.Tile{X: 2, Y: 2}, grid.Tile{X: 2, Y: 2}, nil)
	if len(path) != 1 {
		t.Fatalf("path = %v, want single tile", path)
	}
}

func TestAStarRoutesAroundWall(t *testing.T) {
	walls := map[grid.Tile]bool{}
	// Vertical wall at x=2 with a gap at y=4.
	for y := 0; y < 4; y++ {
		walls[grid.Tile{X: 2, Y: y}] = true
	}
	f := walledField{openField{w: 6, h: 6}, walls}
	path := AStar(f, grid.Tile{X: 0, Y: 0}, grid.Tile{X: 4, Y: 0}, nil)
	if path == nil {
		t.Fatal("expected a path through the gap")
	}
	for _, p := range path {
		if walls[p] {
			t.Fatalf("path crosses wall at %v", p)
		}
	}
}

func TestAStarUnreachable(t *testing.T) {
	walls := map[grid.Tile]bool{}
	for y := 0; y < 6; y++ {
		walls[grid.Tile{X: 2, Y: y}] = true
	}
	f := walledField{openField{w: 6, h: 6}, walls}
	if path := AStar(f, grid.Tile{X: 0, Y: 0}, grid.Tile{X: 4, Y: 0}, nil); path != nil {
		t.Fatalf("expected nil path, got %v", path)
	}
}

func TestAStarGoalNeverBlocked(t *testing.T) {
	f := openField{w: 6, h: 6}
	goal := grid.Tile{X: 3, Y: 0}
	blocked := map[grid.Tile]bool{goal: true}
	path := AStar(f, grid.Tile{X: 0, Y: 0}, goal, blocked)
	if path == nil {
		t.Fatal("goal tile in blocked set must stay reachable")
	}
	if path[len(path)-1] != goal {
		t.Fatalf("path ends at %v, want %v", path[len(path)-1], goal)
	}
}

func TestAStarAvoidsBlockedTiles(t *testing.T) {
	f := openField{w: 6, h: 6}
	blocked := map[grid.Tile]bool{{X: 1, Y: 0}: true, {X: 2, Y: 0}: true}
	path := AStar(f, grid.Tile{X: 0, Y: 0}, grid.Tile{X: 3, Y: 0}, blocked)
	if path == nil {
		t.Fatal("expected a detour path")
	}
	for _, p := range path {
		if blocked[p] {
			t.Fatalf("path crosses blocked tile %v", p)
		}
	}
}
