package campus

import (
	"testing"

	"campussim/internal/grid"
	"campussim/internal/pathfind"
)

func countingPlanner(calls *int) Planner {
	return func(w pathfind.World, start, goal grid.Tile, blocked map[grid.Tile]bool) []grid.Tile {
		*calls++
		return pathfind.AStar(w, start, goal, blocked)
	}
}

func TestPlanIfNeededCachesPaths(t *testing.T) {
	ms := NewMovementSystem(testGrid(nil))
	calls := 0
	ms.SetPlanner(countingPlanner(&calls))

	a := NewActor("Ava", 2, 6, "student", nil)
	a.SetTarget(grid.Tile{X: 6, Y: 6})
	ms.PlanIfNeeded(a, nil)
	if calls != 1 {
		t.Fatalf("planner calls = %d", calls)
	}
	if len(a.Path) != 4 {
		t.Fatalf("path length = %d, want 4", len(a.Path))
	}

	// Same start and goal hits the cache.
	b := NewActor("Bea", 2, 6, "student", nil)
	b.SetTarget(grid.Tile{X: 6, Y: 6})
	ms.PlanIfNeeded(b, nil)
	if calls != 1 {
		t.Fatalf("cached lookup still planned: calls = %d", calls)
	}
	if len(b.Path) != 4 {
		t.Fatalf("cached path length = %d", len(b.Path))
	}
}

func TestBlockedRequestsBypassCache(t *testing.T) {
	ms := NewMovementSystem(testGrid(nil))
	calls := 0
	ms.SetPlanner(countingPlanner(&calls))

	a := NewActor("Ava", 2, 6, "student", nil)
	a.SetTarget(grid.Tile{X: 6, Y: 6})
	ms.PlanIfNeeded(a, nil)

	blocked := map[grid.Tile]bool{{X: 4, Y: 6}: true}
	b := NewActor("Bea", 2, 6, "student", nil)
	b.SetTarget(grid.Tile{X: 6, Y: 6})
	ms.PlanIfNeeded(b, blocked)
	if calls != 2 {
		t.Fatalf("blocked request must plan fresh: calls = %d", calls)
	}
	for _, tile := range b.Path {
		if blocked[tile] {
			t.Fatalf("path crosses blocked tile %v", tile)
		}
	}
}

func TestInvalidateDropsCache(t *testing.T) {
	ms := NewMovementSystem(testGrid(nil))
	calls := 0
	ms.SetPlanner(countingPlanner(&calls))

	a := NewActor("Ava", 2, 6, "student", nil)
	a.SetTarget(grid.Tile{X: 6, Y: 6})
	ms.PlanIfNeeded(a, nil)
	ms.Invalidate()

	b := NewActor("Bea", 2, 6, "student", nil)
	b.SetTarget(grid.Tile{X: 6, Y: 6})
	ms.PlanIfNeeded(b, nil)
	if calls != 2 {
		t.Fatalf("calls = %d, want 2 after invalidation", calls)
	}
}

func TestStepStallsOnOccupiedTile(t *testing.T) {
	ms := NewMovementSystem(testGrid(nil))
	a := NewActor("Ava", 2, 6, "student", nil)
	a.SetTarget(grid.Tile{X: 5, Y: 6})
	ms.PlanIfNeeded(a, nil)

	occupied := map[grid.Tile]bool{{X: 3, Y: 6}: true}
	if ms.Step(a, occupied, 1) {
		t.Fatal("stalled actor reported arrival")
	}
	if a.Position() != (grid.Tile{X: 2, Y: 6}) {
		t.Fatalf("actor moved through occupied tile to %v", a.Position())
	}

	if ms.Step(a, nil, 2) {
		t.Fatal("arrived one step early")
	}
	if !ms.Step(a, nil, 1) {
		t.Fatal("actor should be at target")
	}
	if a.Position() != (grid.Tile{X: 5, Y: 6}) {
		t.Fatalf("final position %v", a.Position())
	}
}

func TestActorAlreadyAtTarget(t *testing.T) {
	ms := NewMovementSystem(testGrid(nil))
	calls := 0
	ms.SetPlanner(countingPlanner(&calls))

	a := NewActor("Ava", 5, 6, "student", nil)
	a.SetTarget(grid.Tile{X: 5, Y: 6})
	ms.PlanIfNeeded(a, nil)
	if calls != 0 {
		t.Fatalf("planned for zero-length trip: calls = %d", calls)
	}
	if !ms.Step(a, nil, 1) {
		t.Fatal("in-place actor must count as arrived")
	}
}
