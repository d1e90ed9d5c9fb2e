package grid

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

func testGrid(t *testing.T) *Grid {
	t.Helper()
	const w, h = 12, 10
	passability := make([][]int, h)
	for y := range passability {
		passability[y] = make([]int, w)
		for x := range passability[y] {
			if x == 0 || y == 0 || x == w-1 || y == h-1 {
				continue
			}
			passability[y][x] = 1
		}
	}
	rooms := []*Room{
		{Name: "Dorm", Rect: [4]int{1, 1, 4, 4}, Doors: []Tile{{X: 3, Y: 4}}, Capacity: 2, Type: "dormitory"},
		{Name: "Hall", Rect: [4]int{6, 1, 5, 4}, Doors: []Tile{{X: 6, Y: 2}}, Capacity: 10},
	}
	spawns := map[string][]Tile{
		"student": {{X: 2, Y: 2}, {X: 3, Y: 2}},
		"teacher": {{X: 8, Y: 2}},
	}
	return New(w, h, passability, rooms, spawns)
}

func TestWalkableBounds(t *testing.T) {
	g := testGrid(t)
	if g.Walkable(0, 0) {
		t.Fatal("border must not be walkable")
	}
	if !g.Walkable(5, 5) {
		t.Fatal("interior must be walkable")
	}
	if g.Walkable(-1, 3) || g.Walkable(3, 100) {
		t.Fatal("out of bounds must not be walkable")
	}
}

func TestRoomLookup(t *testing.T) {
	g := testGrid(t)
	if room := g.RoomForPosition(2, 2); room == nil || room.Name != "Dorm" {
		t.Fatalf("RoomForPosition(2,2) = %v, want Dorm", room)
	}
	if room := g.RoomForPosition(5, 8); room != nil {
		t.Fatalf("corridor tile resolved to room %q", room.Name)
	}
	if _, err := g.RoomCenter("Nowhere"); err == nil {
		t.Fatal("unknown room must error")
	}
	names := g.RoomNames()
	if len(names) != 2 || names[0] != "Dorm" || names[1] != "Hall" {
		t.Fatalf("RoomNames = %v, want map-file order", names)
	}
}

func TestRoomInteriorTargets(t *testing.T) {
	g := testGrid(t)
	targets := g.RoomInteriorTargets("Dorm")
	if len(targets) == 0 {
		t.Fatal("expected interior targets next to the door")
	}
	for _, tt := range targets {
		room, _ := g.Room("Dorm")
		if !room.Contains(tt.X, tt.Y) {
			t.Fatalf("target %v outside room", tt)
		}
		if !g.Walkable(tt.X, tt.Y) {
			t.Fatalf("target %v not walkable", tt)
		}
	}
	// Second call must return the cached slice in the same order.
	again := g.RoomInteriorTargets("Dorm")
	for i := range targets {
		if targets[i] != again[i] {
			t.Fatal("interior targets not stable across calls")
		}
	}
}

func TestSpawnPoints(t *testing.T) {
	g := testGrid(t)
	if pts := g.SpawnPoints("teacher"); len(pts) != 1 || pts[0] != (Tile{X: 8, Y: 2}) {
		t.Fatalf("teacher spawns = %v", pts)
	}
	all := g.SpawnPoints("")
	if len(all) != 3 {
		t.Fatalf("union of spawns = %d points, want 3", len(all))
	}
}

func TestRandomRoomTileWalkable(t *testing.T) {
	g := testGrid(t)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		tile, err := g.RandomRoomTile("Hall", rng)
		if err != nil {
			t.Fatalf("RandomRoomTile: %v", err)
		}
		if !g.Walkable(tile.X, tile.Y) {
			t.Fatalf("picked unwalkable tile %v", tile)
		}
	}
}

func TestLoadValidatesSchema(t *testing.T) {
	dir := t.TempDir()

	good := `{
  "width": 4,
  "height": 3,
  "passability": [[0,0,0,0],[0,1,1,0],[0,0,0,0]],
  "rooms": [{"name": "Cell", "rect": [1,1,2,1], "doors": [[1,1]], "capacity": 1}],
  "spawn_points": {"student": [[1,1]]}
}`
	path := filepath.Join(dir, "map.json")
	if err := os.WriteFile(path, []byte(good), 0o644); err != nil {
		t.Fatal(err)
	}
	g, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if g.Width != 4 || g.Height != 3 {
		t.Fatalf("loaded %dx%d", g.Width, g.Height)
	}
	if room, ok := g.Room("Cell"); !ok || room.Capacity != 1 {
		t.Fatalf("room not loaded: %v", room)
	}

	bad := `{"width": 2, "height": 2, "passability": [[0,2],[0,0]]}`
	badPath := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(badPath, []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(badPath); err == nil {
		t.Fatal("passability value 2 must fail validation")
	}

	mismatch := `{"width": 3, "height": 2, "passability": [[1,1],[1,1]]}`
	mPath := filepath.Join(dir, "mismatch.json")
	if err := os.WriteFile(mPath, []byte(mismatch), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(mPath); err == nil {
		t.Fatal("row width mismatch must fail")
	}
}
