package campus

import (
	"campussim/internal/config"
	"campussim/internal/grid"
	"campussim/internal/sim/catalogs"
	"campussim/internal/sim/schedule"
)

// testGrid builds a fully walkable 20x12 campus with four rooms:
//
//	Dorm (dormitory), Lab (capacity 1), Hall (capacity 10), Cell (capacity 1)
func testGrid(spawns map[string][]grid.Tile) *grid.Grid {
	const w, h = 20, 12
	passability := make([][]int, h)
	for y := range passability {
		row := make([]int, w)
		for x := range row {
			row[x] = 1
		}
		passability[y] = row
	}
	rooms := []*grid.Room{
		{Name: "Dorm", Rect: [4]int{1, 1, 4, 4}, Doors: []grid.Tile{{X: 4, Y: 2}}, Type: "dormitory"},
		{Name: "Lab", Rect: [4]int{8, 1, 4, 4}, Doors: []grid.Tile{{X: 8, Y: 2}}, Capacity: 1},
		{Name: "Hall", Rect: [4]int{14, 1, 5, 5}, Doors: []grid.Tile{{X: 14, Y: 3}}, Capacity: 10},
		{Name: "Cell", Rect: [4]int{8, 8, 3, 3}, Doors: []grid.Tile{{X: 8, Y: 9}}, Capacity: 1},
	}
	return grid.New(w, h, passability, rooms, spawns)
}

func testCatalog() *catalogs.Catalog {
	return catalogs.NewCatalog(map[string]*catalogs.Profile{
		"Idle":           {ActivityID: "Idle", Canonical: catalogs.KindIdle, Label: "Idle"},
		"class":          {ActivityID: "class", Canonical: catalogs.KindStudying, Label: "Class", InteractionKey: "studying"},
		"rec":            {ActivityID: "rec", Canonical: catalogs.KindRecreation, Label: "Recreation"},
		"lights_out":     {ActivityID: "lights_out", Canonical: catalogs.KindSleeping, Label: "Lights Out"},
		"prefect_rounds": {ActivityID: "prefect_rounds", Canonical: catalogs.KindDiscipline, Label: "Prefect Rounds"},
	})
}

func testRoster(plans map[string][]*schedule.Block, roles map[string]string, order []string) *schedule.Roster {
	if plans == nil {
		plans = make(map[string][]*schedule.Block)
	}
	return &schedule.Roster{
		DayLength:   schedule.DefaultDayLength,
		Definitions: make(map[string]*schedule.ActivityDefinition),
		Plans:       plans,
		Roles:       roles,
		ActorOrder:  order,
	}
}

func planBlock(actorID, activityID, roomID string, start, duration int) *schedule.Block {
	return &schedule.Block{
		ActorID:         actorID,
		Slot:            activityID,
		ActivityID:      activityID,
		RoomID:          roomID,
		StartTick:       start,
		DurationMinutes: duration,
		DayLength:       schedule.DefaultDayLength,
	}
}

func testSettings(startMinute int) config.Settings {
	var cfg config.Settings
	cfg.RandomSeed = 7
	cfg.Time.MinutesPerTick = 1
	cfg.Time.DayLengthMinutes = schedule.DefaultDayLength
	cfg.Time.StartMinute = startMinute
	cfg.Notifications.AlertCooldownMinutes = 10
	return cfg
}
