package campus

import (
	"testing"

	"campussim/internal/grid"
	"campussim/internal/sim/schedule"
)

func newSim(startMinute int, spawns map[string][]grid.Tile, plans map[string][]*schedule.Block, roles map[string]string, order []string) *Simulation {
	return NewWith(testSettings(startMinute), testGrid(spawns), testCatalog(), testRoster(plans, roles, order), nil)
}

func TestActorTravelsAndStartsScheduledActivity(t *testing.T) {
	sim := newSim(478,
		map[string][]grid.Tile{"student": {{X: 2, Y: 2}}},
		map[string][]*schedule.Block{
			"Alice": {planBlock("Alice", "rec", "Hall", 480, 60)},
		},
		map[string]string{"Alice": "student"},
		[]string{"Alice"},
	)
	alice := sim.Actor("Alice")

	sim.Advance(2)
	if alice.Pending != nil && alice.State != StateMoving {
		t.Fatalf("dispatched actor not moving: state=%q", alice.State)
	}

	sim.Advance(38)
	if alice.Current == nil {
		t.Fatal("activity never began")
	}
	if alice.Current.Name != "rec" || alice.Current.RoomID != "Hall" {
		t.Fatalf("current = %+v", alice.Current)
	}
	if alice.State != StatePerformingTask {
		t.Fatalf("state = %q", alice.State)
	}
	// Travel time burned into the block instead of extending it.
	if alice.Current.Remaining >= 60 {
		t.Fatalf("remaining = %d", alice.Current.Remaining)
	}
	if sim.Rooms.OccupantCount("Hall") != 1 {
		t.Fatalf("hall occupancy = %d", sim.Rooms.OccupantCount("Hall"))
	}

	snap := sim.Snapshot()
	if len(snap.Actors) != 1 || snap.Actors[0].Activity == "" {
		t.Fatalf("snapshot actors = %+v", snap.Actors)
	}
	if len(snap.Rooms["Hall"].Occupants) != 1 {
		t.Fatalf("snapshot hall = %+v", snap.Rooms["Hall"])
	}
}

func TestPrimeStartsBlockAlreadyInProgress(t *testing.T) {
	// Starting the clock mid-block dispatches that block immediately.
	sim := newSim(490,
		map[string][]grid.Tile{"student": {{X: 2, Y: 6}}},
		map[string][]*schedule.Block{
			"Alice": {planBlock("Alice", "rec", "Hall", 480, 120)},
		},
		map[string]string{"Alice": "student"},
		[]string{"Alice"},
	)
	alice := sim.Actor("Alice")
	if alice.Pending == nil && alice.Current == nil {
		t.Fatal("in-progress block not dispatched at construction")
	}
	sim.Advance(30)
	if alice.Current == nil || alice.Current.Name != "rec" {
		t.Fatalf("current = %+v", alice.Current)
	}
}

func TestActivityWithoutLocationStartsInPlace(t *testing.T) {
	sim := newSim(479,
		map[string][]grid.Tile{"student": {{X: 2, Y: 6}}},
		map[string][]*schedule.Block{
			"Alice": {planBlock("Alice", "rec", "", 480, 30)},
		},
		map[string]string{"Alice": "student"},
		[]string{"Alice"},
	)
	alice := sim.Actor("Alice")
	sim.Advance(2)
	if alice.Current == nil || alice.State != StatePerformingTask {
		t.Fatalf("state = %q current = %+v", alice.State, alice.Current)
	}
	if alice.Position() != (grid.Tile{X: 2, Y: 6}) {
		t.Fatalf("actor moved to %v", alice.Position())
	}
}

func TestMissedClassAlert(t *testing.T) {
	sim := newSim(479,
		map[string][]grid.Tile{"student": {{X: 2, Y: 2}}},
		map[string][]*schedule.Block{
			"Alice": {planBlock("Alice", "class", "Hall", 480, 60)},
		},
		map[string]string{"Alice": "student"},
		[]string{"Alice"},
	)

	sim.Advance(5)
	if sim.Alerts.LatestByCategory(AlertMissedClass) != nil {
		t.Fatal("alert fired inside the grace period")
	}

	sim.Advance(10)
	alert := sim.Alerts.LatestByCategory(AlertMissedClass)
	if alert == nil {
		t.Fatal("no missed class alert")
	}
	if alert.Severity != "warning" || alert.RoomID != "Hall" {
		t.Fatalf("alert = %+v", alert)
	}
	if len(alert.ActorIDs) != 1 || alert.ActorIDs[0] != "Alice" {
		t.Fatalf("actors = %v", alert.ActorIDs)
	}
	if _, ok := alert.Metadata["minutes_late"]; !ok {
		t.Fatalf("metadata = %v", alert.Metadata)
	}
}

func TestCurfewAlertSparesDormAndSleepers(t *testing.T) {
	sim := newSim(1330,
		map[string][]grid.Tile{"student": {{X: 6, Y: 6}, {X: 2, Y: 2}, {X: 6, Y: 7}}},
		map[string][]*schedule.Block{
			"Chen": {planBlock("Chen", "lights_out", "Dorm", 1320, 480)},
		},
		map[string]string{"Bea": "student", "Dana": "student", "Chen": "student"},
		[]string{"Bea", "Dana", "Chen"},
	)

	sim.Advance(1)
	alert := sim.Alerts.LatestByCategory(AlertCurfewViolation)
	if alert == nil {
		t.Fatal("no curfew alert")
	}
	if alert.Severity != "critical" {
		t.Fatalf("severity = %q", alert.Severity)
	}
	// Bea loiters in the corridor. Dana is in a dormitory and Chen is headed
	// to one, so neither violates curfew.
	var violators []string
	for _, a := range sim.Alerts.History() {
		if a.Category == AlertCurfewViolation {
			violators = append(violators, a.ActorIDs...)
		}
	}
	if len(violators) != 1 || violators[0] != "Bea" {
		t.Fatalf("violators = %v", violators)
	}
}

func TestNoCurfewAlertDuringDay(t *testing.T) {
	sim := newSim(600,
		map[string][]grid.Tile{"student": {{X: 6, Y: 6}}},
		nil,
		map[string]string{"Bea": "student"},
		[]string{"Bea"},
	)
	sim.Advance(5)
	if sim.Alerts.LatestByCategory(AlertCurfewViolation) != nil {
		t.Fatal("curfew alert during daytime")
	}
}

func TestOvercapacityAlert(t *testing.T) {
	sim := newSim(600,
		map[string][]grid.Tile{"student": {{X: 8, Y: 8}, {X: 9, Y: 8}}},
		nil,
		map[string]string{"Bea": "student", "Chen": "student"},
		[]string{"Bea", "Chen"},
	)

	sim.Advance(1)
	alert := sim.Alerts.LatestByCategory(AlertOvercapacity)
	if alert == nil {
		t.Fatal("no overcapacity alert")
	}
	if alert.RoomID != "Cell" {
		t.Fatalf("room = %q", alert.RoomID)
	}
	if alert.Metadata["occupancy"] != 2 || alert.Metadata["capacity"] != 1 {
		t.Fatalf("metadata = %v", alert.Metadata)
	}
	if len(alert.ActorIDs) != 2 || alert.ActorIDs[0] != "Bea" || alert.ActorIDs[1] != "Chen" {
		t.Fatalf("actors = %v", alert.ActorIDs)
	}

	// Cooldown keeps the next ticks from flooding the bus.
	sim.Advance(5)
	count := 0
	for _, a := range sim.Alerts.History() {
		if a.Category == AlertOvercapacity {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("alerts published = %d", count)
	}
}

func TestInteractWith(t *testing.T) {
	sim := newSim(600,
		map[string][]grid.Tile{"student": {{X: 6, Y: 6}}},
		nil,
		map[string]string{"Bea": "student"},
		[]string{"Bea"},
	)
	bea := sim.Actor("Bea")
	if got := sim.InteractWith(bea); got != "Bea nods politely." {
		t.Fatalf("line = %q", got)
	}
}

func TestTickCountAdvances(t *testing.T) {
	sim := newSim(600,
		map[string][]grid.Tile{"student": {{X: 6, Y: 6}}},
		nil,
		map[string]string{"Bea": "student"},
		[]string{"Bea"},
	)
	sim.Advance(7)
	if sim.TickCount() != 7 {
		t.Fatalf("tick count = %d", sim.TickCount())
	}
	if sim.Clock.CurrentMinutes() != 607 {
		t.Fatalf("clock = %d", sim.Clock.CurrentMinutes())
	}
}
