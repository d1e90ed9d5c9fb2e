package campus

import (
	"testing"

	"campussim/internal/eventlog"
	"campussim/internal/grid"
	"campussim/internal/sim/schedule"
)

func newPrincipalFixture(t *testing.T) (*Simulation, *PrincipalControls) {
	t.Helper()
	sim := newSim(600,
		map[string][]grid.Tile{"student": {{X: 6, Y: 6}}},
		map[string][]*schedule.Block{
			"Alice": {planBlock("Alice", "class", "Hall", 840, 60)},
		},
		map[string]string{"Alice": "student"},
		[]string{"Alice"},
	)
	return sim, NewPrincipalControls(sim)
}

func TestSummonActor(t *testing.T) {
	sim, pc := newPrincipalFixture(t)

	activity, err := pc.SummonActor("Alice", "Hall", 60)
	if err != nil {
		t.Fatalf("summon: %v", err)
	}
	if activity.Name != "prefect_rounds" || activity.Location != "Hall" {
		t.Fatalf("activity = %+v", activity)
	}

	sim.Advance(30)
	alice := sim.Actor("Alice")
	if alice.Current == nil || alice.Current.Name != "prefect_rounds" {
		t.Fatalf("current = %+v", alice.Current)
	}
	if alice.Current.RoomID != "Hall" {
		t.Fatalf("room = %q", alice.Current.RoomID)
	}
	if _, ok := alice.Current.Metadata["tone"]; !ok {
		t.Fatalf("metadata = %v", alice.Current.Metadata)
	}

	records := pc.RecentOverrides(5)
	if len(records) != 1 || records[0].Action != "summon" {
		t.Fatalf("records = %+v", records)
	}

	if _, err := pc.SummonActor("Ghost", "Hall", 10); err == nil {
		t.Fatal("unknown actor accepted")
	}
	if _, err := pc.SummonActor("Alice", "Basement", 10); err == nil {
		t.Fatal("unknown room accepted")
	}
}

func TestSummonInterruptsCurrentActivity(t *testing.T) {
	sim, pc := newPrincipalFixture(t)
	alice := sim.Actor("Alice")
	// Force an in-progress activity without waiting for its block.
	alice.AssignActivity(&ScheduledActivity{Name: "rec", Duration: 60}, 600)
	sim.Activities.StartIfReady(alice, 600, sim.Clock.DayLength)
	if alice.Current == nil {
		t.Fatal("fixture activity did not start")
	}

	if _, err := pc.SummonActor("Alice", "Cell", 15); err != nil {
		t.Fatalf("summon: %v", err)
	}
	found := false
	for _, e := range sim.Events.Events() {
		if e.Kind == eventlog.KindActivityInterrupt && e.State["reason"] == "summoned by principal" {
			found = true
		}
	}
	if !found {
		t.Fatal("no interrupt event recorded")
	}
}

func TestOverrideSchedule(t *testing.T) {
	sim, pc := newPrincipalFixture(t)

	plan, err := pc.OverrideSchedule("Alice", []OverrideBlock{
		{Activity: "rec", Start: "11:00", Duration: "30", Room: "Hall"},
	}, "assembly")
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	if len(plan) != 1 || plan[0].StartTick != 660 {
		t.Fatalf("plan = %+v", plan[0])
	}

	records := pc.RecentOverrides(5)
	if len(records) != 1 || records[0].Action != "override_schedule" || records[0].Reason != "assembly" {
		t.Fatalf("records = %+v", records)
	}

	evts := sim.Events.Events()
	last := evts[len(evts)-1]
	if last.Kind != eventlog.KindPrincipalAction || last.Activity != "override_schedule" || last.Actor != "Alice" {
		t.Fatalf("event = %+v", last)
	}

	if _, err := pc.OverrideSchedule("Alice", []OverrideBlock{{}}, "bad"); err == nil {
		t.Fatal("invalid override accepted")
	}
}

func TestResolveAlert(t *testing.T) {
	sim := newSim(600,
		map[string][]grid.Tile{"student": {{X: 8, Y: 8}, {X: 9, Y: 8}}},
		nil,
		map[string]string{"Bea": "student", "Chen": "student"},
		[]string{"Bea", "Chen"},
	)
	pc := NewPrincipalControls(sim)

	sim.Advance(1)
	alert := sim.Alerts.LatestByCategory(AlertOvercapacity)
	if alert == nil {
		t.Fatal("fixture produced no alert")
	}
	if err := pc.ResolveAlert(alert.ID); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(sim.Alerts.ActiveAlerts()) != 0 {
		t.Fatalf("active alerts = %+v", sim.Alerts.ActiveAlerts())
	}
	if err := pc.ResolveAlert("nope"); err == nil {
		t.Fatal("unknown alert accepted")
	}
}

func TestBroadcastAndHistoryOrder(t *testing.T) {
	sim, pc := newPrincipalFixture(t)
	pc.Broadcast("assembly at noon")
	if _, err := pc.SummonActor("Alice", "Hall", 10); err != nil {
		t.Fatalf("summon: %v", err)
	}

	records := pc.RecentOverrides(0)
	if len(records) != 2 {
		t.Fatalf("records = %d", len(records))
	}
	// Newest first.
	if records[0].Action != "summon" || records[1].Action != "broadcast" {
		t.Fatalf("order = %s, %s", records[0].Action, records[1].Action)
	}

	evts := sim.Events.Events()
	if evts[0].Kind != eventlog.KindPrincipalAction || evts[0].State["message"] != "assembly at noon" {
		t.Fatalf("broadcast event = %+v", evts[0])
	}
}
