package campus

import (
	"testing"

	"campussim/internal/sim/catalogs"
)

func TestRoomManagerTracksOccupancy(t *testing.T) {
	rm := NewRoomManager(testGrid(nil))

	var notified []RoomSnapshot
	token := rm.Subscribe("Hall", func(snap RoomSnapshot) {
		notified = append(notified, snap)
	})

	rm.TrackEntry("Bea", "Hall")
	rm.TrackEntry("Bea", "Hall") // repeat entry is a no-op
	rm.TrackEntry("Alice", "Hall")
	if rm.OccupantCount("Hall") != 2 {
		t.Fatalf("occupants = %d", rm.OccupantCount("Hall"))
	}
	if len(notified) != 2 {
		t.Fatalf("notifications = %d, want 2", len(notified))
	}
	last := notified[len(notified)-1]
	if len(last.Occupants) != 2 || last.Occupants[0] != "Alice" || last.Occupants[1] != "Bea" {
		t.Fatalf("occupants not sorted: %v", last.Occupants)
	}

	rm.TrackExit("Bea", "Hall")
	if rm.OccupantCount("Hall") != 1 {
		t.Fatalf("after exit: %d", rm.OccupantCount("Hall"))
	}

	rm.Unsubscribe("Hall", token)
	before := len(notified)
	rm.TrackEntry("Chen", "Hall")
	if len(notified) != before {
		t.Fatal("unsubscribed listener still notified")
	}
}

func TestRoomManagerActivityLifecycle(t *testing.T) {
	rm := NewRoomManager(testGrid(nil))
	profile := &catalogs.Profile{ActivityID: "rec", Canonical: catalogs.KindRecreation, Label: "Recreation"}
	inst := NewInstance(profile, "Hall", 30, 30, nil)
	inst.Start()

	rm.StartActivity("Bea", inst)
	snap := rm.Snapshot("Hall")
	if snap.Occupants[0] != "Bea" {
		t.Fatalf("occupants = %v", snap.Occupants)
	}
	view, ok := snap.Activities["Bea"]
	if !ok || view.Label != "Recreation" || view.Status != string(StatusActive) {
		t.Fatalf("activity view = %+v", view)
	}

	rm.EndActivity("Bea", inst)
	snap = rm.Snapshot("Hall")
	if len(snap.Activities) != 0 {
		t.Fatalf("activities not cleared: %v", snap.Activities)
	}
	if rm.OccupantCount("Hall") != 1 {
		t.Fatal("ending an activity must not evict the occupant")
	}

	rm.TrackExit("Bea", "Hall")
	if rm.OccupantCount("Hall") != 0 {
		t.Fatal("occupant still tracked after exit")
	}
}

func TestSnapshotsCoverConfiguredAndAdHocRooms(t *testing.T) {
	rm := NewRoomManager(testGrid(nil))
	rm.TrackEntry("Visitor", "Annex")

	snaps := rm.Snapshots()
	for _, name := range []string{"Dorm", "Lab", "Hall", "Cell", "Annex"} {
		if _, ok := snaps[name]; !ok {
			t.Fatalf("missing snapshot for %s", name)
		}
	}
	if len(snaps["Annex"].Occupants) != 1 {
		t.Fatalf("annex occupants = %v", snaps["Annex"].Occupants)
	}
	if len(snaps["Dorm"].Occupants) != 0 {
		t.Fatalf("empty room carries occupants: %v", snaps["Dorm"].Occupants)
	}
}
