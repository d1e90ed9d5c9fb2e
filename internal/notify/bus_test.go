package notify

import "testing"

func publishTest(b *Bus, minute int) *Alert {
	return b.Publish("overcapacity", Publication{
		MinuteStamp: minute,
		Severity:    "warning",
		Message:     "Cafeteria over capacity",
		RoomID:      "Cafeteria",
		ActorIDs:    []string{"Bea", "Alice"},
	})
}

func TestPublishSortsActors(t *testing.T) {
	b := NewBus(10, nil)
	a := publishTest(b, 100)
	if len(a.ActorIDs) != 2 || a.ActorIDs[0] != "Alice" || a.ActorIDs[1] != "Bea" {
		t.Fatalf("actors = %v", a.ActorIDs)
	}
	if a.CreatedAt != "01:40" {
		t.Fatalf("created at = %q", a.CreatedAt)
	}
}

func TestCooldownSuppressesDuplicates(t *testing.T) {
	b := NewBus(10, nil)
	first := publishTest(b, 100)
	second := publishTest(b, 105)
	if second.ID != first.ID {
		t.Fatalf("cooldown window must return the existing alert")
	}
	third := publishTest(b, 110)
	if third.ID == first.ID {
		t.Fatal("cooldown expired, expected a fresh alert")
	}
	if got := len(b.History()); got != 2 {
		t.Fatalf("history length = %d, want 2", got)
	}
}

func TestCooldownReturnsAcknowledgedAlert(t *testing.T) {
	b := NewBus(10, nil)
	first := publishTest(b, 100)
	if _, err := b.Acknowledge(first.ID, 102); err != nil {
		t.Fatalf("Acknowledge: %v", err)
	}
	// Still inside the window: the latest matching alert comes back even
	// though it is already acknowledged.
	again := publishTest(b, 105)
	if again.ID != first.ID {
		t.Fatal("expected the acknowledged alert back inside the window")
	}
	if !again.Acknowledged() {
		t.Fatal("returned alert should carry its acknowledgement")
	}
}

func TestAcknowledge(t *testing.T) {
	b := NewBus(10, nil)
	a := publishTest(b, 100)
	if len(b.ActiveAlerts()) != 1 {
		t.Fatal("expected one active alert")
	}
	ack, err := b.Acknowledge(a.ID, 107)
	if err != nil {
		t.Fatalf("Acknowledge: %v", err)
	}
	if ack.AcknowledgedAt != "01:47" {
		t.Fatalf("acknowledged at = %q", ack.AcknowledgedAt)
	}
	if len(b.ActiveAlerts()) != 0 {
		t.Fatal("acknowledged alert still active")
	}
	// Idempotent: the original stamp survives.
	if again, err := b.Acknowledge(a.ID, 300); err != nil || again.AcknowledgedAt != "01:47" {
		t.Fatalf("second ack = %v, %v", again, err)
	}
	if _, err := b.Acknowledge("no-such-id", 0); err == nil {
		t.Fatal("unknown id must error")
	}
}

func TestSubscribersNotified(t *testing.T) {
	b := NewBus(10, nil)
	var got []*Alert
	token := b.Subscribe(func(a *Alert) { got = append(got, a) })

	a := publishTest(b, 100)
	if len(got) != 1 || got[0].ID != a.ID {
		t.Fatalf("publish notification missing: %v", got)
	}
	if _, err := b.Acknowledge(a.ID, 101); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("acknowledge notification missing, got %d", len(got))
	}

	b.Unsubscribe(token)
	publishTest(b, 200)
	if len(got) != 2 {
		t.Fatal("unsubscribed listener still notified")
	}
}

func TestLatestByCategory(t *testing.T) {
	b := NewBus(0, nil)
	publishTest(b, 100)
	second := publishTest(b, 200)
	if latest := b.LatestByCategory("overcapacity"); latest == nil || latest.ID != second.ID {
		t.Fatalf("latest = %v", latest)
	}
	if b.LatestByCategory("missed_class") != nil {
		t.Fatal("unexpected alert for empty category")
	}
}
