package campus

import (
	"campussim/internal/eventlog"
	"campussim/internal/sim/catalogs"
	"campussim/internal/sim/schedule"
)

// fallbackIdleProfile covers activities the catalog does not know while
// the catalog itself is missing an Idle entry.
var fallbackIdleProfile = &catalogs.Profile{
	ActivityID: "Idle",
	Canonical:  catalogs.KindIdle,
	Label:      "Idle",
}

// ActivitySystem runs the begin/tick/complete lifecycle of actor
// activities, keeping the room manager and event log in step.
type ActivitySystem struct {
	catalog *catalogs.Catalog
	rooms   *RoomManager
	events  *eventlog.Logger
}

func NewActivitySystem(catalog *catalogs.Catalog, rooms *RoomManager, events *eventlog.Logger) *ActivitySystem {
	return &ActivitySystem{catalog: catalog, rooms: rooms, events: events}
}

// resolveProfile picks the profile for a pending activity, falling back to
// Idle when the activity is unknown.
func (s *ActivitySystem) resolveProfile(pending *ScheduledActivity) *catalogs.Profile {
	if pending.Profile != nil {
		return pending.Profile
	}
	if p := s.catalog.Resolve(pending.Name); p != nil {
		return p
	}
	if p := s.catalog.Resolve("Idle"); p != nil {
		return p
	}
	return fallbackIdleProfile
}

// StartIfReady begins a pending activity that has no travel requirement.
func (s *ActivitySystem) StartIfReady(a *Actor, currentMinutes, dayLength int) {
	if a.Pending == nil || a.PendingDestination != nil {
		return
	}
	s.begin(a, currentMinutes, dayLength)
}

// OnArrival begins the pending activity once the actor reaches its
// destination tile.
func (s *ActivitySystem) OnArrival(a *Actor, currentMinutes, dayLength int) {
	if a.Pending == nil {
		return
	}
	s.begin(a, currentMinutes, dayLength)
}

func (s *ActivitySystem) begin(a *Actor, currentMinutes, dayLength int) {
	pending := a.Pending
	profile := s.resolveProfile(pending)

	duration := pending.Duration
	if duration <= 0 {
		duration = profile.DefaultDuration
	}
	remaining := duration
	if a.PendingStartMinutes >= 0 && dayLength > 0 {
		// A late start burns into the activity rather than extending it.
		elapsed := ((currentMinutes-a.PendingStartMinutes)%dayLength + dayLength) % dayLength
		remaining = duration - elapsed
		if remaining < 0 {
			remaining = 0
		}
	}

	inst := NewInstance(profile, pending.Location, duration, remaining, nil)
	inst.Start()

	a.Pending = nil
	a.PendingDestination = nil
	a.Current = inst
	a.CurrentStartMinutes = a.PendingStartMinutes
	a.PendingStartMinutes = -1
	a.State = StatePerformingTask
	a.ClearTarget()

	s.rooms.StartActivity(a.Name, inst)
	s.events.ActivityStart(schedule.FormatMinutes(currentMinutes), a.Name, inst.Label, inst.RoomID, inst.MetadataCopy())
}

// TickMinute advances the current activity by one simulated minute,
// completing it once its remaining time is exhausted.
func (s *ActivitySystem) TickMinute(a *Actor, currentMinutes int) {
	inst := a.Current
	if inst == nil {
		return
	}
	if inst.Remaining <= 0 {
		s.complete(a, currentMinutes)
		return
	}
	if inst.Tick(1) {
		s.rooms.UpdateActivity(a.Name, inst)
	}
	if inst.Remaining <= 0 {
		s.complete(a, currentMinutes)
	}
}

func (s *ActivitySystem) complete(a *Actor, currentMinutes int) {
	inst := a.Current
	inst.Complete()
	s.rooms.EndActivity(a.Name, inst)
	s.events.ActivityEnd(schedule.FormatMinutes(currentMinutes), a.Name, inst.Label, inst.RoomID, inst.MetadataCopy())
	a.ClearActivity()
}

// Interrupt aborts the current activity, recording the reason.
func (s *ActivitySystem) Interrupt(a *Actor, reason string, currentMinutes int) {
	inst := a.Current
	if inst == nil {
		return
	}
	inst.Interrupt(reason)
	s.rooms.EndActivity(a.Name, inst)
	s.events.ActivityInterrupt(schedule.FormatMinutes(currentMinutes), a.Name, inst.Label, inst.RoomID, map[string]any{"reason": reason})
	a.ClearActivity()
}
