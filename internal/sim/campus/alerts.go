package campus

import (
	"fmt"
	"strings"

	"campussim/internal/notify"
	"campussim/internal/sim/catalogs"
)

// Alert categories published by the simulation loop.
const (
	AlertOvercapacity    = "overcapacity"
	AlertMissedClass     = "missed_class"
	AlertCurfewViolation = "curfew_violation"
)

const (
	curfewStartMinute = 22 * 60
	curfewEndMinute   = 6 * 60
	// missedClassGraceMinutes is added to the block's travel buffer before
	// an absence counts as missing class.
	missedClassGraceMinutes = 10
)

func (s *Simulation) evaluateAlerts() {
	now := s.Clock.CurrentMinutes()
	s.evaluateCapacity(now)
	s.evaluateMissedClass(now)
	s.evaluateCurfew(now)
}

func (s *Simulation) evaluateCapacity(now int) {
	for _, name := range s.Grid.RoomNames() {
		room, _ := s.Grid.Room(name)
		if room == nil || room.Capacity <= 0 {
			continue
		}
		count := s.Rooms.OccupantCount(name)
		if count <= room.Capacity {
			continue
		}
		snap := s.Rooms.Snapshot(name)
		s.Alerts.Publish(AlertOvercapacity, notify.Publication{
			MinuteStamp: now,
			Severity:    "warning",
			Message:     fmt.Sprintf("%s holds %d occupants over a capacity of %d", name, count, room.Capacity),
			RoomID:      name,
			ActorIDs:    snap.Occupants,
			Metadata:    map[string]any{"occupancy": count, "capacity": room.Capacity},
		})
	}
}

// evaluateMissedClass flags actors who were dispatched to a class block but
// still have not started it once the travel buffer plus grace has passed.
func (s *Simulation) evaluateMissedClass(now int) {
	dayLength := s.Clock.DayLength
	for _, a := range s.Schedules.Actors() {
		if a.Pending == nil || a.PendingStartMinutes < 0 {
			continue
		}
		profile := a.Pending.Profile
		if profile == nil {
			profile = s.Catalog.Resolve(a.Pending.Name)
		}
		if profile == nil {
			continue
		}
		if profile.Canonical != catalogs.KindStudying && profile.Canonical != catalogs.KindTeaching {
			continue
		}
		grace := missedClassGraceMinutes + a.Pending.TravelBuffer
		elapsed := ((now-a.PendingStartMinutes)%dayLength + dayLength) % dayLength
		if elapsed <= grace {
			continue
		}
		s.Alerts.Publish(AlertMissedClass, notify.Publication{
			MinuteStamp: now,
			Severity:    "warning",
			Message:     fmt.Sprintf("%s is %d minutes late for %s in %s", a.Name, elapsed, a.Pending.Name, a.Pending.Location),
			RoomID:      a.Pending.Location,
			ActorIDs:    []string{a.Name},
			Metadata:    map[string]any{"minutes_late": elapsed, "activity": a.Pending.Name},
		})
	}
}

// evaluateCurfew flags students out of their dormitories during curfew
// hours who are neither sleeping nor headed to a dormitory.
func (s *Simulation) evaluateCurfew(now int) {
	if now < curfewStartMinute && now >= curfewEndMinute {
		return
	}
	for _, a := range s.Schedules.Actors() {
		if a.Role != "student" {
			continue
		}
		if s.curfewCompliant(a) {
			continue
		}
		s.Alerts.Publish(AlertCurfewViolation, notify.Publication{
			MinuteStamp: now,
			Severity:    "critical",
			Message:     fmt.Sprintf("%s is out past curfew", a.Name),
			ActorIDs:    []string{a.Name},
		})
	}
}

func (s *Simulation) curfewCompliant(a *Actor) bool {
	if room := s.Grid.RoomForPosition(a.X, a.Y); room != nil && room.Type == "dormitory" {
		return true
	}
	if a.Current != nil && isSleepActivity(a.Current.Name, a.Current.Label) {
		return true
	}
	// Traveling toward a dormitory is not a violation.
	if a.Pending != nil && a.Pending.Location != "" {
		if room, ok := s.Grid.Room(a.Pending.Location); ok && room.Type == "dormitory" {
			return true
		}
	}
	return false
}

func isSleepActivity(name, label string) bool {
	n := strings.ToLower(name)
	l := strings.ToLower(label)
	return strings.Contains(n, "sleep") || strings.Contains(l, "sleep") || l == "lights out"
}
