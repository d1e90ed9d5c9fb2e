package campus

import "campussim/internal/notify"

// ActorView is one actor's state in an observer snapshot.
type ActorView struct {
	Name     string `json:"name"`
	Role     string `json:"role"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	State    string `json:"state"`
	Activity string `json:"activity,omitempty"`
	Room     string `json:"room,omitempty"`
}

// WorldSnapshot is the wire view of the whole simulation at one tick.
type WorldSnapshot struct {
	Tick   int                     `json:"tick"`
	Time   string                  `json:"time"`
	Actors []ActorView             `json:"actors"`
	Rooms  map[string]RoomSnapshot `json:"rooms"`
	Alerts []*notify.Alert         `json:"alerts"`
}

// Snapshot captures the full observable state. Actors come out in roster
// order, rooms keyed by name.
func (s *Simulation) Snapshot() WorldSnapshot {
	snap := WorldSnapshot{
		Tick:  s.tickCount,
		Time:  s.Clock.TimeString(),
		Rooms: s.Rooms.Snapshots(),
	}
	for _, a := range s.Schedules.Actors() {
		view := ActorView{
			Name:  a.Name,
			Role:  a.Role,
			X:     a.X,
			Y:     a.Y,
			State: string(a.State),
		}
		if a.Current != nil {
			view.Activity = a.Current.Label
			view.Room = a.Current.RoomID
		} else if room := s.Grid.RoomForPosition(a.X, a.Y); room != nil {
			view.Room = room.Name
		}
		snap.Actors = append(snap.Actors, view)
	}
	snap.Alerts = s.Alerts.ActiveAlerts()
	return snap
}
