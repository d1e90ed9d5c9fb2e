package campus

import (
	"sort"

	"campussim/internal/grid"
)

// ActivityView is the read-only projection of one occupant's activity that
// room snapshots expose.
type ActivityView struct {
	Label    string         `json:"label"`
	Status   string         `json:"status"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// RoomSnapshot captures a room's occupants and their activities at one
// instant. Occupants are sorted for stable output.
type RoomSnapshot struct {
	RoomID     string                  `json:"room_id"`
	Occupants  []string                `json:"occupants"`
	Activities map[string]ActivityView `json:"activities,omitempty"`
}

// RoomListener observes snapshot changes for one room.
type RoomListener func(RoomSnapshot)

type roomSub struct {
	token int
	fn    RoomListener
}

// RoomManager tracks which actors are in which room and what they are
// doing there. Subscribers are notified after every mutation.
type RoomManager struct {
	grid       *grid.Grid
	occupants  map[string]map[string]bool
	activities map[string]map[string]*Instance
	subs       map[string][]roomSub
	nextToken  int
}

func NewRoomManager(g *grid.Grid) *RoomManager {
	return &RoomManager{
		grid:       g,
		occupants:  make(map[string]map[string]bool),
		activities: make(map[string]map[string]*Instance),
		subs:       make(map[string][]roomSub),
	}
}

// Subscribe registers a listener for one room and returns a token for
// Unsubscribe.
func (rm *RoomManager) Subscribe(roomID string, fn RoomListener) int {
	rm.nextToken++
	rm.subs[roomID] = append(rm.subs[roomID], roomSub{token: rm.nextToken, fn: fn})
	return rm.nextToken
}

func (rm *RoomManager) Unsubscribe(roomID string, token int) {
	subs := rm.subs[roomID]
	for i, s := range subs {
		if s.token == token {
			rm.subs[roomID] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// TrackEntry records an actor entering a room.
func (rm *RoomManager) TrackEntry(actor, roomID string) {
	if roomID == "" {
		return
	}
	set := rm.occupants[roomID]
	if set == nil {
		set = make(map[string]bool)
		rm.occupants[roomID] = set
	}
	if set[actor] {
		return
	}
	set[actor] = true
	rm.notify(roomID)
}

// TrackExit records an actor leaving a room, dropping any activity record.
func (rm *RoomManager) TrackExit(actor, roomID string) {
	if roomID == "" {
		return
	}
	changed := false
	if set, ok := rm.occupants[roomID]; ok && set[actor] {
		delete(set, actor)
		changed = true
	}
	if acts, ok := rm.activities[roomID]; ok {
		if _, here := acts[actor]; here {
			delete(acts, actor)
			changed = true
		}
	}
	if changed {
		rm.notify(roomID)
	}
}

// StartActivity records an occupant's active instance in its room.
func (rm *RoomManager) StartActivity(actor string, inst *Instance) {
	if inst == nil || inst.RoomID == "" {
		return
	}
	rm.TrackEntry(actor, inst.RoomID)
	acts := rm.activities[inst.RoomID]
	if acts == nil {
		acts = make(map[string]*Instance)
		rm.activities[inst.RoomID] = acts
	}
	acts[actor] = inst
	rm.notify(inst.RoomID)
}

// UpdateActivity re-publishes a room after an instance's metadata changed.
func (rm *RoomManager) UpdateActivity(actor string, inst *Instance) {
	if inst == nil || inst.RoomID == "" {
		return
	}
	if acts, ok := rm.activities[inst.RoomID]; ok {
		if _, here := acts[actor]; here {
			rm.notify(inst.RoomID)
		}
	}
}

// EndActivity clears an occupant's activity record without removing them
// from the room.
func (rm *RoomManager) EndActivity(actor string, inst *Instance) {
	if inst == nil || inst.RoomID == "" {
		return
	}
	if acts, ok := rm.activities[inst.RoomID]; ok {
		if _, here := acts[actor]; here {
			delete(acts, actor)
			rm.notify(inst.RoomID)
		}
	}
}

// OccupantCount reports how many actors are currently tracked in a room.
func (rm *RoomManager) OccupantCount(roomID string) int {
	return len(rm.occupants[roomID])
}

// Snapshot builds the current view of one room.
func (rm *RoomManager) Snapshot(roomID string) RoomSnapshot {
	snap := RoomSnapshot{RoomID: roomID, Occupants: []string{}}
	for actor := range rm.occupants[roomID] {
		snap.Occupants = append(snap.Occupants, actor)
	}
	sort.Strings(snap.Occupants)
	if acts := rm.activities[roomID]; len(acts) > 0 {
		snap.Activities = make(map[string]ActivityView, len(acts))
		for actor, inst := range acts {
			snap.Activities[actor] = ActivityView{
				Label:    inst.Label,
				Status:   string(inst.Status),
				Metadata: inst.MetadataCopy(),
			}
		}
	}
	return snap
}

// Snapshots returns every known room's snapshot keyed by room name,
// covering all configured rooms even when empty.
func (rm *RoomManager) Snapshots() map[string]RoomSnapshot {
	out := make(map[string]RoomSnapshot)
	if rm.grid != nil {
		for _, name := range rm.grid.RoomNames() {
			out[name] = rm.Snapshot(name)
		}
	}
	for roomID := range rm.occupants {
		if _, ok := out[roomID]; !ok {
			out[roomID] = rm.Snapshot(roomID)
		}
	}
	return out
}

func (rm *RoomManager) notify(roomID string) {
	subs := rm.subs[roomID]
	if len(subs) == 0 {
		return
	}
	snap := rm.Snapshot(roomID)
	for _, s := range subs {
		s.fn(snap)
	}
}
