package schedule

import (
	"sort"
	"strconv"
	"strings"

	"campussim/internal/grid"
)

// ConflictRecord describes either a detected room overcapacity instant or,
// when ShiftMinutes is non-zero, a staggering adjustment that was applied.
type ConflictRecord struct {
	Room      string
	StartTick int
	EndTick   int
	Capacity  int
	Actors    []string
	// ShiftMinutes records the stagger applied for resolution records.
	ShiftMinutes int
}

// DefaultStaggerIncrement is the stagger shift in minutes.
const DefaultStaggerIncrement = 5

// DetectRoomCapacityConflicts sweeps start/end events per capacity-limited
// room and reports each instant at which occupancy exceeds capacity. A block
// is active from its start inclusive to its end exclusive. Identical
// (room, instant, actor set) overflows are reported once.
func DetectRoomCapacityConflicts(blocks []*Block, rooms map[string]*grid.Room) []ConflictRecord {
	var conflicts []ConflictRecord
	seen := make(map[string]bool)

	for _, roomName := range sortedRoomNames(rooms) {
		room := rooms[roomName]
		if room.Capacity <= 0 {
			continue
		}
		var roomBlocks []*Block
		for _, block := range blocks {
			if block.RoomID == roomName && block.DurationMinutes > 0 {
				roomBlocks = append(roomBlocks, block)
			}
		}
		if len(roomBlocks) == 0 {
			continue
		}

		type event struct {
			time  int
			delta int
			block *Block
		}
		events := make([]event, 0, len(roomBlocks)*2)
		for _, block := range roomBlocks {
			start, end := block.AbsoluteInterval()
			events = append(events, event{time: start, delta: 1, block: block})
			events = append(events, event{time: end, delta: -1, block: block})
		}
		// Ends sort before starts at equal timestamps, so back-to-back
		// blocks do not overlap.
		sort.SliceStable(events, func(i, j int) bool {
			if events[i].time != events[j].time {
				return events[i].time < events[j].time
			}
			return events[i].delta < events[j].delta
		})

		var active []*Block
		for _, ev := range events {
			if ev.delta == 1 {
				active = append(active, ev.block)
				if len(active) <= room.Capacity {
					continue
				}
				actors := activeActorSet(active)
				key := roomName + "|" + strconv.Itoa(ev.time) + "|" + strings.Join(actors, ",")
				if seen[key] {
					continue
				}
				seen[key] = true
				conflicts = append(conflicts, ConflictRecord{
					Room:      roomName,
					StartTick: wrap(ev.time, ev.block.DayLength),
					EndTick:   wrap(ev.time, ev.block.DayLength),
					Capacity:  room.Capacity,
					Actors:    actors,
				})
			} else {
				for i, b := range active {
					if b == ev.block {
						active = append(active[:i], active[i+1:]...)
						break
					}
				}
			}
		}
	}
	return conflicts
}

// ResolveWithStaggering repeatedly detects conflicts and, for the first
// conflict found, shifts the latest offending block forward by the given
// increment. The block chosen is the one with the greatest (start tick,
// actor id). Iteration stops when no conflicts remain or after 12 passes
// per block; leftover conflicts are left in place rather than reported as
// an error.
func ResolveWithStaggering(blocks []*Block, rooms map[string]*grid.Room, incrementMinutes int) []ConflictRecord {
	if incrementMinutes < 1 {
		incrementMinutes = 1
	}
	var adjustments []ConflictRecord
	maxIterations := len(blocks) * 12
	for iteration := 0; iteration < maxIterations; iteration++ {
		conflicts := DetectRoomCapacityConflicts(blocks, rooms)
		if len(conflicts) == 0 {
			break
		}
		conflict := conflicts[0]
		offenders := make(map[string]bool, len(conflict.Actors))
		for _, id := range conflict.Actors {
			offenders[id] = true
		}
		var target *Block
		for _, block := range blocks {
			if block.RoomID != conflict.Room || !offenders[block.ActorID] {
				continue
			}
			if target == nil || block.StartTick > target.StartTick ||
				(block.StartTick == target.StartTick && block.ActorID > target.ActorID) {
				target = block
			}
		}
		if target == nil {
			break
		}
		originalStart := target.StartTick
		target.ShiftBy(incrementMinutes)
		adjustments = append(adjustments, ConflictRecord{
			Room:         conflict.Room,
			StartTick:    originalStart,
			EndTick:      target.StartTick,
			Capacity:     conflict.Capacity,
			Actors:       conflict.Actors,
			ShiftMinutes: incrementMinutes,
		})
	}
	return adjustments
}

func activeActorSet(active []*Block) []string {
	set := make(map[string]bool, len(active))
	for _, block := range active {
		set[block.ActorID] = true
	}
	actors := make([]string, 0, len(set))
	for id := range set {
		actors = append(actors, id)
	}
	sort.Strings(actors)
	return actors
}

func sortedRoomNames(rooms map[string]*grid.Room) []string {
	names := make([]string, 0, len(rooms))
	for name := range rooms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

