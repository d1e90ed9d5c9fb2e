package schedule

import (
	"sort"

	"campussim/internal/grid"
)

// Block is one time-boxed activity slot in an actor's daily plan.
//
// Start and duration are minutes; all start arithmetic wraps modulo
// DayLength. ExpectedTravel is nil until the travel estimator has found a
// path, and stays nil when no path exists.
type Block struct {
	ActorID         string
	Slot            string
	ActivityID      string
	RoomID          string
	StartTick       int
	DurationMinutes int
	DayLength       int
	Notes           string
	TravelBuffer    int
	ExpectedTravel  *int
	TravelPath      []grid.Tile
	StaggerApplied  int
}

// CloneForActor copies the template slot for a concrete actor. Travel
// annotations are not copied; they are recomputed per plan.
func (b *Block) CloneForActor(actorID string) *Block {
	return &Block{
		ActorID:         actorID,
		Slot:            b.Slot,
		ActivityID:      b.ActivityID,
		RoomID:          b.RoomID,
		StartTick:       b.StartTick,
		DurationMinutes: b.DurationMinutes,
		DayLength:       b.DayLength,
		Notes:           b.Notes,
		TravelBuffer:    b.TravelBuffer,
	}
}

// EndTick is the wrapped end minute. A zero-duration block ends when it
// starts.
func (b *Block) EndTick() int {
	return (b.StartTick + b.DurationMinutes) % b.DayLength
}

// AbsoluteInterval returns the unwrapped [start, end) pair for sweep-based
// conflict detection. Blocks that cross midnight extend past DayLength.
func (b *Block) AbsoluteInterval() (int, int) {
	start := b.StartTick
	end := b.StartTick + b.DurationMinutes
	if b.DurationMinutes <= 0 {
		end = start
	} else if end <= start {
		end += b.DayLength
	}
	return start, end
}

// SetStart replaces the start minute, clearing any accumulated stagger.
func (b *Block) SetStart(minutes int) {
	b.StartTick = wrap(minutes, b.DayLength)
	b.StaggerApplied = 0
}

func (b *Block) SetDuration(minutes int) {
	if minutes < 0 {
		minutes = 0
	}
	b.DurationMinutes = minutes
}

func (b *Block) SetTravelBuffer(minutes int) {
	if minutes < 0 {
		minutes = 0
	}
	b.TravelBuffer = minutes
}

// ShiftBy moves the start forward, accumulating the applied stagger.
func (b *Block) ShiftBy(minutes int) {
	if minutes == 0 {
		return
	}
	b.StartTick = wrap(b.StartTick+minutes, b.DayLength)
	b.StaggerApplied += minutes
}

func wrap(minutes, dayLength int) int {
	m := minutes % dayLength
	if m < 0 {
		m += dayLength
	}
	return m
}

// SortBlocks orders blocks ascending by start tick, keeping template order
// for equal starts.
func SortBlocks(blocks []*Block) {
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].StartTick < blocks[j].StartTick
	})
}
