package campus

import (
	"campussim/internal/grid"
	"campussim/internal/sim/catalogs"
	"campussim/internal/sim/schedule"
)

// State is an actor's movement/activity phase.
type State string

const (
	StateIdle           State = "idle"
	StateMoving         State = "moving"
	StatePerformingTask State = "performing_task"
)

// ScheduledActivity is one dispatchable entry of an actor's day, resolved
// from a plan block plus the activity catalog.
type ScheduledActivity struct {
	Name           string
	Duration       int
	Location       string
	Slot           string
	Notes          string
	ExpectedTravel *int
	TravelBuffer   int
	Profile        *catalogs.Profile
}

// ScheduleEntry pairs a wall-clock dispatch time with its activity.
type ScheduleEntry struct {
	Time     string
	Activity *ScheduledActivity
}

// Actor is one simulated person. All fields are owned by the schedule
// system that created the actor and mutated only from the simulation loop.
type Actor struct {
	Name string
	Role string

	X, Y  int
	State State

	// Target is the live movement goal; Path holds the tiles left to walk.
	Target *grid.Tile
	Path   []grid.Tile

	Schedule  []ScheduleEntry
	DailyPlan []*schedule.Block

	// Pending is the dispatched-but-not-started activity, if any.
	Pending             *ScheduledActivity
	PendingStartMinutes int
	PendingDestination  *grid.Tile

	// Current is the in-progress activity instance, if any.
	Current             *Instance
	CurrentStartMinutes int
}

func NewActor(name string, x, y int, role string, entries []ScheduleEntry) *Actor {
	return &Actor{
		Name:                name,
		Role:                role,
		X:                   x,
		Y:                   y,
		State:               StateIdle,
		Schedule:            entries,
		PendingStartMinutes: -1,
		CurrentStartMinutes: -1,
	}
}

// SetTarget replaces the movement goal and drops any stale path.
func (a *Actor) SetTarget(t grid.Tile) {
	tt := t
	a.Target = &tt
	a.Path = nil
}

func (a *Actor) ClearTarget() {
	a.Target = nil
	a.Path = nil
}

// AssignActivity marks an activity pending dispatch. The destination is
// resolved lazily by the simulation loop.
func (a *Actor) AssignActivity(activity *ScheduledActivity, startMinutes int) {
	a.Pending = activity
	a.PendingStartMinutes = startMinutes
	a.PendingDestination = nil
}

// ClearActivity drops the current activity and returns the actor to Idle.
func (a *Actor) ClearActivity() {
	a.Current = nil
	a.CurrentStartMinutes = -1
	a.PendingDestination = nil
	a.State = StateIdle
}

// ActivityRemaining reports the minutes left on the current activity.
func (a *Actor) ActivityRemaining() int {
	if a.Current == nil {
		return 0
	}
	return a.Current.Remaining
}

func (a *Actor) Position() grid.Tile { return grid.Tile{X: a.X, Y: a.Y} }
