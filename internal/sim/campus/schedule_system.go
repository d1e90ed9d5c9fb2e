package campus

import (
	"fmt"
	"math/rand"

	"campussim/internal/grid"
	"campussim/internal/sim/catalogs"
	"campussim/internal/sim/schedule"
)

// OverrideBlock is one replacement block of a principal schedule override.
// Only Activity is required; unset fields fall back to the activity
// definition table.
type OverrideBlock struct {
	Activity     string
	Start        string
	Duration     string
	Room         string
	TravelBuffer string
	Notes        string
}

// ScheduleSystem owns the daily plans and the actors they drive. It
// instantiates the roster, annotates travel, staggers capacity conflicts,
// places actors at spawn points, and dispatches schedule entries as the
// clock reaches them.
type ScheduleSystem struct {
	grid    *grid.Grid
	catalog *catalogs.Catalog
	rng     *rand.Rand

	roster    *schedule.Roster
	dayLength int
	plans     map[string][]*schedule.Block
	actors    []*Actor
	byName    map[string]*Actor

	detected []schedule.ConflictRecord
	applied  []schedule.ConflictRecord

	spawnCursor map[string]int
}

func NewScheduleSystem(g *grid.Grid, roster *schedule.Roster, catalog *catalogs.Catalog, rng *rand.Rand) *ScheduleSystem {
	s := &ScheduleSystem{
		grid:        g,
		catalog:     catalog,
		rng:         rng,
		roster:      roster,
		dayLength:   roster.DayLength,
		plans:       roster.Plans,
		byName:      make(map[string]*Actor),
		spawnCursor: make(map[string]int),
	}
	s.finalizePlans()
	s.buildActors()
	return s
}

// finalizePlans runs the plan pipeline: travel annotation with buffer
// raising, conflict detection, staggering, and a final annotation pass so
// shifted blocks carry fresh travel estimates.
func (s *ScheduleSystem) finalizePlans() {
	estimator := schedule.NewEstimator(s.grid)
	estimator.Annotate(s.plans, true)

	all := s.allBlocks()
	s.detected = schedule.DetectRoomCapacityConflicts(all, s.grid.Rooms())
	s.applied = schedule.ResolveWithStaggering(all, s.grid.Rooms(), schedule.DefaultStaggerIncrement)

	estimator.Annotate(s.plans, false)
	for _, blocks := range s.plans {
		schedule.SortBlocks(blocks)
	}
}

func (s *ScheduleSystem) allBlocks() []*schedule.Block {
	var all []*schedule.Block
	for _, actorID := range s.roster.ActorOrder {
		all = append(all, s.plans[actorID]...)
	}
	return all
}

func (s *ScheduleSystem) buildActors() {
	for _, actorID := range s.roster.ActorOrder {
		role := s.roster.Roles[actorID]
		spawn := s.spawnPoint(role)
		a := NewActor(actorID, spawn.X, spawn.Y, role, s.buildEntries(s.plans[actorID]))
		a.DailyPlan = s.plans[actorID]
		s.actors = append(s.actors, a)
		s.byName[actorID] = a
	}
}

// spawnPoint cycles through the role's spawn points so co-located actors
// do not all start on the same tile.
func (s *ScheduleSystem) spawnPoint(role string) grid.Tile {
	points := s.grid.SpawnPoints(role)
	if len(points) == 0 {
		points = s.grid.SpawnPoints("")
	}
	if len(points) > 0 {
		idx := s.spawnCursor[role] % len(points)
		s.spawnCursor[role]++
		return points[idx]
	}
	for y := 0; ; y++ {
		for x := 0; s.grid.InBounds(x, y); x++ {
			if s.grid.Walkable(x, y) {
				return grid.Tile{X: x, Y: y}
			}
		}
		if !s.grid.InBounds(0, y) {
			return grid.Tile{}
		}
	}
}

func (s *ScheduleSystem) buildEntries(blocks []*schedule.Block) []ScheduleEntry {
	entries := make([]ScheduleEntry, 0, len(blocks))
	for _, b := range blocks {
		entries = append(entries, ScheduleEntry{
			Time:     schedule.FormatMinutes(b.StartTick),
			Activity: s.scheduledActivity(b),
		})
	}
	return entries
}

func (s *ScheduleSystem) scheduledActivity(b *schedule.Block) *ScheduledActivity {
	duration := b.DurationMinutes
	location := b.RoomID
	notes := b.Notes
	if def := s.roster.Definitions[b.ActivityID]; def != nil {
		if duration <= 0 {
			duration = def.Duration
		}
		if location == "" {
			location = def.Location
		}
		if notes == "" {
			notes = def.Notes
		}
	}
	return &ScheduledActivity{
		Name:           b.ActivityID,
		Duration:       duration,
		Location:       location,
		Slot:           b.Slot,
		Notes:          notes,
		ExpectedTravel: b.ExpectedTravel,
		TravelBuffer:   b.TravelBuffer,
		Profile:        s.catalog.Resolve(b.ActivityID),
	}
}

func (s *ScheduleSystem) Actors() []*Actor           { return s.actors }
func (s *ScheduleSystem) Actor(name string) *Actor   { return s.byName[name] }
func (s *ScheduleSystem) DayLength() int             { return s.dayLength }
func (s *ScheduleSystem) Roster() *schedule.Roster   { return s.roster }
func (s *ScheduleSystem) Plans() map[string][]*schedule.Block { return s.plans }

// DetectedConflicts reports the capacity conflicts found before staggering.
func (s *ScheduleSystem) DetectedConflicts() []schedule.ConflictRecord { return s.detected }

// AppliedAdjustments reports the stagger shifts made to resolve conflicts.
func (s *ScheduleSystem) AppliedAdjustments() []schedule.ConflictRecord { return s.applied }

// Update dispatches every schedule entry whose time matches the clock.
// Actors with work already pending keep it; re-dispatching the activity an
// actor is currently performing is skipped.
func (s *ScheduleSystem) Update(hhmm string) {
	minutes, err := schedule.ParseHHMM(hhmm)
	if err != nil {
		return
	}
	for _, a := range s.actors {
		for _, entry := range a.Schedule {
			if entry.Time != hhmm {
				continue
			}
			if a.Pending != nil {
				continue
			}
			if a.Current != nil && a.Current.Name == entry.Activity.Name {
				continue
			}
			a.AssignActivity(entry.Activity, minutes)
			break
		}
	}
}

// OverridePlan replaces an actor's remaining plan with the given blocks.
// Validation is all-or-nothing: a bad block leaves the plan untouched.
func (s *ScheduleSystem) OverridePlan(actorID string, overrides []OverrideBlock, source string) ([]*schedule.Block, error) {
	a := s.byName[actorID]
	if a == nil {
		return nil, fmt.Errorf("unknown actor %q", actorID)
	}
	if len(overrides) == 0 {
		return nil, fmt.Errorf("override for %q carries no blocks", actorID)
	}

	blocks := make([]*schedule.Block, 0, len(overrides))
	for i, ob := range overrides {
		if ob.Activity == "" {
			return nil, fmt.Errorf("override block %d for %q requires an activity", i, actorID)
		}
		start := 0
		if ob.Start != "" {
			v, err := schedule.ParseHHMM(ob.Start)
			if err != nil {
				return nil, fmt.Errorf("override block %d for %q: %w", i, actorID, err)
			}
			start = v
		}
		duration, err := schedule.ParseDuration(ob.Duration)
		if err != nil {
			return nil, fmt.Errorf("override block %d for %q: %w", i, actorID, err)
		}
		buffer, err := schedule.ParseDuration(ob.TravelBuffer)
		if err != nil {
			return nil, fmt.Errorf("override block %d for %q: %w", i, actorID, err)
		}
		room := ob.Room
		if def := s.roster.Definitions[ob.Activity]; def != nil {
			if duration <= 0 {
				duration = def.Duration
			}
			if room == "" {
				room = def.Location
			}
		}
		b := &schedule.Block{
			ActorID:         actorID,
			Slot:            fmt.Sprintf("%s_block_%d", source, i),
			ActivityID:      ob.Activity,
			RoomID:          room,
			StartTick:       start % s.dayLength,
			DurationMinutes: duration,
			DayLength:       s.dayLength,
			Notes:           ob.Notes,
			TravelBuffer:    buffer,
		}
		blocks = append(blocks, b)
	}

	s.plans[actorID] = blocks
	s.finalizePlans()
	a.DailyPlan = s.plans[actorID]
	a.Schedule = s.buildEntries(s.plans[actorID])
	return s.plans[actorID], nil
}

// ExportCSVFile writes the finalized plans in the auditing CSV layout.
func (s *ScheduleSystem) ExportCSVFile(path string) error {
	return schedule.ExportCSVFile(path, s.plans, s.roster.Definitions)
}
