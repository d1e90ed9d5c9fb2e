package campus

import (
	"fmt"
	"log"
	"math/rand"
	"os"

	"campussim/internal/config"
	"campussim/internal/eventlog"
	"campussim/internal/grid"
	"campussim/internal/notify"
	"campussim/internal/sim/catalogs"
	"campussim/internal/sim/schedule"
)

// Simulation is the authoritative campus state: one grid, one clock, and
// every actor, room, and alert. It is single-threaded; all mutation happens
// inside Tick, called from one goroutine.
type Simulation struct {
	log *log.Logger
	rng *rand.Rand

	Grid    *grid.Grid
	Clock   *Clock
	Catalog *catalogs.Catalog

	Rooms      *RoomManager
	Events     *eventlog.Logger
	Alerts     *notify.Bus
	Schedules  *ScheduleSystem
	Activities *ActivitySystem
	Movement   *MovementSystem

	messages *interactionMessages

	tickCount         int
	minuteAccumulator float64
}

// New loads every data file named by the settings and assembles the
// simulation.
func New(cfg config.Settings) (*Simulation, error) {
	g, err := grid.Load(cfg.Data.MapFile)
	if err != nil {
		return nil, fmt.Errorf("load map: %w", err)
	}
	catalog, err := catalogs.Load(cfg.Activities.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("load activity catalog: %w", err)
	}
	rng := rand.New(rand.NewSource(cfg.RandomSeed))
	roster, err := schedule.LoadRoster(cfg.Data.ScheduleFile, cfg.Time.DayLengthMinutes, rng)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	return NewWith(cfg, g, catalog, roster, rng), nil
}

// NewWith assembles a simulation from already-loaded parts. Tests build
// their fixtures in memory and enter here.
func NewWith(cfg config.Settings, g *grid.Grid, catalog *catalogs.Catalog, roster *schedule.Roster, rng *rand.Rand) *Simulation {
	if rng == nil {
		rng = rand.New(rand.NewSource(cfg.RandomSeed))
	}
	s := &Simulation{
		log:     log.New(os.Stdout, "[sim] ", log.LstdFlags|log.Lmicroseconds),
		rng:     rng,
		Grid:    g,
		Clock:   NewClock(cfg.Time.MinutesPerTick, roster.DayLength, cfg.Time.StartMinute),
		Catalog: catalog,
	}
	s.Rooms = NewRoomManager(g)
	s.Events = eventlog.NewLogger()
	s.Alerts = notify.NewBus(cfg.Notifications.AlertCooldownMinutes, nil)
	s.Movement = NewMovementSystem(g)
	s.Activities = NewActivitySystem(catalog, s.Rooms, s.Events)
	s.Schedules = NewScheduleSystem(g, roster, catalog, rng)
	s.messages = loadInteractionMessages(cfg.Interactions.MessagesFile)

	s.registerSpawns()
	s.primeInitialActivities()
	return s
}

// registerSpawns records each actor's starting room so occupancy is right
// before anyone moves.
func (s *Simulation) registerSpawns() {
	for _, a := range s.Schedules.Actors() {
		if room := s.Grid.RoomForPosition(a.X, a.Y); room != nil {
			s.Rooms.TrackEntry(a.Name, room.Name)
		}
	}
}

// primeInitialActivities dispatches the block already in progress at the
// start minute, so a simulation started mid-day does not idle until the
// next block boundary.
func (s *Simulation) primeInitialActivities() {
	now := s.Clock.CurrentMinutes()
	dayLength := s.Clock.DayLength
	for _, a := range s.Schedules.Actors() {
		for i, b := range a.DailyPlan {
			if b.DurationMinutes <= 0 || i >= len(a.Schedule) {
				continue
			}
			elapsed := ((now-b.StartTick)%dayLength + dayLength) % dayLength
			if elapsed < b.DurationMinutes {
				a.AssignActivity(a.Schedule[i].Activity, b.StartTick)
				break
			}
		}
	}
	s.handlePending()
}

func (s *Simulation) Actors() []*Actor         { return s.Schedules.Actors() }
func (s *Simulation) Actor(name string) *Actor { return s.Schedules.Actor(name) }
func (s *Simulation) TickCount() int           { return s.tickCount }

// Tick advances the simulation by one step: dispatch due schedule entries,
// route pending activities, move actors, burn activity minutes, advance the
// clock, then evaluate alerts against the new time.
func (s *Simulation) Tick() {
	s.Schedules.Update(s.Clock.TimeString())
	s.handlePending()
	s.moveActors()

	s.minuteAccumulator += s.Clock.MinutesPerTick
	for s.minuteAccumulator >= 1 {
		s.minuteAccumulator--
		now := s.Clock.CurrentMinutes()
		for _, a := range s.Schedules.Actors() {
			s.Activities.TickMinute(a, now)
		}
	}

	s.Clock.Tick()
	s.tickCount++
	s.evaluateAlerts()
}

// Advance runs n ticks.
func (s *Simulation) Advance(n int) {
	for i := 0; i < n; i++ {
		s.Tick()
	}
}

// handlePending resolves destinations for freshly dispatched activities.
// An activity without a location, or one whose room is where the actor
// already stands, begins immediately; everything else starts travel.
func (s *Simulation) handlePending() {
	now := s.Clock.CurrentMinutes()
	dayLength := s.Clock.DayLength
	for _, a := range s.Schedules.Actors() {
		if a.Pending == nil || a.PendingDestination != nil {
			continue
		}
		if a.Current != nil {
			s.Activities.Interrupt(a, "superseded by "+a.Pending.Name, now)
		}
		loc := a.Pending.Location
		if loc == "" {
			s.Activities.StartIfReady(a, now, dayLength)
			continue
		}
		dest, ok := s.SelectDestination(loc)
		if !ok {
			s.log.Printf("no destination for room %q, starting %s in place for %s", loc, a.Pending.Name, a.Name)
			s.Activities.OnArrival(a, now, dayLength)
			continue
		}
		if dest == a.Position() || s.inRoom(a, loc) {
			s.Activities.OnArrival(a, now, dayLength)
			continue
		}
		d := dest
		a.PendingDestination = &d
		a.SetTarget(dest)
		a.State = StateMoving
	}
}

func (s *Simulation) inRoom(a *Actor, roomName string) bool {
	room := s.Grid.RoomForPosition(a.X, a.Y)
	return room != nil && room.Name == roomName
}

// SelectDestination picks a concrete tile inside a room: a walkable
// interior tile near a door when one exists, then a walkable door, then
// any door, then a random tile of the room.
func (s *Simulation) SelectDestination(roomName string) (grid.Tile, bool) {
	if targets := s.Grid.RoomInteriorTargets(roomName); len(targets) > 0 {
		return targets[s.rng.Intn(len(targets))], true
	}
	doors := s.Grid.RoomEntryPoints(roomName)
	var walkable []grid.Tile
	for _, d := range doors {
		if s.Grid.Walkable(d.X, d.Y) {
			walkable = append(walkable, d)
		}
	}
	if len(walkable) > 0 {
		return walkable[s.rng.Intn(len(walkable))], true
	}
	if len(doors) > 0 {
		return doors[s.rng.Intn(len(doors))], true
	}
	if t, err := s.Grid.RandomRoomTile(roomName, s.rng); err == nil {
		return t, true
	}
	return grid.Tile{}, false
}

// moveActors plans and steps every traveling actor, keeping room occupancy
// in sync and beginning activities on arrival.
func (s *Simulation) moveActors() {
	occupied := make(map[grid.Tile]bool, len(s.Schedules.Actors()))
	for _, a := range s.Schedules.Actors() {
		occupied[a.Position()] = true
	}
	now := s.Clock.CurrentMinutes()
	dayLength := s.Clock.DayLength

	for _, a := range s.Schedules.Actors() {
		if a.Target == nil {
			continue
		}
		s.Movement.PlanIfNeeded(a, nil)
		if len(a.Path) == 0 && a.Position() != *a.Target {
			// Unreachable target. Begin in place rather than stall forever.
			s.log.Printf("%s cannot reach %v, starting activity in place", a.Name, *a.Target)
			a.ClearTarget()
			s.Activities.OnArrival(a, now, dayLength)
			continue
		}

		before := s.Grid.RoomForPosition(a.X, a.Y)
		delete(occupied, a.Position())
		arrived := s.Movement.Step(a, occupied, 1)
		occupied[a.Position()] = true
		after := s.Grid.RoomForPosition(a.X, a.Y)

		if before != after {
			if before != nil {
				s.Rooms.TrackExit(a.Name, before.Name)
			}
			if after != nil {
				s.Rooms.TrackEntry(a.Name, after.Name)
			}
		}
		if arrived {
			a.ClearTarget()
			if a.Pending != nil {
				s.Activities.OnArrival(a, now, dayLength)
			} else {
				a.State = StateIdle
			}
		}
	}
}

// InteractWith returns the flavor line an observer would get from an actor
// right now.
func (s *Simulation) InteractWith(a *Actor) string {
	ctx := interactionContext{
		Name: a.Name,
		Role: a.Role,
		Time: s.Clock.TimeString(),
	}
	var key string
	if a.Current != nil {
		key = a.Current.InteractionKey
		ctx.Activity = a.Current.Label
		ctx.Room = a.Current.RoomID
	} else if room := s.Grid.RoomForPosition(a.X, a.Y); room != nil {
		ctx.Room = room.Name
	}
	return s.messages.format(s.messages.lookup(key, a.Role, ctx.Room), ctx)
}
