package campus

import (
	"fmt"

	"campussim/internal/sim/schedule"
)

// OverrideRecord is one audited principal intervention.
type OverrideRecord struct {
	ActorID   string            `json:"actor_id"`
	Action    string            `json:"action"`
	Reason    string            `json:"reason,omitempty"`
	Timestamp string            `json:"timestamp"`
	Blocks    []*schedule.Block `json:"-"`
}

// PrincipalControls is the administrative surface over a running
// simulation: schedule overrides, summons, alert resolution, and
// broadcasts. Every action lands in the event log and the override
// history.
type PrincipalControls struct {
	sim     *Simulation
	history []OverrideRecord
}

func NewPrincipalControls(sim *Simulation) *PrincipalControls {
	return &PrincipalControls{sim: sim}
}

// OverrideSchedule replaces an actor's plan with the given blocks,
// re-running travel annotation and conflict staggering over all plans.
func (p *PrincipalControls) OverrideSchedule(actorID string, blocks []OverrideBlock, reason string) ([]*schedule.Block, error) {
	plan, err := p.sim.Schedules.OverridePlan(actorID, blocks, "principal")
	if err != nil {
		return nil, err
	}
	now := p.sim.Clock.TimeString()
	p.record(OverrideRecord{ActorID: actorID, Action: "override_schedule", Reason: reason, Timestamp: now, Blocks: plan})
	p.sim.Events.PrincipalAction(now, "override_schedule", actorID, map[string]any{
		"reason": reason,
		"blocks": len(plan),
	})
	return plan, nil
}

// SummonActor interrupts whatever the actor is doing and sends them to a
// room for a disciplinary meeting of the given length.
func (p *PrincipalControls) SummonActor(actorID, roomID string, durationMinutes int) (*ScheduledActivity, error) {
	a := p.sim.Actor(actorID)
	if a == nil {
		return nil, fmt.Errorf("unknown actor %q", actorID)
	}
	if _, ok := p.sim.Grid.Room(roomID); !ok {
		return nil, fmt.Errorf("unknown room %q", roomID)
	}
	profile := p.sim.Catalog.Resolve("prefect_rounds")
	if profile == nil {
		profile = p.sim.Catalog.Resolve("Discipline")
	}
	if profile == nil {
		profile = p.sim.Catalog.Resolve("Idle")
	}
	if durationMinutes <= 0 {
		durationMinutes = 15
	}
	name := "summons"
	if profile != nil {
		name = profile.ActivityID
	}
	activity := &ScheduledActivity{
		Name:     name,
		Duration: durationMinutes,
		Location: roomID,
		Slot:     "principal_summons",
		Profile:  profile,
	}

	now := p.sim.Clock.CurrentMinutes()
	if a.Current != nil {
		p.sim.Activities.Interrupt(a, "summoned by principal", now)
	}
	a.AssignActivity(activity, now)
	p.sim.handlePending()

	ts := p.sim.Clock.TimeString()
	p.record(OverrideRecord{ActorID: actorID, Action: "summon", Timestamp: ts})
	p.sim.Events.PrincipalAction(ts, "summon", actorID, map[string]any{
		"room":             roomID,
		"duration_minutes": durationMinutes,
	})
	return activity, nil
}

// ResolveAlert acknowledges an alert on the bus.
func (p *PrincipalControls) ResolveAlert(alertID string) error {
	now := p.sim.Clock.CurrentMinutes()
	alert, err := p.sim.Alerts.Acknowledge(alertID, now)
	if err != nil {
		return err
	}
	ts := p.sim.Clock.TimeString()
	p.record(OverrideRecord{ActorID: "", Action: "resolve_alert", Reason: alert.Category, Timestamp: ts})
	p.sim.Events.PrincipalAction(ts, "resolve_alert", alertID, map[string]any{
		"category": alert.Category,
	})
	return nil
}

// Broadcast records a campus-wide announcement.
func (p *PrincipalControls) Broadcast(message string) {
	ts := p.sim.Clock.TimeString()
	p.record(OverrideRecord{Action: "broadcast", Reason: message, Timestamp: ts})
	p.sim.Events.PrincipalAction(ts, "broadcast", "", map[string]any{
		"message": message,
	})
}

// RecentOverrides returns up to limit interventions, newest first.
func (p *PrincipalControls) RecentOverrides(limit int) []OverrideRecord {
	if limit <= 0 || limit > len(p.history) {
		limit = len(p.history)
	}
	out := make([]OverrideRecord, 0, limit)
	for i := len(p.history) - 1; i >= len(p.history)-limit; i-- {
		out = append(out, p.history[i])
	}
	return out
}

func (p *PrincipalControls) record(r OverrideRecord) {
	p.history = append(p.history, r)
}
