package campus

import (
	"campussim/internal/sim/catalogs"
)

// Status is an activity instance's lifecycle phase.
type Status string

const (
	StatusPending     Status = "pending"
	StatusActive      Status = "active"
	StatusInterrupted Status = "interrupted"
	StatusComplete    Status = "complete"
)

// Instance is one live occurrence of a catalog activity: a profile bound to
// a room, a duration, and running metadata that the kind behavior mutates
// each simulated minute.
type Instance struct {
	Name           string
	Label          string
	Kind           catalogs.Kind
	InteractionKey string
	RoomID         string
	Duration       int
	Remaining      int
	Status         Status
	Metadata       map[string]any
}

// NewInstance builds a pending instance from a profile. overrides are merged
// over the profile's base metadata.
func NewInstance(profile *catalogs.Profile, roomID string, duration, remaining int, overrides map[string]any) *Instance {
	meta := make(map[string]any, len(profile.State)+len(overrides))
	for k, v := range profile.State {
		meta[k] = v
	}
	for k, v := range overrides {
		meta[k] = v
	}
	if remaining < 0 {
		remaining = 0
	}
	return &Instance{
		Name:           profile.ActivityID,
		Label:          profile.Label,
		Kind:           profile.Canonical,
		InteractionKey: profile.InteractionKey,
		RoomID:         roomID,
		Duration:       duration,
		Remaining:      remaining,
		Status:         StatusPending,
		Metadata:       meta,
	}
}

// Start activates the instance and applies the kind's entry metadata.
func (inst *Instance) Start() {
	inst.Status = StatusActive
	if b, ok := behaviors[inst.Kind]; ok && b.onStart != nil {
		b.onStart(inst)
	}
	inst.refreshMetadata()
}

// Tick advances the instance by the given simulated minutes and reports
// whether any metadata changed.
func (inst *Instance) Tick(minutes int) bool {
	if inst.Status != StatusActive || minutes <= 0 {
		return false
	}
	inst.Remaining -= minutes
	if inst.Remaining < 0 {
		inst.Remaining = 0
	}
	return inst.refreshMetadata()
}

func (inst *Instance) Interrupt(reason string) {
	inst.Status = StatusInterrupted
	if reason != "" {
		inst.Metadata["interrupt_reason"] = reason
	}
}

func (inst *Instance) Complete() {
	inst.Status = StatusComplete
	inst.Remaining = 0
}

// Progress reports the elapsed fraction of the instance in [0, 1].
func (inst *Instance) Progress() float64 {
	if inst.Duration <= 0 {
		return 1
	}
	p := float64(inst.Duration-inst.Remaining) / float64(inst.Duration)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

func (inst *Instance) remainingRatio() float64 {
	if inst.Duration <= 0 {
		return 0
	}
	r := float64(inst.Remaining) / float64(inst.Duration)
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

// MetadataCopy returns a shallow copy safe to hand to event sinks.
func (inst *Instance) MetadataCopy() map[string]any {
	cp := make(map[string]any, len(inst.Metadata))
	for k, v := range inst.Metadata {
		cp[k] = v
	}
	return cp
}

func (inst *Instance) refreshMetadata() bool {
	b, ok := behaviors[inst.Kind]
	if !ok {
		return false
	}
	changed := false
	if b.gradual && inst.Duration > 0 {
		p := inst.Progress()
		if prev, ok := inst.Metadata["progress"].(float64); !ok || prev != p {
			inst.Metadata["progress"] = p
			changed = true
		}
	}
	if b.stage != nil && b.stage(inst) {
		changed = true
	}
	return changed
}

func (inst *Instance) setStage(key, value string) bool {
	if prev, ok := inst.Metadata[key].(string); ok && prev == value {
		return false
	}
	inst.Metadata[key] = value
	return true
}

// behavior describes how a kind evolves its metadata over time. Gradual
// kinds carry a progress fraction; passive kinds stage purely off elapsed
// or remaining time.
type behavior struct {
	gradual bool
	onStart func(*Instance)
	stage   func(*Instance) bool
}

var behaviors = map[catalogs.Kind]behavior{
	catalogs.KindSleeping: {
		gradual: true,
		stage: func(inst *Instance) bool {
			p := inst.Progress()
			switch {
			case p < 0.25:
				return inst.setStage("sleep_stage", "settling")
			case p < 0.65:
				return inst.setStage("sleep_stage", "deep_sleep")
			default:
				return inst.setStage("sleep_stage", "light_sleep")
			}
		},
	},
	catalogs.KindStudying: {
		gradual: true,
		onStart: func(inst *Instance) {
			if _, ok := inst.Metadata["focus"]; !ok {
				inst.Metadata["focus"] = "high"
			}
		},
		stage: func(inst *Instance) bool {
			p := inst.Progress()
			switch {
			case p < 0.5:
				return inst.setStage("intensity", "absorbed")
			case p < 0.85:
				return inst.setStage("intensity", "steady")
			default:
				return inst.setStage("intensity", "winding_down")
			}
		},
	},
	catalogs.KindEating: {
		gradual: true,
		stage: func(inst *Instance) bool {
			p := inst.Progress()
			switch {
			case p < 0.33:
				return inst.setStage("course", "starter")
			case p < 0.66:
				return inst.setStage("course", "main")
			default:
				return inst.setStage("course", "dessert")
			}
		},
	},
	catalogs.KindTeaching: {
		gradual: true,
		stage: func(inst *Instance) bool {
			p := inst.Progress()
			switch {
			case p < 0.2:
				return inst.setStage("segment", "intro")
			case p < 0.8:
				return inst.setStage("segment", "lesson")
			default:
				return inst.setStage("segment", "wrap_up")
			}
		},
	},
	catalogs.KindRecreation: {
		gradual: true,
		stage: func(inst *Instance) bool {
			p := inst.Progress()
			switch {
			case p < 0.3:
				return inst.setStage("energy", "warming_up")
			case p < 0.7:
				return inst.setStage("energy", "peak")
			default:
				return inst.setStage("energy", "cooldown")
			}
		},
	},
	catalogs.KindMaintenance: {
		gradual: true,
		stage: func(inst *Instance) bool {
			p := inst.Progress()
			switch {
			case p < 0.2:
				return inst.setStage("subtask", "setup")
			case p < 0.8:
				return inst.setStage("subtask", "main_work")
			default:
				return inst.setStage("subtask", "cleanup")
			}
		},
	},
	catalogs.KindIdle: {
		onStart: func(inst *Instance) {
			if _, ok := inst.Metadata["posture"]; !ok {
				inst.Metadata["posture"] = "standing"
			}
		},
		stage: func(inst *Instance) bool {
			modes := [...]string{"observing", "chatting", "waiting"}
			span := inst.Duration / 3
			if span < 1 {
				span = 1
			}
			elapsed := inst.Duration - inst.Remaining
			if elapsed < 0 {
				elapsed = 0
			}
			return inst.setStage("mode", modes[(elapsed/span)%3])
		},
	},
	catalogs.KindMedical: {
		stage: func(inst *Instance) bool {
			r := inst.remainingRatio()
			switch {
			case r > 0.66:
				return inst.setStage("phase", "wrap_up")
			case r > 0.33:
				return inst.setStage("phase", "treatment")
			default:
				return inst.setStage("phase", "intake")
			}
		},
	},
	catalogs.KindDiscipline: {
		stage: func(inst *Instance) bool {
			r := inst.remainingRatio()
			switch {
			case r > 0.66:
				return inst.setStage("tone", "calm")
			case r > 0.33:
				return inst.setStage("tone", "firm")
			default:
				return inst.setStage("tone", "resolution")
			}
		},
	},
}
