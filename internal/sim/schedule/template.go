package schedule

import "fmt"

// SlotSpec is one raw template entry as it appears in the templates file.
// Start and durations use wall-clock strings ("HH:MM").
type SlotSpec struct {
	Slot         string `yaml:"slot"`
	Start        string `yaml:"start"`
	Duration     string `yaml:"duration"`
	Activity     string `yaml:"activity"`
	Room         string `yaml:"room"`
	Notes        string `yaml:"notes"`
	TravelBuffer string `yaml:"travel_buffer"`
}

// Template holds the parsed slots for each variant of a named schedule
// template.
type Template struct {
	Name      string
	DayLength int

	variants map[string][]*Block
}

// NewTemplate parses the raw variant→slots mapping into blocks. Slot order
// within a variant is preserved.
func NewTemplate(name string, raw map[string][]SlotSpec, dayLength int) (*Template, error) {
	t := &Template{
		Name:      name,
		DayLength: dayLength,
		variants:  make(map[string][]*Block, len(raw)),
	}
	for variant, entries := range raw {
		slots := make([]*Block, 0, len(entries))
		for _, entry := range entries {
			start, err := ParseHHMM(entry.Start)
			if err != nil {
				return nil, fmt.Errorf("template %s/%s slot %q: %w", name, variant, entry.Slot, err)
			}
			duration, err := ParseDuration(entry.Duration)
			if err != nil {
				return nil, fmt.Errorf("template %s/%s slot %q: %w", name, variant, entry.Slot, err)
			}
			buffer, err := ParseDuration(entry.TravelBuffer)
			if err != nil {
				return nil, fmt.Errorf("template %s/%s slot %q: %w", name, variant, entry.Slot, err)
			}
			slots = append(slots, &Block{
				Slot:            entry.Slot,
				ActivityID:      entry.Activity,
				RoomID:          entry.Room,
				StartTick:       wrap(start, dayLength),
				DurationMinutes: duration,
				DayLength:       dayLength,
				Notes:           entry.Notes,
				TravelBuffer:    buffer,
			})
		}
		t.variants[variant] = slots
	}
	return t, nil
}

// Instantiate clones the variant's slots for a concrete actor. Unknown
// variants are a configuration error.
func (t *Template) Instantiate(actorID, variant string) ([]*Block, error) {
	slots, ok := t.variants[variant]
	if !ok {
		return nil, fmt.Errorf("template %s missing variant %s", t.Name, variant)
	}
	out := make([]*Block, 0, len(slots))
	for _, slot := range slots {
		out = append(out, slot.CloneForActor(actorID))
	}
	return out, nil
}

// Override adjusts one named slot of an instantiated template. Only fields
// present in the document replace the slot's defaults.
type Override struct {
	Slot         string  `yaml:"slot"`
	Start        *string `yaml:"start"`
	Duration     *string `yaml:"duration"`
	Activity     *string `yaml:"activity"`
	Room         *string `yaml:"room"`
	TravelBuffer *string `yaml:"travel_buffer"`
	Notes        *string `yaml:"notes"`
}

// Assignment binds an actor to a template variant plus slot overrides.
type Assignment struct {
	ActorID      string     `yaml:"name"`
	TemplateName string     `yaml:"template"`
	Variant      string     `yaml:"variant"`
	Role         string     `yaml:"role"`
	Overrides    []Override `yaml:"overrides"`
	Notes        string     `yaml:"notes"`
}

// Apply instantiates the assignment's template variant and applies its slot
// overrides. Overrides naming unknown slots are silently dropped. The result
// is sorted by start tick with template order preserved for ties.
func (a *Assignment) Apply(templates map[string]*Template) ([]*Block, error) {
	tmpl, ok := templates[a.TemplateName]
	if !ok {
		return nil, fmt.Errorf("unknown template %q for actor %q", a.TemplateName, a.ActorID)
	}
	variant := a.Variant
	if variant == "" {
		variant = "weekday"
	}
	slots, err := tmpl.Instantiate(a.ActorID, variant)
	if err != nil {
		return nil, err
	}
	bySlot := make(map[string]*Block, len(slots))
	for _, slot := range slots {
		bySlot[slot.Slot] = slot
	}
	for _, ov := range a.Overrides {
		slot := bySlot[ov.Slot]
		if slot == nil {
			continue
		}
		if ov.Start != nil {
			start, err := ParseHHMM(*ov.Start)
			if err != nil {
				return nil, fmt.Errorf("override for %s/%s: %w", a.ActorID, ov.Slot, err)
			}
			slot.SetStart(start)
		}
		if ov.Duration != nil {
			duration, err := ParseDuration(*ov.Duration)
			if err != nil {
				return nil, fmt.Errorf("override for %s/%s: %w", a.ActorID, ov.Slot, err)
			}
			slot.SetDuration(duration)
		}
		if ov.Activity != nil {
			slot.ActivityID = *ov.Activity
		}
		if ov.Room != nil {
			slot.RoomID = *ov.Room
		}
		if ov.TravelBuffer != nil {
			buffer, err := ParseDuration(*ov.TravelBuffer)
			if err != nil {
				return nil, fmt.Errorf("override for %s/%s: %w", a.ActorID, ov.Slot, err)
			}
			slot.SetTravelBuffer(buffer)
		}
		if ov.Notes != nil {
			slot.Notes = *ov.Notes
		}
	}
	SortBlocks(slots)
	return slots, nil
}
