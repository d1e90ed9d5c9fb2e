package schedule

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// ActivityDefinition is one entry of the flat activity-definition table used
// by schedule files (id → duration and default location).
type ActivityDefinition struct {
	Name     string
	Duration int
	Location string
	Notes    string
}

// Roster is the normalized result of loading either roster form: one ordered
// block list per actor plus the lookup tables the schedule system needs.
// Both the templated YAML form and the legacy flat JSON form produce the
// same structure, keeping everything downstream format-agnostic.
type Roster struct {
	DayLength   int
	Definitions map[string]*ActivityDefinition
	Templates   map[string]*Template
	Assignments []*Assignment
	Plans       map[string][]*Block
	Roles       map[string]string
	ActorOrder  []string
}

// LoadRoster reads a roster file. A ".json" suffix selects the legacy flat
// form; anything else is parsed as the templated YAML form. Jitter in the
// legacy form is applied once here, drawn from the supplied RNG.
func LoadRoster(path string, dayLength int, rng *rand.Rand) (*Roster, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return loadLegacyRoster(path, dayLength, rng)
	}
	return loadTemplatedRoster(path, dayLength)
}

type rosterFile struct {
	ActivitiesFile string       `yaml:"activities_file"`
	TemplatesFile  string       `yaml:"templates_file"`
	Assignments    []Assignment `yaml:"assignments"`
}

type activityEntry struct {
	Duration int    `yaml:"duration"`
	Location string `yaml:"location"`
	Notes    string `yaml:"notes"`
}

func loadTemplatedRoster(path string, dayLength int) (*Roster, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rf rosterFile
	if err := yaml.Unmarshal(b, &rf); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if rf.ActivitiesFile == "" || rf.TemplatesFile == "" {
		return nil, fmt.Errorf("%s: roster must include activities_file and templates_file", path)
	}
	baseDir := filepath.Dir(path)

	definitions, err := loadActivityDefinitions(resolveRelative(baseDir, rf.ActivitiesFile))
	if err != nil {
		return nil, err
	}
	templates, err := loadTemplates(resolveRelative(baseDir, rf.TemplatesFile), dayLength)
	if err != nil {
		return nil, err
	}

	r := &Roster{
		DayLength:   dayLength,
		Definitions: definitions,
		Templates:   templates,
		Plans:       make(map[string][]*Block),
		Roles:       make(map[string]string),
	}
	for i := range rf.Assignments {
		assignment := rf.Assignments[i]
		blocks, err := assignment.Apply(templates)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		role := assignment.Role
		if role == "" {
			role = "student"
		}
		r.Assignments = append(r.Assignments, &assignment)
		r.Plans[assignment.ActorID] = blocks
		r.Roles[assignment.ActorID] = role
		r.ActorOrder = append(r.ActorOrder, assignment.ActorID)
	}
	return r, nil
}

func loadActivityDefinitions(path string) (map[string]*ActivityDefinition, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Activities map[string]activityEntry `yaml:"activities"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	definitions := make(map[string]*ActivityDefinition, len(doc.Activities))
	for key, entry := range doc.Activities {
		definitions[key] = &ActivityDefinition{
			Name:     key,
			Duration: entry.Duration,
			Location: entry.Location,
			Notes:    entry.Notes,
		}
	}
	return definitions, nil
}

func loadTemplates(path string, dayLength int) (map[string]*Template, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc map[string]map[string][]SlotSpec
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	templates := make(map[string]*Template, len(doc))
	for name, variants := range doc {
		tmpl, err := NewTemplate(name, variants, dayLength)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		templates[name] = tmpl
	}
	return templates, nil
}

func resolveRelative(baseDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	candidate := filepath.Join(baseDir, path)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return path
}

const legacyRosterSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["activities", "npcs"],
  "properties": {
    "activities": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["duration", "location"],
        "properties": {
          "duration": {"type": "integer", "minimum": 0},
          "location": {"type": "string"},
          "notes": {"type": "string"}
        }
      }
    },
    "npcs": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "role": {"type": "string"},
          "schedule": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["time", "activity"],
              "properties": {
                "time": {"type": "string", "pattern": "^[0-9]{1,2}:[0-9]{2}$"},
                "activity": {"type": "string"},
                "jitter": {"type": "integer", "minimum": 0}
              }
            }
          }
        }
      }
    }
  }
}`

type legacyRosterFile struct {
	Activities map[string]struct {
		Duration int    `json:"duration"`
		Location string `json:"location"`
		Notes    string `json:"notes"`
	} `json:"activities"`
	NPCs []struct {
		Name     string `json:"name"`
		Role     string `json:"role"`
		Schedule []struct {
			Time     string `json:"time"`
			Activity string `json:"activity"`
			Jitter   int    `json:"jitter"`
		} `json:"schedule"`
	} `json:"npcs"`
}

func loadLegacyRoster(path string, dayLength int, rng *rand.Rand) (*Roster, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	schema, err := jsonschema.CompileString("legacy_roster.schema.json", legacyRosterSchema)
	if err != nil {
		return nil, fmt.Errorf("legacy roster schema: %w", err)
	}
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var lf legacyRosterFile
	if err := json.Unmarshal(b, &lf); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	r := &Roster{
		DayLength:   dayLength,
		Definitions: make(map[string]*ActivityDefinition, len(lf.Activities)),
		Templates:   map[string]*Template{},
		Plans:       make(map[string][]*Block),
		Roles:       make(map[string]string),
	}
	for key, entry := range lf.Activities {
		r.Definitions[key] = &ActivityDefinition{
			Name:     key,
			Duration: entry.Duration,
			Location: entry.Location,
			Notes:    entry.Notes,
		}
	}
	for _, npc := range lf.NPCs {
		role := npc.Role
		if role == "" {
			role = "student"
		}
		var blocks []*Block
		for _, entry := range npc.Schedule {
			def, ok := r.Definitions[entry.Activity]
			if !ok {
				continue
			}
			minutes, err := ParseHHMM(entry.Time)
			if err != nil {
				return nil, fmt.Errorf("%s: actor %s: %w", path, npc.Name, err)
			}
			minutes = wrap(minutes, dayLength)
			if entry.Jitter > 0 && rng != nil {
				minutes = wrap(minutes+rng.Intn(2*entry.Jitter+1)-entry.Jitter, dayLength)
			}
			blocks = append(blocks, &Block{
				ActorID:         npc.Name,
				Slot:            entry.Activity,
				ActivityID:      entry.Activity,
				RoomID:          def.Location,
				StartTick:       minutes,
				DurationMinutes: def.Duration,
				DayLength:       dayLength,
			})
		}
		SortBlocks(blocks)
		r.Plans[npc.Name] = blocks
		r.Roles[npc.Name] = role
		r.ActorOrder = append(r.ActorOrder, npc.Name)
	}
	return r, nil
}
