// Package catalogs loads the declarative activity catalog: canonical
// behavior kinds plus aliases that rebind labels, metadata, and durations.
package catalogs

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind is a canonical activity behavior category. The set is fixed; aliases
// in the catalog always resolve to one of these.
type Kind string

const (
	KindSleeping    Kind = "Sleeping"
	KindEating      Kind = "Eating"
	KindStudying    Kind = "Studying"
	KindTeaching    Kind = "Teaching"
	KindRecreation  Kind = "Recreation"
	KindMaintenance Kind = "Maintenance"
	KindMedical     Kind = "Medical"
	KindDiscipline  Kind = "Discipline"
	KindIdle        Kind = "Idle"
)

// Kinds lists every canonical kind in catalog order.
var Kinds = []Kind{
	KindSleeping, KindEating, KindStudying, KindTeaching, KindRecreation,
	KindMaintenance, KindMedical, KindDiscipline, KindIdle,
}

// Profile is one resolvable catalog entry. Profiles are immutable once
// loaded; activity instances copy the State map before mutating it.
type Profile struct {
	ActivityID      string
	Canonical       Kind
	Label           string
	InteractionKey  string
	State           map[string]any
	DefaultDuration int
}

// Catalog resolves activity ids (canonical names or aliases) to profiles.
type Catalog struct {
	profiles  map[string]*Profile
	canonical map[string]*Profile
}

// Resolve returns the profile for an activity id, or nil when unknown.
func (c *Catalog) Resolve(activityID string) *Profile {
	if p, ok := c.profiles[activityID]; ok {
		return p
	}
	if p, ok := c.canonical[activityID]; ok {
		return p
	}
	return nil
}

// Minutes unmarshals either a bare minute count or an "HH:MM" span.
type Minutes int

func (m *Minutes) UnmarshalYAML(value *yaml.Node) error {
	var asInt int
	if err := value.Decode(&asInt); err == nil {
		*m = Minutes(asInt)
		return nil
	}
	var asString string
	if err := value.Decode(&asString); err != nil {
		return err
	}
	asString = strings.TrimSpace(asString)
	if asString == "" {
		*m = 0
		return nil
	}
	var hours, mins int
	if _, err := fmt.Sscanf(asString, "%d:%d", &hours, &mins); err != nil {
		return fmt.Errorf("invalid duration %q", asString)
	}
	*m = Minutes(hours*60 + mins)
	return nil
}

type catalogEntry struct {
	DisplayName     string         `yaml:"display_name"`
	InteractionKey  string         `yaml:"interaction_key"`
	State           map[string]any `yaml:"state"`
	DefaultDuration Minutes        `yaml:"default_duration"`
}

type aliasEntry struct {
	Activity        string         `yaml:"activity"`
	DisplayName     string         `yaml:"display_name"`
	InteractionKey  string         `yaml:"interaction_key"`
	State           map[string]any `yaml:"state"`
	DefaultDuration *Minutes       `yaml:"default_duration"`
}

type catalogFile struct {
	Catalog map[string]catalogEntry `yaml:"catalog"`
	Aliases map[string]aliasEntry   `yaml:"aliases"`
}

// Load reads the activity catalog document. Aliases referencing unknown
// canonical entries are dropped.
func Load(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc catalogFile
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	canonical := make(map[string]*Profile, len(doc.Catalog))
	for name, info := range doc.Catalog {
		label := info.DisplayName
		if label == "" {
			label = name
		}
		interactionKey := info.InteractionKey
		if interactionKey == "" {
			interactionKey = name
		}
		canonical[name] = &Profile{
			ActivityID:      name,
			Canonical:       Kind(name),
			Label:           label,
			InteractionKey:  interactionKey,
			State:           copyState(info.State),
			DefaultDuration: int(info.DefaultDuration),
		}
	}

	profiles := make(map[string]*Profile, len(canonical)+len(doc.Aliases))
	for name, p := range canonical {
		profiles[name] = p
	}
	for alias, info := range doc.Aliases {
		base, ok := canonical[info.Activity]
		if !ok {
			continue
		}
		label := info.DisplayName
		if label == "" {
			label = titleCase(alias)
		}
		interactionKey := info.InteractionKey
		if interactionKey == "" {
			interactionKey = base.InteractionKey
		}
		state := copyState(base.State)
		for k, v := range info.State {
			state[k] = v
		}
		duration := base.DefaultDuration
		if info.DefaultDuration != nil {
			duration = int(*info.DefaultDuration)
		}
		profiles[alias] = &Profile{
			ActivityID:      alias,
			Canonical:       base.Canonical,
			Label:           label,
			InteractionKey:  interactionKey,
			State:           state,
			DefaultDuration: duration,
		}
	}

	return &Catalog{profiles: profiles, canonical: canonical}, nil
}

// NewCatalog builds a catalog from already-constructed profiles. Tests use
// this to avoid touching the filesystem.
func NewCatalog(profiles map[string]*Profile) *Catalog {
	canonical := make(map[string]*Profile)
	all := make(map[string]*Profile, len(profiles))
	for id, p := range profiles {
		all[id] = p
		if string(p.Canonical) == id {
			canonical[id] = p
		}
	}
	return &Catalog{profiles: all, canonical: canonical}
}

func copyState(state map[string]any) map[string]any {
	out := make(map[string]any, len(state))
	for k, v := range state {
		out[k] = v
	}
	return out
}

func titleCase(id string) string {
	words := strings.Split(strings.ReplaceAll(id, "_", " "), " ")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
