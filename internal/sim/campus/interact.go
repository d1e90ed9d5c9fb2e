package campus

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultInteractionMessage = "{name} nods politely."

// interactionMessages maps what an actor is doing to a short line of
// flavor text. Lookup order: activity interaction key, role, room, default.
type interactionMessages struct {
	defaultMsg string
	activities map[string]string
	roles      map[string]string
	rooms      map[string]string
}

type interactionFile struct {
	Default    string            `yaml:"default"`
	Activities map[string]string `yaml:"activities"`
	Roles      map[string]string `yaml:"roles"`
	Rooms      map[string]string `yaml:"rooms"`
}

// loadInteractionMessages reads the message table. A missing or unreadable
// file yields built-in defaults; interactions are flavor, not state.
func loadInteractionMessages(path string) *interactionMessages {
	m := &interactionMessages{
		defaultMsg: defaultInteractionMessage,
		activities: map[string]string{},
		roles:      map[string]string{},
		rooms:      map[string]string{},
	}
	if path == "" {
		return m
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return m
	}
	var doc interactionFile
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return m
	}
	if doc.Default != "" {
		m.defaultMsg = doc.Default
	}
	for k, v := range doc.Activities {
		m.activities[k] = v
	}
	for k, v := range doc.Roles {
		m.roles[k] = v
	}
	for k, v := range doc.Rooms {
		m.rooms[k] = v
	}
	return m
}

type interactionContext struct {
	Name     string
	Role     string
	Activity string
	Room     string
	Time     string
}

func (m *interactionMessages) lookup(interactionKey, role, room string) string {
	if interactionKey != "" {
		if msg, ok := m.activities[interactionKey]; ok {
			return msg
		}
	}
	if role != "" {
		if msg, ok := m.roles[role]; ok {
			return msg
		}
	}
	if room != "" {
		if msg, ok := m.rooms[room]; ok {
			return msg
		}
	}
	return m.defaultMsg
}

func (m *interactionMessages) format(template string, ctx interactionContext) string {
	r := strings.NewReplacer(
		"{name}", ctx.Name,
		"{role}", ctx.Role,
		"{activity}", ctx.Activity,
		"{room}", ctx.Room,
		"{time}", ctx.Time,
	)
	return r.Replace(template)
}
