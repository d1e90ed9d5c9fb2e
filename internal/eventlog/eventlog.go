// Package eventlog collects structured activity lifecycle and principal
// action events and fans them out to append-only sinks.
package eventlog

import (
	"encoding/json"
	"io"
)

// Event kinds.
const (
	KindActivityStart     = "activity_start"
	KindActivityEnd       = "activity_end"
	KindActivityInterrupt = "activity_interrupt"
	KindPrincipalAction   = "principal_action"
)

// Event is one structured log entry. Timestamp is HH:MM wall-clock time.
type Event struct {
	Kind      string         `json:"kind"`
	Timestamp string         `json:"timestamp"`
	Actor     string         `json:"actor"`
	Activity  string         `json:"activity"`
	Room      string         `json:"room"`
	State     map[string]any `json:"state,omitempty"`
}

// Sink receives every appended event. Implementations must not retain the
// State map.
type Sink interface {
	WriteEvent(Event) error
}

// Logger keeps events in memory in append order and forwards each one to
// its sinks. Sink write failures are ignored; the in-memory record is the
// source of truth for the running simulation.
type Logger struct {
	events []Event
	sinks  []Sink
}

func NewLogger(sinks ...Sink) *Logger {
	return &Logger{sinks: sinks}
}

func (l *Logger) AddSink(s Sink) { l.sinks = append(l.sinks, s) }

func (l *Logger) ActivityStart(timestamp, actor, activity, room string, state map[string]any) {
	l.append(Event{Kind: KindActivityStart, Timestamp: timestamp, Actor: actor, Activity: activity, Room: room, State: copyState(state)})
}

func (l *Logger) ActivityEnd(timestamp, actor, activity, room string, state map[string]any) {
	l.append(Event{Kind: KindActivityEnd, Timestamp: timestamp, Actor: actor, Activity: activity, Room: room, State: copyState(state)})
}

func (l *Logger) ActivityInterrupt(timestamp, actor, activity, room string, state map[string]any) {
	l.append(Event{Kind: KindActivityInterrupt, Timestamp: timestamp, Actor: actor, Activity: activity, Room: room, State: copyState(state)})
}

// PrincipalAction logs a command-layer action. When the details carry a
// "room" string it is lifted into the event's room field.
func (l *Logger) PrincipalAction(timestamp, action, subject string, details map[string]any) {
	room := ""
	if v, ok := details["room"].(string); ok {
		room = v
	}
	l.append(Event{Kind: KindPrincipalAction, Timestamp: timestamp, Actor: subject, Activity: action, Room: room, State: copyState(details)})
}

// Events returns the collected events in append order.
func (l *Logger) Events() []Event {
	return append([]Event(nil), l.events...)
}

// WriteJSON dumps the collected events as a JSON array.
func (l *Logger) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(l.events)
}

func (l *Logger) Clear() { l.events = nil }

func (l *Logger) append(e Event) {
	l.events = append(l.events, e)
	for _, sink := range l.sinks {
		_ = sink.WriteEvent(e)
	}
}

func copyState(state map[string]any) map[string]any {
	if state == nil {
		return nil
	}
	out := make(map[string]any, len(state))
	for k, v := range state {
		out[k] = v
	}
	return out
}
