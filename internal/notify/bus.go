// Package notify implements the alert bus: publish/subscribe with
// cooldown-based deduplication for simulation incidents.
package notify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Alert is an incident requiring principal attention. It stays active until
// acknowledged.
type Alert struct {
	ID             string         `json:"id"`
	Category       string         `json:"category"`
	Severity       string         `json:"severity"`
	Message        string         `json:"message"`
	RoomID         string         `json:"room_id,omitempty"`
	ActorIDs       []string       `json:"actor_ids"`
	CreatedAt      string         `json:"created_at"`
	AcknowledgedAt string         `json:"acknowledged_at,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

func (a *Alert) Acknowledged() bool { return a.AcknowledgedAt != "" }

// Publication carries the fields of a publish call besides the category.
type Publication struct {
	MinuteStamp int
	Severity    string
	Message     string
	RoomID      string
	ActorIDs    []string
	Metadata    map[string]any
}

// Listener receives every published or acknowledged alert.
type Listener func(*Alert)

type cooldownKey struct {
	category string
	roomID   string
	actors   string
}

// Bus is the pub/sub channel. Publishing an alert whose (category, room,
// actor set) was already published within the cooldown window returns the
// most recent matching alert instead of creating a new one, even if that
// alert has since been acknowledged.
type Bus struct {
	cooldownMinutes int

	alerts      map[string]*Alert
	history     []string
	cooldowns   map[cooldownKey]int
	subscribers map[int]Listener
	subOrder    []int
	nextSubID   int

	formatMinute func(int) string
}

// NewBus creates a bus with the given cooldown window in minutes.
func NewBus(cooldownMinutes int, formatMinute func(int) string) *Bus {
	if cooldownMinutes < 0 {
		cooldownMinutes = 0
	}
	if formatMinute == nil {
		formatMinute = func(m int) string {
			m %= 24 * 60
			if m < 0 {
				m += 24 * 60
			}
			return fmt.Sprintf("%02d:%02d", m/60, m%60)
		}
	}
	return &Bus{
		cooldownMinutes: cooldownMinutes,
		alerts:          make(map[string]*Alert),
		cooldowns:       make(map[cooldownKey]int),
		subscribers:     make(map[int]Listener),
		formatMinute:    formatMinute,
	}
}

// Subscribe registers a listener and returns a token for Unsubscribe.
func (b *Bus) Subscribe(fn Listener) int {
	id := b.nextSubID
	b.nextSubID++
	b.subscribers[id] = fn
	b.subOrder = append(b.subOrder, id)
	return id
}

func (b *Bus) Unsubscribe(token int) {
	delete(b.subscribers, token)
	for i, id := range b.subOrder {
		if id == token {
			b.subOrder = append(b.subOrder[:i], b.subOrder[i+1:]...)
			break
		}
	}
}

// Publish creates and broadcasts an alert, respecting the cooldown window.
func (b *Bus) Publish(category string, p Publication) *Alert {
	actors := append([]string(nil), p.ActorIDs...)
	sort.Strings(actors)
	key := cooldownKey{category: category, roomID: p.RoomID, actors: strings.Join(actors, ",")}

	if last, ok := b.cooldowns[key]; ok && p.MinuteStamp-last < b.cooldownMinutes {
		if existing := b.latestMatching(category, p.RoomID, actors); existing != nil {
			return existing
		}
	}

	alert := &Alert{
		ID:        uuid.NewString(),
		Category:  category,
		Severity:  p.Severity,
		Message:   p.Message,
		RoomID:    p.RoomID,
		ActorIDs:  actors,
		CreatedAt: b.formatMinute(p.MinuteStamp),
		Metadata:  p.Metadata,
	}
	b.alerts[alert.ID] = alert
	b.history = append(b.history, alert.ID)
	b.cooldowns[key] = p.MinuteStamp
	b.notify(alert)
	return alert
}

// Acknowledge settles an alert by id. It is idempotent; acknowledging an
// unknown id is a caller error.
func (b *Bus) Acknowledge(alertID string, minuteStamp int) (*Alert, error) {
	alert, ok := b.alerts[alertID]
	if !ok {
		return nil, fmt.Errorf("unknown alert %q", alertID)
	}
	if alert.AcknowledgedAt == "" {
		alert.AcknowledgedAt = b.formatMinute(minuteStamp)
		b.notify(alert)
	}
	return alert, nil
}

// ActiveAlerts returns unacknowledged alerts in publish order.
func (b *Bus) ActiveAlerts() []*Alert {
	var active []*Alert
	for _, id := range b.history {
		if alert := b.alerts[id]; !alert.Acknowledged() {
			active = append(active, alert)
		}
	}
	return active
}

// History returns every alert ever published, in publish order.
func (b *Bus) History() []*Alert {
	out := make([]*Alert, 0, len(b.history))
	for _, id := range b.history {
		out = append(out, b.alerts[id])
	}
	return out
}

// LatestByCategory returns the most recently published alert of a category,
// or nil.
func (b *Bus) LatestByCategory(category string) *Alert {
	for i := len(b.history) - 1; i >= 0; i-- {
		if alert := b.alerts[b.history[i]]; alert.Category == category {
			return alert
		}
	}
	return nil
}

func (b *Bus) latestMatching(category, roomID string, actors []string) *Alert {
	for i := len(b.history) - 1; i >= 0; i-- {
		alert := b.alerts[b.history[i]]
		if alert.Category != category || alert.RoomID != roomID {
			continue
		}
		if equalStrings(alert.ActorIDs, actors) {
			return alert
		}
	}
	return nil
}

func (b *Bus) notify(alert *Alert) {
	for _, id := range append([]int(nil), b.subOrder...) {
		if fn, ok := b.subscribers[id]; ok {
			fn(alert)
		}
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
