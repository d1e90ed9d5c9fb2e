// Package observerproto defines the wire messages of the read-only
// observer feed.
package observerproto

import "campussim/internal/sim/campus"

// Version is the observer protocol version.
const Version = "0.1"

// Client -> Server. First message on the observer WS connection, and can
// be re-sent to update settings.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`

	// Optional: restrict room snapshots to these rooms. Empty means all.
	Rooms []string `json:"rooms,omitempty"`
	// Optional: snapshot cadence in ticks. Defaults to every tick.
	EveryTicks int `json:"every_ticks,omitempty"`
}

// HTTP response for GET /observer/v1/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string     `json:"protocol_version"`
	Tick            int        `json:"tick"`
	Time            string     `json:"time"`
	MapParams       MapParams  `json:"map_params"`
	Rooms           []RoomInfo `json:"rooms"`
}

type MapParams struct {
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	DayLengthMinutes int     `json:"day_length_minutes"`
	MinutesPerTick   float64 `json:"minutes_per_tick"`
	Seed             int64   `json:"seed"`
	// TilesRLE is the row-major walkability layer, run-length encoded.
	TilesRLE string `json:"tiles_rle,omitempty"`
}

type RoomInfo struct {
	Name     string `json:"name"`
	Rect     [4]int `json:"rect"`
	Type     string `json:"type,omitempty"`
	Capacity int    `json:"capacity,omitempty"`
}

// Server -> Client. Sent every snapshot interval.
type SnapshotMsg struct {
	Type            string               `json:"type"`
	ProtocolVersion string               `json:"protocol_version"`
	World           campus.WorldSnapshot `json:"world"`
}
