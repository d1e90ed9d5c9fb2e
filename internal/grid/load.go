package grid

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const mapSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["width", "height", "passability"],
  "properties": {
    "tile_size": {"type": "integer", "minimum": 1},
    "width": {"type": "integer", "minimum": 1},
    "height": {"type": "integer", "minimum": 1},
    "passability": {
      "type": "array",
      "items": {"type": "array", "items": {"type": "integer", "enum": [0, 1]}}
    },
    "rooms": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "rect"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "rect": {"type": "array", "items": {"type": "integer"}, "minItems": 4, "maxItems": 4},
          "doors": {"type": "array", "items": {"type": "array", "items": {"type": "integer"}, "minItems": 2, "maxItems": 2}},
          "capacity": {"type": "integer", "minimum": 0},
          "type": {"type": "string"},
          "default_activity": {"type": "string"}
        }
      }
    },
    "spawn_points": {
      "type": "object",
      "additionalProperties": {
        "type": "array",
        "items": {"type": "array", "items": {"type": "integer"}, "minItems": 2, "maxItems": 2}
      }
    }
  }
}`

type mapFile struct {
	TileSize    int                `json:"tile_size"`
	Width       int                `json:"width"`
	Height      int                `json:"height"`
	Passability [][]int            `json:"passability"`
	Rooms       []mapRoom          `json:"rooms"`
	SpawnPoints map[string][][]int `json:"spawn_points"`
}

type mapRoom struct {
	Name            string  `json:"name"`
	Rect            [4]int  `json:"rect"`
	Doors           [][]int `json:"doors"`
	Capacity        int     `json:"capacity"`
	Type            string  `json:"type"`
	DefaultActivity string  `json:"default_activity"`
}

// Load reads a campus map JSON document, validates it against the embedded
// schema, and returns the queryable grid.
func Load(path string) (*Grid, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	schema, err := jsonschema.CompileString("campus_map.schema.json", mapSchema)
	if err != nil {
		return nil, fmt.Errorf("campus map schema: %w", err)
	}
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var mf mapFile
	if err := json.Unmarshal(b, &mf); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(mf.Passability) != mf.Height {
		return nil, fmt.Errorf("%s: passability has %d rows, want %d", path, len(mf.Passability), mf.Height)
	}
	for y, row := range mf.Passability {
		if len(row) != mf.Width {
			return nil, fmt.Errorf("%s: passability row %d has %d cells, want %d", path, y, len(row), mf.Width)
		}
	}

	rooms := make([]*Room, 0, len(mf.Rooms))
	for _, rm := range mf.Rooms {
		r := &Room{
			Name:            rm.Name,
			Rect:            rm.Rect,
			Capacity:        rm.Capacity,
			Type:            rm.Type,
			DefaultActivity: rm.DefaultActivity,
		}
		for _, d := range rm.Doors {
			r.Doors = append(r.Doors, Tile{X: d[0], Y: d[1]})
		}
		rooms = append(rooms, r)
	}
	spawns := make(map[string][]Tile, len(mf.SpawnPoints))
	for role, pts := range mf.SpawnPoints {
		role = strings.TrimSpace(role)
		for _, pt := range pts {
			spawns[role] = append(spawns[role], Tile{X: pt[0], Y: pt[1]})
		}
	}

	g := New(mf.Width, mf.Height, mf.Passability, rooms, spawns)
	if mf.TileSize > 0 {
		g.TileSize = mf.TileSize
	}
	return g, nil
}
