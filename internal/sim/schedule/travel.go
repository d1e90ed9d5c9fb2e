package schedule

import (
	"campussim/internal/grid"
	"campussim/internal/pathfind"
)

// Estimator annotates consecutive blocks with the walking distance between
// their rooms.
type Estimator struct {
	grid *grid.Grid
}

func NewEstimator(g *grid.Grid) *Estimator {
	return &Estimator{grid: g}
}

// roomAnchor picks a representative reachable point for a room: the first
// interior target when one exists, else the room center.
func (e *Estimator) roomAnchor(roomID string) (grid.Tile, bool) {
	if interior := e.grid.RoomInteriorTargets(roomID); len(interior) > 0 {
		return interior[0], true
	}
	center, err := e.grid.RoomCenter(roomID)
	if err != nil {
		return grid.Tile{}, false
	}
	return center, true
}

// Annotate walks each actor's blocks in start order and records the expected
// travel between consecutive rooms. The first block of a day has zero
// expected travel. When adjustBuffers is set, travel buffers are raised to at
// least the expected travel; they are never lowered. Unreachable or unknown
// rooms leave ExpectedTravel unset.
func (e *Estimator) Annotate(plans map[string][]*Block, adjustBuffers bool) {
	for _, blocks := range plans {
		SortBlocks(blocks)
		var previous *Block
		for _, block := range blocks {
			if previous == nil {
				zero := 0
				block.ExpectedTravel = &zero
				block.TravelPath = []grid.Tile{}
				previous = block
				continue
			}
			startRoom := previous.RoomID
			if startRoom == "" {
				startRoom = previous.ActivityID
			}
			endRoom := block.RoomID
			if endRoom == "" {
				endRoom = block.ActivityID
			}
			startPoint, ok := e.roomAnchor(startRoom)
			if !ok {
				block.ExpectedTravel = nil
				block.TravelPath = nil
				previous = block
				continue
			}
			endPoint, ok := e.roomAnchor(endRoom)
			if !ok {
				block.ExpectedTravel = nil
				block.TravelPath = nil
				previous = block
				continue
			}
			path := pathfind.AStar(e.grid, startPoint, endPoint, nil)
			if path == nil {
				block.ExpectedTravel = nil
				block.TravelPath = nil
				previous = block
				continue
			}
			steps := len(path) - 1
			if steps < 0 {
				steps = 0
			}
			block.TravelPath = path
			block.ExpectedTravel = &steps
			if adjustBuffers && steps > block.TravelBuffer {
				block.TravelBuffer = steps
			}
			previous = block
		}
	}
}
