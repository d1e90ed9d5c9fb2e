// Package pathfind implements grid A* used both for offline travel-time
// estimation and for live movement planning.
package pathfind

import (
	"container/heap"

	"campussim/internal/grid"
)

// World is the walkability query the search needs.
type World interface {
	Walkable(x, y int) bool
}

// Heuristic is the Manhattan distance between two tiles.
func Heuristic(a, b grid.Tile) int {
	return absInt(a.X-b.X) + absInt(a.Y-b.Y)
}

// AStar returns the full tile sequence from start to goal inclusive, or nil
// if the goal is unreachable. Tiles in blocked are treated as solid except
// the goal tile, which is never blocked. Start == goal yields a single-tile
// path. Ties in the open set break on insertion order so repeated searches
// over the same terrain return identical paths.
func AStar(w World, start, goal grid.Tile, blocked map[grid.Tile]bool) []grid.Tile {
	if start == goal {
		return []grid.Tile{start}
	}

	open := &nodeQueue{}
	heap.Init(open)
	heap.Push(open, &node{tile: start, priority: 0})

	cameFrom := map[grid.Tile]grid.Tile{}
	gScore := map[grid.Tile]int{start: 0}

	for open.Len() > 0 {
		current := heap.Pop(open).(*node).tile
		if current == goal {
			return reconstruct(cameFrom, start, goal)
		}
		for _, next := range [4]grid.Tile{
			{X: current.X + 1, Y: current.Y},
			{X: current.X - 1, Y: current.Y},
			{X: current.X, Y: current.Y + 1},
			{X: current.X, Y: current.Y - 1},
		} {
			if !w.Walkable(next.X, next.Y) {
				continue
			}
			if blocked[next] && next != goal {
				continue
			}
			cost := gScore[current] + 1
			if prev, seen := gScore[next]; !seen || cost < prev {
				gScore[next] = cost
				cameFrom[next] = current
				heap.Push(open, &node{tile: next, priority: cost + Heuristic(next, goal)})
			}
		}
	}
	return nil
}

func reconstruct(cameFrom map[grid.Tile]grid.Tile, start, goal grid.Tile) []grid.Tile {
	path := []grid.Tile{goal}
	for cur := goal; cur != start; {
		cur = cameFrom[cur]
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

type node struct {
	tile     grid.Tile
	priority int
	seq      int
}

type nodeQueue struct {
	items   []*node
	nextSeq int
}

func (q *nodeQueue) Len() int { return len(q.items) }

func (q *nodeQueue) Less(i, j int) bool {
	if q.items[i].priority != q.items[j].priority {
		return q.items[i].priority < q.items[j].priority
	}
	return q.items[i].seq < q.items[j].seq
}

func (q *nodeQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *nodeQueue) Push(x any) {
	n := x.(*node)
	n.seq = q.nextSeq
	q.nextSeq++
	q.items = append(q.items, n)
}

func (q *nodeQueue) Pop() any {
	old := q.items
	n := old[len(old)-1]
	q.items = old[:len(old)-1]
	return n
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
