package engine

import "container/heap"

// StepCost returns the cost of entering terrain, or false when it cannot be entered
func StepCost(terrain TerrainType) (int, bool) {
	switch terrain {
	case Water, Mountain:
		return 0, false
	case Forest:
		return 2, true
	}
	return 1, true
}

type pathNode struct {
	pos    Position
	g, h   int
	parent *pathNode
	seq    int
	index  int
	closed bool
}

// openSet is a min-heap on f = g + h; ties prefer the node closer to the goal,
// then the earlier insertion
type openSet []*pathNode

func (o openSet) Len() int { return len(o) }

func (o openSet) Less(i, j int) bool {
	fi, fj := o[i].g+o[i].h, o[j].g+o[j].h
	if fi != fj {
		return fi < fj
	}
	if o[i].h != o[j].h {
		return o[i].h < o[j].h
	}
	return o[i].seq < o[j].seq
}

func (o openSet) Swap(i, j int) {
	o[i], o[j] = o[j], o[i]
	o[i].index = i
	o[j].index = j
}

func (o *openSet) Push(x any) {
	n := x.(*pathNode)
	n.index = len(*o)
	*o = append(*o, n)
}

func (o *openSet) Pop() any {
	old := *o
	n := old[len(old)-1]
	old[len(old)-1] = nil
	n.index = -1
	*o = old[:len(old)-1]
	return n
}

// FindPath runs A* over walkable terrain with 4-way movement. The returned path
// includes both endpoints; it is empty when either endpoint is blocked or the
// goal cannot be reached.
func FindPath(w *WorldMap, start, end Position) []Position {
	startTile, goalTile := w.tile(start.X, start.Y), w.tile(end.X, end.Y)
	if startTile == nil || goalTile == nil {
		return []Position{}
	}
	if !startTile.Terrain.Walkable() || !goalTile.Terrain.Walkable() {
		return []Position{}
	}

	nodes := make(map[Position]*pathNode)
	open := &openSet{}
	seq := 0

	first := &pathNode{pos: start, h: ManhattanDistance(start, end), seq: seq}
	nodes[start] = first
	heap.Push(open, first)

	for open.Len() > 0 {
		current := heap.Pop(open).(*pathNode)
		if current.pos == end {
			return reconstructPath(current)
		}
		current.closed = true

		for _, d := range cardinalOrder {
			next := current.pos.Step(d)
			t := w.tile(next.X, next.Y)
			if t == nil {
				continue
			}
			cost, ok := StepCost(t.Terrain)
			if !ok {
				continue
			}
			g := current.g + cost

			existing, seen := nodes[next]
			if seen && existing.closed {
				continue
			}
			if seen && existing.g <= g {
				continue
			}
			if seen {
				existing.g = g
				existing.parent = current
				heap.Fix(open, existing.index)
				continue
			}
			seq++
			n := &pathNode{pos: next, g: g, h: ManhattanDistance(next, end), parent: current, seq: seq}
			nodes[next] = n
			heap.Push(open, n)
		}
	}
	return []Position{}
}

func reconstructPath(n *pathNode) []Position {
	var path []Position
	for ; n != nil; n = n.parent {
		path = append(path, n.pos)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// PathCost sums the entry cost of every step after the first tile
func PathCost(w *WorldMap, path []Position) int {
	total := 0
	for i := 1; i < len(path); i++ {
		t := w.tile(path[i].X, path[i].Y)
		if t == nil {
			continue
		}
		cost, _ := StepCost(t.Terrain)
		total += cost
	}
	return total
}
