package game

import (
	"container/heap"
	"math"
)

// Tile is one grid coordinate.
type Tile struct {
	X int
	Y int
}

// Grid is a 2D walkability grid where true = blocked.
type Grid struct {
	cols    int
	rows    int
	blocked []bool
}

// NewGrid creates an all-walkable grid of the given dimensions.
func NewGrid(cols, rows int) *Grid {
	return &Grid{
		cols:    cols,
		rows:    rows,
		blocked: make([]bool, cols*rows),
	}
}

// Block marks a cell unwalkable. Out-of-bounds coordinates are ignored.
func (g *Grid) Block(cx, cy int) {
	if cx < 0 || cy < 0 || cx >= g.cols || cy >= g.rows {
		return
	}
	g.blocked[cy*g.cols+cx] = true
}

// Blocked returns true if the cell at (cx, cy) is not walkable.
func (g *Grid) Blocked(cx, cy int) bool {
	if cx < 0 || cy < 0 || cx >= g.cols || cy >= g.rows {
		return true
	}
	return g.blocked[cy*g.cols+cx]
}

// --- A* pathfinding ---

type pathNode struct {
	cx, cy int
	g, h   float64
	seq    int // insertion order, final tie-break
	parent *pathNode
	index  int // heap index
}

type openList []*pathNode

func (ol openList) Len() int { return len(ol) }
func (ol openList) Less(i, j int) bool {
	fi := ol[i].g + ol[i].h
	fj := ol[j].g + ol[j].h
	if fi != fj {
		return fi < fj
	}
	// Equal f: prefer the node closer to the goal, then the one pushed first,
	// so identical inputs always expand in the same order.
	if ol[i].h != ol[j].h {
		return ol[i].h < ol[j].h
	}
	return ol[i].seq < ol[j].seq
}
func (ol openList) Swap(i, j int)       { ol[i], ol[j] = ol[j], ol[i]; ol[i].index = i; ol[j].index = j }
func (ol *openList) Push(x interface{}) { n := x.(*pathNode); n.index = len(*ol); *ol = append(*ol, n) }
func (ol *openList) Pop() interface{} {
	old := *ol
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*ol = old[:len(old)-1]
	return n
}

var dirs = [8][2]int{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

// octile is the admissible heuristic for 8-connected movement with cardinal
// cost 1 and diagonal cost √2.
func octile(ax, ay, bx, by int) float64 {
	dx := math.Abs(float64(ax - bx))
	dy := math.Abs(float64(ay - by))
	return dx + dy + (math.Sqrt2-2)*math.Min(dx, dy)
}

// FindPath returns the minimal-cost route from (sx,sy) to (gx,gy) as an
// ordered list of tiles, excluding the start and including the destination.
// Diagonal steps are refused when both flanking orthogonal cells are blocked.
// Returns nil when either endpoint is out of bounds or blocked, when start
// equals goal, or when no route exists.
func (g *Grid) FindPath(sx, sy, gx, gy int) []Tile {
	if g.Blocked(sx, sy) || g.Blocked(gx, gy) {
		return nil
	}
	if sx == gx && sy == gy {
		return nil
	}

	key := func(cx, cy int) int { return cy*g.cols + cx }

	seq := 0
	start := &pathNode{cx: sx, cy: sy, g: 0, h: octile(sx, sy, gx, gy)}
	ol := &openList{start}
	heap.Init(ol)

	closed := make(map[int]bool)
	best := make(map[int]*pathNode)
	best[key(sx, sy)] = start

	for ol.Len() > 0 {
		cur := heap.Pop(ol).(*pathNode)
		if cur.cx == gx && cur.cy == gy {
			return buildPath(cur)
		}
		k := key(cur.cx, cur.cy)
		if closed[k] {
			continue
		}
		closed[k] = true

		for _, d := range dirs {
			nx, ny := cur.cx+d[0], cur.cy+d[1]
			if g.Blocked(nx, ny) {
				continue
			}
			// Prevent diagonal corner-cutting through blocked cells.
			if d[0] != 0 && d[1] != 0 {
				if g.Blocked(cur.cx+d[0], cur.cy) && g.Blocked(cur.cx, cur.cy+d[1]) {
					continue
				}
			}
			nk := key(nx, ny)
			if closed[nk] {
				continue
			}
			cost := 1.0
			if d[0] != 0 && d[1] != 0 {
				cost = math.Sqrt2
			}
			ng := cur.g + cost
			if prev, ok := best[nk]; ok && ng >= prev.g {
				continue
			}
			seq++
			node := &pathNode{cx: nx, cy: ny, g: ng, h: octile(nx, ny, gx, gy), seq: seq, parent: cur}
			best[nk] = node
			heap.Push(ol, node)
		}
	}
	return nil
}

func buildPath(end *pathNode) []Tile {
	var cells []Tile
	for n := end; n.parent != nil; n = n.parent {
		cells = append(cells, Tile{n.cx, n.cy})
	}
	for i, j := 0, len(cells)-1; i < j; i, j = i+1, j-1 {
		cells[i], cells[j] = cells[j], cells[i]
	}
	return cells
}
