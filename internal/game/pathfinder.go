package game

import "math"

// Pathfinder answers next-hop routing queries over one starmap. It is built
// once per map and never updated incrementally; a map reload constructs a
// fresh Pathfinder.
type Pathfinder struct {
	distances [][]float64
	nextBase  [][]int
}

// NewPathfinder builds the all-pairs shortest-path tables for a starmap
// using Euclidean edge lengths as weights.
func NewPathfinder(starmap *Starmap) *Pathfinder {
	n := len(starmap.Nodes)
	pf := &Pathfinder{
		distances: make([][]float64, n),
		nextBase:  make([][]int, n),
	}

	for i := 0; i < n; i++ {
		pf.distances[i] = make([]float64, n)
		pf.nextBase[i] = make([]int, n)
		for j := 0; j < n; j++ {
			pf.distances[i][j] = math.Inf(1)
			pf.nextBase[i][j] = -1
		}
		pf.distances[i][i] = 0
		pf.nextBase[i][i] = i
	}

	for i, node := range starmap.Nodes {
		for _, j := range node.ConnectedIndices {
			pf.distances[i][j] = node.Position.Distance(starmap.Nodes[j].Position)
			pf.nextBase[i][j] = j
		}
	}

	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			if math.IsInf(pf.distances[i][k], 1) {
				continue
			}
			for j := 0; j < n; j++ {
				if math.IsInf(pf.distances[k][j], 1) {
					continue
				}
				if pf.distances[i][k]+pf.distances[k][j] < pf.distances[i][j] {
					pf.distances[i][j] = pf.distances[i][k] + pf.distances[k][j]
					pf.nextBase[i][j] = pf.nextBase[i][k]
				}
			}
		}
	}

	return pf
}

// Path walks the next-hop table from start to end and returns the base ids
// along the way, inclusive of both endpoints. It returns nil when no path
// exists, when either id is out of range, or when the pathfinder was never
// initialized.
func (pf *Pathfinder) Path(start, end int) []int {
	if pf == nil || start < 0 || end < 0 || start >= len(pf.nextBase) || end >= len(pf.nextBase) {
		return nil
	}
	if pf.nextBase[start][end] == -1 {
		return nil
	}

	path := []int{start}
	for start != end {
		start = pf.nextBase[start][end]
		path = append(path, start)
	}
	return path
}

// Distance returns the shortest-path length between two bases, or +Inf when
// they are unreachable from each other.
func (pf *Pathfinder) Distance(start, end int) float64 {
	if pf == nil || start < 0 || end < 0 || start >= len(pf.distances) || end >= len(pf.distances) {
		return math.Inf(1)
	}
	return pf.distances[start][end]
}
