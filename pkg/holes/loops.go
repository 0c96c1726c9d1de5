package holes

import (
	"fmt"

	"github.com/chazu/mend/pkg/kernel"
	"github.com/samber/lo"
)

// Loop is one reconstructed hole boundary: vertex indices in traversal
// order, the last implicitly connected to the first when Closed.
type Loop struct {
	Vertices  []int
	Edges     int   // boundary edges consumed by this loop
	Closed    bool  // false when the trace ended without returning to its start
	Junctions []int // vertices with more than two incident boundary edges
}

// Unique returns the loop's vertices with repeats removed, keeping the
// first occurrence order.
func (l Loop) Unique() []int {
	return lo.Uniq(l.Vertices)
}

// Validate reports ErrDegenerateLoop for loops that cannot bound a face.
func (l Loop) Validate() error {
	if n := len(l.Unique()); n < 3 {
		return fmt.Errorf("%w: %d unique vertices", ErrDegenerateLoop, n)
	}
	return nil
}

// ReconstructLoops orders an unordered boundary edge set into loops.
//
// Seeds are taken in input order. From the current tail the first
// unvisited incident edge (in input order) extends the trace, so the
// result is deterministic for a given edge order. Every edge is consumed
// exactly once. A trace that passes a vertex twice, which happens at
// pinch points where two holes touch, is split there into simple loops.
func ReconstructLoops(edges []kernel.Edge) []Loop {
	adj := make(map[int][]int, len(edges))
	for i, e := range edges {
		if e[0] == e[1] {
			continue
		}
		adj[e[0]] = append(adj[e[0]], i)
		adj[e[1]] = append(adj[e[1]], i)
	}

	visited := make([]bool, len(edges))
	var loops []Loop
	for seed, e := range edges {
		if visited[seed] {
			continue
		}
		visited[seed] = true
		if e[0] == e[1] {
			continue
		}

		chain := []int{e[0], e[1]}
		cur, tail := seed, e[1]
		for {
			next := -1
			for _, cand := range adj[tail] {
				if cand != cur && !visited[cand] {
					next = cand
					break
				}
			}
			if next < 0 {
				break
			}
			visited[next] = true
			tail = edges[next].Other(tail)
			chain = append(chain, tail)
			cur = next
		}

		for _, l := range splitChain(chain) {
			l.Junctions = lo.Filter(l.Vertices, func(v int, _ int) bool {
				return len(adj[v]) > 2
			})
			loops = append(loops, l)
		}
	}
	return loops
}

// splitChain cuts a traced vertex chain into simple loops wherever a
// vertex repeats. Whatever is left after the last repeat is an open chain.
func splitChain(chain []int) []Loop {
	var loops []Loop
	var bound []int
	pos := make(map[int]int, len(chain))

	for _, v := range chain {
		if j, ok := pos[v]; ok {
			sub := append([]int(nil), bound[j:]...)
			for _, u := range sub {
				delete(pos, u)
			}
			loops = append(loops, Loop{Vertices: sub, Edges: len(sub), Closed: true})
			bound = bound[:j]
		}
		pos[v] = len(bound)
		bound = append(bound, v)
	}

	if len(bound) > 1 {
		loops = append(loops, Loop{Vertices: bound, Edges: len(bound) - 1})
	}
	return loops
}
