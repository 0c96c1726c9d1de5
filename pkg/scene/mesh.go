package scene

import (
	"fmt"
	"math"
	"slices"

	"github.com/chazu/mend/pkg/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

// Mesh is an indexed polygon mesh. Faces list vertex indices in winding
// order and may have any number of corners ≥ 3.
type Mesh struct {
	Name      string
	Positions []r3.Vec
	Faces     [][]int
}

// Clone returns a deep copy.
func (m *Mesh) Clone() *Mesh {
	faces := make([][]int, len(m.Faces))
	for i, f := range m.Faces {
		faces[i] = slices.Clone(f)
	}
	return &Mesh{
		Name:      m.Name,
		Positions: slices.Clone(m.Positions),
		Faces:     faces,
	}
}

// Validate checks face arity and index ranges.
func (m *Mesh) Validate() error {
	for i, f := range m.Faces {
		if len(f) < 3 {
			return fmt.Errorf("%w: face %d has %d corners", ErrInvalidFace, i, len(f))
		}
		for _, v := range f {
			if v < 0 || v >= len(m.Positions) {
				return fmt.Errorf("%w: face %d references vertex %d of %d", ErrVertexOutOfRange, i, v, len(m.Positions))
			}
		}
	}
	return nil
}

// edgeFaces maps each canonical edge to the faces that use it.
func (m *Mesh) edgeFaces() map[kernel.Edge][]int {
	ef := make(map[kernel.Edge][]int, len(m.Faces)*3/2)
	for fi, f := range m.Faces {
		for j := range f {
			e := kernel.Edge{f[j], f[(j+1)%len(f)]}.Canonical()
			ef[e] = append(ef[e], fi)
		}
	}
	return ef
}

// BoundaryEdges returns edges used by exactly one face, oriented and
// ordered as they appear in the face list.
func (m *Mesh) BoundaryEdges() []kernel.Edge {
	ef := m.edgeFaces()
	var out []kernel.Edge
	for _, f := range m.Faces {
		for j := range f {
			e := kernel.Edge{f[j], f[(j+1)%len(f)]}
			if len(ef[e.Canonical()]) == 1 {
				out = append(out, e)
			}
		}
	}
	return out
}

// Stats counts faces by arity and classifies edges.
type Stats struct {
	Vertices         int
	Faces            int
	Triangles        int
	Quads            int
	NGons            int // faces with more than four corners
	BoundaryEdges    int
	NonManifoldEdges int // edges shared by more than two faces
}

// Stats returns face and edge statistics.
func (m *Mesh) Stats() Stats {
	s := Stats{Vertices: len(m.Positions), Faces: len(m.Faces)}
	for _, f := range m.Faces {
		switch {
		case len(f) == 3:
			s.Triangles++
		case len(f) == 4:
			s.Quads++
		case len(f) > 4:
			s.NGons++
		}
	}
	for _, faces := range m.edgeFaces() {
		switch {
		case len(faces) == 1:
			s.BoundaryEdges++
		case len(faces) > 2:
			s.NonManifoldEdges++
		}
	}
	return s
}

// triangleArea returns the area of triangle abc.
func triangleArea(a, b, c r3.Vec) float64 {
	return r3.Norm(r3.Cross(r3.Sub(b, a), r3.Sub(c, a))) / 2
}

// minFaceArea is the area below which CreateFace rejects a triangle.
const minFaceArea = 1e-12

// addTriangle appends three fresh corners and a face over them.
func (m *Mesh) addTriangle(corners [3]r3.Vec) (int, error) {
	if a := triangleArea(corners[0], corners[1], corners[2]); !(a > minFaceArea) {
		return 0, fmt.Errorf("%w: area %g", ErrDegenerateFace, a)
	}
	base := len(m.Positions)
	m.Positions = append(m.Positions, corners[0], corners[1], corners[2])
	m.Faces = append(m.Faces, []int{base, base + 1, base + 2})
	return len(m.Faces) - 1, nil
}

// weld merges vertices closer than dist using a uniform grid with cell
// size dist, so only the 27 neighbouring cells need checking. Faces are
// remapped, repeated corners collapse, faces left with fewer than three
// corners are dropped, and unreferenced vertices are removed.
func (m *Mesh) weld(dist float64) {
	type cell [3]int64
	cellOf := func(p r3.Vec) cell {
		return cell{
			int64(math.Floor(p.X / dist)),
			int64(math.Floor(p.Y / dist)),
			int64(math.Floor(p.Z / dist)),
		}
	}

	grid := make(map[cell][]int)
	remap := make([]int, len(m.Positions))
	var kept []r3.Vec
	for i, p := range m.Positions {
		c := cellOf(p)
		found := -1
	search:
		for dx := int64(-1); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for dz := int64(-1); dz <= 1; dz++ {
					for _, k := range grid[cell{c[0] + dx, c[1] + dy, c[2] + dz}] {
						if r3.Norm(r3.Sub(kept[k], p)) <= dist {
							found = k
							break search
						}
					}
				}
			}
		}
		if found < 0 {
			found = len(kept)
			kept = append(kept, p)
			grid[c] = append(grid[c], found)
		}
		remap[i] = found
	}

	faces := m.Faces[:0]
	for _, f := range m.Faces {
		nf := make([]int, 0, len(f))
		for _, v := range f {
			nv := remap[v]
			if len(nf) > 0 && nf[len(nf)-1] == nv {
				continue
			}
			nf = append(nf, nv)
		}
		for len(nf) > 1 && nf[0] == nf[len(nf)-1] {
			nf = nf[:len(nf)-1]
		}
		if len(nf) >= 3 {
			faces = append(faces, nf)
		}
	}
	m.Faces = faces
	m.Positions = kept
	m.compact()
}

// compact drops vertices no face references and renumbers the rest.
func (m *Mesh) compact() {
	used := make([]int, len(m.Positions))
	for i := range used {
		used[i] = -1
	}
	var positions []r3.Vec
	for _, f := range m.Faces {
		for j, v := range f {
			if used[v] < 0 {
				used[v] = len(positions)
				positions = append(positions, m.Positions[v])
			}
			f[j] = used[v]
		}
	}
	m.Positions = positions
}

// hasDirectedEdge reports whether face f traverses a→b.
func hasDirectedEdge(f []int, a, b int) bool {
	for j := range f {
		if f[j] == a && f[(j+1)%len(f)] == b {
			return true
		}
	}
	return false
}

// conform walks face adjacency breadth-first from the lowest unvisited
// face of each component and flips neighbours that traverse a shared edge
// in the same direction. Edges with more than two faces are not crossed.
// It returns the number of faces flipped.
func (m *Mesh) conform() int {
	ef := m.edgeFaces()
	visited := make([]bool, len(m.Faces))
	flipped := 0

	for seed := range m.Faces {
		if visited[seed] {
			continue
		}
		visited[seed] = true
		queue := []int{seed}
		for len(queue) > 0 {
			fi := queue[0]
			queue = queue[1:]
			f := m.Faces[fi]
			for j := range f {
				a, b := f[j], f[(j+1)%len(f)]
				shared := ef[kernel.Edge{a, b}.Canonical()]
				if len(shared) != 2 {
					continue
				}
				for _, gi := range shared {
					if gi == fi || visited[gi] {
						continue
					}
					if hasDirectedEdge(m.Faces[gi], a, b) {
						slices.Reverse(m.Faces[gi])
						flipped++
					}
					visited[gi] = true
					queue = append(queue, gi)
				}
			}
		}
	}
	return flipped
}

// fanTriangulate splits every face with more than three corners into a
// fan around its first corner.
func (m *Mesh) fanTriangulate() int {
	split := 0
	faces := make([][]int, 0, len(m.Faces))
	for _, f := range m.Faces {
		if len(f) == 3 {
			faces = append(faces, f)
			continue
		}
		for i := 1; i < len(f)-1; i++ {
			faces = append(faces, []int{f[0], f[i], f[i+1]})
		}
		split++
	}
	m.Faces = faces
	return split
}
