package meshio

import (
	"fmt"
	"io"

	"github.com/chazu/mend/pkg/scene"
	"github.com/krasin/stl"
	"gonum.org/v1/gonum/spatial/r3"
)

// welder assigns one vertex index per distinct position.
type welder struct {
	m     *scene.Mesh
	index map[r3.Vec]int
}

func newWelder(m *scene.Mesh) *welder {
	return &welder{m: m, index: make(map[r3.Vec]int)}
}

func (w *welder) vertex(p r3.Vec) int {
	if i, ok := w.index[p]; ok {
		return i
	}
	i := len(w.m.Positions)
	w.m.Positions = append(w.m.Positions, p)
	w.index[p] = i
	return i
}

// facet adds a face over corners, dropping it when welding collapsed any
// two of them.
func (w *welder) facet(corners []r3.Vec) {
	face := make([]int, len(corners))
	seen := make(map[int]bool, len(corners))
	for i, c := range corners {
		v := w.vertex(c)
		if seen[v] {
			return
		}
		seen[v] = true
		face[i] = v
	}
	w.m.Faces = append(w.m.Faces, face)
}

func fromPoint(p stl.Point) r3.Vec {
	return r3.Vec{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])}
}

func toPoint(v r3.Vec) stl.Point {
	return stl.Point{float32(v.X), float32(v.Y), float32(v.Z)}
}

// ReadSTL parses binary or ASCII STL. Corners with identical coordinates
// become one shared vertex, so the mesh has real edge topology.
func ReadSTL(r io.Reader) (*scene.Mesh, error) {
	tris, err := stl.Read(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	m := &scene.Mesh{}
	w := newWelder(m)
	for _, t := range tris {
		w.facet([]r3.Vec{fromPoint(t.V[0]), fromPoint(t.V[1]), fromPoint(t.V[2])})
	}
	return m, nil
}

// WriteSTL writes binary STL. Polygons are fan-split and every facet
// carries its unit normal, or zero for a degenerate facet.
func WriteSTL(w io.Writer, m *scene.Mesh) error {
	tris := triangles(m)
	out := make([]stl.Triangle, 0, len(tris))
	for _, t := range tris {
		a, b, c := m.Positions[t[0]], m.Positions[t[1]], m.Positions[t[2]]
		n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
		if l := r3.Norm(n); l > 0 {
			n = r3.Scale(1/l, n)
		}
		out = append(out, stl.Triangle{
			N: toPoint(n),
			V: [3]stl.Point{toPoint(a), toPoint(b), toPoint(c)},
		})
	}
	return stl.WriteBinary(w, out)
}
