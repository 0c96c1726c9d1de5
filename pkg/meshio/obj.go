package meshio

import (
	"fmt"

	"github.com/chazu/mend/pkg/scene"
	"github.com/nat-n/gomesh/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// LoadOBJ reads the vertices and triangles of a Wavefront OBJ file.
func LoadOBJ(path string) (*scene.Mesh, error) {
	gm, err := mesh.ReadOBJFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return fromGomesh(gm)
}

// SaveOBJ writes m as a triangle OBJ file. Polygons are fan-split.
func SaveOBJ(path string, m *scene.Mesh) error {
	return toGomesh(m).WriteOBJFile(path)
}

func fromGomesh(gm *mesh.Mesh) (*scene.Mesh, error) {
	m := &scene.Mesh{
		Name:      gm.Name,
		Positions: make([]r3.Vec, 0, gm.Verts.Len()),
		Faces:     make([][]int, 0, gm.Faces.Len()),
	}
	gm.Verts.EachWithIndex(func(_ int, x, y, z float64) {
		m.Positions = append(m.Positions, r3.Vec{X: x, Y: y, Z: z})
	})
	gm.Faces.Each(func(a, b, c int) {
		m.Faces = append(m.Faces, []int{a, b, c})
	})
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return m, nil
}

func toGomesh(m *scene.Mesh) *mesh.Mesh {
	gm := mesh.New(m.Name)
	for _, p := range m.Positions {
		gm.Verts.Append(p.X, p.Y, p.Z)
	}
	for _, t := range triangles(m) {
		gm.Faces.Append(t[0], t[1], t[2])
	}
	return gm
}
