// Package tessellate converts between scene polygon meshes and the flat
// triangle buffers in kernel.Mesh. One buffer is produced per scene mesh.
package tessellate

import (
	"fmt"

	"github.com/chazu/mend/pkg/kernel"
	"github.com/chazu/mend/pkg/scene"
	"gonum.org/v1/gonum/spatial/r3"
)

// Tessellate flattens every mesh in s, in scene order. The scene is read
// through snapshots and never mutated.
func Tessellate(s *scene.Scene) ([]*kernel.Mesh, error) {
	if s == nil {
		return nil, nil
	}

	var meshes []*kernel.Mesh
	for _, id := range s.List() {
		m, err := s.Get(id)
		if err != nil {
			return nil, fmt.Errorf("tessellate: mesh %s: %w", id, err)
		}
		meshes = append(meshes, Flatten(m))
	}
	return meshes, nil
}

// Flatten fan-splits every polygon of m into triangles and computes smooth
// vertex normals by summing the area-weighted normals of incident faces.
// Vertices that belong to no face get a zero normal.
func Flatten(m *scene.Mesh) *kernel.Mesh {
	out := &kernel.Mesh{
		Vertices: make([]float32, 0, len(m.Positions)*3),
		Normals:  make([]float32, 0, len(m.Positions)*3),
		PartName: m.Name,
	}
	for _, p := range m.Positions {
		out.Vertices = append(out.Vertices, float32(p.X), float32(p.Y), float32(p.Z))
	}

	acc := make([]r3.Vec, len(m.Positions))
	for _, f := range m.Faces {
		for i := 1; i < len(f)-1; i++ {
			a, b, c := f[0], f[i], f[i+1]
			out.Indices = append(out.Indices, uint32(a), uint32(b), uint32(c))

			// The cross product's length is twice the area, which is the
			// weight we want.
			n := r3.Cross(r3.Sub(m.Positions[b], m.Positions[a]), r3.Sub(m.Positions[c], m.Positions[a]))
			acc[a] = r3.Add(acc[a], n)
			acc[b] = r3.Add(acc[b], n)
			acc[c] = r3.Add(acc[c], n)
		}
	}

	for _, n := range acc {
		if l := r3.Norm(n); l > 0 {
			n = r3.Scale(1/l, n)
		}
		out.Normals = append(out.Normals, float32(n.X), float32(n.Y), float32(n.Z))
	}
	return out
}

// FromKernel converts a triangle buffer into a scene mesh named after its
// part. Normals are dropped; the scene derives orientation from winding.
func FromKernel(km *kernel.Mesh) *scene.Mesh {
	m := &scene.Mesh{
		Name:      km.PartName,
		Positions: make([]r3.Vec, km.VertexCount()),
		Faces:     make([][]int, km.TriangleCount()),
	}
	for i := range m.Positions {
		v := km.Vertex(i)
		m.Positions[i] = r3.Vec{X: v[0], Y: v[1], Z: v[2]}
	}
	for i := range m.Faces {
		t := km.Triangle(i)
		m.Faces[i] = t[:]
	}
	return m
}
