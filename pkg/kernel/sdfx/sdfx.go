// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library. It is the source of
// the closed meshes mend punches and repairs in scripts and tests.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/mend/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// DefaultMeshCells controls marching cubes resolution along the longest
// bounding box axis.
const DefaultMeshCells = 200

type sdfxSolid struct {
	s sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	cells int
}

// New returns a kernel meshing at DefaultMeshCells.
func New() *SdfxKernel {
	return &SdfxKernel{cells: DefaultMeshCells}
}

// NewWithCells returns a kernel meshing at the given resolution.
// Non-positive values fall back to DefaultMeshCells.
func NewWithCells(cells int) *SdfxKernel {
	if cells <= 0 {
		cells = DefaultMeshCells
	}
	return &SdfxKernel{cells: cells}
}

// Cells reports the marching cubes resolution.
func (k *SdfxKernel) Cells() int {
	return k.cells
}

func unwrap(s kernel.Solid) sdf.SDF3 {
	return s.(*sdfxSolid).s
}

func wrap(s sdf.SDF3) kernel.Solid {
	return &sdfxSolid{s: s}
}

// Box creates a box with its minimum corner at the origin.
// sdf.Box3D centers the box, so it is shifted by half its dimensions.
func (k *SdfxKernel) Box(x, y, z float64) kernel.Solid {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Box3D: %v", err))
	}
	m := sdf.Translate3d(v3.Vec{X: x / 2, Y: y / 2, Z: z / 2})
	return wrap(sdf.Transform3D(s, m))
}

// Cylinder creates a Z-aligned cylinder centered at the origin.
// segments is ignored; the SDF surface is smooth.
func (k *SdfxKernel) Cylinder(height, radius float64, segments int) kernel.Solid {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Cylinder3D: %v", err))
	}
	return wrap(s)
}

// Union returns the union of two solids.
func (k *SdfxKernel) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Union3D(unwrap(a), unwrap(b)))
}

// Difference returns a - b.
func (k *SdfxKernel) Difference(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Difference3D(unwrap(a), unwrap(b)))
}

// Intersection returns the intersection of two solids.
func (k *SdfxKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Intersect3D(unwrap(a), unwrap(b)))
}

// Translate moves a solid by (x, y, z).
func (k *SdfxKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	m := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// Rotate rotates a solid by Euler angles (degrees) around X, then Y, then Z.
func (k *SdfxKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	xRad := x * math.Pi / 180.0
	yRad := y * math.Pi / 180.0
	zRad := z * math.Pi / 180.0

	m := sdf.RotateZ(zRad).Mul(sdf.RotateY(yRad)).Mul(sdf.RotateX(xRad))
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// ToMesh runs marching cubes and welds the resulting triangle soup so
// that neighbouring triangles share corner vertices. Hole repair works on
// shared topology; an unwelded soup would report every edge as boundary.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	renderer := render.NewMarchingCubesUniform(k.cells)
	triangles := render.ToTriangles(unwrap(s), renderer)
	if len(triangles) == 0 {
		return nil, fmt.Errorf("sdfx: marching cubes produced no triangles")
	}

	w := newWelder(len(triangles))
	for _, tri := range triangles {
		n := tri.Normal()
		if math.IsNaN(n.X) || math.IsNaN(n.Y) || math.IsNaN(n.Z) {
			// Zero-area sliver; it would only add a degenerate face.
			continue
		}
		var corners [3]uint32
		for j := 0; j < 3; j++ {
			corners[j] = w.add(tri[j], n)
		}
		if corners[0] == corners[1] || corners[1] == corners[2] || corners[2] == corners[0] {
			continue
		}
		w.indices = append(w.indices, corners[0], corners[1], corners[2])
	}

	return w.mesh(), nil
}

// welder dedupes float32-rounded corner positions and accumulates face
// normals per shared vertex.
type welder struct {
	index    map[[3]float32]uint32
	vertices []float32
	normals  []float64
	indices  []uint32
}

func newWelder(triCount int) *welder {
	return &welder{
		index:    make(map[[3]float32]uint32, triCount),
		vertices: make([]float32, 0, triCount*3),
		normals:  make([]float64, 0, triCount*3),
		indices:  make([]uint32, 0, triCount*3),
	}
}

func (w *welder) add(p, n v3.Vec) uint32 {
	key := [3]float32{float32(p.X), float32(p.Y), float32(p.Z)}
	idx, ok := w.index[key]
	if !ok {
		idx = uint32(len(w.vertices) / 3)
		w.index[key] = idx
		w.vertices = append(w.vertices, key[0], key[1], key[2])
		w.normals = append(w.normals, 0, 0, 0)
	}
	w.normals[idx*3] += n.X
	w.normals[idx*3+1] += n.Y
	w.normals[idx*3+2] += n.Z
	return idx
}

func (w *welder) mesh() *kernel.Mesh {
	normals := make([]float32, len(w.normals))
	for i := 0; i < len(w.normals); i += 3 {
		x, y, z := w.normals[i], w.normals[i+1], w.normals[i+2]
		l := math.Sqrt(x*x + y*y + z*z)
		if l == 0 {
			continue
		}
		normals[i] = float32(x / l)
		normals[i+1] = float32(y / l)
		normals[i+2] = float32(z / l)
	}
	return &kernel.Mesh{
		Vertices: w.vertices,
		Normals:  normals,
		Indices:  w.indices,
	}
}
