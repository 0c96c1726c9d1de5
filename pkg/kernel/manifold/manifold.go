//go:build manifold

// Package manifold is a geometry kernel backed by the Manifold C library
// (https://github.com/elalish/manifold). Its booleans produce exact
// polyhedral solids, so meshes come out closed with sharp edges, unlike the
// sampled surfaces of the sdfx backend.
//
// Requires manifoldc. Build with: go build -tags=manifold
package manifold

/*
#cgo CFLAGS: -I/usr/local/include
#cgo LDFLAGS: -L/usr/local/lib -lmanifoldc

#include <stdlib.h>
#include <manifold/manifoldc.h>
*/
import "C"

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/chazu/mend/pkg/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	_ kernel.Kernel = (*ManifoldKernel)(nil)
	_ kernel.Solid  = (*manifoldSolid)(nil)
)

type manifoldSolid struct {
	ptr *C.ManifoldManifold
}

func (s *manifoldSolid) BoundingBox() (min, max [3]float64) {
	bbox := C.manifold_bounding_box(C.manifold_alloc_box(), s.ptr)
	defer C.manifold_delete_box(bbox)

	min = [3]float64{
		float64(C.manifold_box_min_x(bbox)),
		float64(C.manifold_box_min_y(bbox)),
		float64(C.manifold_box_min_z(bbox)),
	}
	max = [3]float64{
		float64(C.manifold_box_max_x(bbox)),
		float64(C.manifold_box_max_y(bbox)),
		float64(C.manifold_box_max_z(bbox)),
	}
	return min, max
}

// newSolid takes ownership of ptr; the finalizer frees it.
func newSolid(ptr *C.ManifoldManifold) *manifoldSolid {
	s := &manifoldSolid{ptr: ptr}
	runtime.SetFinalizer(s, func(s *manifoldSolid) {
		if s.ptr != nil {
			C.manifold_delete_manifold(s.ptr)
			s.ptr = nil
		}
	})
	return s
}

func unwrap(s kernel.Solid) *C.ManifoldManifold {
	return s.(*manifoldSolid).ptr
}

// ManifoldKernel implements kernel.Kernel with Manifold.
type ManifoldKernel struct{}

// New returns a Manifold kernel.
func New() (kernel.Kernel, error) {
	return &ManifoldKernel{}, nil
}

// Box has its minimum corner at the origin, like the sdfx backend.
func (k *ManifoldKernel) Box(x, y, z float64) kernel.Solid {
	ptr := C.manifold_cube(C.manifold_alloc_manifold(),
		C.double(x), C.double(y), C.double(z),
		C.int(0), // not centered
	)
	return newSolid(ptr)
}

// Cylinder is Z-aligned and centered at the origin.
func (k *ManifoldKernel) Cylinder(height, radius float64, segments int) kernel.Solid {
	ptr := C.manifold_cylinder(C.manifold_alloc_manifold(),
		C.double(height),
		C.double(radius), C.double(radius),
		C.int(segments),
		C.int(1), // centered
	)
	return newSolid(ptr)
}

func (k *ManifoldKernel) Union(a, b kernel.Solid) kernel.Solid {
	return newSolid(C.manifold_union(C.manifold_alloc_manifold(), unwrap(a), unwrap(b)))
}

func (k *ManifoldKernel) Difference(a, b kernel.Solid) kernel.Solid {
	return newSolid(C.manifold_difference(C.manifold_alloc_manifold(), unwrap(a), unwrap(b)))
}

func (k *ManifoldKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return newSolid(C.manifold_intersection(C.manifold_alloc_manifold(), unwrap(a), unwrap(b)))
}

func (k *ManifoldKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	ptr := C.manifold_translate(C.manifold_alloc_manifold(), unwrap(s),
		C.double(x), C.double(y), C.double(z))
	return newSolid(ptr)
}

// Rotate applies Euler angles in degrees.
func (k *ManifoldKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	ptr := C.manifold_rotate(C.manifold_alloc_manifold(), unwrap(s),
		C.double(x), C.double(y), C.double(z))
	return newSolid(ptr)
}

// ToMesh reads Manifold's MeshGL. The first three vertex properties are the
// position; normals are recomputed from the triangles since MeshGL only
// carries them when a solid was built with them.
func (k *ManifoldKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	meshGL := C.manifold_get_meshgl(C.manifold_alloc_meshgl(), unwrap(s))
	defer C.manifold_delete_meshgl(meshGL)

	numVert := int(C.manifold_meshgl_num_vert(meshGL))
	numTri := int(C.manifold_meshgl_num_tri(meshGL))
	if numVert == 0 || numTri == 0 {
		return &kernel.Mesh{}, nil
	}
	numProp := int(C.manifold_meshgl_num_prop(meshGL))
	if numProp < 3 {
		return nil, fmt.Errorf("manifold: %d vertex properties, need at least 3", numProp)
	}

	props := make([]float32, numVert*numProp)
	C.manifold_meshgl_vert_properties((*C.float)(unsafe.Pointer(&props[0])), meshGL)
	indices := make([]uint32, numTri*3)
	C.manifold_meshgl_tri_verts((*C.uint32_t)(unsafe.Pointer(&indices[0])), meshGL)

	vertices := make([]float32, 0, numVert*3)
	for i := 0; i < numVert; i++ {
		vertices = append(vertices, props[i*numProp:i*numProp+3]...)
	}
	for _, idx := range indices {
		if int(idx) >= numVert {
			return nil, fmt.Errorf("manifold: triangle index %d out of range (%d vertices)", idx, numVert)
		}
	}

	m := &kernel.Mesh{Vertices: vertices, Indices: indices}
	m.Normals = vertexNormals(m)
	return m, nil
}

// vertexNormals averages the area-weighted normals of incident triangles.
func vertexNormals(m *kernel.Mesh) []float32 {
	acc := make([]r3.Vec, m.VertexCount())
	for t := 0; t < m.TriangleCount(); t++ {
		tri := m.Triangle(t)
		a, b, c := vec(m.Vertex(tri[0])), vec(m.Vertex(tri[1])), vec(m.Vertex(tri[2]))
		n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
		for _, v := range tri {
			acc[v] = r3.Add(acc[v], n)
		}
	}
	out := make([]float32, 0, len(acc)*3)
	for _, n := range acc {
		if r3.Norm(n) > 1e-12 {
			n = r3.Unit(n)
		}
		out = append(out, float32(n.X), float32(n.Y), float32(n.Z))
	}
	return out
}

func vec(p [3]float64) r3.Vec {
	return r3.Vec{X: p[0], Y: p[1], Z: p[2]}
}
