// Package kernel defines the abstract interfaces the rest of mend is built
// against: the geometry kernel that produces meshes from solids, and the
// host that owns a mutable polygon mesh and answers topology queries.
// Implementations (sdfx for solids, scene for hosts) live in their own
// packages so backends can be swapped without touching the repair code.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64, segments int) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// ToMesh tessellates a solid into an indexed triangle mesh whose
	// triangles share corner vertices.
	ToMesh(s Solid) (*Mesh, error)
}
