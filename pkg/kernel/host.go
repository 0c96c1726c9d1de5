package kernel

import (
	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
)

// MeshID is the handle a Host hands out for each mesh it owns.
type MeshID = uuid.UUID

// FaceID identifies a face created through Host.CreateFace.
type FaceID int

// Edge is an unordered pair of vertex indices.
type Edge [2]int

// Canonical returns the edge with its smaller index first so that (a,b)
// and (b,a) compare equal.
func (e Edge) Canonical() Edge {
	if e[0] > e[1] {
		return Edge{e[1], e[0]}
	}
	return e
}

// Other returns the endpoint of e that is not v. If v is not an endpoint
// the first endpoint is returned.
func (e Edge) Other(v int) int {
	if e[0] == v {
		return e[1]
	}
	return e[0]
}

// Host is a mesh owner that exposes the topology queries and mutations
// hole repair needs. Every call names the mesh explicitly; a Host may own
// many meshes. Implementations must serialize mutations.
type Host interface {
	// BoundaryEdges lists edges with exactly one incident face. Each edge
	// keeps the direction it has in its owning face's winding.
	BoundaryEdges(id MeshID) ([]Edge, error)

	// VertexPosition returns the world-space position of vertex v.
	VertexPosition(id MeshID, v int) (r3.Vec, error)

	// CreateFace adds a triangle with the given corner positions.
	CreateFace(id MeshID, corners [3]r3.Vec) (FaceID, error)

	// MergeVertices welds vertices closer than distance.
	MergeVertices(id MeshID, distance float64) error

	// ConformNormals makes face winding consistent across shared edges.
	ConformNormals(id MeshID) error

	// Retriangulate splits faces with more than three corners.
	Retriangulate(id MeshID) error
}
