package holes

import (
	"fmt"

	"github.com/chazu/mend/pkg/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

// CollectBoundaryEdges asks the host for the mesh's boundary edges.
// A closed mesh yields ErrNoBoundaryEdges; a failed query is wrapped in
// ErrHostQueryFailed.
func CollectBoundaryEdges(host kernel.Host, id kernel.MeshID) ([]kernel.Edge, error) {
	edges, err := host.BoundaryEdges(id)
	if err != nil {
		return nil, fmt.Errorf("%w: boundary edges of %s: %w", ErrHostQueryFailed, id, err)
	}
	if len(edges) == 0 {
		return nil, ErrNoBoundaryEdges
	}
	return edges, nil
}

// vertexPositions fetches the world positions of ids in order.
func vertexPositions(host kernel.Host, id kernel.MeshID, ids []int) ([]r3.Vec, error) {
	out := make([]r3.Vec, len(ids))
	for i, v := range ids {
		p, err := host.VertexPosition(id, v)
		if err != nil {
			return nil, fmt.Errorf("%w: position of vertex %d: %w", ErrHostQueryFailed, v, err)
		}
		out[i] = p
	}
	return out, nil
}
