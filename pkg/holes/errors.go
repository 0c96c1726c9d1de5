package holes

import "errors"

// Conditions reported by the repair pipeline. Only ErrHostQueryFailed is
// returned from RepairHoles; the rest are recorded as diagnostics on the
// Report and processing continues.
var (
	// ErrNoBoundaryEdges signals a closed mesh: nothing to repair.
	ErrNoBoundaryEdges = errors.New("no boundary edges")

	// ErrDegenerateLoop marks a loop with fewer than 3 unique vertices.
	ErrDegenerateLoop = errors.New("degenerate loop")

	// ErrInsufficientPoints is returned by FitPlane and EarClip for
	// inputs of fewer than 3 points.
	ErrInsufficientPoints = errors.New("insufficient points")

	// ErrDegeneratePlane means the plane fit could not be computed.
	ErrDegeneratePlane = errors.New("degenerate plane")

	// ErrTriangulationIncomplete means ear clipping ran out of ears before
	// consuming the polygon. The triangles found so far are still valid.
	ErrTriangulationIncomplete = errors.New("triangulation incomplete")

	// ErrFaceCreationFailed wraps a host rejection of a single triangle.
	ErrFaceCreationFailed = errors.New("face creation failed")

	// ErrHostQueryFailed wraps a failed boundary or position query. It
	// aborts the repair.
	ErrHostQueryFailed = errors.New("host query failed")

	// ErrNonManifoldVertex flags a vertex with more than two incident
	// boundary edges. Loops through it were separated by first match.
	ErrNonManifoldVertex = errors.New("non-manifold boundary vertex")

	// ErrOpenChain marks a boundary trace that did not return to its start.
	ErrOpenChain = errors.New("boundary chain is not closed")

	// ErrPreTriangulateFailed wraps a failed Retriangulate call made
	// before boundary collection.
	ErrPreTriangulateFailed = errors.New("pre-triangulation failed")

	// ErrCleanupFailed wraps a failed post-repair host operation.
	ErrCleanupFailed = errors.New("cleanup failed")
)
