package holes

import "runtime"

// DefaultMergeDistance is the weld tolerance used to stitch new face
// corners onto the existing boundary vertices.
const DefaultMergeDistance = 0.001

// Options tunes a repair run.
type Options struct {
	// MergeDistance is passed to Host.MergeVertices after all loops are
	// filled. Zero or negative skips the merge.
	MergeDistance float64

	// Workers bounds how many loops are planned concurrently. Values
	// below 1 mean one.
	Workers int

	// PreTriangulate splits every polygon of the mesh into triangles
	// before boundary edges are collected.
	PreTriangulate bool

	ConformNormals bool
	Retriangulate  bool
}

// DefaultOptions welds at DefaultMergeDistance, plans on every CPU and
// runs both normal conforming and retriangulation.
func DefaultOptions() Options {
	return Options{
		MergeDistance:  DefaultMergeDistance,
		Workers:        runtime.NumCPU(),
		ConformNormals: true,
		Retriangulate:  true,
	}
}
