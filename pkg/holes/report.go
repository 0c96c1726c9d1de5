package holes

import (
	"fmt"
	"strings"

	"github.com/chazu/mend/pkg/kernel"
	"github.com/samber/lo"
)

// State is a step of the repair state machine. A mesh moves through
// Collecting, ReconstructingLoops, the per-loop steps, CleaningUp and
// Done; a loop ends in Done or SkippedWithWarning.
type State int

const (
	Collecting State = iota
	ReconstructingLoops
	FittingPlane
	Projecting
	Triangulating
	EmittingFaces
	CleaningUp
	Done
	SkippedWithWarning
)

func (s State) String() string {
	switch s {
	case Collecting:
		return "collecting"
	case ReconstructingLoops:
		return "reconstructing-loops"
	case FittingPlane:
		return "fitting-plane"
	case Projecting:
		return "projecting"
	case Triangulating:
		return "triangulating"
	case EmittingFaces:
		return "emitting-faces"
	case CleaningUp:
		return "cleaning-up"
	case Done:
		return "done"
	case SkippedWithWarning:
		return "skipped"
	default:
		return "unknown"
	}
}

// LoopReport records what happened to one boundary loop.
type LoopReport struct {
	Index         int
	Vertices      []int
	BoundaryEdges int
	Triangles     int // triangles produced by ear clipping
	FacesCreated  int // triangles the host accepted
	State         State
	Diagnostics   []error
}

// Report summarizes one RepairHoles call.
type Report struct {
	Mesh          kernel.MeshID
	BoundaryEdges int
	Loops         []LoopReport
	Diagnostics   []error // mesh-level conditions, e.g. cleanup failures
}

// FacesCreated totals the faces added across all loops.
func (r *Report) FacesCreated() int {
	return lo.SumBy(r.Loops, func(l LoopReport) int { return l.FacesCreated })
}

// Repaired counts loops that reached Done.
func (r *Report) Repaired() int {
	return lo.CountBy(r.Loops, func(l LoopReport) bool { return l.State == Done })
}

// Skipped counts loops that ended in SkippedWithWarning.
func (r *Report) Skipped() int {
	return lo.CountBy(r.Loops, func(l LoopReport) bool { return l.State == SkippedWithWarning })
}

// Warnings returns every diagnostic, mesh-level first.
func (r *Report) Warnings() []error {
	out := append([]error(nil), r.Diagnostics...)
	for _, l := range r.Loops {
		out = append(out, l.Diagnostics...)
	}
	return out
}

// String renders a short multi-line summary.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "mesh %s: %d boundary edges, %d loops, %d repaired, %d faces created\n",
		r.Mesh, r.BoundaryEdges, len(r.Loops), r.Repaired(), r.FacesCreated())
	for _, l := range r.Loops {
		fmt.Fprintf(&b, "  loop %d: %d vertices, %d edges, %d/%d faces, %s\n",
			l.Index, len(l.Vertices), l.BoundaryEdges, l.FacesCreated, l.Triangles, l.State)
		for _, d := range l.Diagnostics {
			fmt.Fprintf(&b, "    warning: %v\n", d)
		}
	}
	for _, d := range r.Diagnostics {
		fmt.Fprintf(&b, "  warning: %v\n", d)
	}
	return b.String()
}
