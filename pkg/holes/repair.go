// Package holes fills the holes of polygon meshes. Boundary edges are
// ordered into loops, each loop is flattened onto its best-fit plane,
// ear-clipped, and the resulting triangles are emitted through the host.
package holes

import (
	"errors"
	"fmt"
	"log"
	"slices"

	"github.com/chazu/mend/pkg/kernel"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"
)

// Repairer fills holes in meshes owned by a Host.
type Repairer struct {
	host kernel.Host
	opts Options
}

// NewRepairer returns a Repairer driving host with opts.
func NewRepairer(host kernel.Host, opts Options) *Repairer {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Repairer{host: host, opts: opts}
}

// RepairHoles is shorthand for NewRepairer(host, opts).RepairHoles(id).
func RepairHoles(host kernel.Host, id kernel.MeshID, opts Options) (*Report, error) {
	return NewRepairer(host, opts).RepairHoles(id)
}

// loopPlan carries one loop through the pipeline.
type loopPlan struct {
	report    LoopReport
	ids       []int
	points    []r3.Vec
	triangles []Triangle
}

func (p *loopPlan) warn(err error) {
	log.Printf("holes: loop %d (%s): %v", p.report.Index, p.report.State, err)
	p.report.Diagnostics = append(p.report.Diagnostics, err)
}

func (p *loopPlan) skip(err error) {
	p.warn(err)
	p.report.State = SkippedWithWarning
}

func (p *loopPlan) skipped() bool {
	return p.report.State == SkippedWithWarning
}

// RepairHoles fills every hole of mesh id. Per-loop and per-face problems
// are recorded on the report; only a failed host query is returned as
// an error. A closed mesh yields an empty report and is left untouched
// unless PreTriangulate is set.
func (r *Repairer) RepairHoles(id kernel.MeshID) (*Report, error) {
	report := &Report{Mesh: id}

	if r.opts.PreTriangulate {
		if err := r.host.Retriangulate(id); err != nil {
			err = fmt.Errorf("%w: %w", ErrPreTriangulateFailed, err)
			log.Printf("holes: mesh %s (%s): %v", id, Collecting, err)
			report.Diagnostics = append(report.Diagnostics, err)
		}
	}

	edges, err := CollectBoundaryEdges(r.host, id)
	if errors.Is(err, ErrNoBoundaryEdges) {
		log.Printf("holes: mesh %s has no boundary edges", id)
		return report, nil
	}
	if err != nil {
		return nil, err
	}
	report.BoundaryEdges = len(edges)

	loops := ReconstructLoops(edges)
	log.Printf("holes: mesh %s: %d boundary edges in %d loops", id, len(edges), len(loops))

	plans := make([]*loopPlan, len(loops))
	for i, l := range loops {
		p := &loopPlan{report: LoopReport{
			Index:         i,
			Vertices:      l.Vertices,
			BoundaryEdges: l.Edges,
			State:         ReconstructingLoops,
		}}
		plans[i] = p

		for _, v := range l.Junctions {
			p.warn(fmt.Errorf("%w: vertex %d", ErrNonManifoldVertex, v))
		}
		if !l.Closed {
			p.warn(fmt.Errorf("%w: %d vertices", ErrOpenChain, len(l.Vertices)))
		}
		if err := l.Validate(); err != nil {
			p.skip(err)
			continue
		}

		// Boundary edges run the way their owning faces wind, so the
		// patch must traverse the loop the other way to face outward.
		p.ids = l.Unique()
		slices.Reverse(p.ids)
	}

	var g errgroup.Group
	g.SetLimit(r.opts.Workers)
	for _, p := range plans {
		if p.skipped() {
			continue
		}
		g.Go(func() error {
			points, err := vertexPositions(r.host, id, p.ids)
			if err != nil {
				return err
			}
			p.points = points
			p.triangulate()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, p := range plans {
		if !p.skipped() {
			r.emit(id, p)
		}
		report.Loops = append(report.Loops, p.report)
	}

	r.cleanup(id, report)
	log.Printf("holes: mesh %s: %d of %d loops repaired, %d faces created",
		id, report.Repaired(), len(report.Loops), report.FacesCreated())
	return report, nil
}

// triangulate runs plane fitting, projection and ear clipping. It touches
// only the plan, so plans may run concurrently.
func (p *loopPlan) triangulate() {
	p.report.State = FittingPlane
	pl, err := FitPlane(p.points)
	if err != nil {
		p.skip(err)
		return
	}
	pl = OrientPlane(pl, p.points)

	p.report.State = Projecting
	flat, _ := Flatten(p.points, pl)

	p.report.State = Triangulating
	tris, err := EarClip(flat, p.ids)
	p.triangles = tris
	p.report.Triangles = len(tris)
	if err != nil {
		if errors.Is(err, ErrTriangulationIncomplete) && len(tris) > 0 {
			p.warn(err)
			return
		}
		p.skip(err)
	}
}

// emit creates the planned triangles on the host, one at a time.
func (r *Repairer) emit(id kernel.MeshID, p *loopPlan) {
	p.report.State = EmittingFaces
	pos := make(map[int]r3.Vec, len(p.ids))
	for i, v := range p.ids {
		pos[v] = p.points[i]
	}

	for _, tri := range p.triangles {
		corners := [3]r3.Vec{pos[tri[0]], pos[tri[1]], pos[tri[2]]}
		if _, err := r.host.CreateFace(id, corners); err != nil {
			p.warn(fmt.Errorf("%w: triangle %v: %w", ErrFaceCreationFailed, tri, err))
			continue
		}
		p.report.FacesCreated++
	}

	if p.report.FacesCreated == 0 {
		p.skip(fmt.Errorf("%w: no faces created", ErrFaceCreationFailed))
		return
	}
	p.report.State = Done
}

// cleanup stitches the new faces into the mesh. Failures are diagnostics.
func (r *Repairer) cleanup(id kernel.MeshID, report *Report) {
	steps := []struct {
		name    string
		enabled bool
		run     func() error
	}{
		{"merge vertices", r.opts.MergeDistance > 0, func() error {
			return r.host.MergeVertices(id, r.opts.MergeDistance)
		}},
		{"conform normals", r.opts.ConformNormals, func() error {
			return r.host.ConformNormals(id)
		}},
		{"retriangulate", r.opts.Retriangulate, func() error {
			return r.host.Retriangulate(id)
		}},
	}

	for _, s := range steps {
		if !s.enabled {
			continue
		}
		if err := s.run(); err != nil {
			err = fmt.Errorf("%w: %s: %w", ErrCleanupFailed, s.name, err)
			log.Printf("holes: mesh %s (%s): %v", id, CleaningUp, err)
			report.Diagnostics = append(report.Diagnostics, err)
		}
	}
}
