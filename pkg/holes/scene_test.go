package holes_test

import (
	"testing"

	"github.com/chazu/mend/pkg/holes"
	"github.com/chazu/mend/pkg/kernel"
	"github.com/chazu/mend/pkg/scene"
	"gonum.org/v1/gonum/spatial/r3"
)

// signedVolume is positive for a closed mesh whose faces point outward.
func signedVolume(m *scene.Mesh) float64 {
	var v float64
	for _, f := range m.Faces {
		for i := 1; i < len(f)-1; i++ {
			a, b, c := m.Positions[f[0]], m.Positions[f[i]], m.Positions[f[i+1]]
			v += r3.Dot(a, r3.Cross(b, c)) / 6
		}
	}
	return v
}

func openBox(t *testing.T, s *scene.Scene, drop func(corners []r3.Vec) bool) kernel.MeshID {
	t.Helper()
	id, err := s.Add(scene.Box("box", r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1}))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.DeleteFaces(id, drop); err != nil {
		t.Fatal(err)
	}
	return id
}

func allZ(z float64) func([]r3.Vec) bool {
	return func(corners []r3.Vec) bool {
		for _, c := range corners {
			if c.Z != z {
				return false
			}
		}
		return true
	}
}

func TestRepairSceneOpenBox(t *testing.T) {
	tests := []struct {
		name  string
		drop  func([]r3.Vec) bool
		loops int
	}{
		{"top removed", allZ(1), 1},
		{"top and bottom removed", func(c []r3.Vec) bool { return allZ(1)(c) || allZ(0)(c) }, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := scene.New()
			id := openBox(t, s, tt.drop)

			report, err := holes.RepairHoles(s, id, holes.DefaultOptions())
			if err != nil {
				t.Fatal(err)
			}
			if len(report.Loops) != tt.loops || report.Repaired() != tt.loops {
				t.Fatalf("report:\n%s", report)
			}
			if report.FacesCreated() != 2*tt.loops {
				t.Errorf("created %d faces, want %d", report.FacesCreated(), 2*tt.loops)
			}
			if len(report.Warnings()) != 0 {
				t.Errorf("warnings: %v", report.Warnings())
			}

			st, err := s.Stats(id)
			if err != nil {
				t.Fatal(err)
			}
			want := scene.Stats{Vertices: 8, Faces: 12, Triangles: 12}
			if st != want {
				t.Errorf("stats = %+v, want %+v", st, want)
			}

			m, _ := s.Get(id)
			if v := signedVolume(m); v < 0.999 || v > 1.001 {
				t.Errorf("signed volume %g, want 1", v)
			}
		})
	}
}

func TestRepairSceneCapFacesOutward(t *testing.T) {
	tests := []struct {
		name string
		opts holes.Options
		want scene.Stats
	}{
		{
			name: "polygons kept",
			opts: holes.Options{MergeDistance: holes.DefaultMergeDistance, Workers: 1},
			want: scene.Stats{Vertices: 8, Faces: 7, Triangles: 2, Quads: 5},
		},
		{
			name: "pre-triangulated",
			opts: holes.Options{MergeDistance: holes.DefaultMergeDistance, Workers: 1, PreTriangulate: true},
			want: scene.Stats{Vertices: 8, Faces: 12, Triangles: 12},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := scene.New()
			id := openBox(t, s, allZ(1))

			report, err := holes.RepairHoles(s, id, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if report.Repaired() != 1 || len(report.Warnings()) != 0 {
				t.Fatalf("report:\n%s", report)
			}

			st, err := s.Stats(id)
			if err != nil {
				t.Fatal(err)
			}
			if st != tt.want {
				t.Errorf("stats = %+v, want %+v", st, tt.want)
			}

			m, _ := s.Get(id)
			if v := signedVolume(m); v < 0.999 || v > 1.001 {
				t.Errorf("signed volume %g, want 1", v)
			}
			for _, f := range m.Faces {
				if len(f) != 3 || !allZ(1)([]r3.Vec{m.Positions[f[0]], m.Positions[f[1]], m.Positions[f[2]]}) {
					continue
				}
				a, b, c := m.Positions[f[0]], m.Positions[f[1]], m.Positions[f[2]]
				if n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a)); n.Z <= 0 {
					t.Errorf("cap face %v points %v, want +Z", f, n)
				}
			}
		})
	}
}

func TestRepairSceneClosedMeshUntouched(t *testing.T) {
	s := scene.New()
	id, err := s.Add(scene.Box("box", r3.Vec{}, r3.Vec{X: 2, Y: 2, Z: 2}))
	if err != nil {
		t.Fatal(err)
	}
	report, err := holes.RepairHoles(s, id, holes.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Loops) != 0 {
		t.Errorf("loops = %d", len(report.Loops))
	}
	st, _ := s.Stats(id)
	if st.Quads != 6 || st.Triangles != 0 {
		t.Errorf("closed mesh was modified: %+v", st)
	}
}

func TestRepairSceneGridHole(t *testing.T) {
	s := scene.New()
	id, err := s.Add(scene.Grid("grid", 3, 3))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.DeleteFaces(id, func(c []r3.Vec) bool { return c[0] == r3.Vec{X: 1, Y: 1} }); err != nil {
		t.Fatal(err)
	}

	report, err := holes.RepairHoles(s, id, holes.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	// The outer rim is a boundary loop too; it gets a cap over the grid.
	var inner *holes.LoopReport
	for i := range report.Loops {
		if len(report.Loops[i].Vertices) == 4 {
			inner = &report.Loops[i]
		}
	}
	if inner == nil {
		t.Fatalf("no four-vertex loop:\n%s", report)
	}
	if inner.State != holes.Done || inner.FacesCreated != 2 {
		t.Errorf("inner loop = %+v", *inner)
	}
}

func TestRepairSceneUnknownMesh(t *testing.T) {
	s := scene.New()
	id := openBox(t, s, allZ(1))
	if err := s.Remove(id); err != nil {
		t.Fatal(err)
	}
	if _, err := holes.RepairHoles(s, id, holes.DefaultOptions()); err == nil {
		t.Fatal("expected host query failure")
	}
}
