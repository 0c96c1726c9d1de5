package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/mend/pkg/config"
	"github.com/chazu/mend/pkg/meshio"
	"github.com/chazu/mend/pkg/scene"
	"gonum.org/v1/gonum/spatial/r3"
)

// testApp uses a coarse marching-cubes grid to keep script tests fast.
func testApp(t *testing.T) *App {
	t.Helper()
	cfg := config.Default()
	cfg.Kernel.MeshCells = 24
	app, err := NewApp(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return app
}

func TestNewAppKernelBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Kernel.Backend = "cgal"
	if _, err := NewApp(cfg); err == nil {
		t.Error("unknown backend accepted")
	}
}

// writeOpenBox saves a unit box without its +Z face to path.
func writeOpenBox(t *testing.T, path string) {
	t.Helper()
	m := scene.Box("open", r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
	s := scene.New()
	id, err := s.Add(m)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.DeleteFaces(id, func(c []r3.Vec) bool {
		return c[0].Z == 1 && c[1].Z == 1 && c[2].Z == 1 && c[3].Z == 1
	}); err != nil {
		t.Fatal(err)
	}
	if m, err = s.Get(id); err != nil {
		t.Fatal(err)
	}
	if err := meshio.Save(path, m); err != nil {
		t.Fatal(err)
	}
}

// TestE2EOpenBoxExample runs the example script through the full pipeline:
// script -> engine -> scene -> repair -> tessellate.
func TestE2EOpenBoxExample(t *testing.T) {
	app := testApp(t)

	source, err := os.ReadFile("examples/open_box.mend")
	if err != nil {
		t.Fatalf("failed to read open_box.mend: %v", err)
	}
	result := app.Evaluate(string(source))
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error (line %d): %s", e.Line, e.Message)
		}
		t.FailNow()
	}

	want := []string{"panel", "bar", "plate"}
	if len(result.Meshes) != len(want) {
		t.Fatalf("expected %d meshes, got %d", len(want), len(result.Meshes))
	}
	for i, m := range result.Meshes {
		if m.PartName != want[i] {
			t.Errorf("mesh %d: name %q, want %q", i, m.PartName, want[i])
		}
		if len(m.Vertices) == 0 || len(m.Normals) != len(m.Vertices) || len(m.Indices) == 0 {
			t.Errorf("mesh %q: %d vertices, %d normals, %d indices",
				m.PartName, len(m.Vertices), len(m.Normals), len(m.Indices))
		}
		if m.Color == "" {
			t.Errorf("mesh %q: no color assigned", m.PartName)
		}
	}

	if len(result.Reports) != 2 {
		t.Fatalf("expected 2 repair reports, got %d", len(result.Reports))
	}
	for i, r := range result.Reports {
		if len(r.Loops) != 1 || r.Repaired() != 1 {
			t.Errorf("report %d:\n%s", i, r)
		}
	}
}

func TestE2EEmptySource(t *testing.T) {
	result := testApp(t).Evaluate("")
	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors for empty source: %v", result.Errors)
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes for empty source, got %d", len(result.Meshes))
	}
}

func TestE2ESyntaxError(t *testing.T) {
	result := testApp(t).Evaluate(`(box-mesh "b" (vec3 0 0 0)`)
	if len(result.Errors) == 0 {
		t.Fatal("expected eval errors for syntax error")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on error, got %d", len(result.Meshes))
	}
}

func TestRepairFile(t *testing.T) {
	tests := []struct {
		name string
		in   string
		out  string
	}{
		{"obj to obj", "open.obj", "closed.obj"},
		{"obj to stl", "open.obj", "closed.stl"},
		{"stl to obj", "open.stl", "closed.obj"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			in, out := filepath.Join(dir, tt.in), filepath.Join(dir, tt.out)
			writeOpenBox(t, in)

			app := testApp(t)
			report, err := app.RepairFile(in, out)
			if err != nil {
				t.Fatal(err)
			}
			if len(report.Loops) != 1 || report.Repaired() != 1 {
				t.Errorf("report:\n%s", report)
			}

			st, err := app.Stats(out)
			if err != nil {
				t.Fatal(err)
			}
			if st.BoundaryEdges != 0 || st.Loops != 0 || st.Vertices != 8 {
				t.Errorf("repaired stats = %+v", st)
			}
		})
	}
}

func TestRepairFileErrors(t *testing.T) {
	dir := t.TempDir()
	app := testApp(t)
	if _, err := app.RepairFile(filepath.Join(dir, "missing.obj"), filepath.Join(dir, "out.obj")); err == nil {
		t.Error("missing input accepted")
	}
	in := filepath.Join(dir, "open.obj")
	writeOpenBox(t, in)
	if _, err := app.RepairFile(in, filepath.Join(dir, "out.ply")); err == nil {
		t.Error("unsupported output format accepted")
	}
}

func TestStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "open.obj")
	writeOpenBox(t, path)

	st, err := testApp(t).Stats(path)
	if err != nil {
		t.Fatal(err)
	}
	// OBJ files hold triangles, so the five quads come back split.
	want := FileStats{Stats: scene.Stats{Vertices: 8, Faces: 10, Triangles: 10, BoundaryEdges: 4}, Loops: 1}
	if st != want {
		t.Errorf("stats = %+v, want %+v", st, want)
	}
}

func TestExport(t *testing.T) {
	app := testApp(t)
	result := app.Evaluate(`
(box-mesh "a" (vec3 0 0 0) (vec3 1 1 1))
(box-mesh "b" (vec3 2 0 0) (vec3 3 1 1))
`)
	if len(result.Errors) > 0 {
		t.Fatalf("eval errors: %v", result.Errors)
	}
	dir := filepath.Join(t.TempDir(), "out")
	paths, err := app.Export(result, dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 {
		t.Fatalf("wrote %v", paths)
	}
	for i, name := range []string{"a", "b"} {
		if filepath.Base(paths[i]) != name+".obj" {
			t.Errorf("path %d = %s", i, paths[i])
		}
		m, err := meshio.Load(paths[i])
		if err != nil {
			t.Fatal(err)
		}
		if len(m.Faces) != 12 {
			t.Errorf("%s: %d faces, want 12", name, len(m.Faces))
		}
	}

	if _, err := app.Export(app.Evaluate("(+ 1"), dir); err == nil {
		t.Error("exported a failed evaluation")
	}
}
