package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/chazu/mend/pkg/config"
	"github.com/chazu/mend/pkg/engine"
	"github.com/chazu/mend/pkg/holes"
	"github.com/chazu/mend/pkg/kernel"
	"github.com/chazu/mend/pkg/kernel/manifold"
	"github.com/chazu/mend/pkg/kernel/sdfx"
	"github.com/chazu/mend/pkg/meshio"
	"github.com/chazu/mend/pkg/scene"
	"github.com/chazu/mend/pkg/tessellate"
)

// colorPalette assigns distinct colors to meshes by position.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App is the backend behind the CLI commands.
type App struct {
	cfg    config.Config
	engine *engine.Engine
}

// MeshData is a flattened triangle mesh ready for display or export.
type MeshData struct {
	Vertices []float32
	Normals  []float32
	Indices  []uint32
	PartName string
	Color    string
}

// EvalErrorData is an eval error or a repair warning.
type EvalErrorData struct {
	Line    int
	Col     int
	Message string
}

// EvalResult is everything a script evaluation produced.
type EvalResult struct {
	Meshes   []MeshData
	Errors   []EvalErrorData
	Warnings []EvalErrorData
	Reports  []*holes.Report

	session *engine.Session
}

// FileStats describes a mesh file without modifying it.
type FileStats struct {
	scene.Stats
	Loops int
}

// NewApp creates an App whose engine and repair runs follow cfg.
func NewApp(cfg config.Config) (*App, error) {
	k, err := newKernel(cfg.Kernel)
	if err != nil {
		return nil, err
	}
	return &App{
		cfg: cfg,
		engine: engine.NewEngine(
			engine.WithKernel(k),
			engine.WithRepairOptions(cfg.RepairOptions()),
			engine.WithTimeout(cfg.Engine.Timeout),
		),
	}, nil
}

func newKernel(cfg config.Kernel) (kernel.Kernel, error) {
	switch cfg.Backend {
	case config.BackendManifold:
		return manifold.New()
	case config.BackendSDFX, "":
		return sdfx.NewWithCells(cfg.MeshCells), nil
	}
	return nil, fmt.Errorf("unknown kernel backend %q", cfg.Backend)
}

// Evaluate runs a script and flattens every mesh it built.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	s, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		log.Printf("Evaluate fatal error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return result
	}

	meshes, err := tessellate.Tessellate(s.Scene)
	if err != nil {
		log.Printf("Tessellate error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: "tessellation failed: " + err.Error()})
		return result
	}
	for i, m := range meshes {
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			PartName: m.PartName,
			Color:    colorPalette[i%len(colorPalette)],
		})
	}

	result.Reports = s.Reports
	for _, r := range s.Reports {
		for _, w := range r.Warnings() {
			result.Warnings = append(result.Warnings, EvalErrorData{Message: w.Error()})
		}
	}
	result.session = s
	return result
}

// Export writes every mesh of a successful evaluation to dir as OBJ and
// returns the written paths in mesh order.
func (a *App) Export(result EvalResult, dir string) ([]string, error) {
	if result.session == nil {
		return nil, errors.New("nothing to export")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var paths []string
	for i, id := range result.session.Meshes {
		m, err := result.session.Scene.Get(id)
		if err != nil {
			return paths, err
		}
		name := m.Name
		if name == "" {
			name = fmt.Sprintf("mesh%d", i)
		}
		path := filepath.Join(dir, name+".obj")
		if err := meshio.Save(path, m); err != nil {
			return paths, fmt.Errorf("export %q: %w", name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// RepairFile fills the holes of the mesh in in and writes the result to
// out. The formats follow the file extensions.
func (a *App) RepairFile(in, out string) (*holes.Report, error) {
	m, err := meshio.Load(in)
	if err != nil {
		return nil, err
	}
	s := scene.New()
	id, err := s.Add(m)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", in, err)
	}

	report, err := holes.RepairHoles(s, id, a.cfg.RepairOptions())
	if err != nil {
		return nil, fmt.Errorf("repair %s: %w", in, err)
	}
	log.Printf("repaired %s: %d/%d loops, %d faces created",
		in, report.Repaired(), len(report.Loops), report.FacesCreated())

	repaired, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := meshio.Save(out, repaired); err != nil {
		return nil, err
	}
	return report, nil
}

// Stats loads path and counts its faces, boundary edges and boundary loops.
func (a *App) Stats(path string) (FileStats, error) {
	m, err := meshio.Load(path)
	if err != nil {
		return FileStats{}, err
	}
	s := scene.New()
	id, err := s.Add(m)
	if err != nil {
		return FileStats{}, fmt.Errorf("load %s: %w", path, err)
	}
	st, err := s.Stats(id)
	if err != nil {
		return FileStats{}, err
	}
	edges, err := holes.CollectBoundaryEdges(s, id)
	if errors.Is(err, holes.ErrNoBoundaryEdges) {
		return FileStats{Stats: st}, nil
	}
	if err != nil {
		return FileStats{}, err
	}
	return FileStats{Stats: st, Loops: len(holes.ReconstructLoops(edges))}, nil
}
