// Package config loads mend's YAML configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/chazu/mend/pkg/holes"
	"github.com/chazu/mend/pkg/kernel/sdfx"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid config")

// minMeshCells is the coarsest marching-cubes grid that still resolves
// a box.
const minMeshCells = 8

type Config struct {
	Repair Repair `yaml:"repair"`
	Kernel Kernel `yaml:"kernel"`
	Engine Engine `yaml:"engine"`
}

type Repair struct {
	MergeDistance  float64 `yaml:"merge_distance"`
	Workers        int     `yaml:"workers"`
	PreTriangulate bool    `yaml:"pre_triangulate"`
	ConformNormals bool    `yaml:"conform_normals"`
	Retriangulate  bool    `yaml:"retriangulate"`
}

// Kernel selects the geometry backend for script solids.
type Kernel struct {
	Backend   string `yaml:"backend"` // "sdfx" or "manifold"
	MeshCells int    `yaml:"mesh_cells"`
}

// Backend names.
const (
	BackendSDFX     = "sdfx"
	BackendManifold = "manifold"
)

type Engine struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Repair: Repair{
			MergeDistance:  holes.DefaultMergeDistance,
			Workers:        runtime.NumCPU(),
			ConformNormals: true,
			Retriangulate:  true,
		},
		Kernel: Kernel{Backend: BackendSDFX, MeshCells: sdfx.DefaultMeshCells},
		Engine: Engine{Timeout: 5 * time.Second},
	}
}

// Parse decodes YAML over the defaults, so omitted keys keep their
// default values. Unknown keys are an error.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses a config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch {
	case c.Repair.MergeDistance < 0:
		return fmt.Errorf("%w: repair.merge_distance %g is negative", ErrInvalid, c.Repair.MergeDistance)
	case c.Repair.Workers < 1:
		return fmt.Errorf("%w: repair.workers must be at least 1, got %d", ErrInvalid, c.Repair.Workers)
	case c.Kernel.Backend != BackendSDFX && c.Kernel.Backend != BackendManifold:
		return fmt.Errorf("%w: kernel.backend %q, want %q or %q", ErrInvalid, c.Kernel.Backend, BackendSDFX, BackendManifold)
	case c.Kernel.MeshCells < minMeshCells:
		return fmt.Errorf("%w: kernel.mesh_cells must be at least %d, got %d", ErrInvalid, minMeshCells, c.Kernel.MeshCells)
	case c.Engine.Timeout <= 0:
		return fmt.Errorf("%w: engine.timeout must be positive, got %s", ErrInvalid, c.Engine.Timeout)
	}
	return nil
}

// RepairOptions converts the repair section for holes.RepairHoles.
func (c Config) RepairOptions() holes.Options {
	return holes.Options{
		MergeDistance:  c.Repair.MergeDistance,
		Workers:        c.Repair.Workers,
		PreTriangulate: c.Repair.PreTriangulate,
		ConformNormals: c.Repair.ConformNormals,
		Retriangulate:  c.Repair.Retriangulate,
	}
}
