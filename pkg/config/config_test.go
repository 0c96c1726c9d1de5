package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if c.Repair.MergeDistance != 0.001 {
		t.Errorf("merge distance = %g", c.Repair.MergeDistance)
	}
	if c.Repair.Workers != runtime.NumCPU() {
		t.Errorf("workers = %d", c.Repair.Workers)
	}
	if !c.Repair.ConformNormals || !c.Repair.Retriangulate {
		t.Error("cleanup steps disabled by default")
	}
	if c.Kernel.Backend != BackendSDFX || c.Kernel.MeshCells != 200 {
		t.Errorf("kernel = %+v", c.Kernel)
	}
	if c.Engine.Timeout != 5*time.Second {
		t.Errorf("timeout = %s", c.Engine.Timeout)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		check func(t *testing.T, c Config)
	}{
		{
			name: "empty keeps defaults",
			yaml: "",
			check: func(t *testing.T, c Config) {
				if c != Default() {
					t.Errorf("got %+v", c)
				}
			},
		},
		{
			name: "partial override",
			yaml: "repair:\n  merge_distance: 0.05\n  retriangulate: false\n",
			check: func(t *testing.T, c Config) {
				if c.Repair.MergeDistance != 0.05 || c.Repair.Retriangulate {
					t.Errorf("repair = %+v", c.Repair)
				}
				if !c.Repair.ConformNormals || c.Kernel.MeshCells != 200 {
					t.Error("unset keys lost their defaults")
				}
			},
		},
		{
			name: "pre-triangulate",
			yaml: "repair:\n  pre_triangulate: true\n",
			check: func(t *testing.T, c Config) {
				if !c.Repair.PreTriangulate || !c.RepairOptions().PreTriangulate {
					t.Errorf("repair = %+v", c.Repair)
				}
			},
		},
		{
			name: "all sections",
			yaml: "repair:\n  workers: 3\nkernel:\n  backend: manifold\n  mesh_cells: 64\nengine:\n  timeout: 250ms\n",
			check: func(t *testing.T, c Config) {
				if c.Repair.Workers != 3 || c.Kernel.MeshCells != 64 || c.Engine.Timeout != 250*time.Millisecond {
					t.Errorf("got %+v", c)
				}
				if c.Kernel.Backend != BackendManifold {
					t.Errorf("got %+v", c)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse([]byte(tt.yaml))
			if err != nil {
				t.Fatal(err)
			}
			tt.check(t, c)
		})
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		invalid bool
	}{
		{"unknown key", "repair:\n  tolerance: 1\n", false},
		{"wrong type", "repair:\n  workers: many\n", false},
		{"bad duration", "engine:\n  timeout: soon\n", false},
		{"negative distance", "repair:\n  merge_distance: -1\n", true},
		{"zero workers", "repair:\n  workers: 0\n", true},
		{"coarse grid", "kernel:\n  mesh_cells: 2\n", true},
		{"unknown backend", "kernel:\n  backend: cgal\n", true},
		{"zero timeout", "engine:\n  timeout: 0s\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := errors.Is(err, ErrInvalid); got != tt.invalid {
				t.Errorf("errors.Is(err, ErrInvalid) = %v for %v", got, err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mend.yaml")
	if err := os.WriteFile(path, []byte("repair:\n  workers: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Repair.Workers != 2 {
		t.Errorf("workers = %d", c.Repair.Workers)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file loaded")
	}
}

func TestRepairOptions(t *testing.T) {
	c := Default()
	c.Repair.Workers = 7
	c.Repair.ConformNormals = false
	o := c.RepairOptions()
	if o.Workers != 7 || o.ConformNormals || !o.Retriangulate || o.PreTriangulate || o.MergeDistance != 0.001 {
		t.Errorf("options = %+v", o)
	}
}
