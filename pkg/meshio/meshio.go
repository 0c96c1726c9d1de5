// Package meshio reads and writes scene meshes as Wavefront OBJ and STL.
package meshio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/mend/pkg/scene"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported mesh format")
	ErrMalformed         = errors.New("malformed mesh file")
)

type format struct {
	load func(path string) (*scene.Mesh, error)
	save func(path string, m *scene.Mesh) error
}

var formats = map[string]format{
	".obj": {LoadOBJ, SaveOBJ},
	".stl": {loadSTL, saveSTL},
}

func formatOf(path string) (format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	f, ok := formats[ext]
	if !ok {
		return format{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return f, nil
}

// Load reads a mesh, choosing the format by file extension. The mesh is
// named after the file.
func Load(path string) (*scene.Mesh, error) {
	f, err := formatOf(path)
	if err != nil {
		return nil, err
	}
	m, err := f.load(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return m, nil
}

// Save writes m, choosing the format by file extension.
func Save(path string, m *scene.Mesh) error {
	f, err := formatOf(path)
	if err != nil {
		return err
	}
	if err := f.save(path, m); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func loadSTL(path string) (*scene.Mesh, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadSTL(file)
}

func saveSTL(path string, m *scene.Mesh) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteSTL(file, m)
}

// triangles fan-splits every face of m.
func triangles(m *scene.Mesh) [][3]int {
	var tris [][3]int
	for _, f := range m.Faces {
		for i := 1; i < len(f)-1; i++ {
			tris = append(tris, [3]int{f[0], f[i], f[i+1]})
		}
	}
	return tris
}
