// Package scene is an in-memory mesh host. A Scene owns polygon meshes
// keyed by uuid handles and implements kernel.Host over them, so hole
// repair can run without an external modeling application.
package scene

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/chazu/mend/pkg/kernel"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	ErrUnknownMesh      = errors.New("unknown mesh")
	ErrVertexOutOfRange = errors.New("vertex index out of range")
	ErrInvalidFace      = errors.New("invalid face")
	ErrDegenerateFace   = errors.New("degenerate face")
	ErrInvalidDistance  = errors.New("merge distance must be positive")
)

// Compile-time interface check.
var _ kernel.Host = (*Scene)(nil)

// Scene is safe for concurrent use. Every mutation holds the write lock
// for its whole duration.
type Scene struct {
	mu     sync.RWMutex
	meshes map[kernel.MeshID]*Mesh
	order  []kernel.MeshID
}

// New returns an empty scene.
func New() *Scene {
	return &Scene{meshes: make(map[kernel.MeshID]*Mesh)}
}

// Add validates m and stores a copy of it under a fresh handle.
func (s *Scene) Add(m *Mesh) (kernel.MeshID, error) {
	if err := m.Validate(); err != nil {
		return uuid.Nil, fmt.Errorf("scene: add %q: %w", m.Name, err)
	}
	id := uuid.New()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.meshes[id] = m.Clone()
	s.order = append(s.order, id)
	return id, nil
}

// Get returns a snapshot of the mesh.
func (s *Scene) Get(id kernel.MeshID) (*Mesh, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, err := s.mesh(id)
	if err != nil {
		return nil, err
	}
	return m.Clone(), nil
}

// Lookup returns the first mesh with the given name.
func (s *Scene) Lookup(name string) (kernel.MeshID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		if s.meshes[id].Name == name {
			return id, true
		}
	}
	return uuid.Nil, false
}

// List returns mesh handles in insertion order.
func (s *Scene) List() []kernel.MeshID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}

// Remove deletes a mesh.
func (s *Scene) Remove(id kernel.MeshID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.mesh(id); err != nil {
		return err
	}
	delete(s.meshes, id)
	s.order = slices.DeleteFunc(s.order, func(o kernel.MeshID) bool { return o == id })
	return nil
}

// DeleteFaces removes every face for which drop returns true and reports
// how many were removed. Vertices are left in place, so the removed
// faces leave boundary edges behind.
func (s *Scene) DeleteFaces(id kernel.MeshID, drop func(corners []r3.Vec) bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.mesh(id)
	if err != nil {
		return 0, err
	}
	before := len(m.Faces)
	m.Faces = slices.DeleteFunc(m.Faces, func(f []int) bool {
		corners := make([]r3.Vec, len(f))
		for i, v := range f {
			corners[i] = m.Positions[v]
		}
		return drop(corners)
	})
	return before - len(m.Faces), nil
}

// Stats returns face and edge statistics for a mesh.
func (s *Scene) Stats(id kernel.MeshID) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, err := s.mesh(id)
	if err != nil {
		return Stats{}, err
	}
	return m.Stats(), nil
}

// mesh looks up id. Callers hold the lock.
func (s *Scene) mesh(id kernel.MeshID) (*Mesh, error) {
	m, ok := s.meshes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMesh, id)
	}
	return m, nil
}

// BoundaryEdges implements kernel.Host.
func (s *Scene) BoundaryEdges(id kernel.MeshID) ([]kernel.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, err := s.mesh(id)
	if err != nil {
		return nil, err
	}
	return m.BoundaryEdges(), nil
}

// VertexPosition implements kernel.Host.
func (s *Scene) VertexPosition(id kernel.MeshID, v int) (r3.Vec, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, err := s.mesh(id)
	if err != nil {
		return r3.Vec{}, err
	}
	if v < 0 || v >= len(m.Positions) {
		return r3.Vec{}, fmt.Errorf("%w: %d of %d", ErrVertexOutOfRange, v, len(m.Positions))
	}
	return m.Positions[v], nil
}

// CreateFace implements kernel.Host. The triangle gets three new
// vertices; MergeVertices stitches them to the existing ones.
func (s *Scene) CreateFace(id kernel.MeshID, corners [3]r3.Vec) (kernel.FaceID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.mesh(id)
	if err != nil {
		return 0, err
	}
	fi, err := m.addTriangle(corners)
	if err != nil {
		return 0, err
	}
	return kernel.FaceID(fi), nil
}

// MergeVertices implements kernel.Host.
func (s *Scene) MergeVertices(id kernel.MeshID, distance float64) error {
	if !(distance > 0) {
		return fmt.Errorf("%w: %g", ErrInvalidDistance, distance)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.mesh(id)
	if err != nil {
		return err
	}
	m.weld(distance)
	return nil
}

// ConformNormals implements kernel.Host.
func (s *Scene) ConformNormals(id kernel.MeshID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.mesh(id)
	if err != nil {
		return err
	}
	m.conform()
	return nil
}

// Retriangulate implements kernel.Host.
func (s *Scene) Retriangulate(id kernel.MeshID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.mesh(id)
	if err != nil {
		return err
	}
	m.fanTriangulate()
	return nil
}

// Triangulate fan-splits every face with more than three corners. It is
// Retriangulate under the name scripts and tools use before repair.
func (s *Scene) Triangulate(id kernel.MeshID) error {
	return s.Retriangulate(id)
}
