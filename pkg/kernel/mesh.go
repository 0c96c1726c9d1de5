package kernel

// Mesh is a triangle mesh in flat buffer form, the shape renderers and
// the sdfx backend exchange. Vertices has 3 floats per vertex (x,y,z),
// Normals has 3 floats per vertex, Indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	PartName string    `json:"partName"` // name of the scene mesh this came from
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Vertex returns the position of vertex i as float64s.
func (m *Mesh) Vertex(i int) [3]float64 {
	return [3]float64{
		float64(m.Vertices[i*3]),
		float64(m.Vertices[i*3+1]),
		float64(m.Vertices[i*3+2]),
	}
}

// Triangle returns the three vertex indices of triangle i.
func (m *Mesh) Triangle(i int) [3]int {
	return [3]int{
		int(m.Indices[i*3]),
		int(m.Indices[i*3+1]),
		int(m.Indices[i*3+2]),
	}
}
