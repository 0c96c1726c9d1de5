package scene

import "gonum.org/v1/gonum/spatial/r3"

// Box returns an axis-aligned box spanning min..max as six outward-facing
// quads over eight shared corners.
func Box(name string, min, max r3.Vec) *Mesh {
	return &Mesh{
		Name: name,
		Positions: []r3.Vec{
			{X: min.X, Y: min.Y, Z: min.Z},
			{X: max.X, Y: min.Y, Z: min.Z},
			{X: max.X, Y: max.Y, Z: min.Z},
			{X: min.X, Y: max.Y, Z: min.Z},
			{X: min.X, Y: min.Y, Z: max.Z},
			{X: max.X, Y: min.Y, Z: max.Z},
			{X: max.X, Y: max.Y, Z: max.Z},
			{X: min.X, Y: max.Y, Z: max.Z},
		},
		Faces: [][]int{
			{0, 3, 2, 1}, // -Z
			{4, 5, 6, 7}, // +Z
			{0, 1, 5, 4}, // -Y
			{3, 7, 6, 2}, // +Y
			{0, 4, 7, 3}, // -X
			{1, 2, 6, 5}, // +X
		},
	}
}

// Grid returns a flat nx×ny grid of unit quads in the XY plane facing +Z.
func Grid(name string, nx, ny int) *Mesh {
	m := &Mesh{Name: name}
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			m.Positions = append(m.Positions, r3.Vec{X: float64(i), Y: float64(j)})
		}
	}
	at := func(i, j int) int { return j*(nx+1) + i }
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			m.Faces = append(m.Faces, []int{at(i, j), at(i+1, j), at(i+1, j+1), at(i, j+1)})
		}
	}
	return m
}
