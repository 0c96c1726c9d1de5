package holes

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// Triangle is a new face expressed as three original vertex indices.
type Triangle [3]int

// EarClip triangulates a polygon given by points in loop order. ids maps
// each point to the vertex index emitted in the output triangles.
//
// The scan walks the working ring in order and clips the first ear it
// finds: a strictly counter-clockwise corner with no other remaining
// point inside or on its triangle. The polygon must therefore wind
// counter-clockwise; see OrientPlane. When a full scan finds no ear the
// triangles produced so far are returned together with
// ErrTriangulationIncomplete.
func EarClip(points []r2.Vec, ids []int) ([]Triangle, error) {
	if len(points) < 3 {
		return nil, fmt.Errorf("ear clip: %w: got %d", ErrInsufficientPoints, len(points))
	}
	if len(ids) != len(points) {
		return nil, fmt.Errorf("ear clip: %d ids for %d points", len(ids), len(points))
	}

	ring := make([]int, len(points))
	for i := range ring {
		ring[i] = i
	}

	tris := make([]Triangle, 0, len(points)-2)
	for len(ring) >= 3 {
		ear := findEar(points, ring)
		if ear < 0 {
			return tris, fmt.Errorf("ear clip: %w: %d of %d corners left",
				ErrTriangulationIncomplete, len(ring), len(points))
		}
		n := len(ring)
		i0, i1, i2 := ring[ear], ring[(ear+1)%n], ring[(ear+2)%n]
		tris = append(tris, Triangle{ids[i0], ids[i1], ids[i2]})

		mid := (ear + 1) % n
		ring = append(ring[:mid], ring[mid+1:]...)
	}
	return tris, nil
}

// findEar returns the ring position of the first valid ear, or -1.
func findEar(points []r2.Vec, ring []int) int {
	n := len(ring)
	for i := 0; i < n; i++ {
		i0, i1, i2 := ring[i], ring[(i+1)%n], ring[(i+2)%n]
		a, b, c := points[i0], points[i1], points[i2]

		if r2.Cross(r2.Sub(b, a), r2.Sub(c, a)) <= 0 {
			continue
		}

		valid := true
		for _, j := range ring {
			if j == i0 || j == i1 || j == i2 {
				continue
			}
			if pointInTriangle(points[j], a, b, c) {
				valid = false
				break
			}
		}
		if valid {
			return i
		}
	}
	return -1
}

// pointInTriangle reports whether p lies inside or on the boundary of abc.
// The three edge signs must not disagree.
func pointInTriangle(p, a, b, c r2.Vec) bool {
	d1 := edgeSign(p, a, b)
	d2 := edgeSign(p, b, c)
	d3 := edgeSign(p, c, a)

	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

func edgeSign(p, a, b r2.Vec) float64 {
	return (p.X-b.X)*(a.Y-b.Y) - (a.X-b.X)*(p.Y-b.Y)
}

// Area2D returns the unsigned area of triangle abc.
func Area2D(a, b, c r2.Vec) float64 {
	s := r2.Cross(r2.Sub(b, a), r2.Sub(c, a)) / 2
	if s < 0 {
		return -s
	}
	return s
}

// SignedArea returns the shoelace area of a polygon; positive for
// counter-clockwise winding.
func SignedArea(points []r2.Vec) float64 {
	var s float64
	for i, p := range points {
		q := points[(i+1)%len(points)]
		s += p.X*q.Y - q.X*p.Y
	}
	return s / 2
}
