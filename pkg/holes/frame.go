package holes

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// parallelLimit is the |dot| above which world Y is considered too close
// to the normal to serve as the frame reference.
const parallelLimit = 0.9

var (
	worldX = r3.Vec{X: 1}
	worldY = r3.Vec{Y: 1}
)

// Frame is an orthonormal basis embedded in a plane. Z is the plane
// normal; X and Y span the plane.
type Frame struct {
	X, Y, Z r3.Vec
}

// NewFrame derives a frame from a plane normal. The reference axis is
// world Y unless the normal is nearly parallel to it, then world X.
func NewFrame(normal r3.Vec) Frame {
	z := r3.Unit(normal)
	ref := worldY
	if math.Abs(r3.Dot(z, ref)) > parallelLimit {
		ref = worldX
	}
	x := r3.Unit(r3.Cross(ref, z))
	y := r3.Cross(z, x)
	return Frame{X: x, Y: y, Z: z}
}

// Local returns the in-plane coordinates of p relative to origin.
func (f Frame) Local(p, origin r3.Vec) r2.Vec {
	d := r3.Sub(p, origin)
	return r2.Vec{X: r3.Dot(d, f.X), Y: r3.Dot(d, f.Y)}
}

// World maps in-plane coordinates back to 3D.
func (f Frame) World(q r2.Vec, origin r3.Vec) r3.Vec {
	return r3.Add(origin, r3.Add(r3.Scale(q.X, f.X), r3.Scale(q.Y, f.Y)))
}

// ProjectToPlane returns the orthogonal projection of every point onto
// pl, in world coordinates.
func ProjectToPlane(points []r3.Vec, pl Plane) []r3.Vec {
	n := r3.Unit(pl.Normal)
	out := make([]r3.Vec, len(points))
	for i, p := range points {
		d := r3.Dot(r3.Sub(p, pl.Centroid), n)
		out[i] = r3.Sub(p, r3.Scale(d, n))
	}
	return out
}

// Flatten projects points onto pl and expresses them in the frame built
// from its normal, with the centroid as origin.
func Flatten(points []r3.Vec, pl Plane) ([]r2.Vec, Frame) {
	f := NewFrame(pl.Normal)
	projected := ProjectToPlane(points, pl)
	out := make([]r2.Vec, len(projected))
	for i, p := range projected {
		out[i] = f.Local(p, pl.Centroid)
	}
	return out, f
}
