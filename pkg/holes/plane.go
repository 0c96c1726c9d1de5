package holes

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Plane is a best-fit plane through a point set. Normal has unit length.
type Plane struct {
	Normal   r3.Vec
	Centroid r3.Vec
}

// SignedDistance returns the distance of p from the plane along Normal.
func (pl Plane) SignedDistance(p r3.Vec) float64 {
	return r3.Dot(r3.Sub(p, pl.Centroid), pl.Normal)
}

// Centroid returns the arithmetic mean of points.
func Centroid(points []r3.Vec) r3.Vec {
	var c r3.Vec
	for _, p := range points {
		c = r3.Add(c, p)
	}
	return r3.Scale(1/float64(len(points)), c)
}

// FitPlane computes the plane minimizing orthogonal squared distance to
// points. The centered points form an n×3 matrix; the right singular
// vector of its smallest singular value is the normal.
//
// For collinear or coincident input the two smallest singular values tie
// and the normal is an arbitrary direction perpendicular to the spread.
func FitPlane(points []r3.Vec) (Plane, error) {
	if len(points) < 3 {
		return Plane{}, fmt.Errorf("fit plane: %w: got %d", ErrInsufficientPoints, len(points))
	}

	c := Centroid(points)
	data := make([]float64, 0, len(points)*3)
	for _, p := range points {
		d := r3.Sub(p, c)
		data = append(data, d.X, d.Y, d.Z)
	}

	var svd mat.SVD
	if ok := svd.Factorize(mat.NewDense(len(points), 3, data), mat.SVDThin); !ok {
		return Plane{}, fmt.Errorf("fit plane: %w: SVD did not converge", ErrDegeneratePlane)
	}
	var v mat.Dense
	svd.VTo(&v)

	// Singular values are sorted in descending order, so the last column
	// of V is the direction of least spread.
	n := r3.Vec{X: v.At(0, 2), Y: v.At(1, 2), Z: v.At(2, 2)}
	if l := r3.Norm(n); l == 0 {
		return Plane{}, fmt.Errorf("fit plane: %w: zero normal", ErrDegeneratePlane)
	}
	return Plane{Normal: r3.Unit(n), Centroid: c}, nil
}

// newellNormal returns the (unnormalized) Newell normal of a closed
// polygon. Its direction follows the polygon's winding by the right-hand
// rule.
func newellNormal(points []r3.Vec) r3.Vec {
	var n r3.Vec
	for i, p := range points {
		q := points[(i+1)%len(points)]
		n.X += (p.Y - q.Y) * (p.Z + q.Z)
		n.Y += (p.Z - q.Z) * (p.X + q.X)
		n.Z += (p.X - q.X) * (p.Y + q.Y)
	}
	return n
}

// OrientPlane flips pl.Normal when the polygon described by points (in
// loop order) winds clockwise around it. After orienting, the polygon is
// counter-clockwise in any frame built from the normal.
func OrientPlane(pl Plane, points []r3.Vec) Plane {
	if r3.Dot(newellNormal(points), pl.Normal) < 0 {
		pl.Normal = r3.Scale(-1, pl.Normal)
	}
	return pl
}
