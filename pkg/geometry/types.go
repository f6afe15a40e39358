// Package geometry provides the pixel and world space primitives shared by
// the toponym pipeline.
package geometry

import (
	"math"
)

// Point2D represents a 2D point with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Sub returns the difference of two points.
func (p Point2D) Sub(other Point2D) Point2D {
	return Point2D{X: p.X - other.X, Y: p.Y - other.Y}
}

// Rect is an axis-aligned box in pixel space: left, top, width, height.
type Rect struct {
	X      float64 `json:"left"`
	Y      float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewRect creates a new Rect.
func NewRect(x, y, width, height float64) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Center returns the center point of the rectangle.
func (r Rect) Center() Point2D {
	return Point2D{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Contains returns true if the point is inside the rectangle.
func (r Rect) Contains(p Point2D) bool {
	return p.X >= r.X && p.X <= r.Right() &&
		p.Y >= r.Y && p.Y <= r.Bottom()
}

// Overlaps reports whether two boxes share any area or edge. Boxes overlap
// unless one lies entirely left of, right of, above or below the other.
func (r Rect) Overlaps(other Rect) bool {
	return !(r.X > other.Right() ||
		r.Right() < other.X ||
		r.Y > other.Bottom() ||
		r.Bottom() < other.Y)
}

// Union returns the smallest rectangle containing both rectangles.
func (r Rect) Union(other Rect) Rect {
	x := math.Min(r.X, other.X)
	y := math.Min(r.Y, other.Y)
	x2 := math.Max(r.Right(), other.Right())
	y2 := math.Max(r.Bottom(), other.Bottom())
	return Rect{X: x, Y: y, Width: x2 - x, Height: y2 - y}
}

// Expand grows the rectangle by margin on every side.
func (r Rect) Expand(margin float64) Rect {
	return Rect{X: r.X - margin, Y: r.Y - margin, Width: r.Width + 2*margin, Height: r.Height + 2*margin}
}

// Ring returns the closed corner ring of the rectangle, clockwise from the
// top-left corner.
func (r Rect) Ring() []Point2D {
	x1, y1, x2, y2 := r.X, r.Y, r.Right(), r.Bottom()
	return []Point2D{{x1, y1}, {x2, y1}, {x2, y2}, {x1, y2}, {x1, y1}}
}

// DistanceTo returns the distance from p to the nearest point of the
// rectangle, zero when p is inside.
func (r Rect) DistanceTo(p Point2D) float64 {
	dx := math.Max(0, math.Max(r.X-p.X, p.X-r.Right()))
	dy := math.Max(0, math.Max(r.Y-p.Y, p.Y-r.Bottom()))
	return math.Sqrt(dx*dx + dy*dy)
}

// AffineTransform represents a 2x3 affine transformation matrix.
// [a b tx]
// [c d ty]
type AffineTransform struct {
	A, B, TX float64
	C, D, TY float64
}

// Similarity returns the transform p' = s*R(theta)*p + t.
func Similarity(scale, radians, tx, ty float64) AffineTransform {
	cos := scale * math.Cos(radians)
	sin := scale * math.Sin(radians)
	return AffineTransform{A: cos, B: -sin, TX: tx, C: sin, D: cos, TY: ty}
}

// Apply applies the transform to a point.
func (t AffineTransform) Apply(p Point2D) Point2D {
	return Point2D{
		X: t.A*p.X + t.B*p.Y + t.TX,
		Y: t.C*p.X + t.D*p.Y + t.TY,
	}
}

// Determinant returns the determinant of the linear part.
func (t AffineTransform) Determinant() float64 {
	return t.A*t.D - t.B*t.C
}

// SingularValues returns the singular values of the linear part, largest first.
func (t AffineTransform) SingularValues() (float64, float64) {
	// Closed form for 2x2: sigma = sqrt((S ± sqrt(S^2 - 4 det^2)) / 2)
	s := t.A*t.A + t.B*t.B + t.C*t.C + t.D*t.D
	det := t.Determinant()
	disc := math.Sqrt(math.Max(0, s*s-4*det*det))
	return math.Sqrt((s + disc) / 2), math.Sqrt(math.Max(0, (s-disc)/2))
}

// Rotation returns the rotation angle of the linear part in radians.
func (t AffineTransform) Rotation() float64 {
	return math.Atan2(t.C, t.A)
}

// Inverse returns the inverse transform, if it exists.
func (t AffineTransform) Inverse() (AffineTransform, bool) {
	det := t.Determinant()
	if math.Abs(det) < 1e-12 {
		return AffineTransform{}, false
	}

	invDet := 1.0 / det
	return AffineTransform{
		A:  t.D * invDet,
		B:  -t.B * invDet,
		TX: (t.B*t.TY - t.D*t.TX) * invDet,
		C:  -t.C * invDet,
		D:  t.A * invDet,
		TY: (t.C*t.TX - t.A*t.TY) * invDet,
	}, true
}

// Centroid computes the centroid (average position) of a set of points.
func Centroid(points []Point2D) Point2D {
	if len(points) == 0 {
		return Point2D{}
	}
	var sumX, sumY float64
	for _, p := range points {
		sumX += p.X
		sumY += p.Y
	}
	n := float64(len(points))
	return Point2D{X: sumX / n, Y: sumY / n}
}

