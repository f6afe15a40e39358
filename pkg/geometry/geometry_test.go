package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRectOverlaps(t *testing.T) {
	base := NewRect(10, 10, 50, 12)

	tests := []struct {
		name  string
		other Rect
		want  bool
	}{
		{"shifted copy", NewRect(12, 10, 48, 12), true},
		{"contained", NewRect(20, 12, 5, 5), true},
		{"touching right edge", NewRect(60, 10, 10, 12), true},
		{"left of", NewRect(0, 10, 9, 12), false},
		{"right of", NewRect(61, 10, 10, 12), false},
		{"above", NewRect(10, 0, 50, 9), false},
		{"below", NewRect(10, 23, 50, 5), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(base), "overlap must be symmetric")
		})
	}
}

func TestRectCenterAndDistance(t *testing.T) {
	r := NewRect(10, 20, 30, 10)
	assert.Equal(t, Point2D{X: 25, Y: 25}, r.Center())
	assert.Zero(t, r.DistanceTo(Point2D{X: 15, Y: 22}))
	assert.InDelta(t, 5.0, r.DistanceTo(Point2D{X: 45, Y: 25}), 1e-9)
	assert.InDelta(t, 5.0, r.DistanceTo(Point2D{X: 43, Y: 34}), 1e-9)
}

func TestSimilarityInverse(t *testing.T) {
	tr := Similarity(2.5, math.Pi/6, 100, -40)
	inv, ok := tr.Inverse()
	require.True(t, ok)

	p := Point2D{X: 12.5, Y: -3}
	back := inv.Apply(tr.Apply(p))
	assert.InDelta(t, p.X, back.X, 1e-9)
	assert.InDelta(t, p.Y, back.Y, 1e-9)

	s1, s2 := tr.SingularValues()
	assert.InDelta(t, 2.5, s1, 1e-9)
	assert.InDelta(t, 2.5, s2, 1e-9)
	assert.InDelta(t, math.Pi/6, tr.Rotation(), 1e-9)
}

func TestConvexHull(t *testing.T) {
	pts := []Point2D{{0, 0}, {10, 0}, {5, 5}, {10, 10}, {0, 10}, {3, 7}}
	hull := ConvexHull(pts)
	assert.Len(t, hull, 4)
	assert.InDelta(t, 100.0, PolygonArea(hull), 1e-9)
}

func TestTriangleArea(t *testing.T) {
	assert.InDelta(t, 50.0, TriangleArea(Point2D{0, 0}, Point2D{10, 0}, Point2D{0, 10}), 1e-9)
	assert.Zero(t, TriangleArea(Point2D{0, 0}, Point2D{1, 1}, Point2D{2, 2}))
}
