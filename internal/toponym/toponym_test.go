package toponym

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"maponyms/internal/segment"
	"maponyms/internal/text"
	"maponyms/pkg/geometry"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var black = color.RGBA{A: 255}

func region(x, y, w, h float64, raw string) text.Region {
	return text.NewRegion(geometry.Rect{X: x, Y: y, Width: w, Height: h}, raw, black, math.NaN(), 90)
}

func square(x, y, size float64) []geometry.Point2D {
	return []geometry.Point2D{{X: x, Y: y}, {X: x + size, Y: y}, {X: x + size, Y: y + size}, {X: x, Y: y + size}}
}

type fixedAnchors struct {
	anchors []*geometry.Point2D
	err     error
	calls   int
}

func (f *fixedAnchors) Anchors(_ image.Image, _, candidates []text.Region) ([]*geometry.Point2D, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.anchors, nil
}

func TestRuleFilterText(t *testing.T) {
	f := DefaultRuleFilter()
	regions := []text.Region{
		region(0, 0, 60, 10, "Springfield"),
		region(0, 20, 20, 10, "Ab"),
		region(0, 40, 60, 10, "springfield"),
		region(0, 60, 60, 10, "A1234"),
		region(0, 80, 60, 10, "1990"),
		region(0, 100, 60, 10, "Rio de Janeiro"),
	}

	kept := f.Filter(regions, nil)
	var names []string
	for _, r := range kept {
		names = append(names, r.Clean)
	}
	assert.Equal(t, []string{"Springfield", "Rio de Janeiro"}, names)
}

func TestRuleFilterSegmentation(t *testing.T) {
	seg := &segment.Segmentation{
		Map:   segment.PolygonFromPoints(square(0, 0, 1000)),
		Boxes: []orb.Polygon{segment.PolygonFromPoints(square(800, 800, 150))},
	}
	regions := []text.Region{
		region(100, 100, 60, 10, "Inside"),
		region(1100, 100, 60, 10, "Outside"),
		region(820, 820, 60, 10, "Legend"),
	}

	kept := DefaultRuleFilter().Filter(regions, seg)
	require.Len(t, kept, 1)
	assert.Equal(t, "Inside", kept[0].Clean)
}

func TestSelectFallsBackToCenter(t *testing.T) {
	regions := []text.Region{
		region(10, 20, 40, 10, "Rome"),
		region(100, 200, 40, 10, "Milan"),
	}
	anchor := &geometry.Point2D{X: 5, Y: 25}
	s := NewSelector(nil, &fixedAnchors{anchors: []*geometry.Point2D{anchor, nil}}, false)

	points, candidates, err := s.Select(nil, regions, nil)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	require.Len(t, points, 2)

	assert.Equal(t, Point{Name: "Rome", Point: *anchor, Anchored: true}, points[0])
	assert.Equal(t, Point{Name: "Milan", Point: geometry.Point2D{X: 120, Y: 205}}, points[1])
}

func TestSelectMustHaveAnchor(t *testing.T) {
	regions := []text.Region{
		region(10, 20, 40, 10, "Rome"),
		region(100, 200, 40, 10, "Milan"),
		region(300, 200, 40, 10, "Naples"),
	}
	anchors := []*geometry.Point2D{nil, {X: 95, Y: 205}, nil}
	s := NewSelector(nil, &fixedAnchors{anchors: anchors}, true)

	points, candidates, err := s.Select(nil, regions, nil)
	require.NoError(t, err)
	assert.Len(t, candidates, 3)
	require.Len(t, points, 1)
	assert.Equal(t, "Milan", points[0].Name)
	assert.True(t, points[0].Anchored)
}

func TestSelectNoCandidates(t *testing.T) {
	s := NewSelector(nil, nil, false)
	points, candidates, err := s.Select(nil, []text.Region{region(0, 0, 10, 10, "12")}, nil)
	require.NoError(t, err)
	assert.Empty(t, points)
	assert.Empty(t, candidates)
}

func TestSelectAnchorErrors(t *testing.T) {
	regions := []text.Region{region(10, 20, 40, 10, "Rome")}

	boom := errors.New("boom")
	_, _, err := NewSelector(nil, &fixedAnchors{err: boom}, false).Select(nil, regions, nil)
	assert.ErrorIs(t, err, boom)

	_, _, err = NewSelector(nil, &fixedAnchors{anchors: nil}, false).Select(nil, regions, nil)
	assert.Error(t, err)
}

func TestNoAnchors(t *testing.T) {
	anchors, err := NoAnchors{}.Anchors(nil, nil, []text.Region{{}, {}})
	require.NoError(t, err)
	assert.Equal(t, []*geometry.Point2D{nil, nil}, anchors)
}

func TestMarkerAnchorsNilImage(t *testing.T) {
	anchors, err := DefaultMarkerAnchors().Anchors(nil, nil, []text.Region{{}})
	require.NoError(t, err)
	assert.Len(t, anchors, 1)
	assert.Nil(t, anchors[0])
}

func TestMarkerAnchorsFindsDot(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 200; x++ {
			img.Set(x, y, color.White)
		}
	}
	// Filled disc of radius 4 at (40, 50)
	for y := 46; y <= 54; y++ {
		for x := 36; x <= 44; x++ {
			dx, dy := float64(x-40), float64(y-50)
			if dx*dx+dy*dy <= 16 {
				img.Set(x, y, color.Black)
			}
		}
	}

	label := region(50, 44, 60, 12, "Rome")
	anchors, err := DefaultMarkerAnchors().Anchors(img, []text.Region{label}, []text.Region{label})
	require.NoError(t, err)
	require.NotNil(t, anchors[0])
	assert.InDelta(t, 40, anchors[0].X, 1)
	assert.InDelta(t, 50, anchors[0].Y, 1)
}
