package toponym

import (
	"fmt"
	"image"
	"log/slog"

	"maponyms/internal/segment"
	"maponyms/internal/text"
	"maponyms/pkg/geometry"
)

// Candidate is a selected place-name label with its anchor, if one was
// found.
type Candidate struct {
	Region text.Region
	Name   string
	Anchor *geometry.Point2D
}

// Point is a toponym name with the pixel location it refers to.
type Point struct {
	Name     string
	Point    geometry.Point2D
	Anchored bool // False when the point is the label box center
}

// Selector picks toponym candidates and turns them into control points.
type Selector struct {
	Filter         Filter
	Anchors        AnchorDetector
	MustHaveAnchor bool // Drop candidates without an anchor instead of using the box center
}

// NewSelector creates a Selector; nil collaborators fall back to the rule
// filter and to no anchor detection.
func NewSelector(f Filter, a AnchorDetector, mustHaveAnchor bool) *Selector {
	if f == nil {
		f = DefaultRuleFilter()
	}
	if a == nil {
		a = NoAnchors{}
	}
	return &Selector{Filter: f, Anchors: a, MustHaveAnchor: mustHaveAnchor}
}

// Select filters regions into toponym candidates, finds their anchors and
// returns one point per surviving candidate in discovery order.
func (s *Selector) Select(img image.Image, regions []text.Region, seg *segment.Segmentation) ([]Point, []Candidate, error) {
	slog.Debug("filtering toponym candidates", "texts", len(regions))
	kept := s.Filter.Filter(regions, seg)

	slog.Debug("determining toponym anchors", "candidates", len(kept))
	anchors, err := s.Anchors.Anchors(img, regions, kept)
	if err != nil {
		return nil, nil, fmt.Errorf("anchor detection: %w", err)
	}
	if len(anchors) != len(kept) {
		return nil, nil, fmt.Errorf("anchor detection returned %d anchors for %d candidates", len(anchors), len(kept))
	}

	candidates := make([]Candidate, len(kept))
	for i, r := range kept {
		candidates[i] = Candidate{Region: r, Name: r.Clean, Anchor: anchors[i]}
	}
	return s.Points(candidates), candidates, nil
}

// Points builds control points from candidates: the anchor when present,
// otherwise the box center unless anchors are mandatory.
func (s *Selector) Points(candidates []Candidate) []Point {
	points := make([]Point, 0, len(candidates))
	for _, c := range candidates {
		switch {
		case c.Anchor != nil:
			points = append(points, Point{Name: c.Name, Point: *c.Anchor, Anchored: true})
		case s.MustHaveAnchor:
			continue
		default:
			points = append(points, Point{Name: c.Name, Point: c.Region.Bounds.Center()})
		}
	}
	return points
}
