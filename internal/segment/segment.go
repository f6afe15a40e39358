// Package segment partitions a map image into the map frame and the inset
// or legend boxes drawn on top of it.
package segment

import (
	"image"

	"maponyms/pkg/geometry"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Segmentation is the result of image partitioning. Map is nil when no map
// frame was found.
type Segmentation struct {
	Map   orb.Polygon
	Boxes []orb.Polygon
}

// Segmenter finds the map frame and boxes of an image.
type Segmenter interface {
	Segment(img image.Image) (*Segmentation, error)
}

// Nothing is a Segmenter that never finds any segments.
type Nothing struct{}

// Segment implements Segmenter.
func (Nothing) Segment(image.Image) (*Segmentation, error) {
	return &Segmentation{}, nil
}

// InMap reports whether p lies inside the map frame. Without a frame every
// point is considered inside.
func (s *Segmentation) InMap(p geometry.Point2D) bool {
	if s == nil || len(s.Map) == 0 {
		return true
	}
	return planar.PolygonContains(s.Map, ToOrb(p))
}

// InBox reports whether p lies inside any inset or legend box.
func (s *Segmentation) InBox(p geometry.Point2D) bool {
	if s == nil {
		return false
	}
	pt := ToOrb(p)
	for _, box := range s.Boxes {
		if planar.PolygonContains(box, pt) {
			return true
		}
	}
	return false
}

// ToOrb converts a pixel point to an orb point.
func ToOrb(p geometry.Point2D) orb.Point {
	return orb.Point{p.X, p.Y}
}

// PolygonFromPoints builds a closed single-ring polygon.
func PolygonFromPoints(points []geometry.Point2D) orb.Polygon {
	if len(points) == 0 {
		return nil
	}
	ring := make(orb.Ring, 0, len(points)+1)
	for _, p := range points {
		ring = append(ring, ToOrb(p))
	}
	if !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return orb.Polygon{ring}
}
