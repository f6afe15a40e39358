package segment

import (
	"fmt"
	"image"
	"log/slog"
	"math"

	"maponyms/internal/imageio"
	"maponyms/pkg/geometry"

	"gocv.io/x/gocv"
)

// ContourSegmenter finds the map frame as the largest outlined region of the
// image and inset boxes as rectangular outlines inside it.
type ContourSegmenter struct {
	MinMapFraction float64 // Min map frame area as a fraction of the image
	MinBoxFraction float64 // Min box area as a fraction of the image
	MaxBoxFraction float64 // Max box area as a fraction of the image
	CannyLow       float32
	CannyHigh      float32
}

// DefaultContourSegmenter returns a ContourSegmenter with default thresholds.
func DefaultContourSegmenter() ContourSegmenter {
	return ContourSegmenter{
		MinMapFraction: 0.25,
		MinBoxFraction: 0.005,
		MaxBoxFraction: 0.3,
		CannyLow:       50,
		CannyHigh:      150,
	}
}

// Segment implements Segmenter.
func (s ContourSegmenter) Segment(img image.Image) (*Segmentation, error) {
	mat, err := imageio.ToMat(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, s.CannyLow, s.CannyHigh)

	// Close small breaks in frame lines
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{3, 3})
	defer kernel.Close()
	gocv.Dilate(edges, &edges, kernel)

	contours := gocv.FindContours(edges, gocv.RetrievalList, gocv.ChainApproxSimple)
	defer contours.Close()

	imgArea := float64(mat.Cols() * mat.Rows())
	result := &Segmentation{}

	// Map frame: largest contour that does not hug the image border
	bestIdx := -1
	bestArea := 0.0
	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if area < imgArea*s.MinMapFraction || area > imgArea*0.98 {
			continue
		}
		if area > bestArea {
			bestArea = area
			bestIdx = i
		}
	}
	if bestIdx >= 0 {
		hull := geometry.ConvexHull(pointsOf(contours.At(bestIdx)))
		result.Map = PolygonFromPoints(hull)
	}

	// Boxes: quadrilateral outlines of moderate size
	for i := 0; i < contours.Size(); i++ {
		if i == bestIdx {
			continue
		}
		contour := contours.At(i)
		area := gocv.ContourArea(contour)
		if area < imgArea*s.MinBoxFraction || area > imgArea*s.MaxBoxFraction {
			continue
		}

		epsilon := 0.02 * gocv.ArcLength(contour, true)
		approx := gocv.ApproxPolyDP(contour, epsilon, true)
		pts := pointsOf(approx)
		approx.Close()

		if len(pts) != 4 || !rectangular(pts) {
			continue
		}
		if result.Map != nil && !result.InMap(geometry.Centroid(pts)) {
			continue
		}
		if containsBox(result, pts) {
			continue
		}
		result.Boxes = append(result.Boxes, PolygonFromPoints(pts))
	}

	slog.Debug("segmented image", "map", result.Map != nil, "boxes", len(result.Boxes))
	return result, nil
}

func pointsOf(pv gocv.PointVector) []geometry.Point2D {
	pts := make([]geometry.Point2D, 0, pv.Size())
	for i := 0; i < pv.Size(); i++ {
		p := pv.At(i)
		pts = append(pts, geometry.Point2D{X: float64(p.X), Y: float64(p.Y)})
	}
	return pts
}

// rectangular reports whether a quadrilateral has near-right corners.
func rectangular(pts []geometry.Point2D) bool {
	for i := range pts {
		a := pts[(i+len(pts)-1)%len(pts)].Sub(pts[i])
		b := pts[(i+1)%len(pts)].Sub(pts[i])
		la := math.Hypot(a.X, a.Y)
		lb := math.Hypot(b.X, b.Y)
		if la == 0 || lb == 0 {
			return false
		}
		cos := (a.X*b.X + a.Y*b.Y) / (la * lb)
		if math.Abs(cos) > 0.2 {
			return false
		}
	}
	return true
}

// containsBox reports whether an equivalent box was already found; the inner
// and outer edge of one frame line both produce a contour.
func containsBox(s *Segmentation, pts []geometry.Point2D) bool {
	c := geometry.Centroid(pts)
	area := geometry.PolygonArea(pts)
	for _, box := range s.Boxes {
		ring := box[0]
		existing := make([]geometry.Point2D, 0, len(ring))
		for _, p := range ring[:len(ring)-1] {
			existing = append(existing, geometry.Point2D{X: p[0], Y: p[1]})
		}
		ec := geometry.Centroid(existing)
		ea := geometry.PolygonArea(existing)
		if c.Distance(ec) < math.Sqrt(area)*0.1 && math.Abs(area-ea) < 0.2*math.Max(area, ea) {
			return true
		}
	}
	return false
}
