package toponym

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"

	"maponyms/internal/imageio"
	"maponyms/internal/text"
	"maponyms/pkg/geometry"

	"gocv.io/x/gocv"
)

// AnchorDetector locates the map symbol a label refers to. all is the full,
// unfiltered text set, used to keep letters from being taken as symbols.
// The result is index-aligned with candidates; nil means no anchor found.
type AnchorDetector interface {
	Anchors(img image.Image, all, candidates []text.Region) ([]*geometry.Point2D, error)
}

// NoAnchors never finds an anchor.
type NoAnchors struct{}

// Anchors implements AnchorDetector.
func (NoAnchors) Anchors(_ image.Image, _, candidates []text.Region) ([]*geometry.Point2D, error) {
	return make([]*geometry.Point2D, len(candidates)), nil
}

// MarkerAnchors finds compact dark blobs, such as town dots or squares,
// next to each label.
type MarkerAnchors struct {
	SearchFactor   float64 // Search margin around the label, in label heights
	DarkThreshold  float32 // Gray level below which a pixel counts as ink
	MinAreaFactor  float64 // Min blob area, as a fraction of label height squared
	MaxAreaFactor  float64 // Max blob area, as a multiple of label height squared
	MinCircularity float64 // Min blob circularity (4*pi*area/perimeter^2)
}

// DefaultMarkerAnchors returns default marker search parameters.
func DefaultMarkerAnchors() MarkerAnchors {
	return MarkerAnchors{
		SearchFactor:   1.5,
		DarkThreshold:  110,
		MinAreaFactor:  0.05,
		MaxAreaFactor:  1.5,
		MinCircularity: 0.6,
	}
}

// Anchors implements AnchorDetector.
func (m MarkerAnchors) Anchors(img image.Image, all, candidates []text.Region) ([]*geometry.Point2D, error) {
	anchors := make([]*geometry.Point2D, len(candidates))
	if img == nil || len(candidates) == 0 {
		return anchors, nil
	}

	mat, err := imageio.ToMat(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	ink := gocv.NewMat()
	defer ink.Close()
	gocv.Threshold(gray, &ink, m.DarkThreshold, 255, gocv.ThresholdBinaryInv)

	// Blank out every text box so letters are never taken as markers
	blank := color.RGBA{}
	for _, r := range all {
		rect := toImageRect(r.Bounds.Expand(1))
		gocv.Rectangle(&ink, rect, blank, -1)
	}

	bounds := image.Rect(0, 0, ink.Cols(), ink.Rows())
	for i, c := range candidates {
		h := c.Bounds.Height
		window := toImageRect(c.Bounds.Expand(m.SearchFactor * h)).Intersect(bounds)
		if window.Empty() {
			continue
		}
		anchors[i] = m.findMarker(ink, window, c.Bounds)
	}

	var found int
	for _, a := range anchors {
		if a != nil {
			found++
		}
	}
	slog.Debug("toponym anchors", "candidates", len(candidates), "anchored", found)
	return anchors, nil
}

// findMarker returns the centroid of the compact blob in window closest to
// the label box.
func (m MarkerAnchors) findMarker(ink gocv.Mat, window image.Rectangle, label geometry.Rect) *geometry.Point2D {
	region := ink.Region(window)
	defer region.Close()

	// FindContours wants a continuous buffer
	local := region.Clone()
	defer local.Close()

	contours := gocv.FindContours(local, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	h2 := label.Height * label.Height
	minArea := m.MinAreaFactor * h2
	maxArea := m.MaxAreaFactor * h2

	var best *geometry.Point2D
	bestDist := math.Inf(1)
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		area := gocv.ContourArea(contour)
		if area < minArea || area > maxArea {
			continue
		}
		perimeter := gocv.ArcLength(contour, true)
		if perimeter == 0 {
			continue
		}
		if circularity := (4 * math.Pi * area) / (perimeter * perimeter); circularity < m.MinCircularity {
			continue
		}

		rect := gocv.BoundingRect(contour)
		blob := local.Region(rect)
		moments := gocv.Moments(blob, true)
		blob.Close()

		m00 := moments["m00"]
		if m00 <= 0 {
			continue
		}
		center := geometry.Point2D{
			X: float64(window.Min.X+rect.Min.X) + moments["m10"]/m00,
			Y: float64(window.Min.Y+rect.Min.Y) + moments["m01"]/m00,
		}
		if d := label.DistanceTo(center); d < bestDist {
			bestDist = d
			best = &center
		}
	}
	return best
}

func toImageRect(r geometry.Rect) image.Rectangle {
	return image.Rect(
		int(math.Floor(r.X)), int(math.Floor(r.Y)),
		int(math.Ceil(r.Right())), int(math.Ceil(r.Bottom())),
	)
}
