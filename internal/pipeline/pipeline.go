// Package pipeline runs the toponym georeferencing stages over one image.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"time"

	"maponyms/internal/gazetteer"
	"maponyms/internal/matchset"
	"maponyms/internal/ocr"
	"maponyms/internal/segment"
	"maponyms/internal/text"
	"maponyms/internal/toponym"
	"maponyms/pkg/geometry"
)

// TiePoint pairs a pixel location with the world coordinate it depicts.
type TiePoint struct {
	Name      string           // Toponym as read from the image
	Pixel     geometry.Point2D // Image coordinate
	MatchName string           // Gazetteer name of the matched location
	Lon, Lat  float64
	Residual  float64 // Pixel distance under the fitted transform
}

// Result holds every stage's output. Later fields are empty when the run
// stopped early.
type Result struct {
	Segmentation *segment.Segmentation
	Texts        []text.Region
	Candidates   []toponym.Candidate
	Toponyms     []toponym.Point
	Match        *matchset.Result
	TiePoints    []TiePoint
}

// Pipeline wires the stages together.
type Pipeline struct {
	Segmenter    segment.Segmenter
	Detector     ocr.Detector
	Consolidator *text.Consolidator
	Selector     *toponym.Selector
	Resolver     gazetteer.Resolver
	Searcher     *matchset.Searcher

	Colors  []color.RGBA // Target text colors
	Resolve gazetteer.ResolveOptions
}

// Run executes segment, detect, consolidate, select, resolve and search in
// order. When no consistent match set exists the partial result is
// returned together with an error wrapping matchset.ErrNoMatches.
func (p *Pipeline) Run(ctx context.Context, img image.Image) (*Result, error) {
	if len(p.Colors) == 0 {
		return nil, errors.New("no target text colors")
	}
	res := &Result{}

	start := time.Now()
	seg, err := p.Segmenter.Segment(img)
	if err != nil {
		return nil, fmt.Errorf("segmentation: %w", err)
	}
	res.Segmentation = seg
	slog.Info("segmented image", "boxes", len(seg.Boxes), "map", seg.Map != nil, "took", time.Since(start))

	start = time.Now()
	raw, err := p.Detector.Detect(ctx, img, p.Colors)
	if err != nil {
		return res, fmt.Errorf("text detection: %w", err)
	}
	slog.Info("detected text", "regions", len(raw), "colors", len(p.Colors), "took", time.Since(start))

	res.Texts = p.Consolidator.Consolidate(raw)
	slog.Info("consolidated text", "regions", len(res.Texts))

	points, candidates, err := p.Selector.Select(img, res.Texts, seg)
	if err != nil {
		return res, fmt.Errorf("toponym selection: %w", err)
	}
	res.Candidates = candidates
	res.Toponyms = points
	slog.Info("selected toponyms", "candidates", len(candidates), "points", len(points))

	toponyms := make([]matchset.Toponym, len(points))
	for i, pt := range points {
		toponyms[i] = matchset.Toponym{Name: pt.Name, Pixel: pt.Point}
	}

	start = time.Now()
	match, err := p.Searcher.SearchWithResolver(ctx, p.Resolver, toponyms, p.Resolve)
	if err != nil {
		return res, fmt.Errorf("control point matching: %w", err)
	}
	res.Match = match
	res.TiePoints = TiePoints(match)
	slog.Info("matched control points", "tiepoints", len(res.TiePoints), "rms", match.RMS, "took", time.Since(start))

	return res, nil
}

// TiePoints converts a match set into tie points.
func TiePoints(m *matchset.Result) []TiePoint {
	if m == nil {
		return nil
	}
	out := make([]TiePoint, len(m.Matches))
	for i, match := range m.Matches {
		out[i] = TiePoint{
			Name:      match.Toponym.Name,
			Pixel:     match.Toponym.Pixel,
			MatchName: match.Candidate.Name,
			Lon:       match.Candidate.Lon,
			Lat:       match.Candidate.Lat,
			Residual:  match.Residual,
		}
	}
	return out
}
