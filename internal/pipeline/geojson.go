package pipeline

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"maponyms/internal/segment"
	"maponyms/internal/text"
	"maponyms/internal/toponym"
	"maponyms/pkg/colorutil"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Output file names, one feature collection per stage.
const (
	SegmentsFile  = "segments.geojson"
	TextsFile     = "texts.geojson"
	ToponymsFile  = "toponyms.geojson"
	TiePointsFile = "tiepoints.geojson"
)

// SegmentFeatures returns the map polygon and inset boxes as features typed
// "Map" and "Box".
func SegmentFeatures(seg *segment.Segmentation) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if seg == nil {
		return fc
	}
	if seg.Map != nil {
		f := geojson.NewFeature(seg.Map)
		f.Properties["type"] = "Map"
		fc.Append(f)
	}
	for _, box := range seg.Boxes {
		f := geojson.NewFeature(box)
		f.Properties["type"] = "Box"
		fc.Append(f)
	}
	return fc
}

// TextFeatures returns each region's bounding box with its attributes.
func TextFeatures(regions []text.Region) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range regions {
		f := geojson.NewFeature(segment.PolygonFromPoints(r.Bounds.Ring()))
		f.Properties["left"] = r.Bounds.X
		f.Properties["top"] = r.Bounds.Y
		f.Properties["width"] = r.Bounds.Width
		f.Properties["height"] = r.Bounds.Height
		f.Properties["text"] = r.Text
		f.Properties["text_clean"] = r.Clean
		f.Properties["text_alphas"] = string(r.Alphas)
		f.Properties["color"] = colorutil.Format(r.Color)
		f.Properties["color_match"] = number(r.ColorMatch)
		f.Properties["conf"] = number(r.Confidence)
		f.Properties["uppercase"] = r.IsUpper()
		fc.Append(f)
	}
	return fc
}

// ToponymFeatures returns each toponym point with its name.
func ToponymFeatures(points []toponym.Point) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range points {
		f := geojson.NewFeature(segment.ToOrb(p.Point))
		f.Properties["name"] = p.Name
		f.Properties["anchored"] = p.Anchored
		fc.Append(f)
	}
	return fc
}

// TiePointFeatures returns each tie point at its world coordinate, with the
// image name and position as properties.
func TiePointFeatures(tps []TiePoint) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, tp := range tps {
		f := geojson.NewFeature(orb.Point{tp.Lon, tp.Lat})
		f.Properties["origname"] = tp.Name
		f.Properties["origx"] = tp.Pixel.X
		f.Properties["origy"] = tp.Pixel.Y
		f.Properties["matchname"] = tp.MatchName
		f.Properties["matchx"] = tp.Lon
		f.Properties["matchy"] = tp.Lat
		f.Properties["residual"] = number(tp.Residual)
		fc.Append(f)
	}
	return fc
}

// Collections returns every non-empty stage output keyed by file name.
func (r *Result) Collections() map[string]*geojson.FeatureCollection {
	out := map[string]*geojson.FeatureCollection{
		SegmentsFile: SegmentFeatures(r.Segmentation),
		TextsFile:    TextFeatures(r.Texts),
		ToponymsFile: ToponymFeatures(r.Toponyms),
	}
	if r.Match != nil {
		out[TiePointsFile] = TiePointFeatures(r.TiePoints)
	}
	return out
}

// WriteCollections writes Collections into dir, creating it if needed, and
// returns the written paths.
func (r *Result) WriteCollections(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	collections := r.Collections()
	var written []string
	for _, name := range []string{SegmentsFile, TextsFile, ToponymsFile, TiePointsFile} {
		fc, ok := collections[name]
		if !ok {
			continue
		}
		data, err := fc.MarshalJSON()
		if err != nil {
			return written, fmt.Errorf("encode %s: %w", name, err)
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// number maps NaN and infinities to JSON null.
func number(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}
