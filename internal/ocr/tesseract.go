// Package ocr detects map text under target text colors.
package ocr

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"strings"

	"maponyms/internal/imageio"
	"maponyms/internal/text"
	"maponyms/pkg/colorutil"
	"maponyms/pkg/geometry"

	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"
)

// Detector finds text regions in an image. Each returned region carries
// the target color it was detected under.
type Detector interface {
	Detect(ctx context.Context, img image.Image, colors []color.RGBA) ([]text.Region, error)
}

// Options tunes the Tesseract detector.
type Options struct {
	Language       string  // Tesseract language, e.g. "eng"
	ColorTolerance float64 // Max RGB distance from the target color for a pixel to count as text
	MinConfidence  float64 // Drop detections below this OCR confidence (0-100)
	MinImageHeight int     // Images shorter than this (pixels) are upscaled before OCR
}

// DefaultOptions returns default detector options.
func DefaultOptions() Options {
	return Options{
		Language:       "eng",
		ColorTolerance: 100,
		MinConfidence:  30,
		MinImageHeight: 1000,
	}
}

// Engine provides text detection using Tesseract.
type Engine struct {
	client *gosseract.Client
	opts   Options
}

// NewEngine creates a new OCR engine.
func NewEngine(opts Options) (*Engine, error) {
	client := gosseract.NewClient()

	if err := client.SetLanguage(opts.Language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}

	// Place names are mostly not dictionary words
	_ = client.SetVariable("load_system_dawg", "false")
	_ = client.SetVariable("load_freq_dawg", "false")

	return &Engine{client: client, opts: opts}, nil
}

// Close releases OCR resources.
func (e *Engine) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// Detect implements Detector. The image is isolated to each target color in
// turn and text lines are recognized on the isolated mask.
func (e *Engine) Detect(ctx context.Context, img image.Image, colors []color.RGBA) ([]text.Region, error) {
	mat, err := imageio.ToMat(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()

	var regions []text.Region
	for _, target := range colors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		found, err := e.detectColor(mat, target)
		if err != nil {
			return nil, fmt.Errorf("detect text color %s: %w", colorutil.Format(target), err)
		}
		slog.Debug("detected text", "color", colorutil.Format(target), "regions", len(found))
		regions = append(regions, found...)
	}
	return regions, nil
}

func (e *Engine) detectColor(mat gocv.Mat, target color.RGBA) ([]text.Region, error) {
	mask := ColorMask(mat, target, e.opts.ColorTolerance)
	defer mask.Close()

	// Tesseract expects dark text on a light background
	inverted := gocv.NewMat()
	defer inverted.Close()
	gocv.BitwiseNot(mask, &inverted)

	scale := 1.0
	if inverted.Rows() < e.opts.MinImageHeight {
		scale = float64(e.opts.MinImageHeight) / float64(inverted.Rows())
		gocv.Resize(inverted, &inverted, image.Point{}, scale, scale, gocv.InterpolationCubic)
	}

	buf, err := gocv.IMEncode(gocv.PNGFileExt, inverted)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	if err := e.client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT); err != nil {
		return nil, fmt.Errorf("failed to set PSM: %w", err)
	}
	if err := e.client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("failed to get boxes: %w", err)
	}

	var regions []text.Region
	for _, box := range boxes {
		raw := strings.TrimSpace(box.Word)
		if raw == "" || box.Confidence < e.opts.MinConfidence {
			continue
		}

		bounds := geometry.Rect{
			X:      float64(box.Box.Min.X) / scale,
			Y:      float64(box.Box.Min.Y) / scale,
			Width:  float64(box.Box.Dx()) / scale,
			Height: float64(box.Box.Dy()) / scale,
		}
		match := colorutil.MatchScore(target, sampleMasked(mat, mask, bounds))
		regions = append(regions, text.NewRegion(bounds, raw, target, match, box.Confidence))
	}
	return regions, nil
}

// ColorMask marks pixels within tolerance (RGB distance) of the target.
func ColorMask(img gocv.Mat, target color.RGBA, tolerance float64) gocv.Mat {
	mask := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), img.Rows(), img.Cols(), gocv.MatTypeCV8U)
	rows, cols := img.Rows(), img.Cols()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			px := pixelAt(img, x, y)
			if colorutil.Distance(px, target) <= tolerance {
				mask.SetUCharAt(y, x, 255)
			}
		}
	}
	return mask
}

// sampleMasked collects the image colors of masked pixels inside bounds.
func sampleMasked(img, mask gocv.Mat, bounds geometry.Rect) []color.RGBA {
	x1 := max(0, int(bounds.X))
	y1 := max(0, int(bounds.Y))
	x2 := min(img.Cols(), int(bounds.Right()+0.5))
	y2 := min(img.Rows(), int(bounds.Bottom()+0.5))

	var samples []color.RGBA
	for y := y1; y < y2; y++ {
		for x := x1; x < x2; x++ {
			if mask.GetUCharAt(y, x) > 0 {
				samples = append(samples, pixelAt(img, x, y))
			}
		}
	}
	return samples
}

func pixelAt(img gocv.Mat, x, y int) color.RGBA {
	return color.RGBA{
		B: img.GetUCharAt(y, x*3+0),
		G: img.GetUCharAt(y, x*3+1),
		R: img.GetUCharAt(y, x*3+2),
		A: 255,
	}
}
