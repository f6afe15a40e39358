// Package colorutil provides color parsing and matching for
// color-targeted text detection.
package colorutil

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// Common target text colors.
var (
	Black = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Red   = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Blue  = color.RGBA{R: 0, G: 0, B: 255, A: 255}
)

// maxDistance is the RGB distance between black and white.
var maxDistance = math.Sqrt(3 * 255 * 255)

// Distance returns the Euclidean RGB distance between two colors.
func Distance(a, b color.RGBA) float64 {
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// MatchScore rates how well a set of sampled pixels matches the target
// color, from 0 (opposite) to 1 (exact). Returns NaN when there are no
// samples.
func MatchScore(target color.RGBA, samples []color.RGBA) float64 {
	if len(samples) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, s := range samples {
		sum += Distance(target, s)
	}
	return 1 - (sum/float64(len(samples)))/maxDistance
}

// Parse reads a color written as "r,g,b" or "#rrggbb".
func Parse(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		if len(s) != 7 {
			return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
		}
		v, err := strconv.ParseUint(s[1:], 16, 32)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
		}
		return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return color.RGBA{}, fmt.Errorf("invalid color %q: want r,g,b", s)
	}
	var rgb [3]uint8
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid color component %q: %w", p, err)
		}
		rgb[i] = uint8(v)
	}
	return color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}, nil
}

// Format writes a color as "r,g,b".
func Format(c color.RGBA) string {
	return fmt.Sprintf("%d,%d,%d", c.R, c.G, c.B)
}
