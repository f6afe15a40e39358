// Package text consolidates raw text detections into toponym text blocks.
package text

import (
	"image/color"
	"math"
	"strings"
	"unicode"

	"maponyms/pkg/geometry"
)

// Region is a text detection: a box in pixel space, the recognized string
// and the color hypothesis it was detected under.
type Region struct {
	Bounds     geometry.Rect `json:"bounds"`
	Text       string        `json:"text"`        // Raw recognized text
	Clean      string        `json:"text_clean"`  // Cleaned display text
	Alphas     []rune        `json:"text_alphas"` // Alphabetic characters, case preserved
	Color      color.RGBA    `json:"color"`       // Detection color
	ColorMatch float64       `json:"color_match"` // Color-match confidence, NaN when undefined
	Confidence float64       `json:"confidence"`  // OCR confidence (0-100)
}

// NewRegion builds a Region from a raw detection, deriving the cleaned text
// and the alphabetic character list.
func NewRegion(bounds geometry.Rect, raw string, c color.RGBA, colorMatch, confidence float64) Region {
	clean := CleanText(raw)
	return Region{
		Bounds:     bounds,
		Text:       raw,
		Clean:      clean,
		Alphas:     AlphaRunes(clean),
		Color:      c,
		ColorMatch: colorMatch,
		Confidence: confidence,
	}
}

// IsUpper reports whether the region reads as upper case.
func (r Region) IsUpper() bool {
	return IsUpper(r.Alphas)
}

// HasColorMatch reports whether the color-match confidence is defined.
func (r Region) HasColorMatch() bool {
	return !math.IsNaN(r.ColorMatch)
}

// IsUpper reports whether more than half of the alphabetic characters are
// upper case. A slice without letters is not upper case; this tolerates the
// occasional OCR case error inside a word.
func IsUpper(alphas []rune) bool {
	var letters, upper int
	for _, ch := range alphas {
		if !unicode.IsLetter(ch) {
			continue
		}
		letters++
		if unicode.IsUpper(ch) {
			upper++
		}
	}
	return float64(upper) > float64(letters)/2
}

// AlphaRunes returns the alphabetic characters of s in order.
func AlphaRunes(s string) []rune {
	var out []rune
	for _, ch := range s {
		if unicode.IsLetter(ch) {
			out = append(out, ch)
		}
	}
	return out
}

// CleanText collapses whitespace and trims punctuation hanging off either
// end of the text, which OCR tends to pick up from map symbols.
func CleanText(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) ||
			unicode.IsSpace(r)
	})
}

func colorKey(c color.RGBA) uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// Colors returns the distinct detection colors in order of first appearance.
func Colors(regions []Region) []color.RGBA {
	seen := make(map[uint32]bool)
	var out []color.RGBA
	for _, r := range regions {
		k := colorKey(r.Color)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r.Color)
	}
	return out
}

// ByColor returns the indices of regions detected under color c.
func ByColor(regions []Region, c color.RGBA) []int {
	k := colorKey(c)
	var idx []int
	for i, r := range regions {
		if colorKey(r.Color) == k {
			idx = append(idx, i)
		}
	}
	return idx
}
