// Package toponym selects place-name labels from consolidated map text and
// locates the map symbol each label refers to.
package toponym

import (
	"unicode"

	"maponyms/internal/segment"
	"maponyms/internal/text"
)

// Filter keeps the regions that plausibly denote place names.
type Filter interface {
	Filter(regions []text.Region, seg *segment.Segmentation) []text.Region
}

// RuleFilter applies textual and positional rules.
type RuleFilter struct {
	MinAlphas     int     // Minimum number of letters
	MinAlphaRatio float64 // Minimum share of letters among non-space characters
	Capitalized   bool    // Require the first letter to be upper case
}

// DefaultRuleFilter returns the default place-name rules.
func DefaultRuleFilter() RuleFilter {
	return RuleFilter{
		MinAlphas:     3,
		MinAlphaRatio: 0.6,
		Capitalized:   true,
	}
}

// Filter implements Filter. Order is preserved.
func (f RuleFilter) Filter(regions []text.Region, seg *segment.Segmentation) []text.Region {
	var out []text.Region
	for _, r := range regions {
		if !f.plausibleName(r) {
			continue
		}
		center := r.Bounds.Center()
		if !seg.InMap(center) || seg.InBox(center) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (f RuleFilter) plausibleName(r text.Region) bool {
	if len(r.Alphas) == 0 || len(r.Alphas) < f.MinAlphas {
		return false
	}

	var chars int
	for _, ch := range r.Clean {
		if !unicode.IsSpace(ch) {
			chars++
		}
	}
	if chars == 0 || float64(len(r.Alphas))/float64(chars) < f.MinAlphaRatio {
		return false
	}

	if f.Capitalized && !unicode.IsUpper(r.Alphas[0]) {
		return false
	}
	return true
}
