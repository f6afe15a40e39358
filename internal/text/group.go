package text

import (
	"math"
	"sort"
	"strings"

	"maponyms/pkg/geometry"
)

// Grouper connects line fragments belonging to the same label into single
// text blocks. Inputs share one color and one letter case.
type Grouper interface {
	Connect(regions []Region) []Region
}

// LineGrouper joins words on the same line and stacked lines of a
// multi-line label using gaps relative to the text height.
type LineGrouper struct {
	WordGap     float64 // Max horizontal gap between words, in text heights
	LineGap     float64 // Max vertical gap between lines, in text heights
	HeightRatio float64 // Max ratio between the heights of joined fragments
}

// DefaultLineGrouper returns a LineGrouper with defaults tuned for map
// labels.
func DefaultLineGrouper() LineGrouper {
	return LineGrouper{
		WordGap:     1.0,
		LineGap:     0.6,
		HeightRatio: 1.6,
	}
}

// Connect merges connected fragments. Groups are returned in order of their
// first member in the input.
func (g LineGrouper) Connect(regions []Region) []Region {
	n := len(regions)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if g.connected(regions[i].Bounds, regions[j].Bounds) {
				ri, rj := find(i), find(j)
				if ri != rj {
					parent[max(ri, rj)] = min(ri, rj)
				}
			}
		}
	}

	var order []int
	members := make(map[int][]int)
	for i := 0; i < n; i++ {
		root := find(i)
		if _, ok := members[root]; !ok {
			order = append(order, root)
		}
		members[root] = append(members[root], i)
	}

	out := make([]Region, 0, len(order))
	for _, root := range order {
		group := make([]Region, len(members[root]))
		for k, idx := range members[root] {
			group[k] = regions[idx]
		}
		out = append(out, Merge(group))
	}
	return out
}

func (g LineGrouper) connected(a, b geometry.Rect) bool {
	ha, hb := a.Height, b.Height
	if ha <= 0 || hb <= 0 {
		return false
	}
	if math.Max(ha, hb)/math.Min(ha, hb) > g.HeightRatio {
		return false
	}
	h := math.Max(ha, hb)

	// Same line: vertical centers close, horizontal gap small
	if math.Abs(a.Center().Y-b.Center().Y) <= h/2 {
		gap := math.Max(a.X, b.X) - math.Min(a.Right(), b.Right())
		return gap <= g.WordGap*h
	}

	// Stacked lines: vertical gap small and horizontally overlapping or
	// centered on each other
	vgap := math.Max(a.Y, b.Y) - math.Min(a.Bottom(), b.Bottom())
	if vgap > g.LineGap*h {
		return false
	}
	hoverlap := math.Min(a.Right(), b.Right()) - math.Max(a.X, b.X)
	if hoverlap > 0 {
		return true
	}
	return math.Abs(a.Center().X-b.Center().X) <= h
}

// Merge combines fragments into one region: union box, text joined in
// reading order, mean color match over the defined values.
func Merge(group []Region) Region {
	if len(group) == 1 {
		return group[0]
	}

	sorted := append([]Region(nil), group...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Bounds, sorted[j].Bounds
		if math.Abs(a.Center().Y-b.Center().Y) > math.Min(a.Height, b.Height)/2 {
			return a.Y < b.Y
		}
		return a.X < b.X
	})

	merged := Region{
		Bounds: sorted[0].Bounds,
		Color:  sorted[0].Color,
	}
	var raw, clean []string
	var matchSum, confSum float64
	var matchCount int
	for i, r := range sorted {
		if i > 0 {
			merged.Bounds = merged.Bounds.Union(r.Bounds)
		}
		raw = append(raw, r.Text)
		clean = append(clean, r.Clean)
		merged.Alphas = append(merged.Alphas, r.Alphas...)
		if r.HasColorMatch() {
			matchSum += r.ColorMatch
			matchCount++
		}
		confSum += r.Confidence
	}
	merged.Text = strings.Join(raw, " ")
	merged.Clean = strings.Join(clean, " ")
	merged.Confidence = confSum / float64(len(sorted))
	merged.ColorMatch = math.NaN()
	if matchCount > 0 {
		merged.ColorMatch = matchSum / float64(matchCount)
	}
	return merged
}
