package text

import (
	"log/slog"
)

// Deduplicate removes text detected more than once under different color
// hypotheses. For every pair of overlapping regions of different colors the
// one with the poorer color match is dropped; an undefined (NaN) color match
// loses against a defined one. On a tie the region earlier in the input is
// kept. Returns a new slice in input order; the input is not modified.
func Deduplicate(regions []Region) []Region {
	colors := Colors(regions)
	if len(colors) < 2 {
		return append([]Region(nil), regions...)
	}

	drop := make([]bool, len(regions))
	for ci := 0; ci < len(colors); ci++ {
		group := ByColor(regions, colors[ci])
		for cj := ci + 1; cj < len(colors); cj++ {
			other := ByColor(regions, colors[cj])
			for _, i := range group {
				for _, j := range other {
					if !regions[i].Bounds.Overlaps(regions[j].Bounds) {
						continue
					}
					loser := poorerMatch(regions, i, j)
					winner := i + j - loser
					drop[loser] = true
					slog.Debug("dropping duplicate text of different color",
						"kept", regions[winner].Clean, "kept_match", regions[winner].ColorMatch,
						"dropped", regions[loser].Clean, "dropped_match", regions[loser].ColorMatch)
				}
			}
		}
	}

	out := make([]Region, 0, len(regions))
	for i, r := range regions {
		if !drop[i] {
			out = append(out, r)
		}
	}
	slog.Debug("deduplicated texts", "before", len(regions), "after", len(out))
	return out
}

// poorerMatch returns the index, i or j, of the region to drop.
func poorerMatch(regions []Region, i, j int) int {
	a, b := regions[i], regions[j]
	switch {
	case a.HasColorMatch() && !b.HasColorMatch():
		return j
	case !a.HasColorMatch() && b.HasColorMatch():
		return i
	case a.HasColorMatch() && b.HasColorMatch() && a.ColorMatch != b.ColorMatch:
		if a.ColorMatch < b.ColorMatch {
			return i
		}
		return j
	}
	// Tie: keep whichever came first in the input
	return max(i, j)
}
