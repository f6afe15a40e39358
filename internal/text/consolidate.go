package text

import (
	"log/slog"
)

// Consolidator turns raw detections into whole toponym text blocks.
type Consolidator struct {
	Grouper Grouper
}

// NewConsolidator creates a Consolidator using the given grouper, or the
// default line grouper when nil.
func NewConsolidator(g Grouper) *Consolidator {
	if g == nil {
		g = DefaultLineGrouper()
	}
	return &Consolidator{Grouper: g}
}

// Consolidate deduplicates regions across colors, then connects fragments
// within each color, keeping upper and lower case text apart so that a
// capitalized region name is not fused with the town names printed inside
// it. Subgroups of a single region pass through unchanged.
func (c *Consolidator) Consolidate(regions []Region) []Region {
	texts := Deduplicate(regions)

	var grouped []Region
	for _, col := range Colors(texts) {
		var lowers, uppers []Region
		for _, idx := range ByColor(texts, col) {
			if texts[idx].IsUpper() {
				uppers = append(uppers, texts[idx])
			} else {
				lowers = append(lowers, texts[idx])
			}
		}
		grouped = append(grouped, c.connect(lowers)...)
		grouped = append(grouped, c.connect(uppers)...)
	}

	slog.Debug("connected texts", "input", len(regions), "deduplicated", len(texts), "blocks", len(grouped))
	return grouped
}

func (c *Consolidator) connect(group []Region) []Region {
	if len(group) <= 1 {
		return group
	}
	return c.Grouper.Connect(group)
}
