package text

import (
	"image/color"
	"math"
	"testing"

	"maponyms/pkg/colorutil"
	"maponyms/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func region(text string, c color.RGBA, match float64, x, y, w, h float64) Region {
	return NewRegion(geometry.NewRect(x, y, w, h), text, c, match, 90)
}

func cleanTexts(regions []Region) []string {
	out := make([]string, len(regions))
	for i, r := range regions {
		out[i] = r.Clean
	}
	return out
}

func TestDeduplicateDropsPoorerColorMatch(t *testing.T) {
	red := region("Springfield", colorutil.Red, 0.9, 10, 10, 50, 12)
	blue := region("5pringfield", colorutil.Blue, 0.4, 12, 10, 48, 12)

	out := Deduplicate([]Region{red, blue})
	require.Len(t, out, 1)
	assert.Equal(t, "Springfield", out[0].Clean)
	assert.Equal(t, colorutil.Red, out[0].Color)

	// Order of input must not change the winner
	out = Deduplicate([]Region{blue, red})
	require.Len(t, out, 1)
	assert.Equal(t, "Springfield", out[0].Clean)
}

func TestDeduplicateNaN(t *testing.T) {
	defined := region("Oslo", colorutil.Red, 0.1, 0, 0, 30, 10)
	undefined := region("Osl0", colorutil.Blue, math.NaN(), 2, 1, 30, 10)

	out := Deduplicate([]Region{undefined, defined})
	require.Len(t, out, 1)
	assert.Equal(t, "Oslo", out[0].Clean)
}

func TestDeduplicateTieKeepsEarlier(t *testing.T) {
	first := region("Bergen", colorutil.Red, 0.5, 0, 0, 30, 10)
	second := region("Bergen", colorutil.Blue, 0.5, 1, 1, 30, 10)

	out := Deduplicate([]Region{first, second})
	require.Len(t, out, 1)
	assert.Equal(t, colorutil.Red, out[0].Color)

	out = Deduplicate([]Region{second, first})
	require.Len(t, out, 1)
	assert.Equal(t, colorutil.Blue, out[0].Color)

	bothNaN := Deduplicate([]Region{
		region("A", colorutil.Red, math.NaN(), 0, 0, 10, 10),
		region("B", colorutil.Blue, math.NaN(), 0, 0, 10, 10),
	})
	require.Len(t, bothNaN, 1)
	assert.Equal(t, "A", bothNaN[0].Clean)
}

func TestDeduplicateKeepsSameColorAndDisjoint(t *testing.T) {
	regions := []Region{
		region("Alpha", colorutil.Red, 0.9, 0, 0, 30, 10),
		region("Beta", colorutil.Red, 0.2, 5, 2, 30, 10), // same color, overlapping
		region("Gamma", colorutil.Blue, 0.1, 200, 200, 30, 10),
	}
	out := Deduplicate(regions)
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, cleanTexts(out))

	single := Deduplicate(regions[:2])
	assert.Len(t, single, 2)
}

func TestDeduplicateIdempotent(t *testing.T) {
	green := color.RGBA{G: 255, A: 255}
	regions := []Region{
		region("Lyon", colorutil.Red, 0.8, 0, 0, 40, 10),
		region("Lyon", colorutil.Blue, 0.6, 3, 0, 40, 10),
		region("Lyon", green, 0.7, 40, 5, 40, 10),
		region("Nice", colorutil.Blue, 0.3, 100, 100, 40, 10),
		region("Nlce", green, 0.35, 105, 100, 40, 10),
		region("Metz", colorutil.Red, math.NaN(), 300, 300, 40, 10),
	}

	once := Deduplicate(regions)
	twice := Deduplicate(once)
	assert.Equal(t, cleanTexts(once), cleanTexts(twice))

	// No overlapping cross-color pair survives
	for i := range once {
		for j := i + 1; j < len(once); j++ {
			if once[i].Color != once[j].Color {
				assert.False(t, once[i].Bounds.Overlaps(once[j].Bounds),
					"%s and %s still overlap", once[i].Clean, once[j].Clean)
			}
		}
	}
	// Input untouched
	assert.Len(t, regions, 6)
}

func TestIsUpper(t *testing.T) {
	assert.True(t, IsUpper([]rune("NORWAY")))
	assert.True(t, IsUpper([]rune("NORWAy")))
	assert.False(t, IsUpper([]rune("NORway")))
	assert.False(t, IsUpper([]rune("Oslo")))
	assert.False(t, IsUpper(nil))
	assert.False(t, IsUpper(AlphaRunes("1234")))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Saint Louis", CleanText("  ·Saint   Louis. "))
	assert.Equal(t, "Route 66", CleanText("Route 66"))
	assert.Equal(t, "", CleanText(" .,; "))
}

func TestLineGrouperConnectsMultilineLabel(t *testing.T) {
	regions := []Region{
		region("New", colorutil.Black, 0.9, 100, 100, 30, 12),
		region("York", colorutil.Black, 0.7, 136, 100, 40, 12),
		region("City", colorutil.Black, 0.8, 110, 115, 36, 12),
		region("Boston", colorutil.Black, 0.9, 400, 300, 60, 12),
	}

	out := DefaultLineGrouper().Connect(regions)
	require.Len(t, out, 2)
	assert.Equal(t, "New York City", out[0].Clean)
	assert.Equal(t, geometry.NewRect(100, 100, 76, 27), out[0].Bounds)
	assert.Equal(t, []rune("NewYorkCity"), out[0].Alphas)
	assert.InDelta(t, 0.8, out[0].ColorMatch, 1e-9)
	assert.Equal(t, "Boston", out[1].Clean)
}

func TestMergeAllNaN(t *testing.T) {
	merged := Merge([]Region{
		region("Le", colorutil.Black, math.NaN(), 0, 0, 20, 10),
		region("Havre", colorutil.Black, math.NaN(), 25, 0, 40, 10),
	})
	assert.Equal(t, "Le Havre", merged.Clean)
	assert.True(t, math.IsNaN(merged.ColorMatch))
}

type recordingGrouper struct {
	calls [][]string
}

func (g *recordingGrouper) Connect(regions []Region) []Region {
	g.calls = append(g.calls, cleanTexts(regions))
	return []Region{Merge(regions)}
}

func TestConsolidateSplitsByColorAndCase(t *testing.T) {
	regions := []Region{
		region("FRANCE", colorutil.Black, 0.9, 0, 0, 80, 20),
		region("Paris", colorutil.Black, 0.9, 10, 30, 40, 10),
		region("Orléans", colorutil.Black, 0.9, 10, 60, 40, 10),
		region("SPAIN", colorutil.Black, 0.9, 0, 300, 80, 20),
		region("Loire", colorutil.Blue, 0.8, 500, 500, 40, 10),
	}

	g := &recordingGrouper{}
	out := NewConsolidator(g).Consolidate(regions)

	assert.Equal(t, [][]string{
		{"Paris", "Orléans"},
		{"FRANCE", "SPAIN"},
	}, g.calls)
	assert.Equal(t, []string{"Paris Orléans", "FRANCE SPAIN", "Loire"}, cleanTexts(out))
}

func TestConsolidateDefaultGrouper(t *testing.T) {
	regions := []Region{
		region("Rio de", colorutil.Black, 0.9, 100, 100, 50, 12),
		region("Janeiro", colorutil.Black, 0.9, 98, 114, 56, 12),
		region("Rio de", colorutil.Red, 0.5, 101, 100, 50, 12),
	}
	out := NewConsolidator(nil).Consolidate(regions)
	require.Len(t, out, 1)
	assert.Equal(t, "Rio de Janeiro", out[0].Clean)
	assert.Equal(t, colorutil.Black, out[0].Color)
}
