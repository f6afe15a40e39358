package colorutil

import (
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	c, err := Parse("255, 0, 10")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 255, G: 0, B: 10, A: 255}, c)

	c, err = Parse("#0a141e")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 10, G: 20, B: 30, A: 255}, c)

	_, err = Parse("1,2")
	assert.Error(t, err)
	_, err = Parse("1,2,300")
	assert.Error(t, err)
	assert.Equal(t, "10,20,30", Format(color.RGBA{R: 10, G: 20, B: 30}))
}

func TestMatchScore(t *testing.T) {
	assert.True(t, math.IsNaN(MatchScore(Red, nil)))
	assert.InDelta(t, 1.0, MatchScore(Red, []color.RGBA{Red, Red}), 1e-9)
	assert.InDelta(t, 0.0, MatchScore(Black, []color.RGBA{White}), 1e-9)

	near := MatchScore(Red, []color.RGBA{{R: 240, G: 10, B: 10, A: 255}})
	far := MatchScore(Red, []color.RGBA{{R: 120, G: 90, B: 90, A: 255}})
	assert.Greater(t, near, far)
}
