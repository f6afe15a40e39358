package ocr

import (
	"image/color"
	"math"
	"testing"

	"maponyms/pkg/colorutil"
	"maponyms/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"gocv.io/x/gocv"
)

func setPixel(m gocv.Mat, x, y int, c color.RGBA) {
	m.SetUCharAt(y, x*3+0, c.B)
	m.SetUCharAt(y, x*3+1, c.G)
	m.SetUCharAt(y, x*3+2, c.R)
}

func TestColorMaskAndSamples(t *testing.T) {
	img := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8UC3)
	defer img.Close()
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			setPixel(img, x, y, colorutil.White)
		}
	}
	darkRed := color.RGBA{R: 220, G: 20, B: 20, A: 255}
	setPixel(img, 2, 2, darkRed)
	setPixel(img, 3, 2, colorutil.Red)

	mask := ColorMask(img, colorutil.Red, 60)
	defer mask.Close()

	assert.Equal(t, 2, gocv.CountNonZero(mask))
	assert.Equal(t, uint8(255), mask.GetUCharAt(2, 3))
	assert.Equal(t, uint8(0), mask.GetUCharAt(0, 0))

	samples := sampleMasked(img, mask, geometry.NewRect(0, 0, 5, 5))
	assert.ElementsMatch(t, []color.RGBA{darkRed, colorutil.Red}, samples)

	none := sampleMasked(img, mask, geometry.NewRect(6, 6, 3, 3))
	assert.Empty(t, none)
	assert.True(t, math.IsNaN(colorutil.MatchScore(colorutil.Red, none)))
}
