package imagexobj

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestOptimizeReturnsNilWhenNoCandidateBeatsOriginal(t *testing.T) {
	img := solidImage(4, 4, color.White)
	cand, err := Optimize(img, 1, 75) // originalSize impossibly small
	require.NoError(t, err)
	require.Nil(t, cand)
}

func TestOptimizeGrayscaleCandidateForGrayInput(t *testing.T) {
	img := solidImage(16, 16, color.Gray{Y: 128})
	cand, err := Optimize(img, 1<<20, 75)
	require.NoError(t, err)
	require.NotNil(t, cand)
	require.Equal(t, "DeviceGray", cand.ColorSpace)
}

func TestOptimizeColorInputProducesRGBCandidateOption(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 30), B: 200, A: 255})
		}
	}
	cand, err := Optimize(img, 1<<20, 75)
	require.NoError(t, err)
	require.NotNil(t, cand)
}

func TestOptimizeClampsOutOfRangeQuality(t *testing.T) {
	img := solidImage(4, 4, color.Gray{Y: 50})
	_, err := Optimize(img, 1<<20, 500)
	require.NoError(t, err)
}
