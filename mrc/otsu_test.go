package mrc

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func grayImage(w, h int, fn func(x, y int) uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g.SetGray(x, y, color.Gray{Y: fn(x, y)})
		}
	}
	return g
}

func TestOtsuThresholdEmptyImageReturnsMidpoint(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 0, 0))
	require.Equal(t, 128, OtsuThreshold(g))
}

func TestOtsuThresholdSeparatesTwoClusters(t *testing.T) {
	// Left half near-black, right half near-white: every threshold from 10
	// to 239 gives the same maximal inter-class variance, and OtsuThreshold
	// returns the first of them, 10; Binarize's <= rule then puts the dark
	// cluster in the mask and the light one out.
	g := grayImage(20, 10, func(x, y int) uint8 {
		if x < 10 {
			return 10
		}
		return 240
	})
	threshold := OtsuThreshold(g)
	require.Equal(t, 10, threshold)
	require.Less(t, threshold, 240)
}

func TestBinarizeMarksDarkPixelsSet(t *testing.T) {
	g := grayImage(4, 2, func(x, y int) uint8 {
		if x < 2 {
			return 0 // dark
		}
		return 255 // light
	})
	bm := Binarize(g, 128)
	require.Equal(t, 1, bm.Get(0, 0))
	require.Equal(t, 1, bm.Get(1, 1))
	require.Equal(t, 0, bm.Get(2, 0))
	require.Equal(t, 0, bm.Get(3, 1))
}

func TestToGrayConvertsRGBA(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.White)
	img.Set(1, 0, color.Black)
	gray := ToGray(img)
	require.Greater(t, gray.GrayAt(0, 0).Y, uint8(200))
	require.Less(t, gray.GrayAt(1, 0).Y, uint8(50))
}
