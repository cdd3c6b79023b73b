package mrc

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"testing"

	"golang.org/x/image/draw"

	"github.com/stretchr/testify/require"
)

func checkerboardImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y, color.Black)
			} else {
				img.Set(x, y, color.White)
			}
		}
	}
	return img
}

func TestComposeProducesAllThreeLayers(t *testing.T) {
	img := checkerboardImage(16, 16)
	layers, err := Compose(img, Quality{BgQuality: 60, FgQuality: 80, DPI: 300, FgDPI: 150, ColorMode: "rgb"})
	require.NoError(t, err)
	require.NotEmpty(t, layers.MaskJbig2)
	require.NotEmpty(t, layers.FgJpeg)
	require.NotEmpty(t, layers.BgJpeg)
	require.Equal(t, 16, layers.Width)
	require.Equal(t, 16, layers.Height)
}

func TestComposeBWProducesMaskOnly(t *testing.T) {
	img := checkerboardImage(8, 8)
	layers, err := ComposeBW(img)
	require.NoError(t, err)
	require.NotEmpty(t, layers.MaskJbig2)
	require.Empty(t, layers.FgJpeg)
	require.Empty(t, layers.BgJpeg)
}

func TestComposeTextMaskedSegmentsRegions(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			img.Set(x, y, color.White)
		}
	}
	for _, p := range [][2]int{{2, 2}, {3, 2}, {2, 3}, {15, 15}, {16, 15}} {
		img.Set(p[0], p[1], color.Black)
	}

	crops, err := ComposeTextMasked(img, 1, 1)
	require.NoError(t, err)
	require.NotEmpty(t, crops)
	for _, c := range crops {
		require.NotEmpty(t, c.Jbig2)
	}
}

func TestMedianOddLength(t *testing.T) {
	require.Equal(t, 3, median([]int{5, 1, 3, 2, 4}))
}

func TestMedianSingleValue(t *testing.T) {
	require.Equal(t, 7, median([]int{7}))
}

func TestWhitenUnmaskedKeepsMaskedPixels(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	img.Set(1, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	mask := NewBitmap(2, 1)
	mask.Set(0, 0, 1)

	out := whitenUnmasked(img, mask)
	r, _, _, _ := out.At(0, 0).RGBA()
	require.NotEqual(t, uint32(0xFFFF), r, "masked pixel should keep its original color")

	wr, wg, wb, _ := out.At(1, 0).RGBA()
	require.Equal(t, uint32(0xFFFF), wr)
	require.Equal(t, uint32(0xFFFF), wg)
	require.Equal(t, uint32(0xFFFF), wb)
}

func TestDownsampleNoopAboveThreshold(t *testing.T) {
	img := checkerboardImage(10, 10)
	out := downsample(img, 1.0)
	require.Equal(t, img.Bounds(), out.Bounds())
}

func TestDownsampleShrinksImage(t *testing.T) {
	img := checkerboardImage(100, 100)
	out := downsample(img, 0.5)
	require.Equal(t, 50, out.Bounds().Dx())
	require.Equal(t, 50, out.Bounds().Dy())
}

// photoWithTextImage builds a smooth gradient background (standing in for
// a scanned photo) with a handful of solid black "text" pixels scattered
// across it, the kind of source Compose's mask/background/foreground split
// is meant to separate cleanly.
func photoWithTextImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(128 + 64*math.Sin(float64(x)/4) + 32*math.Cos(float64(y)/3))
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	for y := 2; y < h-2; y += 5 {
		for x := 2; x < w-2; x += 7 {
			img.Set(x, y, color.Black)
			img.Set(x+1, y, color.Black)
		}
	}
	return img
}

// psnr computes peak signal-to-noise ratio in dB between two same-sized
// images over their RGB channels. Identical images report +Inf.
func psnr(a, b image.Image) float64 {
	bounds := a.Bounds()
	var sumSq float64
	var n int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			ar, ag, ab, _ := a.At(x, y).RGBA()
			br, bg, bb, _ := b.At(x, y).RGBA()
			for _, d := range []float64{
				float64(int(ar>>8) - int(br>>8)),
				float64(int(ag>>8) - int(bg>>8)),
				float64(int(ab>>8) - int(bb>>8)),
			} {
				sumSq += d * d
				n++
			}
		}
	}
	if sumSq == 0 {
		return math.Inf(1)
	}
	mse := sumSq / float64(n)
	return 20*math.Log10(255) - 10*math.Log10(mse)
}

// reconstruct decodes Compose's JPEG layers back to images and recombines
// them with the same Otsu mask Compose itself derived, mirroring what a
// PDF viewer does when it paints the MRC-decomposed image XObjects back
// onto a page: background everywhere, foreground color only where the
// mask says there's text.
func reconstruct(t *testing.T, layers *Layers, mask *Bitmap) *image.RGBA {
	t.Helper()
	bg, err := jpeg.Decode(bytes.NewReader(layers.BgJpeg))
	require.NoError(t, err)
	fgSmall, err := jpeg.Decode(bytes.NewReader(layers.FgJpeg))
	require.NoError(t, err)

	fg := image.NewRGBA(image.Rect(0, 0, layers.Width, layers.Height))
	draw.NearestNeighbor.Scale(fg, fg.Bounds(), fgSmall, fgSmall.Bounds(), draw.Over, nil)

	out := image.NewRGBA(image.Rect(0, 0, layers.Width, layers.Height))
	for y := 0; y < layers.Height; y++ {
		for x := 0; x < layers.Width; x++ {
			if mask.Get(x, y) != 0 {
				out.Set(x, y, fg.At(x, y))
			} else {
				out.Set(x, y, bg.At(x, y))
			}
		}
	}
	return out
}

func TestComposeReconstructionMeetsPSNRFloor(t *testing.T) {
	img := photoWithTextImage(64, 64)
	gray := ToGray(img)
	mask := Binarize(gray, OtsuThreshold(gray))

	layers, err := Compose(img, Quality{BgQuality: 90, FgQuality: 90, DPI: 300, FgDPI: 300, ColorMode: "rgb"})
	require.NoError(t, err)

	out := reconstruct(t, layers, mask)
	quality := psnr(img, out)
	require.GreaterOrEqualf(t, quality, 30.0, "MRC reconstruction PSNR %.2fdB below the 30dB floor", quality)
}
