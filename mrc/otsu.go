package mrc

import "image"

// OtsuThreshold computes the binarization threshold (0..255) that
// maximizes inter-class variance between foreground and background
// gray levels, per Otsu's method.
func OtsuThreshold(gray *image.Gray) int {
	var hist [256]int
	for _, v := range gray.Pix {
		hist[v]++
	}
	total := len(gray.Pix)
	if total == 0 {
		return 128
	}

	var sum float64
	for i, c := range hist {
		sum += float64(i * c)
	}

	var sumB, wB float64
	var maxVar float64
	threshold := 0

	for t := 0; t < 256; t++ {
		wB += float64(hist[t])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(t * hist[t])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > maxVar {
			maxVar = between
			threshold = t
		}
	}
	return threshold
}

// Binarize applies threshold t to gray, producing a 1-bit Bitmap where
// a set bit means "darker than threshold" (the JBIG2 mask convention:
// set bits are text/line-art, painted black via Decode [1 0]).
func Binarize(gray *image.Gray, t int) *Bitmap {
	bm := NewBitmap(gray.Rect.Dx(), gray.Rect.Dy())
	for y := 0; y < bm.Height; y++ {
		for x := 0; x < bm.Width; x++ {
			v := gray.GrayAt(gray.Rect.Min.X+x, gray.Rect.Min.Y+y).Y
			if int(v) <= t {
				bm.Set(x, y, 1)
			}
		}
	}
	return bm
}

// ToGray converts an arbitrary image to grayscale using the standard
// luma weights, matching the weights contentstream.FillColor.Luminance
// uses for consistency across the codebase.
func ToGray(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray.Set(x, y, img.At(x, y))
		}
	}
	return gray
}
