package mrc

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"

	"golang.org/x/image/draw"

	"github.com/graylayer/pdfredact/perr"
)

// Quality holds the MRC encode configuration.
type Quality struct {
	BgQuality int
	FgQuality int
	DPI       int
	FgDPI     int
	ColorMode string // "rgb" or "grayscale"
}

// Layers is the three-layer MRC decomposition of one page: a 1-bit
// JBIG2 mask and two JPEG color layers.
type Layers struct {
	MaskJbig2 []byte
	FgJpeg    []byte
	BgJpeg    []byte
	Width     int
	Height    int
}

// Compose runs the full-page MRC pipeline: Otsu mask, JBIG2
// encode, median-inpainted background JPEG, downsampled-and-whitened
// foreground JPEG.
func Compose(img image.Image, q Quality) (*Layers, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	gray := ToGray(img)
	threshold := OtsuThreshold(gray)
	mask := Binarize(gray, threshold)

	maskBytes, err := EncodeGeneric(mask)
	if err != nil {
		return nil, perr.Jbig2Encode(-1, err, "encoding full-page mask")
	}

	bg := inpaintMasked(img, mask, 8)
	bgJpeg, err := encodeJPEG(bg, q.BgQuality, q.ColorMode)
	if err != nil {
		return nil, perr.JpegEncode(-1, err, "encoding background layer")
	}

	fg := whitenUnmasked(img, mask)
	scale := 1.0
	if q.DPI > 0 && q.FgDPI > 0 {
		scale = float64(q.FgDPI) / float64(q.DPI)
	}
	fgSmall := downsample(fg, scale)
	fgJpeg, err := encodeJPEG(fgSmall, q.FgQuality, q.ColorMode)
	if err != nil {
		return nil, perr.JpegEncode(-1, err, "encoding foreground layer")
	}

	return &Layers{MaskJbig2: maskBytes, FgJpeg: fgJpeg, BgJpeg: bgJpeg, Width: w, Height: h}, nil
}

// ComposeBW runs the BW-only pipeline: Otsu mask + JBIG2 only.
func ComposeBW(img image.Image) (*Layers, error) {
	b := img.Bounds()
	gray := ToGray(img)
	mask := Binarize(gray, OtsuThreshold(gray))
	maskBytes, err := EncodeGeneric(mask)
	if err != nil {
		return nil, perr.Jbig2Encode(-1, err, "encoding bw mask")
	}
	return &Layers{MaskJbig2: maskBytes, Width: b.Dx(), Height: b.Dy()}, nil
}

// TextRegionCrop is one merged connected-component box cropped from the
// page mask and independently JBIG2-encoded.
type TextRegionCrop struct {
	Jbig2 []byte
	Box   PixelBBox
}

// ComposeTextMasked runs the text-masked pipeline: segment the
// Otsu mask into merged text-region boxes, JBIG2-encode each crop
// independently. minArea and mergeDistance are in pixels.
func ComposeTextMasked(img image.Image, minArea, mergeDistance int) ([]TextRegionCrop, error) {
	gray := ToGray(img)
	mask := Binarize(gray, OtsuThreshold(gray))
	boxes := SegmentTextRegions(mask, minArea, mergeDistance)

	crops := make([]TextRegionCrop, 0, len(boxes))
	for _, box := range boxes {
		crop := cropBitmap(mask, box)
		jb, err := EncodeGeneric(crop)
		if err != nil {
			return nil, perr.Jbig2Encode(-1, err, "encoding text region crop")
		}
		crops = append(crops, TextRegionCrop{Jbig2: jb, Box: box})
	}
	return crops, nil
}

func cropBitmap(src *Bitmap, box PixelBBox) *Bitmap {
	out := NewBitmap(box.width(), box.height())
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			out.Set(x, y, src.Get(box.MinX+x, box.MinY+y))
		}
	}
	return out
}

// inpaintMasked replaces every pixel where mask is set with the median
// of its neighborhood-pixel-count square neighborhood among unmasked
// pixels, falling back to the pixel's own value if the whole
// neighborhood is masked (local median, 8-pixel neighborhood by default).
func inpaintMasked(img image.Image, mask *Bitmap, neighborhood int) image.Image {
	b := img.Bounds()
	out := image.NewRGBA(b)
	r := neighborhood / 2

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if mask.Get(x-b.Min.X, y-b.Min.Y) == 0 {
				out.Set(x, y, img.At(x, y))
				continue
			}
			var rs, gs, bs []int
			for dy := -r; dy <= r; dy++ {
				for dx := -r; dx <= r; dx++ {
					nx, ny := x+dx, y+dy
					if nx < b.Min.X || ny < b.Min.Y || nx >= b.Max.X || ny >= b.Max.Y {
						continue
					}
					if mask.Get(nx-b.Min.X, ny-b.Min.Y) != 0 {
						continue
					}
					cr, cg, cb, _ := img.At(nx, ny).RGBA()
					rs = append(rs, int(cr>>8))
					gs = append(gs, int(cg>>8))
					bs = append(bs, int(cb>>8))
				}
			}
			if len(rs) == 0 {
				out.Set(x, y, img.At(x, y))
				continue
			}
			out.Set(x, y, color.RGBA{R: uint8(median(rs)), G: uint8(median(gs)), B: uint8(median(bs)), A: 255})
		}
	}
	return out
}

func median(vs []int) int {
	sorted := append([]int(nil), vs...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1] > sorted[j]; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	return sorted[len(sorted)/2]
}

// whitenUnmasked sets every pixel where mask is clear to white, leaving
// masked (text) pixels at their original color.
func whitenUnmasked(img image.Image, mask *Bitmap) image.Image {
	b := img.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if mask.Get(x-b.Min.X, y-b.Min.Y) != 0 {
				out.Set(x, y, img.At(x, y))
			} else {
				out.Set(x, y, color.White)
			}
		}
	}
	return out
}

func downsample(img image.Image, scale float64) image.Image {
	if scale >= 0.999 {
		return img
	}
	b := img.Bounds()
	nw := max(1, int(float64(b.Dx())*scale))
	nh := max(1, int(float64(b.Dy())*scale))
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int, colorMode string) ([]byte, error) {
	if quality <= 0 {
		quality = 75
	}
	var out image.Image = img
	if colorMode == "grayscale" {
		out = ToGray(img)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
