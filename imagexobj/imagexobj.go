// Package imagexobj implements an image-XObject redactor: it burns
// overlaid white-fill rectangles into the underlying pixel data of an
// image XObject and optionally re-encodes it in a size-minimizing
// codec.
package imagexobj

import (
	"bytes"
	"compress/flate"
	"context"
	"image"
	"image/color"
	"image/jpeg"

	"github.com/graylayer/pdfredact/contentstream"
	"github.com/graylayer/pdfredact/filters"
	"github.com/graylayer/pdfredact/mrc"
	"github.com/graylayer/pdfredact/perr"
)

// defaultOptimizeQuality is the JPEG quality the optimizer pass tries
// when a job doesn't otherwise carry one for this image.
const defaultOptimizeQuality = 85

// Meta describes an image XObject's declared dimensions and encoding,
// read from its stream dictionary.
type Meta struct {
	Width, Height    int
	BitsPerComponent int
	ColorSpace       string
	Filter           string
}

// BBoxOverlaps reports whether two page-point rectangles overlap,
// treating edge-touching as non-overlap (grounded on original_source's
// bbox_overlaps strict-inequality rule).
func BBoxOverlaps(a, b contentstream.Rect) bool {
	return !(a.URX <= b.LLX || b.URX <= a.LLX || a.URY <= b.LLY || b.URY <= a.LLY)
}

// Result is the redacted replacement for one image XObject, or a nil
// Data slice when no white-fill rectangle overlapped the placement (the
// writer then preserves the original stream verbatim).
type Result struct {
	Data             []byte
	Filter           string
	ColorSpace       string
	BitsPerComponent int
	Width, Height    int
}

// Redact decodes an image XObject's stream, overwrites pixels covered
// by any white-fill rectangle that overlaps its page placement with
// white, and re-encodes it. It returns a nil Result when no rectangle
// overlaps (nothing to change). When optimize is true, the re-encode is
// followed by the smallest-wins optimizer pass (skip it when the job's
// PreserveImages setting is on).
func Redact(ctx context.Context, pipeline *filters.Pipeline, meta Meta, filterNames []string, rawData []byte, placement contentstream.Rect, whiteFills []contentstream.Rect, optimize bool) (*Result, error) {
	overlapping := overlappingRects(placement, whiteFills)
	if len(overlapping) == 0 {
		return nil, nil
	}

	img, err := decodeImage(ctx, pipeline, meta, filterNames, rawData)
	if err != nil {
		return nil, perr.ImageXObject(-1, err, "decoding image for redaction")
	}

	burnWhite(img, placement, overlapping)

	data, filterOut, bpc, err := reencode(img, meta)
	if err != nil {
		return nil, perr.ImageXObject(-1, err, "re-encoding redacted image")
	}

	result := &Result{
		Data: data, Filter: filterOut, ColorSpace: meta.ColorSpace,
		BitsPerComponent: bpc, Width: meta.Width, Height: meta.Height,
	}

	if optimize {
		if candidate, err := Optimize(img, len(data), defaultOptimizeQuality); err == nil && candidate != nil {
			result.Data, result.Filter = candidate.Data, candidate.Filter
			result.ColorSpace, result.BitsPerComponent = candidate.ColorSpace, candidate.BitsPerComponent
		}
	}

	return result, nil
}

func overlappingRects(placement contentstream.Rect, whiteFills []contentstream.Rect) []contentstream.Rect {
	var out []contentstream.Rect
	for _, wf := range whiteFills {
		if BBoxOverlaps(placement, wf) {
			out = append(out, wf)
		}
	}
	return out
}

// decodeImage dispatches on the image's filter chain: DCTDecode via the
// standard JPEG decoder; JPXDecode, JBIG2Decode and CCITTFaxDecode are
// rejected with an error; everything else goes through the shared filter
// pipeline into raw packed-pixel bytes.
func decodeImage(ctx context.Context, pipeline *filters.Pipeline, meta Meta, filterNames []string, rawData []byte) (*image.RGBA, error) {
	for _, name := range filterNames {
		if name == "DCTDecode" {
			src, err := jpeg.Decode(bytes.NewReader(rawData))
			if err != nil {
				return nil, err
			}
			return toRGBA(src), nil
		}
		if name == "JPXDecode" {
			return nil, perr.ImageXObject(-1, nil, "JPXDecode not supported; leaving image untouched")
		}
		if name == "JBIG2Decode" {
			return nil, perr.ImageXObject(-1, nil, "JBIG2Decode input images not supported; leaving image untouched")
		}
		if name == "CCITTFaxDecode" {
			return nil, perr.ImageXObject(-1, nil, "CCITTFaxDecode input images not supported; leaving image untouched")
		}
	}

	decoded, err := pipeline.Decode(ctx, rawData, filterNames, nil)
	if err != nil {
		return nil, err
	}
	return unpackRaw(decoded, meta), nil
}

// unpackRaw interprets decoded as packed pixel rows per meta's
// ColorSpace/BitsPerComponent, honoring a preceding FlateDecode's PNG
// predictor is the caller's responsibility (filters.flateDecoder itself
// does not un-apply Predictor; callers needing that must do so before
// calling unpackRaw — none of this tool's own writes produce predicted
// streams, so it is only relevant for already-predicted source images,
// which fall through unmodified when no white fill overlaps them).
func unpackRaw(decoded []byte, meta Meta) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, meta.Width, meta.Height))
	switch {
	case meta.BitsPerComponent == 1:
		stride := (meta.Width + 7) / 8
		if pix, err := filters.MonochromeToNRGBA(meta.Width, meta.Height, stride, decoded); err == nil {
			copy(out.Pix, pix)
		}
	case meta.ColorSpace == "DeviceGray":
		for y := 0; y < meta.Height; y++ {
			for x := 0; x < meta.Width; x++ {
				idx := y*meta.Width + x
				if idx >= len(decoded) {
					continue
				}
				out.Set(x, y, color.Gray{Y: decoded[idx]})
			}
		}
	case meta.ColorSpace == "DeviceCMYK":
		for y := 0; y < meta.Height; y++ {
			for x := 0; x < meta.Width; x++ {
				idx := (y*meta.Width + x) * 4
				if idx+3 >= len(decoded) {
					continue
				}
				c, m, ye, k := decoded[idx], decoded[idx+1], decoded[idx+2], decoded[idx+3]
				r := 255 - min8(255, int(c)+int(k))
				g := 255 - min8(255, int(m)+int(k))
				b := 255 - min8(255, int(ye)+int(k))
				out.Set(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
			}
		}
	default: // DeviceRGB
		for y := 0; y < meta.Height; y++ {
			for x := 0; x < meta.Width; x++ {
				idx := (y*meta.Width + x) * 3
				if idx+2 >= len(decoded) {
					continue
				}
				out.Set(x, y, color.RGBA{R: decoded[idx], G: decoded[idx+1], B: decoded[idx+2], A: 255})
			}
		}
	}
	return out
}

func min8(a, b int) uint8 {
	if a < b {
		return uint8(a)
	}
	return uint8(b)
}

func toRGBA(src image.Image) *image.RGBA {
	b := src.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(x, y, src.At(x, y))
		}
	}
	return out
}

// burnWhite overwrites every pixel of img that falls under any of
// overlapping's white rectangles, projected from page-point space into
// image-local pixel coordinates via placement's mapping of the unit
// square onto the page.
func burnWhite(img *image.RGBA, placement contentstream.Rect, overlapping []contentstream.Rect) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pw := placement.URX - placement.LLX
	ph := placement.URY - placement.LLY
	if pw <= 0 || ph <= 0 {
		return
	}

	for py := 0; py < h; py++ {
		// image row 0 is the top of the unit square, which maps to the
		// placement's upper page-point edge (PDF image space is y-down
		// while page space is y-up).
		pageY := placement.URY - (float64(py)+0.5)/float64(h)*ph
		for px := 0; px < w; px++ {
			pageX := placement.LLX + (float64(px)+0.5)/float64(w)*pw
			for _, wf := range overlapping {
				if pageX >= wf.LLX && pageX <= wf.URX && pageY >= wf.LLY && pageY <= wf.URY {
					img.Set(px, py, color.White)
					break
				}
			}
		}
	}
}

// reencode re-encodes img per the spec's filter dispatch table: a 1bpc
// source always becomes a JBIG2 mask regardless of how it arrived,
// DCTDecode round-trips through JPEG, and every other filter (or none)
// re-encodes as FlateDecode over raw packed pixels rather than
// converting to a lossy format it never was.
func reencode(img *image.RGBA, meta Meta) ([]byte, string, int, error) {
	if meta.BitsPerComponent == 1 {
		gray := mrc.ToGray(img)
		bm := mrc.Binarize(gray, mrc.OtsuThreshold(gray))
		data, err := mrc.EncodeGeneric(bm)
		return data, "JBIG2Decode", 1, err
	}

	if meta.Filter == "DCTDecode" {
		var buf bytes.Buffer
		var out image.Image = img
		if meta.ColorSpace == "DeviceGray" {
			out = mrc.ToGray(img)
		}
		if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: defaultOptimizeQuality}); err != nil {
			return nil, "", 0, err
		}
		return buf.Bytes(), "DCTDecode", 8, nil
	}

	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, "", 0, err
	}
	if _, err := w.Write(packRaw(img, meta)); err != nil {
		return nil, "", 0, err
	}
	if err := w.Close(); err != nil {
		return nil, "", 0, err
	}
	return buf.Bytes(), "FlateDecode", 8, nil
}

// packRaw is unpackRaw's inverse: it packs img back into raw pixel
// bytes matching meta's declared ColorSpace, the layout a FlateDecode
// re-encode needs to stay readable by the same unpacking a future pass
// would apply.
func packRaw(img *image.RGBA, meta Meta) []byte {
	w, h := meta.Width, meta.Height
	switch meta.ColorSpace {
	case "DeviceGray":
		out := make([]byte, w*h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, _, _, _ := img.At(x, y).RGBA()
				out[y*w+x] = byte(r >> 8)
			}
		}
		return out
	case "DeviceCMYK":
		out := make([]byte, w*h*4)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, g, b, _ := img.At(x, y).RGBA()
				idx := (y*w + x) * 4
				out[idx] = 255 - byte(r>>8)
				out[idx+1] = 255 - byte(g>>8)
				out[idx+2] = 255 - byte(b>>8)
				out[idx+3] = 0
			}
		}
		return out
	default: // DeviceRGB
		out := make([]byte, w*h*3)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, g, b, _ := img.At(x, y).RGBA()
				idx := (y*w + x) * 3
				out[idx] = byte(r >> 8)
				out[idx+1] = byte(g >> 8)
				out[idx+2] = byte(b >> 8)
			}
		}
		return out
	}
}
