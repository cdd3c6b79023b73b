package imagexobj

import (
	"bytes"
	"image"
	"image/jpeg"

	"github.com/graylayer/pdfredact/mrc"
)

// Candidate is one re-encoded alternative considered by Optimize.
type Candidate struct {
	Data             []byte
	Filter           string
	ColorSpace       string
	BitsPerComponent int
}

// Optimize re-encodes decoded with every codec that can plausibly
// shrink it (grayscale JBIG2 for already-grayscale images, grayscale
// JPEG, and RGB JPEG when the source is color) and returns the
// smallest candidate that is no larger than originalSize, or nil if
// none beats it. Callers should skip calling Optimize entirely when
// the job's PreserveImages setting is on.
func Optimize(decoded image.Image, originalSize int, quality int) (*Candidate, error) {
	if quality < 1 || quality > 100 {
		quality = 75
	}

	isColor := imageHasColor(decoded)
	var candidates []Candidate

	if !isColor {
		gray := mrc.ToGray(decoded)
		bm := mrc.Binarize(gray, mrc.OtsuThreshold(gray))
		if data, err := mrc.EncodeGeneric(bm); err == nil {
			candidates = append(candidates, Candidate{
				Data: data, Filter: "JBIG2Decode", ColorSpace: "DeviceGray", BitsPerComponent: 1,
			})
		}
	}

	gray := mrc.ToGray(decoded)
	if data, err := encodeJPEGQuality(gray, quality); err == nil {
		candidates = append(candidates, Candidate{
			Data: data, Filter: "DCTDecode", ColorSpace: "DeviceGray", BitsPerComponent: 8,
		})
	}

	if isColor {
		if data, err := encodeJPEGQuality(decoded, quality); err == nil {
			candidates = append(candidates, Candidate{
				Data: data, Filter: "DCTDecode", ColorSpace: "DeviceRGB", BitsPerComponent: 8,
			})
		}
	}

	var best *Candidate
	for i := range candidates {
		if len(candidates[i].Data) > originalSize {
			continue
		}
		if best == nil || len(candidates[i].Data) < len(best.Data) {
			best = &candidates[i]
		}
	}
	return best, nil
}

func encodeJPEGQuality(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func imageHasColor(img image.Image) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			if r != g || g != bl {
				return true
			}
		}
	}
	return false
}
