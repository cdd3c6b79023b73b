package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/graylayer/pdfredact/perr"
)

// Bitmap is an RGBA8 raster of one rendered page.
type Bitmap struct {
	Width, Height int
	Stride        int
	Pixels        []byte // RGBA, row-major
}

// Rasterizer renders one page of a PDF file to an RGBA8 bitmap at the
// given DPI. pageIndex is 0-based.
type Rasterizer interface {
	Render(ctx context.Context, pdfPath string, pageIndex int, dpi int) (*Bitmap, error)
}

// PopplerRasterizer shells out to pdftoppm (poppler-utils), the same way
// QpdfLinearizer shells out to qpdf: rendering stays an external process,
// not an in-core renderer.
type PopplerRasterizer struct {
	// BinaryPath overrides the "pdftoppm" lookup on PATH, mainly for tests.
	BinaryPath string
}

func (r PopplerRasterizer) binary() string {
	if r.BinaryPath != "" {
		return r.BinaryPath
	}
	return "pdftoppm"
}

func (r PopplerRasterizer) Render(ctx context.Context, pdfPath string, pageIndex int, dpi int) (*Bitmap, error) {
	tmpDir, err := os.MkdirTemp("", "pdfredact-raster-*")
	if err != nil {
		return nil, perr.Render(pageIndex, err, "creating temp dir for rasterization")
	}
	defer os.RemoveAll(tmpDir)

	pageNum := pageIndex + 1
	outPrefix := filepath.Join(tmpDir, "page")
	cmd := exec.CommandContext(ctx, r.binary(),
		"-r", fmt.Sprintf("%d", dpi),
		"-f", fmt.Sprintf("%d", pageNum),
		"-l", fmt.Sprintf("%d", pageNum),
		"-png",
		pdfPath, outPrefix,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, perr.Render(pageIndex, err, "pdftoppm failed: %s", string(out))
	}

	pngPath, err := findRenderedPNG(tmpDir, pageNum)
	if err != nil {
		return nil, perr.Render(pageIndex, err, "locating rasterized page")
	}
	data, err := os.ReadFile(pngPath)
	if err != nil {
		return nil, perr.Render(pageIndex, err, "reading rasterized page")
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, perr.Render(pageIndex, err, "decoding rasterized PNG")
	}
	return toBitmap(img), nil
}

func findRenderedPNG(dir string, pageNum int) (string, error) {
	candidates := []string{
		filepath.Join(dir, fmt.Sprintf("page-%d.png", pageNum)),
		filepath.Join(dir, fmt.Sprintf("page-%02d.png", pageNum)),
		filepath.Join(dir, fmt.Sprintf("page-%03d.png", pageNum)),
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		return filepath.Join(dir, e.Name()), nil
	}
	return "", fmt.Errorf("no rasterized output found in %s", dir)
}

func toBitmap(img image.Image) *Bitmap {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	bm := &Bitmap{Width: w, Height: h, Stride: w * 4, Pixels: make([]byte, w*h*4)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			off := y*bm.Stride + x*4
			bm.Pixels[off] = byte(r >> 8)
			bm.Pixels[off+1] = byte(g >> 8)
			bm.Pixels[off+2] = byte(bl >> 8)
			bm.Pixels[off+3] = byte(a >> 8)
		}
	}
	return bm
}

// ToImage converts the bitmap into a stdlib image.Image for downstream
// consumers (the MRC composer).
func (b *Bitmap) ToImage() image.Image {
	out := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	copy(out.Pix, b.Pixels)
	return out
}
