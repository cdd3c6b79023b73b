package pipeline

import (
	"context"

	"github.com/graylayer/pdfredact/cache"
	"github.com/graylayer/pdfredact/config"
	"github.com/graylayer/pdfredact/contentstream"
	"github.com/graylayer/pdfredact/filters"
	"github.com/graylayer/pdfredact/ir/raw"
	"github.com/graylayer/pdfredact/logging"
	"github.com/graylayer/pdfredact/mrc"
	"github.com/graylayer/pdfredact/perr"
)

// textRegionMinArea and textRegionMergeDistance are the
// compose-text-masked parameters: a box smaller than 4x4 px is dropped,
// and boxes within 20 px of each other are merged into one region.
const (
	textRegionMinArea      = 16
	textRegionMergeDistance = 20
)

// Deps bundles the collaborators processPage needs beyond the document
// itself: the filter pipeline, the page cache, and the external
// rasterizer. The caller owns the rasterizer's lifetime and may share
// one across an entire run.
type Deps struct {
	Pipeline   *filters.Pipeline
	Cache      *cache.Store
	Rasterizer Rasterizer
	PdfPath    string
}

// processPage runs the per-page decision tree: consult the cache, then
// compute and store on a miss. pageIndex is 0-based.
func processPage(ctx context.Context, doc *raw.Document, info PageInfo, pageIndex int, colorMode config.ColorMode, ec config.EffectiveConfig, deps Deps) (*cache.PageOutput, error) {
	if colorMode == config.ColorSkip {
		return &cache.PageOutput{Tag: cache.TagSkip, PageIndex: pageIndex}, nil
	}

	ops, err := contentstream.Parse(info.ContentStream)
	if err != nil {
		return nil, perr.ContentStream(pageIndex, err, "parsing content stream")
	}
	analysis := contentstream.Analyze(ops)

	settings := cache.Settings{
		BgQuality: ec.BgQuality, ColorMode: string(colorMode),
		DPI: ec.DPI, FgDPI: ec.FgDPI, FgQuality: ec.FgQuality,
	}
	key := cache.Key(info.ContentStream, settings)

	if deps.Cache != nil {
		if cached, ok, cacheErr := deps.Cache.Get(key); cacheErr == nil && ok {
			logging.L().Debug("cache hit", "page", pageIndex, "tag", cached.Tag)
			cached.PageIndex = pageIndex
			return cached, nil
		} else if cacheErr != nil {
			logging.L().Warn("cache read failed, recomputing", "page", pageIndex, "err", cacheErr)
		}
	}

	out, err := computePage(ctx, doc, info, pageIndex, colorMode, ec, analysis, deps)
	if err != nil {
		return nil, err
	}

	if deps.Cache != nil {
		if putErr := deps.Cache.Put(key, out); putErr != nil {
			logging.L().Warn("cache write failed", "page", pageIndex, "err", putErr)
		}
	}
	return out, nil
}

func computePage(ctx context.Context, doc *raw.Document, info PageInfo, pageIndex int, colorMode config.ColorMode, ec config.EffectiveConfig, analysis contentstream.AnalysisResult, deps Deps) (*cache.PageOutput, error) {
	if colorMode == config.ColorRGB || colorMode == config.ColorGrayscale || colorMode == config.ColorBW {
		fontMap := pageFonts(doc, info.Resources, deps.Pipeline)
		if len(fontMap) > 0 {
			content, err := attemptOutlines(analysis, fontMap)
			if err == nil {
				images := redactImages(ctx, doc, deps.Pipeline, info.Resources, analysis.XObjectPlacements, analysis.WhiteFillRects, !ec.PreserveImages)
				logging.L().Debug("outline conversion succeeded", "page", pageIndex)
				return &cache.PageOutput{
					Tag: cache.TagOutlines, ContentStream: content, ModifiedImages: images, PageIndex: pageIndex,
				}, nil
			}
			logging.L().Debug("outline conversion failed, falling back to raster", "page", pageIndex, "err", err)
		}
	}

	if deps.Rasterizer == nil {
		return nil, perr.Render(pageIndex, nil, "no rasterizer configured for fallback")
	}
	bm, err := deps.Rasterizer.Render(ctx, deps.PdfPath, pageIndex, int(ec.DPI))
	if err != nil {
		return nil, perr.Render(pageIndex, err, "rasterizing page")
	}
	img := bm.ToImage()

	quality := mrc.Quality{BgQuality: int(ec.BgQuality), FgQuality: int(ec.FgQuality), DPI: int(ec.DPI), FgDPI: int(ec.FgDPI), ColorMode: string(colorMode)}

	if colorMode == config.ColorBW {
		layers, err := mrc.ComposeBW(img)
		if err != nil {
			return nil, perr.Segmentation(pageIndex, err, "composing bw mask")
		}
		return &cache.PageOutput{
			Tag: cache.TagBwMask, MaskJbig2: layers.MaskJbig2, Width: layers.Width, Height: layers.Height, PageIndex: pageIndex,
		}, nil
	}

	crops, err := mrc.ComposeTextMasked(img, textRegionMinArea, textRegionMergeDistance)
	if err == nil && len(crops) > 0 {
		regions := make([]cache.TextRegion, len(crops))
		for i, crop := range crops {
			regions[i] = textRegionFromCrop(crop, info.MediaBox, img.Bounds().Dy(), int(ec.DPI))
		}
		content := contentstream.Serialize(analysis.Ops, true)
		images := redactImages(ctx, doc, deps.Pipeline, info.Resources, analysis.XObjectPlacements, analysis.WhiteFillRects, !ec.PreserveImages)
		logging.L().Debug("text-masked composition succeeded", "page", pageIndex, "regions", len(regions))
		return &cache.PageOutput{
			Tag: cache.TagTextMasked, ContentStream: content, TextRegions: regions, ModifiedImages: images, PageIndex: pageIndex,
		}, nil
	}
	if err != nil {
		logging.L().Debug("text-masked composition failed, falling back to full mrc", "page", pageIndex, "err", err)
	}

	layers, err := mrc.Compose(img, quality)
	if err != nil {
		return nil, perr.Segmentation(pageIndex, err, "composing full mrc")
	}
	return &cache.PageOutput{
		Tag: cache.TagMrc, MaskJbig2: layers.MaskJbig2, FgJpeg: layers.FgJpeg, BgJpeg: layers.BgJpeg,
		Width: layers.Width, Height: layers.Height, ColorMode: string(colorMode), PageIndex: pageIndex,
	}, nil
}

// textRegionFromCrop converts one mrc.TextRegionCrop's pixel bbox into
// page-point coordinates: y_pts = height_pts - (y_px + h_px) * 72 / dpi.
func textRegionFromCrop(crop mrc.TextRegionCrop, mediaBox contentstream.Rect, pixelHeight int, dpi int) cache.TextRegion {
	heightPts := mediaBox.URY - mediaBox.LLY
	scale := 72.0 / float64(dpi)
	box := crop.Box
	llx := mediaBox.LLX + float64(box.MinX)*scale
	urx := mediaBox.LLX + float64(box.MaxX)*scale
	ury := heightPts - float64(box.MinY)*scale
	lly := heightPts - float64(box.MaxY)*scale
	return cache.TextRegion{
		Jbig2: crop.Jbig2, BBoxLLX: llx, BBoxLLY: lly, BBoxURX: urx, BBoxURY: ury,
		PixelWidth: box.MaxX - box.MinX, PixelHeight: box.MaxY - box.MinY,
	}
}
