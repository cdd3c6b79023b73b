package pipeline

import (
	"context"

	"github.com/graylayer/pdfredact/cache"
	"github.com/graylayer/pdfredact/contentstream"
	"github.com/graylayer/pdfredact/filters"
	"github.com/graylayer/pdfredact/imagexobj"
	"github.com/graylayer/pdfredact/ir/raw"
	"github.com/graylayer/pdfredact/logging"
)

// redactImages runs the image-XObject redactor over every XObject
// placement the analyzer found, and returns the subset that actually
// changed (overlapped a white-fill rectangle). A per-image failure is
// logged and the image is preserved unmodified rather than aborting
// the page. optimize enables the smallest-wins re-encode pass on top of
// the redaction (callers pass !PreserveImages).
func redactImages(ctx context.Context, doc *raw.Document, pipe *filters.Pipeline, resources *raw.DictObj, placements []contentstream.XObjectPlacement, whiteFills []contentstream.Rect, optimize bool) []cache.ModifiedImage {
	xobjDict := resourceSubDict(doc, resources, "XObject")
	if xobjDict == nil {
		return nil
	}

	var out []cache.ModifiedImage
	for _, placement := range placements {
		stream := resolveStream(doc, firstPresent(xobjDict, placement.Name))
		if stream == nil {
			continue
		}
		if nameValue(stream.Dict, "Subtype") != "Image" {
			continue
		}
		meta, filterNames, err := imagexobj.ReadMeta(stream.Dict)
		if err != nil {
			logging.L().Warn("image XObject metadata unreadable, leaving untouched", "name", placement.Name, "err", err)
			continue
		}

		result, err := imagexobj.Redact(ctx, pipe, meta, filterNames, stream.Data, placement.BBox(), whiteFills, optimize)
		if err != nil {
			logging.L().Warn("image XObject redaction failed, leaving untouched", "name", placement.Name, "err", err)
			continue
		}
		if result == nil {
			continue
		}
		out = append(out, cache.ModifiedImage{
			Name: placement.Name, Data: result.Data, Filter: result.Filter,
			ColorSpace: result.ColorSpace, BitsPerComponent: result.BitsPerComponent,
			Width: result.Width, Height: result.Height,
		})
	}
	return out
}

func resourceSubDict(doc *raw.Document, resources *raw.DictObj, key string) *raw.DictObj {
	if resources == nil {
		return nil
	}
	v, ok := resources.Get(raw.NameLiteral(key))
	if !ok {
		return nil
	}
	return resolveDict(doc, v)
}
