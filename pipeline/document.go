// Package pipeline selects a redaction strategy for each page, runs it
// with fallback on failure, and hands the assembled PageOutput set to
// the writer.
package pipeline

import (
	"context"

	"github.com/graylayer/pdfredact/contentstream"
	"github.com/graylayer/pdfredact/filters"
	"github.com/graylayer/pdfredact/ir/raw"
	"github.com/graylayer/pdfredact/perr"
)

// PageInfo is one page's resolved geometry, resources, and decoded
// content-stream bytes, ready for analysis.
type PageInfo struct {
	Ref           raw.ObjectRef
	MediaBox      contentstream.Rect
	Resources     *raw.DictObj
	ContentStream []byte
}

// CollectPages walks the catalog's /Pages tree depth-first, inheriting
// /Resources and /MediaBox from intermediate Pages nodes down to each
// leaf Page, and returns them in document order. /Rotate is not read.
func CollectPages(ctx context.Context, doc *raw.Document, pipe *filters.Pipeline) ([]PageInfo, error) {
	root, ok := doc.Trailer.Get(raw.NameLiteral("Root"))
	if !ok {
		return nil, perr.PdfRead(-1, nil, "trailer has no /Root")
	}
	catalog := resolveDict(doc, root)
	if catalog == nil {
		return nil, perr.PdfRead(-1, nil, "catalog object is not a dictionary")
	}
	pagesRootVal, ok := catalog.Get(raw.NameLiteral("Pages"))
	if !ok {
		return nil, perr.PdfRead(-1, nil, "catalog has no /Pages")
	}

	var out []PageInfo
	err := walkPagesNode(ctx, doc, pipe, pagesRootVal, inherited{}, &out, make(map[raw.ObjectRef]bool))
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, perr.PdfRead(-1, nil, "document has no pages")
	}
	return out, nil
}

// inherited carries the page-tree attributes a Pages node may pass down
// to its Kids per the PDF inheritance rule.
type inherited struct {
	resources *raw.DictObj
	mediaBox  *contentstream.Rect
}

func walkPagesNode(ctx context.Context, doc *raw.Document, pipe *filters.Pipeline, node raw.Object, inh inherited, out *[]PageInfo, visited map[raw.ObjectRef]bool) error {
	ref, isRef := node.(raw.RefObj)
	if isRef {
		if visited[ref.Ref()] {
			return perr.PdfRead(-1, nil, "cyclic page tree at %s", ref.Ref())
		}
		visited[ref.Ref()] = true
	}
	dict := resolveDict(doc, node)
	if dict == nil {
		return perr.PdfRead(-1, nil, "page tree node is not a dictionary")
	}

	if res := resolveDict(doc, firstPresent(dict, "Resources")); res != nil {
		inh.resources = res
	}
	if mb := mediaBoxOf(doc, dict); mb != nil {
		inh.mediaBox = mb
	}

	nodeType := nameValue(dict, "Type")
	if nodeType == "Page" || !hasKey(dict, "Kids") {
		info, err := buildPageInfo(ctx, doc, pipe, ref, dict, inh)
		if err != nil {
			return err
		}
		*out = append(*out, info)
		return nil
	}

	kidsVal, ok := dict.Get(raw.NameLiteral("Kids"))
	if !ok {
		return perr.PdfRead(-1, nil, "pages node has no /Kids")
	}
	kids, ok := kidsVal.(*raw.ArrayObj)
	if !ok {
		return perr.PdfRead(-1, nil, "pages /Kids is not an array")
	}
	for i := 0; i < kids.Len(); i++ {
		kid, _ := kids.Get(i)
		if err := walkPagesNode(ctx, doc, pipe, kid, inh, out, visited); err != nil {
			return err
		}
	}
	return nil
}

func buildPageInfo(ctx context.Context, doc *raw.Document, pipe *filters.Pipeline, ref raw.RefObj, page *raw.DictObj, inh inherited) (PageInfo, error) {
	res := inh.resources
	if r := resolveDict(doc, firstPresent(page, "Resources")); r != nil {
		res = r
	}
	if res == nil {
		res = raw.Dict()
	}

	mb := inh.mediaBox
	if pmb := mediaBoxOf(doc, page); pmb != nil {
		mb = pmb
	}
	if mb == nil {
		return PageInfo{}, perr.PdfRead(-1, nil, "page %s has no resolvable /MediaBox", ref.Ref())
	}

	content, err := contentBytesOf(ctx, doc, pipe, page)
	if err != nil {
		return PageInfo{}, err
	}

	return PageInfo{Ref: ref.Ref(), MediaBox: *mb, Resources: res, ContentStream: content}, nil
}

func contentBytesOf(ctx context.Context, doc *raw.Document, pipe *filters.Pipeline, page *raw.DictObj) ([]byte, error) {
	val, ok := page.Get(raw.NameLiteral("Contents"))
	if !ok {
		return nil, nil
	}
	var streams []*raw.StreamObj
	switch v := resolveDirect(doc, val).(type) {
	case *raw.StreamObj:
		streams = []*raw.StreamObj{v}
	case *raw.ArrayObj:
		for i := 0; i < v.Len(); i++ {
			item, _ := v.Get(i)
			if s := resolveStream(doc, item); s != nil {
				streams = append(streams, s)
			}
		}
	}

	var out []byte
	for _, s := range streams {
		decoded, err := pipe.Decode(ctx, s.Data, filterNamesOf(s.Dict), nil)
		if err != nil {
			return nil, perr.PdfRead(-1, err, "decoding page content stream")
		}
		out = append(out, decoded...)
		out = append(out, '\n')
	}
	return out, nil
}

func mediaBoxOf(doc *raw.Document, dict *raw.DictObj) *contentstream.Rect {
	val, ok := dict.Get(raw.NameLiteral("MediaBox"))
	if !ok {
		return nil
	}
	arr, ok := resolveDirect(doc, val).(*raw.ArrayObj)
	if !ok || arr.Len() != 4 {
		return nil
	}
	nums := make([]float64, 4)
	for i := 0; i < 4; i++ {
		item, _ := arr.Get(i)
		n, ok := resolveDirect(doc, item).(raw.Number)
		if !ok {
			return nil
		}
		nums[i] = n.Float()
	}
	r := contentstream.Rect{LLX: nums[0], LLY: nums[1], URX: nums[2], URY: nums[3]}
	if r.URX <= r.LLX || r.URY <= r.LLY {
		return nil
	}
	return &r
}

func firstPresent(dict *raw.DictObj, key string) raw.Object {
	v, _ := dict.Get(raw.NameLiteral(key))
	return v
}

func hasKey(dict *raw.DictObj, key string) bool {
	_, ok := dict.Get(raw.NameLiteral(key))
	return ok
}

func nameValue(d *raw.DictObj, key string) string {
	v, ok := d.Get(raw.NameLiteral(key))
	if !ok {
		return ""
	}
	n, ok := v.(raw.NameObj)
	if !ok {
		return ""
	}
	return n.Val
}

func resolveDirect(doc *raw.Document, obj raw.Object) raw.Object {
	if ref, ok := obj.(raw.RefObj); ok {
		if o, ok := doc.Objects[ref.Ref()]; ok {
			return o
		}
		return nil
	}
	return obj
}

func resolveDict(doc *raw.Document, obj raw.Object) *raw.DictObj {
	d, _ := resolveDirect(doc, obj).(*raw.DictObj)
	return d
}

func resolveStream(doc *raw.Document, obj raw.Object) *raw.StreamObj {
	s, _ := resolveDirect(doc, obj).(*raw.StreamObj)
	return s
}

func filterNamesOf(dict *raw.DictObj) []string {
	v, ok := dict.Get(raw.NameLiteral("Filter"))
	if !ok {
		return nil
	}
	switch f := v.(type) {
	case raw.NameObj:
		return []string{f.Val}
	case *raw.ArrayObj:
		var names []string
		for i := 0; i < f.Len(); i++ {
			item, _ := f.Get(i)
			if n, ok := item.(raw.NameObj); ok {
				names = append(names, n.Val)
			}
		}
		return names
	}
	return nil
}
