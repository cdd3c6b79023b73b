package fonts

import (
	"context"

	"golang.org/x/image/font/sfnt"

	"github.com/graylayer/pdfredact/filters"
	"github.com/graylayer/pdfredact/ir/raw"
	"github.com/graylayer/pdfredact/outline"
)

// FontAdapter exposes a *ParsedFont as an outline.GlyphSource.
type FontAdapter struct{ Font *ParsedFont }

func (a FontAdapter) GlyphIndexForRune(r rune) (uint16, bool) {
	gid, ok := a.Font.GlyphIndexForRune(r)
	return uint16(gid), ok
}
func (a FontAdapter) NumGlyphs() int { return a.Font.NumGlyphs() }
func (a FontAdapter) OutlineByGID(gid uint16) ([]outline.Segment, error) {
	segs, err := a.Font.Outline(sfnt.GlyphIndex(gid))
	if err != nil {
		return nil, err
	}
	out := make([]outline.Segment, len(segs))
	for i, s := range segs {
		pts := make([]outline.Point, len(s.Points))
		for j, p := range s.Points {
			pts[j] = outline.Point{X: p.X, Y: p.Y}
		}
		out[i] = outline.Segment{Op: outline.SegmentOp(s.Op), Points: pts}
	}
	return out, nil
}
func (a FontAdapter) AdvanceByGID(gid uint16) (float64, error) {
	return a.Font.Advance(sfnt.GlyphIndex(gid))
}

// ParsePageFonts resolves every entry of the page's /Font resource
// dictionary to an outline.FontProgram. Only embedded TrueType programs
// (FontFile2) produce an outline-capable entry; CFF programs,
// Type0/Identity-H composites without a TrueType descendant, and
// unembedded fonts are omitted from the result — the
// caller's outline attempt then fails for any text run referencing the
// missing key. A missing key is not itself a fatal condition here.
func ParsePageFonts(doc *raw.Document, fontDict *raw.DictObj, pipeline *filters.Pipeline) map[string]*outline.FontProgram {
	result := make(map[string]*outline.FontProgram)
	for _, key := range fontDict.Keys() {
		val, ok := fontDict.Get(key)
		if !ok {
			continue
		}
		fontObjDict := resolveDict(doc, val)
		if fontObjDict == nil {
			continue
		}
		fp, ok := resolveOneFont(doc, fontObjDict, pipeline)
		if !ok {
			continue
		}
		result[key.Value()] = fp
	}
	return result
}

func resolveOneFont(doc *raw.Document, fontDict *raw.DictObj, pipeline *filters.Pipeline) (*outline.FontProgram, bool) {
	subtype := nameValue(fontDict, "Subtype")

	descFontDict := fontDict
	encoding := outline.EncodingWinAnsi
	if subtype == "Type0" {
		encoding = outline.EncodingIdentityH
		descendants, ok := fontDict.Get(raw.NameLiteral("DescendantFonts"))
		if !ok {
			return nil, false
		}
		arr, ok := descendants.(*raw.ArrayObj)
		if !ok || arr.Len() == 0 {
			return nil, false
		}
		first, _ := arr.Get(0)
		d := resolveDict(doc, first)
		if d == nil {
			return nil, false
		}
		descFontDict = d
	}

	descriptorVal, ok := descFontDict.Get(raw.NameLiteral("FontDescriptor"))
	if !ok {
		return nil, false
	}
	descriptor := resolveDict(doc, descriptorVal)
	if descriptor == nil {
		return nil, false
	}

	fontFile2Val, ok := descriptor.Get(raw.NameLiteral("FontFile2"))
	if !ok {
		return nil, false // embedded CFF (FontFile3) or unembedded: no outline source
	}
	stream := resolveStream(doc, fontFile2Val)
	if stream == nil {
		return nil, false
	}

	data, err := pipeline.Decode(context.Background(), stream.Data, filterNamesOf(stream.Dict), nil)
	if err != nil {
		return nil, false
	}

	parsed, err := LoadTrueType(data)
	if err != nil {
		return nil, false
	}

	diffs := make(map[int]rune)
	if encoding == outline.EncodingWinAnsi {
		if encVal, ok := fontDict.Get(raw.NameLiteral("Encoding")); ok {
			if encDict := resolveDict(doc, encVal); encDict != nil {
				diffs = parseDifferences(encDict)
			}
		}
	}

	return &outline.FontProgram{
		Glyphs:      FontAdapter{Font: parsed},
		Encoding:    encoding,
		Differences: diffs,
		UnitsPerEm:  parsed.UnitsPerEm,
	}, true
}

// parseDifferences reads an /Encoding dict's /Differences array: a
// sequence of [code name code name ...] where a bare integer resets the
// running code and each following name overrides the next code.
func parseDifferences(encDict *raw.DictObj) map[int]rune {
	out := make(map[int]rune)
	diffsVal, ok := encDict.Get(raw.NameLiteral("Differences"))
	if !ok {
		return out
	}
	arr, ok := diffsVal.(*raw.ArrayObj)
	if !ok {
		return out
	}
	code := 0
	for i := 0; i < arr.Len(); i++ {
		item, _ := arr.Get(i)
		switch v := item.(type) {
		case raw.NumberObj:
			code = int(v.Int())
		case raw.NameObj:
			if r, ok := glyphNameToRune(v.Val); ok {
				out[code] = r
			}
			code++
		}
	}
	return out
}

func resolveDict(doc *raw.Document, obj raw.Object) *raw.DictObj {
	if ref, ok := obj.(raw.RefObj); ok {
		obj, ok = doc.Objects[ref.Ref()]
		if !ok {
			return nil
		}
	}
	d, _ := obj.(*raw.DictObj)
	return d
}

func resolveStream(doc *raw.Document, obj raw.Object) *raw.StreamObj {
	if ref, ok := obj.(raw.RefObj); ok {
		obj, ok = doc.Objects[ref.Ref()]
		if !ok {
			return nil
		}
	}
	s, _ := obj.(*raw.StreamObj)
	return s
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
