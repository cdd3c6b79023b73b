// Package fonts resolves embedded TrueType font programs to glyph outlines
// so that text can be converted into non-searchable path geometry. Only
// TrueType outlines (glyf-table quadratics) are supported; CFF/Type1
// programs are detected but their outlines are not extracted, matching the
// scope of the original redaction engine this package was adapted from.
package fonts

import (
	"fmt"

	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// SegmentOp identifies the kind of a single outline path segment.
type SegmentOp int

const (
	SegmentMoveTo SegmentOp = iota
	SegmentLineTo
	SegmentQuadTo
	SegmentCubeTo
	SegmentClose
)

// Point is a glyph-space coordinate expressed in raw font design units
// (not yet divided by UnitsPerEm, nor scaled to the 1000-unit PDF glyph space).
type Point struct{ X, Y float64 }

// Segment is one drawing instruction of a glyph outline.
type Segment struct {
	Op     SegmentOp
	Points []Point // 0 for Close, 1 for MoveTo/LineTo, 2 for QuadTo, 3 for CubeTo
}

// ParsedFont wraps a parsed TrueType font program with the metrics needed
// to resolve character codes to outlines and advances.
type ParsedFont struct {
	face       *sfnt.Font
	buf        sfnt.Buffer
	UnitsPerEm float64
}

// LoadTrueType parses embedded TrueType font-program bytes (the decoded
// contents of a FontFile2 stream).
func LoadTrueType(data []byte) (*ParsedFont, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("truetype font data is empty")
	}
	face, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse truetype: %w", err)
	}
	upm := face.UnitsPerEm()
	if upm == 0 {
		return nil, fmt.Errorf("invalid unitsPerEm")
	}
	return &ParsedFont{face: face, UnitsPerEm: float64(upm)}, nil
}

// GlyphIndexForRune resolves a Unicode code point to a glyph index via the
// font's cmap table. Used for the WinAnsi/Differences character-code path.
func (f *ParsedFont) GlyphIndexForRune(r rune) (sfnt.GlyphIndex, bool) {
	gid, err := f.face.GlyphIndex(&f.buf, r)
	if err != nil || gid == 0 {
		return 0, false
	}
	return gid, true
}

// NumGlyphs returns the glyph count, used to validate Identity-H CIDs
// (which map directly to glyph indices) against the font's own table.
func (f *ParsedFont) NumGlyphs() int { return int(f.face.NumGlyphs()) }

// Advance returns the glyph's horizontal advance scaled to 1000 PDF text
// space units (independent of point size).
func (f *ParsedFont) Advance(gid sfnt.GlyphIndex) (float64, error) {
	ppem := fixed.Int26_6(f.UnitsPerEm) << 6
	adv, err := f.face.GlyphAdvance(&f.buf, gid, ppem, xfont.HintingNone)
	if err != nil {
		return 0, err
	}
	return float64(adv) / 64.0 * 1000.0 / f.UnitsPerEm, nil
}

// Outline returns the glyph outline as a sequence of path segments in raw
// font design units (divide by UnitsPerEm to reach a 1.0-em box).
func (f *ParsedFont) Outline(gid sfnt.GlyphIndex) ([]Segment, error) {
	ppem := fixed.Int26_6(f.UnitsPerEm) << 6
	segs, err := f.face.LoadGlyph(&f.buf, gid, ppem, nil)
	if err != nil {
		return nil, err
	}
	out := make([]Segment, 0, len(segs)+1)
	for i, s := range segs {
		if s.Op == sfnt.SegmentOpMoveTo && i > 0 {
			out = append(out, Segment{Op: SegmentClose})
		}
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			out = append(out, Segment{Op: SegmentMoveTo, Points: []Point{pt(s.Args[0])}})
		case sfnt.SegmentOpLineTo:
			out = append(out, Segment{Op: SegmentLineTo, Points: []Point{pt(s.Args[0])}})
		case sfnt.SegmentOpQuadTo:
			out = append(out, Segment{Op: SegmentQuadTo, Points: []Point{pt(s.Args[0]), pt(s.Args[1])}})
		case sfnt.SegmentOpCubeTo:
			out = append(out, Segment{Op: SegmentCubeTo, Points: []Point{pt(s.Args[0]), pt(s.Args[1]), pt(s.Args[2])}})
		}
	}
	if len(segs) > 0 {
		out = append(out, Segment{Op: SegmentClose})
	}
	return out, nil
}

func pt(p fixed.Point26_6) Point {
	return Point{X: float64(p.X) / 64.0, Y: float64(p.Y) / 64.0}
}
