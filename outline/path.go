package outline

import (
	"bytes"

	"github.com/graylayer/pdfredact/contentstream"
	"github.com/graylayer/pdfredact/coords"
)

// SegmentOp mirrors fonts.SegmentOp so this package can stay independent
// of the sfnt-backed font loader; a small adapter converts between them.
type SegmentOp int

const (
	SegMoveTo SegmentOp = iota
	SegLineTo
	SegQuadTo
	SegCubeTo
	SegClose
)

// Point is a glyph-space coordinate in raw font design units.
type Point struct{ X, Y float64 }

// Segment is one outline drawing instruction in raw font design units.
type Segment struct {
	Op     SegmentOp
	Points []Point
}

// GlyphParams carries everything glyphToPath needs to place one glyph's
// outline onto the page: the glyph's own outline, its font metrics, and
// the already-positioned text-to-page matrix for this specific glyph
// (the string's base CombinedMatrix pre-multiplied by the pen-advance
// translation accumulated so far). Font size and horizontal scaling
// convert 1-em glyph space into text space; text rise offsets the
// baseline before the matrix is applied.
type GlyphParams struct {
	Outline      []Segment
	UnitsPerEm   float64
	GlyphMatrix  coords.Matrix
	FontSize     float64
	HorizScaling float64 // percent, default 100
	TextRise     float64
}

// WriteGlyphPath appends the PDF path-construction operators for one
// glyph outline to buf, transformed into page space. It does not emit
// the fill operator or color-setting operators; callers batch those
// around a run of glyphs sharing the same fill color.
func WriteGlyphPath(buf *bytes.Buffer, p GlyphParams) {
	combined := p.GlyphMatrix
	scale := p.FontSize / p.UnitsPerEm
	tz := p.HorizScaling / 100

	project := func(pt Point) (float64, float64) {
		sx := pt.X * scale * tz
		sy := pt.Y*scale + p.TextRise
		px := combined[0]*sx + combined[2]*sy + combined[4]
		py := combined[1]*sx + combined[3]*sy + combined[5]
		return px, py
	}

	var cx, cy float64
	for _, seg := range p.Outline {
		switch seg.Op {
		case SegMoveTo:
			cx, cy = project(seg.Points[0])
			contentstream.WriteMoveTo(buf, cx, cy)
		case SegLineTo:
			cx, cy = project(seg.Points[0])
			contentstream.WriteLineTo(buf, cx, cy)
		case SegQuadTo:
			// Elevate the TrueType quadratic to a cubic Bézier: the PDF
			// path operator set has no quadratic curve operator.
			x1, y1 := project(seg.Points[0])
			x2, y2 := project(seg.Points[1])
			cp1x, cp1y := cx+2.0/3.0*(x1-cx), cy+2.0/3.0*(y1-cy)
			cp2x, cp2y := x2+2.0/3.0*(x1-x2), y2+2.0/3.0*(y1-y2)
			contentstream.WriteCurveTo(buf, cp1x, cp1y, cp2x, cp2y, x2, y2)
			cx, cy = x2, y2
		case SegCubeTo:
			x1, y1 := project(seg.Points[0])
			x2, y2 := project(seg.Points[1])
			x3, y3 := project(seg.Points[2])
			contentstream.WriteCurveTo(buf, x1, y1, x2, y2, x3, y3)
			cx, cy = x3, y3
		case SegClose:
			contentstream.WriteClosePath(buf)
		}
	}
}

// FillOperator returns "f" for non-zero winding fill; glyph outlines from
// TrueType contours always use the non-zero winding rule.
func FillOperator() string { return "f" }

// StrokeOperator returns "S", the path-stroking operator.
func StrokeOperator() string { return "S" }

// FillStrokeOperator returns "B", the combined fill-then-stroke operator.
func FillStrokeOperator() string { return "B" }

// PaintOperatorForRenderMode maps a Tr text rendering mode to the path
// operator a converted glyph outline should end with. Modes that add to
// the clip path but paint nothing (3, 7) have no operator; callers must
// check IsInvisibleRenderMode first and skip emission entirely rather
// than call this.
func PaintOperatorForRenderMode(mode contentstream.TextRenderMode) string {
	switch mode {
	case contentstream.TextStroke, contentstream.TextStrokeClip:
		return StrokeOperator()
	case contentstream.TextFillStroke, contentstream.TextFillStrokeClip:
		return FillStrokeOperator()
	default:
		return FillOperator()
	}
}

// IsInvisibleRenderMode reports whether mode paints nothing: mode 3
// (pure invisible, used by OCR-layer text) and mode 7 (add to clip path
// only) both leave the page unchanged.
func IsInvisibleRenderMode(mode contentstream.TextRenderMode) bool {
	return mode == contentstream.TextInvisible || mode == contentstream.TextClip
}
