package outline

import (
	"bytes"
	"fmt"

	"github.com/graylayer/pdfredact/contentstream"
	"github.com/graylayer/pdfredact/coords"
)

// UnresolvedGlyphError reports that a shown character code could not be
// mapped to a glyph outline, meaning the text run cannot be safely
// outline-converted and the caller must fall back to a coarser strategy
// (masking the whole run, or rasterizing the page region).
type UnresolvedGlyphError struct {
	Code int
}

func (e *UnresolvedGlyphError) Error() string {
	return fmt.Sprintf("outline: no glyph for character code %d", e.Code)
}

// ConvertTextRun rewrites one resolved Tj/TJ/'/" invocation into path
// operators tracing every shown glyph's outline. It returns the
// replacement content-stream bytes (ending in the render mode's paint
// operator; no color-setting operator is emitted) or an
// UnresolvedGlyphError if any character code in the run
// has no corresponding glyph outline.
//
// The pen position is advanced the same way the original text-showing
// operator would: each glyph's width (read from the font program, in
// 1000-unit PDF glyph space) plus character spacing, word spacing (for a
// single-byte code 32), and horizontal scaling determine how far the
// text matrix moves before the next glyph, and TJ array adjustments
// subtract directly from that advance.
func ConvertTextRun(cmd *contentstream.TextDrawCommand, fp *FontProgram) ([]byte, error) {
	mode := contentstream.TextRenderMode(cmd.RenderMode)
	if IsInvisibleRenderMode(mode) {
		return nil, nil
	}

	th := cmd.HorizScaling
	if th == 0 {
		th = 100
	}
	var buf bytes.Buffer
	pen := 0.0 // accumulated advance in text space, already scaled by font size and horizontal scaling
	any := false

	for _, entry := range cmd.Entries {
		if entry.IsAdjustment {
			pen -= entry.Adjustment / 1000.0 * cmd.FontSize * (th / 100.0)
			continue
		}
		codes := fp.DecodeCodes(entry.Text)
		for _, code := range codes {
			gid, ok := fp.GlyphIndexForCode(code)
			if !ok {
				return nil, &UnresolvedGlyphError{Code: code}
			}
			outline, err := fp.Glyphs.OutlineByGID(gid)
			if err != nil {
				return nil, fmt.Errorf("outline: glyph %d: %w", gid, err)
			}
			width1000, err := fp.Glyphs.AdvanceByGID(gid)
			if err != nil {
				return nil, fmt.Errorf("outline: advance for glyph %d: %w", gid, err)
			}

			if len(outline) > 0 {
				glyphMatrix := coords.Translate(pen, 0).Multiply(cmd.CombinedMatrix)
				WriteGlyphPath(&buf, GlyphParams{
					Outline:      outline,
					UnitsPerEm:   fp.UnitsPerEm,
					GlyphMatrix:  glyphMatrix,
					FontSize:     cmd.FontSize,
					HorizScaling: th,
					TextRise:     cmd.TextRise,
				})
				any = true
			}

			advance := width1000/1000.0*cmd.FontSize + cmd.CharSpacing
			if code == 32 && fp.Encoding != EncodingIdentityH {
				advance += cmd.WordSpacing
			}
			pen += advance * (th / 100.0)
		}
	}

	if !any {
		return nil, nil
	}

	buf.WriteString(PaintOperatorForRenderMode(mode))
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
