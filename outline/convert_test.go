package outline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graylayer/pdfredact/contentstream"
	"github.com/graylayer/pdfredact/coords"
)

// fakeGlyphSource maps every rune to glyph index 1 with a fixed outline
// and advance, just enough geometry for ConvertTextRun to have something
// to emit.
type fakeGlyphSource struct{}

func (fakeGlyphSource) GlyphIndexForRune(r rune) (uint16, bool) { return 1, true }
func (fakeGlyphSource) NumGlyphs() int                          { return 2 }
func (fakeGlyphSource) OutlineByGID(gid uint16) ([]Segment, error) {
	return []Segment{
		{Op: SegMoveTo, Points: []Point{{X: 0, Y: 0}}},
		{Op: SegLineTo, Points: []Point{{X: 500, Y: 0}}},
		{Op: SegClose},
	}, nil
}
func (fakeGlyphSource) AdvanceByGID(gid uint16) (float64, error) { return 500, nil }

func fakeTextRun(mode int) *contentstream.TextDrawCommand {
	return &contentstream.TextDrawCommand{
		CombinedMatrix: coords.Identity(),
		FontSize:       12,
		HorizScaling:   100,
		RenderMode:     mode,
		Entries: []contentstream.TjArrayEntry{
			{Text: []byte("A")},
		},
	}
}

func fakeFontProgram() *FontProgram {
	return &FontProgram{Glyphs: fakeGlyphSource{}, Encoding: EncodingWinAnsi, UnitsPerEm: 1000}
}

func TestConvertTextRunFillModeEmitsFillOperator(t *testing.T) {
	out, err := ConvertTextRun(fakeTextRun(int(contentstream.TextFill)), fakeFontProgram())
	require.NoError(t, err)
	require.Contains(t, string(out), "f\n")
}

func TestConvertTextRunStrokeModeEmitsStrokeOperator(t *testing.T) {
	out, err := ConvertTextRun(fakeTextRun(int(contentstream.TextStroke)), fakeFontProgram())
	require.NoError(t, err)
	require.Contains(t, string(out), "S\n")
	require.NotContains(t, string(out), "f\n")
}

func TestConvertTextRunStrokeClipModeEmitsStrokeOperator(t *testing.T) {
	out, err := ConvertTextRun(fakeTextRun(int(contentstream.TextStrokeClip)), fakeFontProgram())
	require.NoError(t, err)
	require.Contains(t, string(out), "S\n")
}

func TestConvertTextRunFillStrokeModeEmitsBothOperator(t *testing.T) {
	out, err := ConvertTextRun(fakeTextRun(int(contentstream.TextFillStroke)), fakeFontProgram())
	require.NoError(t, err)
	require.Contains(t, string(out), "B\n")
}

func TestConvertTextRunInvisibleModeProducesNothing(t *testing.T) {
	out, err := ConvertTextRun(fakeTextRun(int(contentstream.TextInvisible)), fakeFontProgram())
	require.NoError(t, err)
	require.Nil(t, out)
}

func TestConvertTextRunClipOnlyModeProducesNothing(t *testing.T) {
	out, err := ConvertTextRun(fakeTextRun(int(contentstream.TextClip)), fakeFontProgram())
	require.NoError(t, err)
	require.Nil(t, out)
}

func TestConvertTextRunUnresolvedGlyphErrors(t *testing.T) {
	cmd := fakeTextRun(int(contentstream.TextFill))
	fp := &FontProgram{Glyphs: unresolvingGlyphSource{}, Encoding: EncodingWinAnsi, UnitsPerEm: 1000}
	_, err := ConvertTextRun(cmd, fp)
	require.Error(t, err)
	var unresolved *UnresolvedGlyphError
	require.ErrorAs(t, err, &unresolved)
}

type unresolvingGlyphSource struct{}

func (unresolvingGlyphSource) GlyphIndexForRune(r rune) (uint16, bool)    { return 0, false }
func (unresolvingGlyphSource) NumGlyphs() int                             { return 0 }
func (unresolvingGlyphSource) OutlineByGID(gid uint16) ([]Segment, error) { return nil, nil }
func (unresolvingGlyphSource) AdvanceByGID(gid uint16) (float64, error)   { return 0, nil }
