package pipeline

import (
	"bytes"
	"fmt"

	"github.com/graylayer/pdfredact/contentstream"
	"github.com/graylayer/pdfredact/filters"
	"github.com/graylayer/pdfredact/fonts"
	"github.com/graylayer/pdfredact/ir/raw"
	"github.com/graylayer/pdfredact/outline"
)

// pageFonts resolves a page's /Font resource dictionary. A page with no
// /Font entry or an empty one simply yields an empty map, which makes
// attemptOutlines ineligible rather than an error.
func pageFonts(doc *raw.Document, resources *raw.DictObj, pipe *filters.Pipeline) map[string]*outline.FontProgram {
	fontDict := resourceSubDict(doc, resources, "Font")
	if fontDict == nil {
		return nil
	}
	return fonts.ParsePageFonts(doc, fontDict, pipe)
}

// attemptOutlines rewrites every text-showing operator in analysis into
// equivalent filled paths, wrapping each glyph run's replacement in its
// own q/Q so the path state never leaks into surrounding drawing. Every
// other operator inside the enclosing BT...ET is dropped along with it
// (StripTextObjects), since Tf/Td/Tm and the rest have nothing left to
// position once the text is gone and would otherwise reference the
// /Font entries the writer clears for this page. It fails closed: any
// unresolved font reference or glyph aborts the whole page rather than
// emitting a partially converted stream.
func attemptOutlines(analysis contentstream.AnalysisResult, fontMap map[string]*outline.FontProgram) ([]byte, error) {
	var convErr error
	replace := func(td *contentstream.TextDrawCommand) []byte {
		if convErr != nil {
			return nil
		}
		fp, ok := fontMap[td.FontResourceKey]
		if !ok {
			convErr = fmt.Errorf("outline: font resource %q not resolved", td.FontResourceKey)
			return nil
		}
		replacement, err := outline.ConvertTextRun(td, fp)
		if err != nil {
			convErr = err
			return nil
		}
		if replacement == nil {
			return nil
		}
		var run bytes.Buffer
		run.WriteString("q\n")
		run.Write(replacement)
		run.WriteString("Q\n")
		return run.Bytes()
	}

	out := contentstream.StripTextObjects(analysis.Ops, replace)
	if convErr != nil {
		return nil, convErr
	}
	return out, nil
}
