package contentstream

import (
	"math"

	"github.com/graylayer/pdfredact/coords"
	"github.com/graylayer/pdfredact/ir/raw"
)

// FillColorSpace identifies which color operator last set the fill color.
type FillColorSpace int

const (
	FillGray FillColorSpace = iota
	FillRGB
	FillCMYK
)

// FillColor is the fill color in effect when a painting operator runs.
type FillColor struct {
	Space FillColorSpace
	Comps [4]float64 // Gray uses Comps[0]; RGB uses [0:3]; CMYK uses [0:4]
}

// DefaultBlack is the fill color every new graphics state starts with.
func DefaultBlack() FillColor { return FillColor{Space: FillGray, Comps: [4]float64{0}} }

// IsWhite reports whether the color paints as white, used to recognize
// redaction-style opaque cover rectangles.
func (c FillColor) IsWhite() bool {
	switch c.Space {
	case FillGray:
		return c.Comps[0] >= 0.999
	case FillRGB:
		return c.Comps[0] >= 0.999 && c.Comps[1] >= 0.999 && c.Comps[2] >= 0.999
	case FillCMYK:
		return c.Comps[0] <= 0.001 && c.Comps[1] <= 0.001 && c.Comps[2] <= 0.001 && c.Comps[3] <= 0.001
	}
	return false
}

// Luminance returns a 0..1 perceptual luminance estimate of the color.
// The outline converter does not consult it: converted glyph paths carry
// no color-setting operators of their own.
func (c FillColor) Luminance() float64 {
	switch c.Space {
	case FillGray:
		return c.Comps[0]
	case FillRGB:
		return 0.299*c.Comps[0] + 0.587*c.Comps[1] + 0.114*c.Comps[2]
	case FillCMYK:
		r := (1 - c.Comps[0]) * (1 - c.Comps[3])
		g := (1 - c.Comps[1]) * (1 - c.Comps[3])
		b := (1 - c.Comps[2]) * (1 - c.Comps[3])
		return 0.299*r + 0.587*g + 0.114*b
	}
	return 0
}

// TextDrawCommand is a single resolved Tj/TJ/'/" invocation, with the
// graphics and text state needed to rasterize or outline-convert it.
type TextDrawCommand struct {
	CombinedMatrix  coords.Matrix // text matrix × CTM at the moment of showing
	FontResourceKey string        // the /Fn name looked up in the page's Font resource dict
	FontSize        float64
	CharSpacing     float64
	WordSpacing     float64
	HorizScaling    float64 // Tz, percent (default 100)
	TextRise        float64
	RenderMode      int
	FillColor       FillColor
	Entries         []TjArrayEntry // string runs interleaved with TJ adjustments
}

// TjArrayEntry is one element of a resolved Tj/TJ run.
type TjArrayEntry struct {
	IsAdjustment bool
	Text         []byte
	Adjustment   float64 // thousandths of an em, positive moves left
}

// AnalyzedOp pairs a raw operation with its resolved text-draw semantics,
// when applicable, so a rewriter can replace text-showing operators in
// place while passing every other operator through untouched.
type AnalyzedOp struct {
	Op   Operation
	Text *TextDrawCommand // non-nil only for Tj/TJ/'/" operators inside BT/ET
}

// XObjectPlacement records a Do invocation together with the CTM active
// when it ran, needed to map an XObject's unit square onto the page.
type XObjectPlacement struct {
	Name string
	CTM  coords.Matrix
}

// BBox maps the image XObject's unit square through the placement's CTM
// and returns the axis-aligned page-point bounding box.
func (p XObjectPlacement) BBox() Rect {
	return rectFromCorners(p.CTM, 0, 0, 1, 1)
}

// AnalysisResult is the full structural reading of one page's content
// stream: the operator sequence annotated with resolved text draws, plus
// the white-fill cover rectangles and image placements found along the
// way.
type AnalysisResult struct {
	Ops               []AnalyzedOp
	WhiteFillRects    []Rect
	XObjectPlacements []XObjectPlacement
	HasInlineImage    bool
}

type gfxState struct {
	ctm       coords.Matrix
	fillColor FillColor
}

type textState struct {
	tm, tlm           coords.Matrix
	charSpacing       float64
	wordSpacing       float64
	horizScaling      float64
	leading           float64
	fontKey           string
	fontSize          float64
	textRise          float64
	renderMode        int
}

func newTextState() textState {
	return textState{tm: coords.Identity(), tlm: coords.Identity(), horizScaling: 100}
}

// Analyze walks a decoded content stream's operations and resolves every
// text-showing operator against the graphics and text state active at
// that point, following the PDF operator semantics for q/Q, cm, color
// setting, text positioning, and text showing.
func Analyze(ops []Operation) AnalysisResult {
	var result AnalysisResult

	gsStack := []gfxState{{ctm: coords.Identity(), fillColor: DefaultBlack()}}
	cur := func() *gfxState { return &gsStack[len(gsStack)-1] }

	inText := false
	ts := newTextState()

	type pendingRect struct {
		x, y, w, h float64
		ctm        coords.Matrix
	}
	var pending *pendingRect

	emitRectIfWhite := func() {
		if pending == nil {
			return
		}
		if cur().fillColor.IsWhite() {
			result.WhiteFillRects = append(result.WhiteFillRects, rectFromCorners(pending.ctm, pending.x, pending.y, pending.w, pending.h))
		}
		pending = nil
	}

	for _, op := range ops {
		switch op.Operator {
		case "BI":
			result.HasInlineImage = true
			result.Ops = append(result.Ops, AnalyzedOp{Op: op})
			continue
		}

		a := AnalyzedOp{Op: op}

		switch op.Operator {
		case "q":
			gsStack = append(gsStack, gsStack[len(gsStack)-1])
		case "Q":
			if len(gsStack) > 1 {
				gsStack = gsStack[:len(gsStack)-1]
			}
		case "cm":
			if m, ok := operandsToMatrix(op.Operands); ok {
				cur().ctm = m.Multiply(cur().ctm)
			}
		case "g":
			if v, ok := floatOperand(op.Operands, 0); ok {
				cur().fillColor = FillColor{Space: FillGray, Comps: [4]float64{v}}
			}
		case "rg":
			if r, ok := floatOperand(op.Operands, 0); ok {
				if gr, ok2 := floatOperand(op.Operands, 1); ok2 {
					if b, ok3 := floatOperand(op.Operands, 2); ok3 {
						cur().fillColor = FillColor{Space: FillRGB, Comps: [4]float64{r, gr, b}}
					}
				}
			}
		case "k":
			if c, ok := floatOperand(op.Operands, 0); ok {
				if m, ok2 := floatOperand(op.Operands, 1); ok2 {
					if y, ok3 := floatOperand(op.Operands, 2); ok3 {
						if kk, ok4 := floatOperand(op.Operands, 3); ok4 {
							cur().fillColor = FillColor{Space: FillCMYK, Comps: [4]float64{c, m, y, kk}}
						}
					}
				}
			}
		case "sc", "scn":
			setGenericColor(cur(), op.Operands)
		case "re":
			if x, ok := floatOperand(op.Operands, 0); ok {
				if y, ok2 := floatOperand(op.Operands, 1); ok2 {
					if w, ok3 := floatOperand(op.Operands, 2); ok3 {
						if h, ok4 := floatOperand(op.Operands, 3); ok4 {
							if pending != nil {
								// a second rectangle before the first was
								// painted makes this a multi-rect path, not
								// a single clean redaction rectangle.
								pending = nil
							} else {
								pending = &pendingRect{x: x, y: y, w: w, h: h, ctm: cur().ctm}
							}
						}
					}
				}
			}
		case "m", "l", "c", "v", "y", "h":
			// any other path-construction operator between re and its
			// paint means this is not a bare rectangle.
			pending = nil
		case "f", "F", "f*", "b", "b*", "B", "B*":
			emitRectIfWhite()
		case "n", "S", "s", "W", "W*":
			pending = nil
		case "Do":
			if name, ok := nameOperand(op.Operands, 0); ok {
				result.XObjectPlacements = append(result.XObjectPlacements, XObjectPlacement{Name: name, CTM: cur().ctm})
			}
		case "BT":
			inText = true
			ts = newTextState()
		case "ET":
			inText = false
		case "Tf":
			if inText {
				if name, ok := nameOperand(op.Operands, 0); ok {
					if size, ok2 := floatOperand(op.Operands, 1); ok2 {
						ts.fontKey = name
						ts.fontSize = size
					}
				}
			}
		case "Tm":
			if inText {
				if m, ok := operandsToMatrix(op.Operands); ok {
					ts.tm = m
					ts.tlm = m
				}
			}
		case "Td":
			if inText {
				if tx, ok := floatOperand(op.Operands, 0); ok {
					if ty, ok2 := floatOperand(op.Operands, 1); ok2 {
						ts.tlm = coords.Translate(tx, ty).Multiply(ts.tlm)
						ts.tm = ts.tlm
					}
				}
			}
		case "TD":
			if inText {
				if tx, ok := floatOperand(op.Operands, 0); ok {
					if ty, ok2 := floatOperand(op.Operands, 1); ok2 {
						ts.leading = -ty
						ts.tlm = coords.Translate(tx, ty).Multiply(ts.tlm)
						ts.tm = ts.tlm
					}
				}
			}
		case "T*":
			if inText {
				ts.tlm = coords.Translate(0, -ts.leading).Multiply(ts.tlm)
				ts.tm = ts.tlm
			}
		case "TL":
			if inText {
				if v, ok := floatOperand(op.Operands, 0); ok {
					ts.leading = v
				}
			}
		case "Tc":
			if inText {
				if v, ok := floatOperand(op.Operands, 0); ok {
					ts.charSpacing = v
				}
			}
		case "Tw":
			if inText {
				if v, ok := floatOperand(op.Operands, 0); ok {
					ts.wordSpacing = v
				}
			}
		case "Tz":
			if inText {
				if v, ok := floatOperand(op.Operands, 0); ok {
					ts.horizScaling = v
				}
			}
		case "Ts":
			if inText {
				if v, ok := floatOperand(op.Operands, 0); ok {
					ts.textRise = v
				}
			}
		case "Tr":
			if inText {
				if v, ok := floatOperand(op.Operands, 0); ok {
					ts.renderMode = int(v)
				}
			}
		case "Tj":
			if inText {
				if s, ok := stringOperand(op.Operands, 0); ok {
					a.Text = buildDrawCommand(&ts, cur(), []TjArrayEntry{{Text: s}})
					advanceByText(&ts, s)
				}
			}
		case "'":
			if inText {
				ts.tlm = coords.Translate(0, -ts.leading).Multiply(ts.tlm)
				ts.tm = ts.tlm
				if s, ok := stringOperand(op.Operands, 0); ok {
					a.Text = buildDrawCommand(&ts, cur(), []TjArrayEntry{{Text: s}})
					advanceByText(&ts, s)
				}
			}
		case `"`:
			if inText {
				if aw, ok := floatOperand(op.Operands, 0); ok {
					if ac, ok2 := floatOperand(op.Operands, 1); ok2 {
						ts.wordSpacing = aw
						ts.charSpacing = ac
						ts.tlm = coords.Translate(0, -ts.leading).Multiply(ts.tlm)
						ts.tm = ts.tlm
						if s, ok3 := stringOperand(op.Operands, 2); ok3 {
							a.Text = buildDrawCommand(&ts, cur(), []TjArrayEntry{{Text: s}})
							advanceByText(&ts, s)
						}
					}
				}
			}
		case "TJ":
			if inText {
				if arr, ok := arrayOperand(op.Operands, 0); ok {
					cmd := buildDrawCommand(&ts, cur(), nil)
					entries := make([]TjArrayEntry, 0, arr.Len())
					for i := 0; i < arr.Len(); i++ {
						item, _ := arr.Get(i)
						switch v := item.(type) {
						case raw.StringObj:
							entries = append(entries, TjArrayEntry{Text: v.Bytes})
							advanceByText(&ts, v.Bytes)
						case raw.NumberObj:
							adj := v.Float()
							entries = append(entries, TjArrayEntry{IsAdjustment: true, Adjustment: adj})
							advanceByAdjustment(&ts, adj)
						}
					}
					cmd.Entries = entries
					a.Text = cmd
				}
			}
		default:
			// Any other operator inside or outside a text object passes
			// through untouched; only the operators above affect state
			// this package tracks.
		}

		result.Ops = append(result.Ops, a)
	}
	return result
}

func buildDrawCommand(ts *textState, gs *gfxState, entries []TjArrayEntry) *TextDrawCommand {
	return &TextDrawCommand{
		CombinedMatrix:  ts.tm.Multiply(gs.ctm),
		FontResourceKey: ts.fontKey,
		FontSize:        ts.fontSize,
		CharSpacing:     ts.charSpacing,
		WordSpacing:     ts.wordSpacing,
		HorizScaling:    ts.horizScaling,
		TextRise:        ts.textRise,
		RenderMode:      ts.renderMode,
		FillColor:       gs.fillColor,
		Entries:         entries,
	}
}

// advanceByText and advanceByAdjustment approximate the text matrix
// update that showing text performs, using a single-byte-per-code glyph
// width assumption; callers needing exact glyph widths (outline
// conversion) recompute per-glyph advances from the font program instead
// of relying on this approximation for placement of subsequent runs.
func advanceByText(ts *textState, s []byte) {
	tz := ts.horizScaling / 100
	total := 0.0
	for _, b := range s {
		w := 0.5 // unknown without the font; refined by outline conversion
		total += (w*ts.fontSize + ts.charSpacing) * tz
		if b == ' ' {
			total += ts.wordSpacing * tz
		}
	}
	ts.tm = coords.Translate(total, 0).Multiply(ts.tm)
}

func advanceByAdjustment(ts *textState, adj float64) {
	tz := ts.horizScaling / 100
	ts.tm = coords.Translate(-adj/1000*ts.fontSize*tz, 0).Multiply(ts.tm)
}

func setGenericColor(gs *gfxState, operands []raw.Object) {
	nums := make([]float64, 0, len(operands))
	for _, o := range operands {
		if n, ok := o.(raw.NumberObj); ok {
			nums = append(nums, n.Float())
		}
	}
	switch len(nums) {
	case 1:
		gs.fillColor = FillColor{Space: FillGray, Comps: [4]float64{nums[0]}}
	case 3:
		gs.fillColor = FillColor{Space: FillRGB, Comps: [4]float64{nums[0], nums[1], nums[2]}}
	case 4:
		gs.fillColor = FillColor{Space: FillCMYK, Comps: [4]float64{nums[0], nums[1], nums[2], nums[3]}}
	}
}

func rectFromCorners(ctm coords.Matrix, x, y, w, h float64) Rect {
	pts := []coords.Point{
		ctm.Transform(coords.Point{X: x, Y: y}),
		ctm.Transform(coords.Point{X: x + w, Y: y}),
		ctm.Transform(coords.Point{X: x, Y: y + h}),
		ctm.Transform(coords.Point{X: x + w, Y: y + h}),
	}
	r := Rect{LLX: math.Inf(1), LLY: math.Inf(1), URX: math.Inf(-1), URY: math.Inf(-1)}
	for _, p := range pts {
		r.LLX = math.Min(r.LLX, p.X)
		r.LLY = math.Min(r.LLY, p.Y)
		r.URX = math.Max(r.URX, p.X)
		r.URY = math.Max(r.URY, p.Y)
	}
	return r
}

func operandsToMatrix(ops []raw.Object) (coords.Matrix, bool) {
	if len(ops) < 6 {
		return coords.Matrix{}, false
	}
	var m coords.Matrix
	for i := 0; i < 6; i++ {
		n, ok := ops[len(ops)-6+i].(raw.NumberObj)
		if !ok {
			return coords.Matrix{}, false
		}
		m[i] = n.Float()
	}
	return m, true
}

func floatOperand(ops []raw.Object, idx int) (float64, bool) {
	if idx < 0 || idx >= len(ops) {
		return 0, false
	}
	n, ok := ops[idx].(raw.NumberObj)
	if !ok {
		return 0, false
	}
	return n.Float(), true
}

func nameOperand(ops []raw.Object, idx int) (string, bool) {
	if idx < 0 || idx >= len(ops) {
		return "", false
	}
	n, ok := ops[idx].(raw.NameObj)
	if !ok {
		return "", false
	}
	return n.Val, true
}

func stringOperand(ops []raw.Object, idx int) ([]byte, bool) {
	if idx < 0 || idx >= len(ops) {
		return nil, false
	}
	s, ok := ops[idx].(raw.StringObj)
	if !ok {
		return nil, false
	}
	return s.Bytes, true
}

func arrayOperand(ops []raw.Object, idx int) (*raw.ArrayObj, bool) {
	if idx < 0 || idx >= len(ops) {
		return nil, false
	}
	a, ok := ops[idx].(*raw.ArrayObj)
	return a, ok
}
