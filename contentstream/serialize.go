package contentstream

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/graylayer/pdfredact/ir/raw"
)

// FormatNumber renders a float the way PDF content streams expect:
// fixed to 4 decimal places, then trimmed of trailing zeros and a
// trailing decimal point, with "-0" normalized to "0".
func FormatNumber(f float64) string {
	s := strconv.FormatFloat(f, 'f', 4, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	if s == "-0" || s == "" {
		s = "0"
	}
	return s
}

// Serialize re-emits a sequence of operations as content-stream bytes.
// When skipText is true, every operator inside a BT...ET text object is
// dropped, not only the resolved show operators; see StripTextObjects.
func Serialize(ops []AnalyzedOp, skipText bool) []byte {
	if !skipText {
		var buf bytes.Buffer
		for _, a := range ops {
			WriteOperation(&buf, a.Op)
		}
		return buf.Bytes()
	}
	return StripTextObjects(ops, nil)
}

// StripTextObjects re-emits ops with every text object's contents
// removed: a depth counter increments on BT and decrements on ET,
// neither operator itself is emitted, and no operator encountered while
// the depth is above zero is emitted either — text positioning and font
// selection (Tf, Td, Tm, TD, T*, TL, Tc, Tw, Tz, Tr, Ts) disappear along
// with the show operators, since none of them mean anything once the
// text they would have positioned is gone.
//
// replace, when non-nil, is invoked for each operator whose Text field
// Analyze populated (a resolved Tj/TJ/'/" show) and its return value is
// spliced into the stream at that operator's position, letting a
// caller substitute converted glyph-outline paths for the text that
// would otherwise be dropped silently. A nil replace, or a nil return
// from it, emits nothing for that show operator.
func StripTextObjects(ops []AnalyzedOp, replace func(*TextDrawCommand) []byte) []byte {
	var buf bytes.Buffer
	depth := 0
	for _, a := range ops {
		switch a.Op.Operator {
		case "BT":
			depth++
			continue
		case "ET":
			if depth > 0 {
				depth--
			}
			continue
		}
		if depth > 0 {
			if a.Text != nil && replace != nil {
				if b := replace(a.Text); b != nil {
					buf.Write(b)
				}
			}
			continue
		}
		WriteOperation(&buf, a.Op)
	}
	return buf.Bytes()
}

// WriteOperation appends one operator and its operands to buf.
func WriteOperation(buf *bytes.Buffer, op Operation) {
	if op.Operator == "BI" {
		writeInlineImage(buf, op.InlineImage)
		return
	}
	for _, o := range op.Operands {
		WriteOperand(buf, o)
		buf.WriteByte(' ')
	}
	buf.WriteString(op.Operator)
	buf.WriteByte('\n')
}

// WriteOperand appends one operand's PDF syntax to buf.
func WriteOperand(buf *bytes.Buffer, o raw.Object) {
	switch v := o.(type) {
	case raw.NumberObj:
		buf.WriteString(FormatNumber(v.Float()))
	case raw.NameObj:
		buf.WriteByte('/')
		buf.WriteString(v.Val)
	case raw.StringObj:
		buf.WriteByte('(')
		buf.Write(escapeLiteral(v.Bytes))
		buf.WriteByte(')')
	case raw.BoolObj:
		if v.V {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case raw.NullObj:
		buf.WriteString("null")
	case *raw.ArrayObj:
		buf.WriteByte('[')
		for i := 0; i < v.Len(); i++ {
			if i > 0 {
				buf.WriteByte(' ')
			}
			item, _ := v.Get(i)
			WriteOperand(buf, item)
		}
		buf.WriteByte(']')
	case *raw.DictObj:
		buf.WriteString("<<")
		for _, k := range v.Keys() {
			buf.WriteByte('/')
			buf.WriteString(k.Value())
			buf.WriteByte(' ')
			val, _ := v.Get(k)
			WriteOperand(buf, val)
			buf.WriteByte(' ')
		}
		buf.WriteString(">>")
	default:
		// ignore references and other object kinds; they never appear
		// as content-stream operands.
	}
}

func writeInlineImage(buf *bytes.Buffer, img *InlineImage) {
	if img == nil {
		return
	}
	buf.WriteString("BI\n")
	for _, k := range img.Dict.Keys() {
		buf.WriteByte('/')
		buf.WriteString(k.Value())
		buf.WriteByte(' ')
		val, _ := img.Dict.Get(k)
		WriteOperand(buf, val)
		buf.WriteByte('\n')
	}
	buf.WriteString("ID\n")
	buf.Write(img.Data)
	buf.WriteString("\nEI\n")
}

func escapeLiteral(b []byte) []byte {
	var out bytes.Buffer
	for _, c := range b {
		switch c {
		case '(', ')', '\\':
			out.WriteByte('\\')
			out.WriteByte(c)
		case '\n':
			out.WriteString(`\n`)
		case '\r':
			out.WriteString(`\r`)
		default:
			out.WriteByte(c)
		}
	}
	return out.Bytes()
}

// WriteMoveTo/LineTo/CurveTo append path-construction operators using
// FormatNumber, grounded on the same numeric-formatting rules Serialize
// uses so outline-converted glyph paths read like the rest of the
// rewritten stream.
func WriteMoveTo(buf *bytes.Buffer, x, y float64) {
	fmt.Fprintf(buf, "%s %s m\n", FormatNumber(x), FormatNumber(y))
}

func WriteLineTo(buf *bytes.Buffer, x, y float64) {
	fmt.Fprintf(buf, "%s %s l\n", FormatNumber(x), FormatNumber(y))
}

func WriteCurveTo(buf *bytes.Buffer, x1, y1, x2, y2, x3, y3 float64) {
	fmt.Fprintf(buf, "%s %s %s %s %s %s c\n",
		FormatNumber(x1), FormatNumber(y1), FormatNumber(x2), FormatNumber(y2), FormatNumber(x3), FormatNumber(y3))
}

func WriteClosePath(buf *bytes.Buffer) { buf.WriteString("h\n") }
