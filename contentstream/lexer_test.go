package contentstream

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graylayer/pdfredact/ir/raw"
)

func TestParseSimpleOperator(t *testing.T) {
	ops, err := Parse([]byte("1 0 0 1 10 20 cm\n"))
	require.NoError(t, err)
	require.Len(t, ops, 1)
	require.Equal(t, "cm", ops[0].Operator)
	require.Len(t, ops[0].Operands, 6)
}

func TestParseEmptyInputProducesNoOps(t *testing.T) {
	ops, err := Parse(nil)
	require.NoError(t, err)
	require.Empty(t, ops)
}

func TestParseNameOperand(t *testing.T) {
	ops, err := Parse([]byte("/F1 12 Tf\n"))
	require.NoError(t, err)
	require.Len(t, ops, 1)
	name, ok := ops[0].Operands[0].(raw.NameObj)
	require.True(t, ok)
	require.Equal(t, "F1", name.Val)
}

func TestParseNameWithHexEscape(t *testing.T) {
	ops, err := Parse([]byte("/A#42 Do\n"))
	require.NoError(t, err)
	name := ops[0].Operands[0].(raw.NameObj)
	require.Equal(t, "AB", name.Val)
}

func TestParseLiteralStringWithEscapes(t *testing.T) {
	ops, err := Parse([]byte(`(hello\nworld) Tj` + "\n"))
	require.NoError(t, err)
	s := ops[0].Operands[0].(raw.StringObj)
	require.Equal(t, "hello\nworld", string(s.Bytes))
}

func TestParseLiteralStringWithNestedParens(t *testing.T) {
	ops, err := Parse([]byte(`(a(b)c) Tj` + "\n"))
	require.NoError(t, err)
	s := ops[0].Operands[0].(raw.StringObj)
	require.Equal(t, "a(b)c", string(s.Bytes))
}

func TestParseHexString(t *testing.T) {
	ops, err := Parse([]byte("<48656C6C6F> Tj\n"))
	require.NoError(t, err)
	s := ops[0].Operands[0].(raw.StringObj)
	require.Equal(t, "Hello", string(s.Bytes))
}

func TestParseHexStringOddDigitsPadded(t *testing.T) {
	ops, err := Parse([]byte("<48656C6C6F0> Tj\n"))
	require.NoError(t, err)
	s := ops[0].Operands[0].(raw.StringObj)
	require.Equal(t, 6, len(s.Bytes))
}

func TestParseNumbers(t *testing.T) {
	ops, err := Parse([]byte("-1.5 2 .25 cm\n"))
	require.NoError(t, err)
	n0 := ops[0].Operands[0].(raw.NumberObj)
	require.False(t, n0.IsInt)
	require.Equal(t, -1.5, n0.F)

	n1 := ops[0].Operands[1].(raw.NumberObj)
	require.True(t, n1.IsInt)
	require.Equal(t, int64(2), n1.I)
}

func TestParseArrayOperand(t *testing.T) {
	ops, err := Parse([]byte("[(A) -250 (B)] TJ\n"))
	require.NoError(t, err)
	arr := ops[0].Operands[0].(*raw.ArrayObj)
	require.Equal(t, 3, arr.Len())
}

func TestParseDictOperand(t *testing.T) {
	ops, err := Parse([]byte("<< /Type /Page >> BDC\n"))
	require.NoError(t, err)
	d := ops[0].Operands[0].(*raw.DictObj)
	val, ok := d.Get(raw.NameLiteral("Type"))
	require.True(t, ok)
	require.Equal(t, "Page", val.(raw.NameObj).Val)
}

func TestParseTrueFalseNullOperands(t *testing.T) {
	ops, err := Parse([]byte("true false null BDC\n"))
	require.NoError(t, err)
	require.Equal(t, raw.Bool(true), ops[0].Operands[0])
	require.Equal(t, raw.Bool(false), ops[0].Operands[1])
	require.IsType(t, raw.NullObj{}, ops[0].Operands[2])
}

func TestParseMultipleOperations(t *testing.T) {
	ops, err := Parse([]byte("q\n1 0 0 1 0 0 cm\nQ\n"))
	require.NoError(t, err)
	require.Len(t, ops, 3)
	require.Equal(t, "q", ops[0].Operator)
	require.Equal(t, "cm", ops[1].Operator)
	require.Equal(t, "Q", ops[2].Operator)
}

func TestParseSkipsComments(t *testing.T) {
	ops, err := Parse([]byte("% a comment\nq\nQ\n"))
	require.NoError(t, err)
	require.Len(t, ops, 2)
}

func TestParseUnterminatedLiteralStringErrors(t *testing.T) {
	_, err := Parse([]byte(`(unterminated`))
	require.Error(t, err)
}

func TestParseUnterminatedHexStringErrors(t *testing.T) {
	_, err := Parse([]byte(`<4865`))
	require.Error(t, err)
}

func TestParseInlineImage(t *testing.T) {
	data := []byte("BI /W 2 /H 2 /BPC 8 /CS /G ID \x01\x02\x03\x04 EI\n")
	ops, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	require.Equal(t, "BI", ops[0].Operator)
	require.NotNil(t, ops[0].InlineImage)
	require.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, ops[0].InlineImage.Data)
}

func TestParseInlineImageUnterminatedErrors(t *testing.T) {
	data := []byte("BI /W 2 ID \x01\x02\x03")
	_, err := Parse(data)
	require.Error(t, err)
}
