package contentstream

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graylayer/pdfredact/ir/raw"
)

func TestFormatNumberTrimsTrailingZeros(t *testing.T) {
	require.Equal(t, "1.5", FormatNumber(1.5))
	require.Equal(t, "1", FormatNumber(1.0))
	require.Equal(t, "0.1235", FormatNumber(0.12345))
}

func TestFormatNumberNormalizesNegativeZero(t *testing.T) {
	require.Equal(t, "0", FormatNumber(-0.00001))
}

func TestFormatNumberNegativeValue(t *testing.T) {
	require.Equal(t, "-3.25", FormatNumber(-3.25))
}

func TestWriteOperationWithNoOperands(t *testing.T) {
	var buf bytes.Buffer
	WriteOperation(&buf, Operation{Operator: "Q"})
	require.Equal(t, "Q\n", buf.String())
}

func TestWriteOperationWithOperands(t *testing.T) {
	var buf bytes.Buffer
	WriteOperation(&buf, Operation{
		Operator: "cm",
		Operands: []raw.Object{
			raw.NumberObj{F: 1, IsInt: false},
			raw.NumberObj{I: 0, IsInt: true},
		},
	})
	require.Equal(t, "1 0 cm\n", buf.String())
}

func TestWriteOperandName(t *testing.T) {
	var buf bytes.Buffer
	WriteOperand(&buf, raw.NameLiteral("F1"))
	require.Equal(t, "/F1", buf.String())
}

func TestWriteOperandString(t *testing.T) {
	var buf bytes.Buffer
	WriteOperand(&buf, raw.StringObj{Bytes: []byte("a(b)c")})
	require.Equal(t, `(a\(b\)c)`, buf.String())
}

func TestWriteOperandArray(t *testing.T) {
	var buf bytes.Buffer
	arr := raw.NewArray(raw.NumberInt(1), raw.NumberInt(2))
	WriteOperand(&buf, arr)
	require.Equal(t, "[1 2]", buf.String())
}

func TestWriteOperandBool(t *testing.T) {
	var buf bytes.Buffer
	WriteOperand(&buf, raw.Bool(true))
	require.Equal(t, "true", buf.String())
}

func TestSerializeSkipsTextOperations(t *testing.T) {
	ops := []AnalyzedOp{
		{Op: Operation{Operator: "q"}},
		{Op: Operation{Operator: "BT"}},
		{Op: Operation{Operator: "Tf"}},
		{Op: Operation{Operator: "Tj"}, Text: &TextDrawCommand{}},
		{Op: Operation{Operator: "ET"}},
		{Op: Operation{Operator: "Q"}},
	}
	out := Serialize(ops, true)
	require.Equal(t, "q\nQ\n", string(out))
}

func TestSerializeKeepsTextWhenNotSkipping(t *testing.T) {
	ops := []AnalyzedOp{
		{Op: Operation{Operator: "BT"}},
		{Op: Operation{Operator: "Tj"}, Text: &TextDrawCommand{}},
		{Op: Operation{Operator: "ET"}},
	}
	out := Serialize(ops, false)
	require.Equal(t, "BT\nTj\nET\n", string(out))
}

func TestStripTextObjectsDropsPositioningOperators(t *testing.T) {
	ops := []AnalyzedOp{
		{Op: Operation{Operator: "BT"}},
		{Op: Operation{Operator: "Tf"}},
		{Op: Operation{Operator: "Td"}},
		{Op: Operation{Operator: "Tj"}, Text: &TextDrawCommand{}},
		{Op: Operation{Operator: "ET"}},
	}
	out := StripTextObjects(ops, nil)
	require.Empty(t, out)
}

func TestStripTextObjectsInvokesReplaceForShowOperators(t *testing.T) {
	cmd := &TextDrawCommand{FontResourceKey: "F1"}
	ops := []AnalyzedOp{
		{Op: Operation{Operator: "BT"}},
		{Op: Operation{Operator: "Tj"}, Text: cmd},
		{Op: Operation{Operator: "ET"}},
	}
	var seen *TextDrawCommand
	out := StripTextObjects(ops, func(td *TextDrawCommand) []byte {
		seen = td
		return []byte("replaced\n")
	})
	require.Same(t, cmd, seen)
	require.Equal(t, "replaced\n", string(out))
}

func TestStripTextObjectsLeavesSurroundingOpsIntact(t *testing.T) {
	ops := []AnalyzedOp{
		{Op: Operation{Operator: "q"}},
		{Op: Operation{Operator: "BT"}},
		{Op: Operation{Operator: "Tj"}, Text: &TextDrawCommand{}},
		{Op: Operation{Operator: "ET"}},
		{Op: Operation{Operator: "Q"}},
	}
	out := StripTextObjects(ops, nil)
	require.Equal(t, "q\nQ\n", string(out))
}

func TestStripTextObjectsIgnoresUnbalancedET(t *testing.T) {
	ops := []AnalyzedOp{
		{Op: Operation{Operator: "ET"}},
		{Op: Operation{Operator: "q"}},
	}
	out := StripTextObjects(ops, nil)
	require.Equal(t, "q\n", string(out))
}
