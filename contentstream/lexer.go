// Package contentstream tokenizes and interprets PDF page content streams:
// the operator sequences that paint text, paths, and images onto a page.
package contentstream

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/graylayer/pdfredact/ir/raw"
)

// Operation is one operator invocation together with its operands, in the
// order they appeared in the content stream. Operands reuse raw.Object
// since a content-stream operand is exactly a PDF object literal minus
// indirect references.
type Operation struct {
	Operator    string
	Operands    []raw.Object
	InlineImage *InlineImage // set only when Operator == "BI"
}

// InlineImage holds the parameter dictionary and raw sample data of a
// BI...ID...EI inline image. Analyze records a page's inline images in
// AnalysisResult.HasInlineImage; the page pipeline does not consult that
// flag when choosing between outline conversion, text masking and MRC.
type InlineImage struct {
	Dict *raw.DictObj
	Data []byte
}

// Parse tokenizes a decoded content stream into operations.
func Parse(data []byte) ([]Operation, error) {
	lx := &lexer{data: data}
	var ops []Operation
	var operands []raw.Object

	for {
		lx.skipWhitespaceAndComments()
		if lx.pos >= len(lx.data) {
			break
		}
		c := lx.data[lx.pos]
		switch {
		case c == '/':
			operands = append(operands, parseName(lx))
		case c == '(':
			s, err := parseLiteralString(lx)
			if err != nil {
				return nil, err
			}
			operands = append(operands, s)
		case c == '<':
			if lx.pos+1 < len(lx.data) && lx.data[lx.pos+1] == '<' {
				d, err := parseDict(lx)
				if err != nil {
					return nil, err
				}
				operands = append(operands, d)
			} else {
				s, err := parseHexString(lx)
				if err != nil {
					return nil, err
				}
				operands = append(operands, s)
			}
		case c == '[':
			a, err := parseArray(lx)
			if err != nil {
				return nil, err
			}
			operands = append(operands, a)
		case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
			operands = append(operands, parseNumber(lx))
		default:
			opName := readOperator(lx)
			if opName == "" {
				lx.pos++
				continue
			}
			switch opName {
			case "true":
				operands = append(operands, raw.Bool(true))
				continue
			case "false":
				operands = append(operands, raw.Bool(false))
				continue
			case "null":
				operands = append(operands, raw.NullObj{})
				continue
			case "BI":
				img, err := parseInlineImage(lx)
				if err != nil {
					return nil, err
				}
				ops = append(ops, Operation{Operator: "BI", InlineImage: img})
				operands = nil
				continue
			}
			ops = append(ops, Operation{Operator: opName, Operands: operands})
			operands = nil
		}
	}
	return ops, nil
}

type lexer struct {
	data []byte
	pos  int
}

func (lx *lexer) skipWhitespaceAndComments() {
	for lx.pos < len(lx.data) {
		c := lx.data[lx.pos]
		if isWS(c) {
			lx.pos++
			continue
		}
		if c == '%' {
			for lx.pos < len(lx.data) && lx.data[lx.pos] != '\n' && lx.data[lx.pos] != '\r' {
				lx.pos++
			}
			continue
		}
		break
	}
}

func isWS(c byte) bool {
	switch c {
	case 0x00, 0x09, 0x0A, 0x0C, 0x0D, 0x20:
		return true
	}
	return false
}

func isDelim(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func readOperator(lx *lexer) string {
	start := lx.pos
	for lx.pos < len(lx.data) && !isWS(lx.data[lx.pos]) && !isDelim(lx.data[lx.pos]) {
		lx.pos++
	}
	return string(lx.data[start:lx.pos])
}

func parseName(lx *lexer) raw.NameObj {
	lx.pos++
	var b bytes.Buffer
	for lx.pos < len(lx.data) {
		c := lx.data[lx.pos]
		if isWS(c) || isDelim(c) {
			break
		}
		if c == '#' && lx.pos+2 < len(lx.data) && isHexDigit(lx.data[lx.pos+1]) && isHexDigit(lx.data[lx.pos+2]) {
			v, _ := strconv.ParseUint(string(lx.data[lx.pos+1:lx.pos+3]), 16, 8)
			b.WriteByte(byte(v))
			lx.pos += 3
			continue
		}
		b.WriteByte(c)
		lx.pos++
	}
	return raw.NameObj{Val: b.String()}
}

func parseNumber(lx *lexer) raw.NumberObj {
	start := lx.pos
	isFloat := false
	if lx.data[lx.pos] == '+' || lx.data[lx.pos] == '-' {
		lx.pos++
	}
	for lx.pos < len(lx.data) {
		c := lx.data[lx.pos]
		if c >= '0' && c <= '9' {
			lx.pos++
			continue
		}
		if c == '.' {
			isFloat = true
			lx.pos++
			continue
		}
		break
	}
	text := string(lx.data[start:lx.pos])
	if isFloat {
		f, _ := strconv.ParseFloat(text, 64)
		return raw.NumberObj{F: f, IsInt: false}
	}
	n, _ := strconv.ParseInt(text, 10, 64)
	return raw.NumberObj{I: n, IsInt: true}
}

func parseLiteralString(lx *lexer) (raw.StringObj, error) {
	lx.pos++
	depth := 1
	var b bytes.Buffer
	for lx.pos < len(lx.data) {
		c := lx.data[lx.pos]
		switch c {
		case '\\':
			lx.pos++
			if lx.pos >= len(lx.data) {
				break
			}
			e := lx.data[lx.pos]
			switch e {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case '(', ')', '\\':
				b.WriteByte(e)
			case '\r':
				if lx.pos+1 < len(lx.data) && lx.data[lx.pos+1] == '\n' {
					lx.pos++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					s := lx.pos
					for lx.pos < s+3 && lx.pos < len(lx.data) && lx.data[lx.pos] >= '0' && lx.data[lx.pos] <= '7' {
						lx.pos++
					}
					v, _ := strconv.ParseUint(string(lx.data[s:lx.pos]), 8, 16)
					b.WriteByte(byte(v))
					continue
				}
				b.WriteByte(e)
			}
			lx.pos++
		case '(':
			depth++
			b.WriteByte(c)
			lx.pos++
		case ')':
			depth--
			lx.pos++
			if depth == 0 {
				return raw.StringObj{Bytes: b.Bytes()}, nil
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
			lx.pos++
		}
	}
	return raw.StringObj{}, errors.New("unterminated literal string in content stream")
}

func parseHexString(lx *lexer) (raw.StringObj, error) {
	lx.pos++
	var digits []byte
	for lx.pos < len(lx.data) && lx.data[lx.pos] != '>' {
		if isHexDigit(lx.data[lx.pos]) {
			digits = append(digits, lx.data[lx.pos])
		}
		lx.pos++
	}
	if lx.pos >= len(lx.data) {
		return raw.StringObj{}, errors.New("unterminated hex string in content stream")
	}
	lx.pos++
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	for i := range out {
		v, _ := strconv.ParseUint(string(digits[i*2:i*2+2]), 16, 8)
		out[i] = byte(v)
	}
	return raw.StringObj{Bytes: out}, nil
}

func parseArray(lx *lexer) (*raw.ArrayObj, error) {
	lx.pos++
	arr := &raw.ArrayObj{}
	for {
		lx.skipWhitespaceAndComments()
		if lx.pos >= len(lx.data) {
			return nil, errors.New("unterminated array in content stream")
		}
		if lx.data[lx.pos] == ']' {
			lx.pos++
			return arr, nil
		}
		item, err := parseOperand(lx)
		if err != nil {
			return nil, err
		}
		arr.Append(item)
	}
}

func parseDict(lx *lexer) (*raw.DictObj, error) {
	lx.pos += 2
	d := raw.Dict()
	for {
		lx.skipWhitespaceAndComments()
		if lx.pos+1 < len(lx.data) && lx.data[lx.pos] == '>' && lx.data[lx.pos+1] == '>' {
			lx.pos += 2
			return d, nil
		}
		if lx.pos >= len(lx.data) || lx.data[lx.pos] != '/' {
			return nil, fmt.Errorf("expected name key in content-stream dict at offset %d", lx.pos)
		}
		key := parseName(lx)
		val, err := parseOperand(lx)
		if err != nil {
			return nil, err
		}
		d.Set(key, val)
	}
}

func parseOperand(lx *lexer) (raw.Object, error) {
	lx.skipWhitespaceAndComments()
	if lx.pos >= len(lx.data) {
		return nil, errors.New("unexpected end of content stream")
	}
	c := lx.data[lx.pos]
	switch {
	case c == '/':
		return parseName(lx), nil
	case c == '(':
		return parseLiteralString(lx)
	case c == '<':
		if lx.pos+1 < len(lx.data) && lx.data[lx.pos+1] == '<' {
			return parseDict(lx)
		}
		return parseHexString(lx)
	case c == '[':
		return parseArray(lx)
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return parseNumber(lx), nil
	default:
		op := readOperator(lx)
		switch op {
		case "true":
			return raw.Bool(true), nil
		case "false":
			return raw.Bool(false), nil
		case "null":
			return raw.NullObj{}, nil
		}
		return nil, fmt.Errorf("unexpected operator %q where operand expected", op)
	}
}

func parseInlineImage(lx *lexer) (*InlineImage, error) {
	d := raw.Dict()
	for {
		lx.skipWhitespaceAndComments()
		if lx.pos >= len(lx.data) {
			return nil, errors.New("unterminated inline image dictionary")
		}
		if lx.hasKeywordAt("ID") {
			lx.pos += 2
			break
		}
		if lx.data[lx.pos] != '/' {
			return nil, fmt.Errorf("expected name key in inline image dict at offset %d", lx.pos)
		}
		key := parseName(lx)
		val, err := parseOperand(lx)
		if err != nil {
			return nil, err
		}
		d.Set(key, val)
	}
	if lx.pos < len(lx.data) && isWS(lx.data[lx.pos]) {
		lx.pos++
	}
	start := lx.pos
	for lx.pos < len(lx.data) {
		if lx.data[lx.pos] == 'E' && lx.pos+1 < len(lx.data) && lx.data[lx.pos+1] == 'I' &&
			(lx.pos == start || isWS(lx.data[lx.pos-1])) &&
			(lx.pos+2 >= len(lx.data) || isWS(lx.data[lx.pos+2]) || isDelim(lx.data[lx.pos+2])) {
			data := lx.data[start:lx.pos]
			if len(data) > 0 && isWS(data[len(data)-1]) {
				data = data[:len(data)-1]
			}
			lx.pos += 2
			return &InlineImage{Dict: d, Data: data}, nil
		}
		lx.pos++
	}
	return nil, errors.New("unterminated inline image: EI not found")
}

func (lx *lexer) hasKeywordAt(kw string) bool {
	end := lx.pos + len(kw)
	if end > len(lx.data) || string(lx.data[lx.pos:end]) != kw {
		return false
	}
	if end < len(lx.data) && !isWS(lx.data[end]) && !isDelim(lx.data[end]) {
		return false
	}
	return true
}
