package raw

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParserConfig controls raw parsing behavior.
type ParserConfig struct {
	// MaxObjectSize caps the size of a single dictionary or array literal,
	// guarding against malformed input driving unbounded allocation.
	MaxObjectSize int
}

// NewParser constructs a raw.Parser that scans the whole input for
// "N G obj" markers rather than trusting the xref table, matching how
// lopdf-style tools recover from table/stream xref formats they don't
// otherwise understand. Only classic (non-cross-reference-stream) PDFs
// are supported; files that resolve to an empty object set are rejected
// by Parse with an error.
func NewParser(cfg ParserConfig) Parser {
	return &parserImpl{cfg: cfg}
}

type parserImpl struct{ cfg ParserConfig }

func (p *parserImpl) Parse(ctx context.Context, r io.ReaderAt) (*Document, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}

	doc := &Document{Objects: make(map[ObjectRef]Object)}

	for i := 0; i < len(data); {
		num, gen, bodyStart, ok := matchObjHeader(data, i)
		if !ok {
			i++
			continue
		}
		lx := &lexer{data: data, pos: bodyStart}
		obj, err := parseObject(lx)
		if err != nil {
			i = bodyStart
			continue
		}
		lx.skipWhitespaceAndComments()
		if dict, isDict := obj.(*DictObj); isDict && lx.hasKeywordAt("stream") {
			lx.pos += len("stream")
			streamData, serr := readStreamBody(lx, dict)
			if serr != nil {
				return nil, fmt.Errorf("object %d %d: %w", num, gen, serr)
			}
			obj = NewStream(dict, streamData)
		}
		doc.Objects[ObjectRef{Num: num, Gen: gen}] = obj
		i = lx.pos
	}

	trailer := findTrailer(data)
	if trailer != nil {
		doc.Trailer = trailer
	} else if root, found := findCatalogRef(doc); found {
		t := Dict()
		t.Set(NameLiteral("Root"), RefObj{R: root})
		doc.Trailer = t
	}
	if doc.Trailer == nil || len(doc.Objects) == 0 {
		return nil, errors.New("no objects found in input")
	}
	if _, ok := doc.Trailer.Get(NameObj{Val: "Encrypt"}); ok {
		doc.Encrypted = true
	}
	populateMetadata(doc)
	return doc, nil
}

// populateMetadata copies the trailer's /Info dictionary's common fields
// onto doc.Metadata, resolving an indirect /Info the same way every other
// object reference in this parser resolves: a direct lookup in
// doc.Objects rather than a separate loader indirection.
func populateMetadata(doc *Document) {
	infoObj, ok := doc.Trailer.Get(NameObj{Val: "Info"})
	if !ok {
		return
	}
	dict, ok := resolveDict(doc, infoObj)
	if !ok {
		return
	}
	md := DocumentMetadata{}
	if v, ok := infoString(dict, "Title"); ok {
		md.Title = v
	}
	if v, ok := infoString(dict, "Author"); ok {
		md.Author = v
	}
	if v, ok := infoString(dict, "Creator"); ok {
		md.Creator = v
	}
	if v, ok := infoString(dict, "Producer"); ok {
		md.Producer = v
	}
	if v, ok := infoString(dict, "Subject"); ok {
		md.Subject = v
	}
	if v, ok := infoString(dict, "Keywords"); ok {
		md.Keywords = strings.Split(v, ",")
	}
	doc.Metadata = md
}

func resolveDict(doc *Document, obj Object) (*DictObj, bool) {
	if ref, ok := obj.(RefObj); ok {
		resolved, found := doc.Objects[ref.Ref()]
		if !found {
			return nil, false
		}
		return asDict(resolved)
	}
	return asDict(obj)
}

func infoString(dict *DictObj, key string) (string, bool) {
	obj, ok := dict.Get(NameObj{Val: key})
	if !ok {
		return "", false
	}
	str, ok := obj.(String)
	if !ok {
		return "", false
	}
	return string(str.Value()), true
}

func findCatalogRef(doc *Document) (ObjectRef, bool) {
	for ref, obj := range doc.Objects {
		dict, ok := asDict(obj)
		if !ok {
			continue
		}
		if n, ok := dict.Get(NameObj{Val: "Type"}); ok {
			if name, ok := n.(NameObj); ok && name.Val == "Catalog" {
				return ref, true
			}
		}
	}
	return ObjectRef{}, false
}

func asDict(o Object) (*DictObj, bool) {
	switch v := o.(type) {
	case *DictObj:
		return v, true
	case *StreamObj:
		return v.Dict, true
	default:
		return nil, false
	}
}

func findTrailer(data []byte) Dictionary {
	idx := bytes.LastIndex(data, []byte("trailer"))
	if idx < 0 {
		return nil
	}
	lx := &lexer{data: data, pos: idx + len("trailer")}
	lx.skipWhitespaceAndComments()
	obj, err := parseObject(lx)
	if err != nil {
		return nil
	}
	d, ok := obj.(*DictObj)
	if !ok {
		return nil
	}
	return d
}

func matchObjHeader(data []byte, at int) (num, gen, bodyStart int, ok bool) {
	lx := &lexer{data: data, pos: at}
	lx.skipWhitespaceAndComments()
	start := lx.pos
	n, nok := lx.readUint()
	if !nok {
		return 0, 0, 0, false
	}
	lx.skipWhitespaceAndComments()
	g, gok := lx.readUint()
	if !gok {
		return 0, 0, 0, false
	}
	lx.skipWhitespaceAndComments()
	if !lx.hasKeywordAt("obj") {
		return 0, 0, 0, false
	}
	lx.pos += len("obj")
	if start != at {
		return 0, 0, 0, false
	}
	return n, g, lx.pos, true
}

func readStreamBody(lx *lexer, dict *DictObj) ([]byte, error) {
	// Per spec, stream keyword is followed by CRLF or LF before data.
	if lx.pos < len(lx.data) && lx.data[lx.pos] == '\r' {
		lx.pos++
	}
	if lx.pos < len(lx.data) && lx.data[lx.pos] == '\n' {
		lx.pos++
	}
	start := lx.pos

	if lengthObj, ok := dict.Get(NameObj{Val: "Length"}); ok {
		if n, ok := lengthObj.(NumberObj); ok && n.IsInt {
			length := int(n.I)
			if length >= 0 && start+length <= len(lx.data) {
				end := start + length
				// Sanity check: endstream should follow shortly after.
				tail := lx.data[end:min(end+32, len(lx.data))]
				if bytes.Contains(tail, []byte("endstream")) {
					lx.pos = end
					skipToAfterKeyword(lx, "endstream")
					return lx.data[start:end], nil
				}
			}
		}
	}

	// Fall back to scanning for the literal "endstream" keyword.
	endIdx := bytes.Index(lx.data[start:], []byte("endstream"))
	if endIdx < 0 {
		return nil, errors.New("unterminated stream: endstream not found")
	}
	end := start + endIdx
	// Trim a single trailing EOL that precedes endstream.
	trimmed := end
	if trimmed > start && lx.data[trimmed-1] == '\n' {
		trimmed--
	}
	if trimmed > start && lx.data[trimmed-1] == '\r' {
		trimmed--
	}
	lx.pos = end + len("endstream")
	return lx.data[start:trimmed], nil
}

func skipToAfterKeyword(lx *lexer, kw string) {
	lx.skipWhitespaceAndComments()
	if lx.hasKeywordAt(kw) {
		lx.pos += len(kw)
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// ---- lexer ----

type lexer struct {
	data []byte
	pos  int
}

func (lx *lexer) skipWhitespaceAndComments() {
	for lx.pos < len(lx.data) {
		c := lx.data[lx.pos]
		if isPDFWhitespace(c) {
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

func isPDFWhitespace(c byte) bool {
	switch c {
	case 0x00, 0x09, 0x0A, 0x0C, 0x0D, 0x20:
		return true
	}
	return false
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (lx *lexer) hasKeywordAt(kw string) bool {
	end := lx.pos + len(kw)
	if end > len(lx.data) {
		return false
	}
	if string(lx.data[lx.pos:end]) != kw {
		return false
	}
	if end < len(lx.data) {
		c := lx.data[end]
		if !isPDFWhitespace(c) && !isDelimiter(c) {
			return false
		}
	}
	return true
}

func (lx *lexer) readUint() (int, bool) {
	start := lx.pos
	for lx.pos < len(lx.data) && lx.data[lx.pos] >= '0' && lx.data[lx.pos] <= '9' {
		lx.pos++
	}
	if lx.pos == start {
		return 0, false
	}
	n, err := strconv.Atoi(string(lx.data[start:lx.pos]))
	if err != nil {
		return 0, false
	}
	return n, true
}

func readAll(r io.ReaderAt) ([]byte, error) {
	var buf bytes.Buffer
	const chunk = 64 * 1024
	for off := int64(0); ; off += int64(chunk) {
		tmp := make([]byte, chunk)
		n, err := r.ReadAt(tmp, off)
		if n > 0 {
			buf.Write(tmp[:n])
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		if n < chunk {
			break
		}
	}
	return buf.Bytes(), nil
}

// ---- object grammar ----

func parseObject(lx *lexer) (Object, error) {
	lx.skipWhitespaceAndComments()
	if lx.pos >= len(lx.data) {
		return nil, io.EOF
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
		return parseNumberOrRef(lx)
	default:
		return parseKeywordValue(lx)
	}
}

func parseName(lx *lexer) NameObj {
	lx.pos++ // consume '/'
	var b bytes.Buffer
	for lx.pos < len(lx.data) {
		c := lx.data[lx.pos]
		if isPDFWhitespace(c) || isDelimiter(c) {
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
	return NameObj{Val: b.String()}
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func parseLiteralString(lx *lexer) (Object, error) {
	lx.pos++ // consume '('
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
				// line continuation, emits nothing
			default:
				if e >= '0' && e <= '7' {
					start := lx.pos
					for lx.pos < start+3 && lx.pos < len(lx.data) && lx.data[lx.pos] >= '0' && lx.data[lx.pos] <= '7' {
						lx.pos++
					}
					v, _ := strconv.ParseUint(string(lx.data[start:lx.pos]), 8, 16)
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
				return StringObj{Bytes: b.Bytes()}, nil
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
			lx.pos++
		}
	}
	return nil, errors.New("unterminated literal string")
}

func parseHexString(lx *lexer) (Object, error) {
	lx.pos++ // consume '<'
	var digits []byte
	for lx.pos < len(lx.data) && lx.data[lx.pos] != '>' {
		c := lx.data[lx.pos]
		if isHexDigit(c) {
			digits = append(digits, c)
		}
		lx.pos++
	}
	if lx.pos >= len(lx.data) {
		return nil, errors.New("unterminated hex string")
	}
	lx.pos++ // consume '>'
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	for i := 0; i < len(out); i++ {
		v, _ := strconv.ParseUint(string(digits[i*2:i*2+2]), 16, 8)
		out[i] = byte(v)
	}
	return hexStringObj{StringObj{Bytes: out}}, nil
}

type hexStringObj struct{ StringObj }

func (hexStringObj) IsHex() bool { return true }

func parseArray(lx *lexer) (Object, error) {
	lx.pos++ // consume '['
	arr := &ArrayObj{}
	for {
		lx.skipWhitespaceAndComments()
		if lx.pos >= len(lx.data) {
			return nil, errors.New("unterminated array")
		}
		if lx.data[lx.pos] == ']' {
			lx.pos++
			return arr, nil
		}
		item, err := parseObject(lx)
		if err != nil {
			return nil, err
		}
		arr.Append(item)
	}
}

func parseDict(lx *lexer) (Object, error) {
	lx.pos += 2 // consume '<<'
	d := Dict()
	for {
		lx.skipWhitespaceAndComments()
		if lx.pos+1 < len(lx.data) && lx.data[lx.pos] == '>' && lx.data[lx.pos+1] == '>' {
			lx.pos += 2
			return d, nil
		}
		if lx.pos >= len(lx.data) {
			return nil, errors.New("unterminated dictionary")
		}
		if lx.data[lx.pos] != '/' {
			return nil, fmt.Errorf("expected name key in dictionary at offset %d", lx.pos)
		}
		key := parseName(lx)
		val, err := parseObject(lx)
		if err != nil {
			return nil, err
		}
		d.Set(key, val)
	}
}

func parseNumberOrRef(lx *lexer) (Object, error) {
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
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			f = 0
		}
		return NumberObj{F: f, IsInt: false}, nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return NumberObj{I: 0, IsInt: true}, nil
	}

	// Lookahead for "gen R" forming an indirect reference.
	save := lx.pos
	lx.skipWhitespaceAndComments()
	if g, ok := lx.readUint(); ok {
		lx.skipWhitespaceAndComments()
		if lx.pos < len(lx.data) && lx.data[lx.pos] == 'R' &&
			(lx.pos+1 >= len(lx.data) || isPDFWhitespace(lx.data[lx.pos+1]) || isDelimiter(lx.data[lx.pos+1])) {
			lx.pos++
			return RefObj{R: ObjectRef{Num: int(n), Gen: g}}, nil
		}
	}
	lx.pos = save
	return NumberObj{I: n, IsInt: true}, nil
}

func parseKeywordValue(lx *lexer) (Object, error) {
	if lx.hasKeywordAt("true") {
		lx.pos += 4
		return BoolObj{V: true}, nil
	}
	if lx.hasKeywordAt("false") {
		lx.pos += 5
		return BoolObj{V: false}, nil
	}
	if lx.hasKeywordAt("null") {
		lx.pos += 4
		return NullObj{}, nil
	}
	return nil, fmt.Errorf("unrecognized token at offset %d", lx.pos)
}
