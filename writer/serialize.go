// Package writer serializes a mutated raw.Document back into classic
// (non-cross-reference-stream) PDF bytes: object bodies, a plain xref
// table, and a trailer, grounded on the object-graph shapes the ir/raw
// parser produces and the numeric/name syntax contentstream.WriteOperand already
// renders for content-stream operands.
package writer

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/graylayer/pdfredact/ir/raw"
	"github.com/graylayer/pdfredact/perr"
)

// Serialize renders doc as a complete classic PDF file: header, every
// object in ascending (num, gen) order, an xref table covering exactly
// those objects plus the free-list head, and a trailer pointing at the
// existing /Root and /Info entries.
func Serialize(doc *raw.Document) ([]byte, error) {
	var buf bytes.Buffer
	version := doc.Version
	if version == "" {
		version = "1.7"
	}
	fmt.Fprintf(&buf, "%%PDF-%s\n%%\xe2\xe3\xcf\xd3\n", version)

	refs := make([]raw.ObjectRef, 0, len(doc.Objects))
	for ref := range doc.Objects {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Num != refs[j].Num {
			return refs[i].Num < refs[j].Num
		}
		return refs[i].Gen < refs[j].Gen
	})

	offsets := make(map[raw.ObjectRef]int64, len(refs))
	maxNum := 0
	for _, ref := range refs {
		offsets[ref] = int64(buf.Len())
		if ref.Num > maxNum {
			maxNum = ref.Num
		}
		if err := writeIndirectObject(&buf, ref, doc.Objects[ref]); err != nil {
			return nil, perr.PdfWrite(-1, err, "serializing object %s", ref)
		}
	}

	xrefOffset := int64(buf.Len())
	writeXref(&buf, refs, offsets, maxNum)

	buf.WriteString("trailer\n")
	trailer := cloneTrailerForSize(doc.Trailer, maxNum+1)
	WriteObject(&buf, trailer)
	buf.WriteByte('\n')
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xrefOffset)

	return buf.Bytes(), nil
}

func writeIndirectObject(buf *bytes.Buffer, ref raw.ObjectRef, obj raw.Object) error {
	fmt.Fprintf(buf, "%d %d obj\n", ref.Num, ref.Gen)
	if stream, ok := obj.(raw.Stream); ok {
		if err := writeStream(buf, stream); err != nil {
			return err
		}
	} else {
		WriteObject(buf, obj)
		buf.WriteByte('\n')
	}
	buf.WriteString("endobj\n")
	return nil
}

func writeStream(buf *bytes.Buffer, s raw.Stream) error {
	dict := s.Dictionary()
	data := s.RawData()
	dict.Set(raw.NameLiteral("Length"), raw.NumberInt(int64(len(data))))
	WriteObject(buf, dict)
	buf.WriteString("\nstream\n")
	buf.Write(data)
	buf.WriteString("\nendstream\n")
	return nil
}

// WriteObject appends obj's PDF object syntax to buf. Indirect
// references are written as "N G R"; every other kind reuses the same
// literal syntax the content-stream serializer uses for inline objects.
func WriteObject(buf *bytes.Buffer, obj raw.Object) {
	switch v := obj.(type) {
	case nil:
		buf.WriteString("null")
	case raw.Reference:
		r := v.Ref()
		fmt.Fprintf(buf, "%d %d R", r.Num, r.Gen)
	case raw.Number:
		if v.IsInteger() {
			buf.WriteString(strconv.FormatInt(v.Int(), 10))
		} else {
			buf.WriteString(formatReal(v.Float()))
		}
	case raw.Name:
		buf.WriteByte('/')
		buf.WriteString(escapeName(v.Value()))
	case raw.String:
		buf.WriteByte('(')
		buf.Write(escapeLiteralString(v.Value()))
		buf.WriteByte(')')
	case raw.Boolean:
		if v.Value() {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case raw.NullObj:
		buf.WriteString("null")
	case raw.Array:
		buf.WriteByte('[')
		for i := 0; i < v.Len(); i++ {
			if i > 0 {
				buf.WriteByte(' ')
			}
			item, _ := v.Get(i)
			WriteObject(buf, item)
		}
		buf.WriteByte(']')
	case raw.Dictionary:
		buf.WriteString("<<")
		keys := v.Keys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].Value() < keys[j].Value() })
		for _, k := range keys {
			buf.WriteByte('/')
			buf.WriteString(escapeName(k.Value()))
			buf.WriteByte(' ')
			val, _ := v.Get(k)
			WriteObject(buf, val)
			buf.WriteByte(' ')
		}
		buf.WriteString(">>")
	case raw.Stream:
		// A stream appearing as a direct (non-indirect-object) value never
		// occurs in a well-formed PDF graph; fall back to its dictionary.
		WriteObject(buf, v.Dictionary())
	default:
		buf.WriteString("null")
	}
}

func formatReal(f float64) string {
	s := strconv.FormatFloat(f, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-" || s == "-0" {
		s = "0"
	}
	return s
}

func escapeName(s string) string {
	var b strings.Builder
	for _, c := range []byte(s) {
		if c <= 0x20 || c >= 0x7f || strings.ContainsRune("()<>[]{}/%#", rune(c)) {
			fmt.Fprintf(&b, "#%02X", c)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func escapeLiteralString(b []byte) []byte {
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

func writeXref(buf *bytes.Buffer, refs []raw.ObjectRef, offsets map[raw.ObjectRef]int64, maxNum int) {
	byNum := make(map[int]raw.ObjectRef, len(refs))
	for _, r := range refs {
		byNum[r.Num] = r
	}
	buf.WriteString("xref\n")
	fmt.Fprintf(buf, "0 %d\n", maxNum+1)
	fmt.Fprintf(buf, "%010d %05d f \n", 0, 65535)
	for n := 1; n <= maxNum; n++ {
		ref, ok := byNum[n]
		if !ok {
			fmt.Fprintf(buf, "%010d %05d f \n", 0, 0)
			continue
		}
		fmt.Fprintf(buf, "%010d %05d n \n", offsets[ref], ref.Gen)
	}
}

func cloneTrailerForSize(src raw.Dictionary, size int) raw.Dictionary {
	out := raw.Dict()
	if src != nil {
		for _, k := range src.Keys() {
			v, _ := src.Get(k)
			out.Set(k, v)
		}
	}
	out.Set(raw.NameLiteral("Size"), raw.NumberInt(int64(size)))
	return out
}
