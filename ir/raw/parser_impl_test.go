package raw

import (
	"bytes"
	"context"
	"testing"
)

func readerAt(s string) *bytes.Reader { return bytes.NewReader([]byte(s)) }

func TestParserParsesObjectsAndStream(t *testing.T) {
	src := "" +
		"%PDF-1.7\n" +
		"1 0 obj\n" +
		"<< /Type /Catalog /Pages 3 0 R >>\n" +
		"endobj\n" +
		"2 0 obj\n" +
		"<< /Length 5 >>\n" +
		"stream\n" +
		"hello\n" +
		"endstream\n" +
		"endobj\n" +
		"trailer\n" +
		"<< /Size 3 /Root 1 0 R >>\n"

	parser := NewParser(ParserConfig{})
	doc, err := parser.Parse(context.Background(), readerAt(src))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if len(doc.Objects) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(doc.Objects))
	}

	obj1, ok := doc.Objects[ObjectRef{Num: 1, Gen: 0}]
	if !ok {
		t.Fatalf("missing catalog object")
	}
	if obj1.Type() != "dict" {
		t.Fatalf("expected dict for obj 1, got %s", obj1.Type())
	}

	obj2, ok := doc.Objects[ObjectRef{Num: 2, Gen: 0}]
	if !ok {
		t.Fatalf("missing stream object")
	}
	stream, ok := obj2.(*StreamObj)
	if !ok {
		t.Fatalf("expected stream object, got %T", obj2)
	}
	if got := string(stream.Data); got != "hello" {
		t.Fatalf("unexpected stream data: %q", got)
	}

	root, ok := doc.Trailer.Get(NameObj{Val: "Root"})
	if !ok {
		t.Fatalf("missing trailer root")
	}
	ref, ok := root.(RefObj)
	if !ok || ref.Ref() != (ObjectRef{Num: 1, Gen: 0}) {
		t.Fatalf("unexpected root reference: %#v", root)
	}
}

func TestParserFallsBackToCatalogWhenTrailerMissing(t *testing.T) {
	src := "" +
		"%PDF-1.4\n" +
		"5 0 obj\n" +
		"<< /Type /Catalog /Pages 6 0 R >>\n" +
		"endobj\n" +
		"6 0 obj\n" +
		"<< /Type /Pages /Count 0 >>\n" +
		"endobj\n"

	parser := NewParser(ParserConfig{})
	doc, err := parser.Parse(context.Background(), readerAt(src))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	root, ok := doc.Trailer.Get(NameObj{Val: "Root"})
	if !ok {
		t.Fatalf("expected synthesized trailer with Root")
	}
	ref, ok := root.(RefObj)
	if !ok || ref.Ref() != (ObjectRef{Num: 5, Gen: 0}) {
		t.Fatalf("expected root to point at catalog object 5, got %#v", root)
	}
}

func TestParserRejectsEmptyInput(t *testing.T) {
	parser := NewParser(ParserConfig{})
	if _, err := parser.Parse(context.Background(), readerAt("%PDF-1.7\n")); err == nil {
		t.Fatalf("expected error for input with no objects")
	}
}

func TestParserFlagsEncryptedDocument(t *testing.T) {
	src := "" +
		"%PDF-1.7\n" +
		"1 0 obj\n" +
		"<< /Type /Catalog /Pages 2 0 R >>\n" +
		"endobj\n" +
		"3 0 obj\n" +
		"<< /Filter /Standard /V 2 /R 3 >>\n" +
		"endobj\n" +
		"trailer\n" +
		"<< /Size 4 /Root 1 0 R /Encrypt 3 0 R >>\n"

	parser := NewParser(ParserConfig{})
	doc, err := parser.Parse(context.Background(), readerAt(src))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !doc.Encrypted {
		t.Fatalf("expected document with /Encrypt trailer entry to be flagged encrypted")
	}
}

func TestParserLeavesUnencryptedDocumentUnflagged(t *testing.T) {
	src := "" +
		"%PDF-1.7\n" +
		"1 0 obj\n" +
		"<< /Type /Catalog /Pages 2 0 R >>\n" +
		"endobj\n" +
		"trailer\n" +
		"<< /Size 2 /Root 1 0 R >>\n"

	parser := NewParser(ParserConfig{})
	doc, err := parser.Parse(context.Background(), readerAt(src))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if doc.Encrypted {
		t.Fatalf("expected document with no /Encrypt entry to be unflagged")
	}
}

func TestParserPopulatesMetadataFromIndirectInfoDict(t *testing.T) {
	src := "" +
		"%PDF-1.7\n" +
		"1 0 obj\n" +
		"<< /Type /Catalog /Pages 2 0 R >>\n" +
		"endobj\n" +
		"3 0 obj\n" +
		"<< /Title (Quarterly Report) /Producer (Acme Writer) /Keywords (finance,q3) >>\n" +
		"endobj\n" +
		"trailer\n" +
		"<< /Size 4 /Root 1 0 R /Info 3 0 R >>\n"

	parser := NewParser(ParserConfig{})
	doc, err := parser.Parse(context.Background(), readerAt(src))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if doc.Metadata.Title != "Quarterly Report" {
		t.Fatalf("expected title %q, got %q", "Quarterly Report", doc.Metadata.Title)
	}
	if doc.Metadata.Producer != "Acme Writer" {
		t.Fatalf("expected producer %q, got %q", "Acme Writer", doc.Metadata.Producer)
	}
	if len(doc.Metadata.Keywords) != 2 || doc.Metadata.Keywords[0] != "finance" {
		t.Fatalf("unexpected keywords: %v", doc.Metadata.Keywords)
	}
}

func TestParserLeavesMetadataZeroWithoutInfoDict(t *testing.T) {
	src := "" +
		"%PDF-1.7\n" +
		"1 0 obj\n" +
		"<< /Type /Catalog /Pages 2 0 R >>\n" +
		"endobj\n" +
		"trailer\n" +
		"<< /Size 2 /Root 1 0 R >>\n"

	parser := NewParser(ParserConfig{})
	doc, err := parser.Parse(context.Background(), readerAt(src))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if doc.Metadata.Title != "" || doc.Metadata.Producer != "" || doc.Metadata.Keywords != nil {
		t.Fatalf("expected zero metadata, got %+v", doc.Metadata)
	}
}
