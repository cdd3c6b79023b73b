package writer

import "github.com/graylayer/pdfredact/ir/raw"

// ProducerTag is the string this tool stamps into the output's /Info
// /Producer entry, identifying redacted output the way PDF tools
// conventionally mark documents they've processed.
const ProducerTag = "pdfredact"

// StampProducer sets the output document's /Info /Producer entry to
// ProducerTag, creating the /Info dictionary (and a trailer reference to
// it) if the source document didn't carry one. Other /Info fields, if
// present, are left untouched.
func StampProducer(doc *raw.Document, alloc *IDAllocator) {
	if doc.Trailer == nil {
		return
	}
	if infoObj, ok := doc.Trailer.Get(raw.NameLiteral("Info")); ok {
		if ref, isRef := infoObj.(raw.RefObj); isRef {
			if obj, found := doc.Objects[ref.Ref()]; found {
				if dict, isDict := obj.(*raw.DictObj); isDict {
					dict.Set(raw.NameLiteral("Producer"), raw.Str([]byte(ProducerTag)))
					return
				}
			}
		}
		if dict, isDict := infoObj.(*raw.DictObj); isDict {
			dict.Set(raw.NameLiteral("Producer"), raw.Str([]byte(ProducerTag)))
			return
		}
	}

	info := raw.Dict()
	info.Set(raw.NameLiteral("Producer"), raw.Str([]byte(ProducerTag)))
	ref := alloc.Alloc()
	doc.Objects[ref] = info
	doc.Trailer.Set(raw.NameLiteral("Info"), raw.RefObj{R: ref})
}
