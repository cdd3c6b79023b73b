package writer

import (
	"strconv"

	"github.com/graylayer/pdfredact/cache"
	"github.com/graylayer/pdfredact/ir/raw"
	"github.com/graylayer/pdfredact/perr"
)

// IDAllocator hands out fresh object numbers for objects the writer adds
// (new content streams, XObjects). It starts above every object number
// already present in the source document.
type IDAllocator struct{ next int }

func NewIDAllocator(doc *raw.Document) *IDAllocator {
	max := 0
	for ref := range doc.Objects {
		if ref.Num > max {
			max = ref.Num
		}
	}
	return &IDAllocator{next: max + 1}
}

func (a *IDAllocator) Alloc() raw.ObjectRef {
	ref := raw.ObjectRef{Num: a.next, Gen: 0}
	a.next++
	return ref
}

func pageDict(doc *raw.Document, pageRef raw.ObjectRef) (*raw.DictObj, error) {
	obj, ok := doc.Objects[pageRef]
	if !ok {
		return nil, perr.PdfWrite(-1, nil, "page object %s not found", pageRef)
	}
	d, ok := obj.(*raw.DictObj)
	if !ok {
		return nil, perr.PdfWrite(-1, nil, "page object %s is not a dictionary", pageRef)
	}
	return d, nil
}

func resourcesDict(doc *raw.Document, page *raw.DictObj) *raw.DictObj {
	v, ok := page.Get(raw.NameLiteral("Resources"))
	if ok {
		if ref, isRef := v.(raw.RefObj); isRef {
			if obj, ok := doc.Objects[ref.Ref()]; ok {
				if d, ok := obj.(*raw.DictObj); ok {
					return d
				}
			}
		}
		if d, ok := v.(*raw.DictObj); ok {
			return d
		}
	}
	d := raw.Dict()
	page.Set(raw.NameLiteral("Resources"), d)
	return d
}

// setContentStream allocates a new stream object for data, installs it
// as the page's sole /Contents entry, and returns its ref.
func setContentStream(doc *raw.Document, page *raw.DictObj, alloc *IDAllocator, data []byte) raw.ObjectRef {
	ref := alloc.Alloc()
	stream := raw.NewStream(raw.Dict(), data)
	doc.Objects[ref] = stream
	page.Set(raw.NameLiteral("Contents"), raw.Ref(ref.Num, ref.Gen))
	return ref
}

// clearFontResources drops the page's /Font resource entry: text has
// become paths or raster, so the fonts are dead weight.
func clearFontResources(doc *raw.Document, page *raw.DictObj) {
	res := resourcesDict(doc, page)
	res.Set(raw.NameLiteral("Font"), raw.Dict())
}

// addImageXObject allocates a stream object for an image, registers it
// under name in the page's /Resources /XObject dict, and returns its ref.
func addImageXObject(doc *raw.Document, page *raw.DictObj, alloc *IDAllocator, name string, dict *raw.DictObj, data []byte) raw.ObjectRef {
	ref := alloc.Alloc()
	dict.Set(raw.NameLiteral("Type"), raw.NameLiteral("XObject"))
	dict.Set(raw.NameLiteral("Subtype"), raw.NameLiteral("Image"))
	doc.Objects[ref] = raw.NewStream(dict, data)

	res := resourcesDict(doc, page)
	xobjVal, ok := res.Get(raw.NameLiteral("XObject"))
	var xobj *raw.DictObj
	if ok {
		xobj, _ = xobjVal.(*raw.DictObj)
	}
	if xobj == nil {
		xobj = raw.Dict()
		res.Set(raw.NameLiteral("XObject"), xobj)
	}
	xobj.Set(raw.NameLiteral(name), raw.Ref(ref.Num, ref.Gen))
	return ref
}

// replaceModifiedImages overwrites existing image-XObject stream objects
// in place with their redacted replacements, looked up by resource name
// within the page's /Resources /XObject dict.
func replaceModifiedImages(doc *raw.Document, page *raw.DictObj, images []cache.ModifiedImage) {
	if len(images) == 0 {
		return
	}
	res := resourcesDict(doc, page)
	xobjVal, ok := res.Get(raw.NameLiteral("XObject"))
	if !ok {
		return
	}
	xobj, ok := xobjVal.(*raw.DictObj)
	if !ok {
		return
	}
	for _, img := range images {
		ref, ok := xobj.Get(raw.NameLiteral(img.Name))
		if !ok {
			continue
		}
		r, ok := ref.(raw.RefObj)
		if !ok {
			continue
		}
		existing, ok := doc.Objects[r.Ref()].(*raw.StreamObj)
		if !ok {
			continue
		}
		newDict := raw.Dict()
		newDict.Set(raw.NameLiteral("Type"), raw.NameLiteral("XObject"))
		newDict.Set(raw.NameLiteral("Subtype"), raw.NameLiteral("Image"))
		newDict.Set(raw.NameLiteral("Width"), raw.NumberInt(int64(img.Width)))
		newDict.Set(raw.NameLiteral("Height"), raw.NumberInt(int64(img.Height)))
		newDict.Set(raw.NameLiteral("BitsPerComponent"), raw.NumberInt(int64(img.BitsPerComponent)))
		if img.ColorSpace != "" {
			newDict.Set(raw.NameLiteral("ColorSpace"), raw.NameLiteral(img.ColorSpace))
		}
		newDict.Set(raw.NameLiteral("Filter"), raw.NameLiteral(img.Filter))
		existing.Dict = newDict
		existing.Data = img.Data
	}
}

// ApplyOutlines installs the Outlines PageOutput variant: the
// transformed content stream replaces the page's contents, redacted
// images replace their originals in place, and /Font is cleared.
func ApplyOutlines(doc *raw.Document, pageRef raw.ObjectRef, alloc *IDAllocator, out *cache.PageOutput) error {
	page, err := pageDict(doc, pageRef)
	if err != nil {
		return err
	}
	setContentStream(doc, page, alloc, out.ContentStream)
	replaceModifiedImages(doc, page, out.ModifiedImages)
	clearFontResources(doc, page)
	return nil
}

// ApplyTextMasked installs the TextMasked variant: the stripped stream
// becomes the page's content, one 1-bit DeviceGray JBIG2 XObject is
// added per text region with Decode [1 0] so set bits paint black, and
// the content stream gains a `q <cm> /Name Do Q` placement per region.
func ApplyTextMasked(doc *raw.Document, pageRef raw.ObjectRef, alloc *IDAllocator, out *cache.PageOutput) error {
	page, err := pageDict(doc, pageRef)
	if err != nil {
		return err
	}

	var content []byte
	content = append(content, out.ContentStream...)
	for i, region := range out.TextRegions {
		name := "RedactRegion" + strconv.Itoa(i)
		dict := raw.Dict()
		dict.Set(raw.NameLiteral("Width"), raw.NumberInt(int64(region.PixelWidth)))
		dict.Set(raw.NameLiteral("Height"), raw.NumberInt(int64(region.PixelHeight)))
		dict.Set(raw.NameLiteral("BitsPerComponent"), raw.NumberInt(1))
		dict.Set(raw.NameLiteral("ColorSpace"), raw.NameLiteral("DeviceGray"))
		dict.Set(raw.NameLiteral("Filter"), raw.NameLiteral("JBIG2Decode"))
		dict.Set(raw.NameLiteral("Decode"), raw.NewArray(raw.NumberInt(1), raw.NumberInt(0)))
		addImageXObject(doc, page, alloc, name, dict, region.Jbig2)

		w := region.BBoxURX - region.BBoxLLX
		h := region.BBoxURY - region.BBoxLLY
		content = append(content, []byte("q\n")...)
		content = append(content, []byte(placementMatrix(w, h, region.BBoxLLX, region.BBoxLLY))...)
		content = append(content, []byte(" cm\n/"+name+" Do\nQ\n")...)
	}

	setContentStream(doc, page, alloc, content)
	replaceModifiedImages(doc, page, out.ModifiedImages)
	clearFontResources(doc, page)
	return nil
}

// ApplyMrc installs the full-MRC variant: a background image filling
// the media box, then a foreground image carrying an /SMask that points
// at the JBIG2 mask. /Font is cleared.
func ApplyMrc(doc *raw.Document, pageRef raw.ObjectRef, alloc *IDAllocator, out *cache.PageOutput, mediaWidth, mediaHeight float64) error {
	page, err := pageDict(doc, pageRef)
	if err != nil {
		return err
	}

	colorSpace := "DeviceRGB"
	if out.ColorMode == "grayscale" {
		colorSpace = "DeviceGray"
	}

	maskDict := raw.Dict()
	maskDict.Set(raw.NameLiteral("Width"), raw.NumberInt(int64(out.Width)))
	maskDict.Set(raw.NameLiteral("Height"), raw.NumberInt(int64(out.Height)))
	maskDict.Set(raw.NameLiteral("BitsPerComponent"), raw.NumberInt(1))
	maskDict.Set(raw.NameLiteral("ColorSpace"), raw.NameLiteral("DeviceGray"))
	maskDict.Set(raw.NameLiteral("Filter"), raw.NameLiteral("JBIG2Decode"))
	maskDict.Set(raw.NameLiteral("Decode"), raw.NewArray(raw.NumberInt(1), raw.NumberInt(0)))
	maskRef := alloc.Alloc()
	doc.Objects[maskRef] = raw.NewStream(maskDict, out.MaskJbig2)

	bgDict := raw.Dict()
	bgDict.Set(raw.NameLiteral("Width"), raw.NumberInt(int64(out.Width)))
	bgDict.Set(raw.NameLiteral("Height"), raw.NumberInt(int64(out.Height)))
	bgDict.Set(raw.NameLiteral("BitsPerComponent"), raw.NumberInt(8))
	bgDict.Set(raw.NameLiteral("ColorSpace"), raw.NameLiteral(colorSpace))
	bgDict.Set(raw.NameLiteral("Filter"), raw.NameLiteral("DCTDecode"))
	addImageXObject(doc, page, alloc, "RedactBg", bgDict, out.BgJpeg)

	fgDict := raw.Dict()
	fgDict.Set(raw.NameLiteral("Width"), raw.NumberInt(int64(out.Width)))
	fgDict.Set(raw.NameLiteral("Height"), raw.NumberInt(int64(out.Height)))
	fgDict.Set(raw.NameLiteral("BitsPerComponent"), raw.NumberInt(8))
	fgDict.Set(raw.NameLiteral("ColorSpace"), raw.NameLiteral(colorSpace))
	fgDict.Set(raw.NameLiteral("Filter"), raw.NameLiteral("DCTDecode"))
	fgDict.Set(raw.NameLiteral("SMask"), raw.Ref(maskRef.Num, maskRef.Gen))
	addImageXObject(doc, page, alloc, "RedactFg", fgDict, out.FgJpeg)

	content := placementMatrix(mediaWidth, mediaHeight, 0, 0) + " cm\nq\n/RedactBg Do\nQ\nq\n" +
		placementMatrix(mediaWidth, mediaHeight, 0, 0) + " cm\n/RedactFg Do\nQ\n"
	setContentStream(doc, page, alloc, []byte(content))
	clearFontResources(doc, page)
	return nil
}

// ApplyBwMask installs the single-layer BW variant: one 1-bit JBIG2
// XObject filling the media box, Decode [1 0], /Font cleared.
func ApplyBwMask(doc *raw.Document, pageRef raw.ObjectRef, alloc *IDAllocator, out *cache.PageOutput, mediaWidth, mediaHeight float64) error {
	page, err := pageDict(doc, pageRef)
	if err != nil {
		return err
	}
	dict := raw.Dict()
	dict.Set(raw.NameLiteral("Width"), raw.NumberInt(int64(out.Width)))
	dict.Set(raw.NameLiteral("Height"), raw.NumberInt(int64(out.Height)))
	dict.Set(raw.NameLiteral("BitsPerComponent"), raw.NumberInt(1))
	dict.Set(raw.NameLiteral("ColorSpace"), raw.NameLiteral("DeviceGray"))
	dict.Set(raw.NameLiteral("Filter"), raw.NameLiteral("JBIG2Decode"))
	dict.Set(raw.NameLiteral("Decode"), raw.NewArray(raw.NumberInt(1), raw.NumberInt(0)))
	addImageXObject(doc, page, alloc, "RedactMask", dict, out.MaskJbig2)

	content := placementMatrix(mediaWidth, mediaHeight, 0, 0) + " cm\n/RedactMask Do\n"
	setContentStream(doc, page, alloc, []byte(content))
	clearFontResources(doc, page)
	return nil
}

// ApplySkip leaves the page untouched: for the single-input-document
// case this tool targets, the source page dictionary and its resource
// closure are already the output graph's page, so no clone is needed.
func ApplySkip(doc *raw.Document, pageRef raw.ObjectRef) error {
	if _, err := pageDict(doc, pageRef); err != nil {
		return err
	}
	return nil
}

func placementMatrix(w, h, tx, ty float64) string {
	return formatReal(w) + " 0 0 " + formatReal(h) + " " + formatReal(tx) + " " + formatReal(ty)
}
