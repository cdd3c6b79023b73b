package cache

// Tag identifies which PageOutput variant an entry holds.
type Tag string

const (
	TagOutlines   Tag = "Outlines"
	TagTextMasked Tag = "TextMasked"
	TagMrc        Tag = "Mrc"
	TagBwMask     Tag = "BwMask"
	TagSkip       Tag = "Skip"
)

// ModifiedImage is a re-encoded image-XObject replacement produced by
// the image-XObject redactor, keyed by the source object's resource
// name within the page.
type ModifiedImage struct {
	Name      string
	Data      []byte
	Filter    string // "DCTDecode", "CCITTFaxDecode", "JBIG2Decode", "FlateDecode"
	ColorSpace string
	BitsPerComponent int
	Width, Height    int
}

// TextRegion is one JBIG2-encoded text-mask crop placed back onto the
// page by the writer's TextMasked output.
type TextRegion struct {
	Jbig2       []byte
	BBoxLLX     float64
	BBoxLLY     float64
	BBoxURX     float64
	BBoxURY     float64
	PixelWidth  int
	PixelHeight int
}

// PageOutput is a closed tagged union of per-page redaction results.
// Exactly one of the variant-specific field groups is populated,
// selected by Tag.
type PageOutput struct {
	Tag Tag

	// Outlines / TextMasked
	ContentStream   []byte
	ModifiedImages  []ModifiedImage

	// TextMasked
	TextRegions []TextRegion

	// Mrc
	MaskJbig2 []byte
	FgJpeg    []byte
	BgJpeg    []byte
	Width     int
	Height    int
	ColorMode string

	// BwMask reuses MaskJbig2/Width/Height above.

	// Skip
	PageIndex int
}
