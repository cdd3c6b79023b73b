// Package outline converts PDF text-showing operators into equivalent
// filled path geometry, so that rendered glyph shapes survive while the
// underlying character codes do not.
package outline

// winAnsiHighRunes holds the WinAnsiEncoding code points for byte values
// 0x80-0x9F, the range where WinAnsi diverges from Latin-1. Bytes outside
// this range map directly to the same Unicode code point as their byte
// value (ASCII and Latin-1 supplement).
var winAnsiHighRunes = map[byte]rune{
	0x80: 0x20AC, 0x82: 0x201A, 0x83: 0x0192, 0x84: 0x201E,
	0x85: 0x2026, 0x86: 0x2020, 0x87: 0x2021, 0x88: 0x02C6,
	0x89: 0x2030, 0x8A: 0x0160, 0x8B: 0x2039, 0x8C: 0x0152,
	0x8E: 0x017D, 0x91: 0x2018, 0x92: 0x2019, 0x93: 0x201C,
	0x94: 0x201D, 0x95: 0x2022, 0x96: 0x2013, 0x97: 0x2014,
	0x98: 0x02DC, 0x99: 0x2122, 0x9A: 0x0161, 0x9B: 0x203A,
	0x9C: 0x0153, 0x9E: 0x017E, 0x9F: 0x0178,
}

// WinAnsiToRune decodes a single WinAnsiEncoding byte into the Unicode
// code point it represents.
func WinAnsiToRune(b byte) rune {
	if b >= 0x80 && b <= 0x9F {
		if r, ok := winAnsiHighRunes[b]; ok {
			return r
		}
	}
	return rune(b)
}

// Encoding identifies how character codes in a Tj/TJ string map to glyphs.
type Encoding int

const (
	EncodingWinAnsi Encoding = iota
	EncodingIdentityH
)

// FontProgram is the minimum information needed to convert shown text
// into glyph outlines: a parsed TrueType program, its declared encoding,
// and any single-byte code substitutions from a /Differences array.
type FontProgram struct {
	Glyphs      GlyphSource
	Encoding    Encoding
	Differences map[int]rune // WinAnsi code -> overriding Unicode rune
	UnitsPerEm  float64
}

// GlyphSource abstracts glyph outline/advance lookup so this package does
// not need to import the concrete sfnt glyph index type directly.
type GlyphSource interface {
	GlyphIndexForRune(r rune) (gid uint16, ok bool)
	NumGlyphs() int
	OutlineByGID(gid uint16) ([]Segment, error)
	AdvanceByGID(gid uint16) (float64, error)
}

// DecodeCodes splits a shown string into character codes according to the
// font's encoding: one byte per code for WinAnsi, two big-endian bytes per
// code (CID) for Identity-H.
func (fp *FontProgram) DecodeCodes(s []byte) []int {
	if fp.Encoding == EncodingIdentityH {
		codes := make([]int, 0, len(s)/2)
		for i := 0; i+1 < len(s); i += 2 {
			codes = append(codes, int(s[i])<<8|int(s[i+1]))
		}
		return codes
	}
	codes := make([]int, len(s))
	for i, b := range s {
		codes[i] = int(b)
	}
	return codes
}

// GlyphIndexForCode resolves a character code to a glyph index: CIDs map
// directly to glyph indices under Identity-H, while WinAnsi codes resolve
// through Differences (if overridden) or the WinAnsi table into a rune
// and then the font's cmap.
func (fp *FontProgram) GlyphIndexForCode(code int) (uint16, bool) {
	if fp.Encoding == EncodingIdentityH {
		gid := uint16(code)
		if int(gid) < fp.Glyphs.NumGlyphs() {
			return gid, true
		}
		return 0, false
	}
	r, ok := fp.Differences[code]
	if !ok {
		r = WinAnsiToRune(byte(code))
	}
	return fp.Glyphs.GlyphIndexForRune(r)
}
