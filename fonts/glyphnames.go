package fonts

// glyphNames maps the Adobe Glyph List names that commonly appear in a
// PDF /Differences array to their Unicode code points. This is a
// practical subset (Latin punctuation and symbols), not the full AGL;
// an unrecognized name is simply not overridden, which degrades to the
// font's own cmap lookup via WinAnsi for that code.
var glyphNames = map[string]rune{
	"space": 0x0020, "exclam": 0x0021, "quotedbl": 0x0022, "numbersign": 0x0023,
	"dollar": 0x0024, "percent": 0x0025, "ampersand": 0x0026, "quotesingle": 0x0027,
	"parenleft": 0x0028, "parenright": 0x0029, "asterisk": 0x002A, "plus": 0x002B,
	"comma": 0x002C, "hyphen": 0x002D, "period": 0x002E, "slash": 0x002F,
	"colon": 0x003A, "semicolon": 0x003B, "less": 0x003C, "equal": 0x003D,
	"greater": 0x003E, "question": 0x003F, "at": 0x0040,
	"bracketleft": 0x005B, "backslash": 0x005C, "bracketright": 0x005D,
	"asciicircum": 0x005E, "underscore": 0x005F, "grave": 0x0060,
	"braceleft": 0x007B, "bar": 0x007C, "braceright": 0x007D, "asciitilde": 0x007E,
	"bullet": 0x2022, "quoteleft": 0x2018, "quoteright": 0x2019,
	"quotedblleft": 0x201C, "quotedblright": 0x201D, "quotesinglbase": 0x201A,
	"quotedblbase": 0x201E, "ellipsis": 0x2026, "endash": 0x2013, "emdash": 0x2014,
	"dagger": 0x2020, "daggerdbl": 0x2021, "perthousand": 0x2030,
	"guilsinglleft": 0x2039, "guilsinglright": 0x203A, "trademark": 0x2122,
	"Euro": 0x20AC, "florin": 0x0192, "circumflex": 0x02C6, "tilde": 0x02DC,
	"fi": 0xFB01, "fl": 0xFB02,
	"copyright": 0x00A9, "registered": 0x00AE, "degree": 0x00B0,
	"plusminus": 0x00B1, "mu": 0x00B5, "paragraph": 0x00B6, "periodcentered": 0x00B7,
	"onequarter": 0x00BC, "onehalf": 0x00BD, "threequarters": 0x00BE,
	"AE": 0x00C6, "ae": 0x00E6, "Oslash": 0x00D8, "oslash": 0x00F8,
	"germandbls": 0x00DF, "eth": 0x00F0, "thorn": 0x00FE,
}

// glyphNameToRune resolves a PDF glyph name to a Unicode code point.
// "uniXXXX" names (the AGL's numeric fallback convention) are decoded
// directly; letters A-Z/a-z map to themselves since their glyph names
// equal the character itself under the standard encodings this tool
// targets.
func glyphNameToRune(name string) (rune, bool) {
	if r, ok := glyphNames[name]; ok {
		return r, true
	}
	if len(name) == 1 {
		return rune(name[0]), true
	}
	if len(name) == 7 && name[:3] == "uni" {
		var v rune
		for _, c := range name[3:] {
			d, ok := hexDigit(byte(c))
			if !ok {
				return 0, false
			}
			v = v<<4 | rune(d)
		}
		return v, true
	}
	return 0, false
}

func hexDigit(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	}
	return 0, false
}
