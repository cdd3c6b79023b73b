package fonts

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGlyphNameToRuneKnownName(t *testing.T) {
	r, ok := glyphNameToRune("bullet")
	require.True(t, ok)
	require.Equal(t, rune(0x2022), r)
}

func TestGlyphNameToRuneSingleLetter(t *testing.T) {
	r, ok := glyphNameToRune("A")
	require.True(t, ok)
	require.Equal(t, rune('A'), r)
}

func TestGlyphNameToRuneUniPrefix(t *testing.T) {
	r, ok := glyphNameToRune("uni20AC")
	require.True(t, ok)
	require.Equal(t, rune(0x20AC), r)
}

func TestGlyphNameToRuneUniPrefixLowercaseHexFails(t *testing.T) {
	_, ok := glyphNameToRune("uni20ac")
	require.False(t, ok)
}

func TestGlyphNameToRuneUnknownMultiCharName(t *testing.T) {
	_, ok := glyphNameToRune("notarealglyphname")
	require.False(t, ok)
}
