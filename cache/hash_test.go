package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyIsDeterministicAndFieldOrderIndependent(t *testing.T) {
	content := []byte("BT /F1 12 Tf (hi) Tj ET")
	a := Settings{BgQuality: 50, ColorMode: "rgb", DPI: 300, FgDPI: 100, FgQuality: 30}
	b := Settings{FgQuality: 30, FgDPI: 100, DPI: 300, ColorMode: "rgb", BgQuality: 50}

	require.Equal(t, Key(content, a), Key(content, b))
}

func TestKeyChangesWithContentOrSettings(t *testing.T) {
	settings := Settings{BgQuality: 50, ColorMode: "rgb", DPI: 300, FgDPI: 100, FgQuality: 30}
	k1 := Key([]byte("one"), settings)
	k2 := Key([]byte("two"), settings)
	require.NotEqual(t, k1, k2)

	k3 := Key([]byte("one"), Settings{BgQuality: 90, ColorMode: "rgb", DPI: 300, FgDPI: 100, FgQuality: 30})
	require.NotEqual(t, k1, k3)
}
