package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveJobOverridesSettings(t *testing.T) {
	tru := true
	settings := Settings{ColorMode: ColorRGB, DPI: 300, FgDPI: 100, BgQuality: 50, FgQuality: 30, Linearize: &tru, PreserveImages: &tru}
	job := Job{DPI: 600, ColorMode: ColorBW}

	ec := Resolve(job, settings)
	require.Equal(t, uint32(600), ec.DPI)
	require.Equal(t, uint32(100), ec.FgDPI)
	require.Equal(t, ColorBW, ec.DefaultColor)
	require.True(t, ec.Linearize)
	require.True(t, ec.PreserveImages)
}

func TestResolveDefaultsToRGBWhenUnset(t *testing.T) {
	ec := Resolve(Job{}, Settings{})
	require.Equal(t, ColorRGB, ec.DefaultColor)
}

func TestResolveFalsePreserveImagesOverridesDefault(t *testing.T) {
	f := false
	ec := Resolve(Job{PreserveImages: &f}, Settings{})
	require.False(t, ec.PreserveImages)
}

func TestColorModeForPagePrefersExplicitLists(t *testing.T) {
	job := Job{SkipPages: []int{1}, BwPages: []int{2}, GrayscalePages: []int{3}, RgbPages: []int{4}}
	ec := EffectiveConfig{DefaultColor: ColorGrayscale}

	require.Equal(t, ColorSkip, ColorModeForPage(job, ec, 1))
	require.Equal(t, ColorBW, ColorModeForPage(job, ec, 2))
	require.Equal(t, ColorGrayscale, ColorModeForPage(job, ec, 3))
	require.Equal(t, ColorRGB, ColorModeForPage(job, ec, 4))
	require.Equal(t, ColorGrayscale, ColorModeForPage(job, ec, 5))
}
