package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStorePutGetOutlinesRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	key := "somekey"
	out := &PageOutput{
		Tag:           TagOutlines,
		ContentStream: []byte("q 1 0 0 1 0 0 cm Q"),
		ModifiedImages: []ModifiedImage{
			{Name: "Im0", Data: []byte{1, 2, 3}, Filter: "DCTDecode", ColorSpace: "DeviceGray", BitsPerComponent: 8, Width: 4, Height: 4},
		},
		PageIndex: 2,
	}
	require.NoError(t, s.Put(key, out))
	require.True(t, s.Has(key))

	got, ok, err := s.Get(key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, TagOutlines, got.Tag)
	require.Equal(t, out.ContentStream, got.ContentStream)
	require.Len(t, got.ModifiedImages, 1)
	require.Equal(t, []byte{1, 2, 3}, got.ModifiedImages[0].Data)
	require.Equal(t, 2, got.PageIndex)
}

func TestStorePutGetTextMaskedRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	key := "textmasked"
	out := &PageOutput{
		Tag:           TagTextMasked,
		ContentStream: []byte("1 0 0 1 0 0 cm"),
		TextRegions: []TextRegion{
			{Jbig2: []byte{9, 9}, BBoxLLX: 1, BBoxLLY: 2, BBoxURX: 3, BBoxURY: 4, PixelWidth: 10, PixelHeight: 20},
		},
	}
	require.NoError(t, s.Put(key, out))

	got, ok, err := s.Get(key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got.TextRegions, 1)
	require.Equal(t, []byte{9, 9}, got.TextRegions[0].Jbig2)
	require.Equal(t, 3.0, got.TextRegions[0].BBoxURX)
}

func TestStoreGetMissReturnsNotOkWithoutError(t *testing.T) {
	s := New(t.TempDir())
	got, ok, err := s.Get("missing")
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, got)
}

func TestStoreHasFalseForMissingKey(t *testing.T) {
	s := New(t.TempDir())
	require.False(t, s.Has("nope"))
}
