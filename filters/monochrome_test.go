package filters

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMonochromeToNRGBAExpandsSetBitsToBlack(t *testing.T) {
	// 2x2 image, 1 byte/row stride, top-left and bottom-right bits set.
	data := []byte{0x80, 0x40}
	pix, err := MonochromeToNRGBA(2, 2, 1, data)
	require.NoError(t, err)
	require.Len(t, pix, 2*2*4)

	require.Equal(t, []byte{0, 0, 0, 255}, pix[0:4])     // (0,0) set -> black
	require.Equal(t, []byte{255, 255, 255, 255}, pix[4:8]) // (1,0) clear -> white
}

func TestMonochromeToNRGBARejectsInvalidDimensions(t *testing.T) {
	_, err := MonochromeToNRGBA(0, 10, 1, nil)
	require.Error(t, err)
}

func TestMonochromeToNRGBARejectsTruncatedData(t *testing.T) {
	_, err := MonochromeToNRGBA(8, 8, 1, []byte{0x00})
	require.Error(t, err)
}
