package mrc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewBitmapAllWhite(t *testing.T) {
	bm := NewBitmap(9, 3)
	require.Equal(t, 2, bm.Stride) // (9+7)/8
	for y := 0; y < 3; y++ {
		for x := 0; x < 9; x++ {
			require.Equal(t, 0, bm.Get(x, y))
		}
	}
}

func TestBitmapSetAndGet(t *testing.T) {
	bm := NewBitmap(16, 4)
	bm.Set(0, 0, 1)
	bm.Set(15, 3, 1)
	require.Equal(t, 1, bm.Get(0, 0))
	require.Equal(t, 1, bm.Get(15, 3))
	require.Equal(t, 0, bm.Get(1, 0))
}

func TestBitmapSetClear(t *testing.T) {
	bm := NewBitmap(8, 1)
	bm.Set(3, 0, 1)
	require.Equal(t, 1, bm.Get(3, 0))
	bm.Set(3, 0, 0)
	require.Equal(t, 0, bm.Get(3, 0))
}

func TestBitmapGetOutOfBoundsReturnsZero(t *testing.T) {
	bm := NewBitmap(4, 4)
	require.Equal(t, 0, bm.Get(-1, 0))
	require.Equal(t, 0, bm.Get(0, -1))
	require.Equal(t, 0, bm.Get(4, 0))
	require.Equal(t, 0, bm.Get(0, 4))
}

func TestBitmapSetOutOfBoundsIsNoOp(t *testing.T) {
	bm := NewBitmap(4, 4)
	bm.Set(10, 10, 1) // must not panic
	require.Equal(t, 0, bm.Get(10%4, 10%4))
}
