package mrc

import (
	"encoding/binary"

	"github.com/graylayer/pdfredact/perr"
)

// EncodeGeneric JBIG2-encodes a 1-bit bitmap as a standalone embedded
// segment sequence (page-info segment + one immediate lossless generic
// region segment), the organization PDF's JBIG2Decode filter expects
// (no JBIG2 file header, no end-of-page/end-of-file segments needed for
// a single-region page). Template 0, no typical-prediction, the default
// AT pixel offsets — grounded on RegionInfo's field layout in the pack's
// JBIG2 decoder (jdeng-gojbig2) and the generic-region coding procedure
// of ITU-T T.88 §6.2.
func EncodeGeneric(bm *Bitmap) ([]byte, error) {
	if bm.Width <= 0 || bm.Height <= 0 {
		return nil, perr.Jbig2Encode(-1, nil, "empty bitmap")
	}

	var out []byte
	out = append(out, encodePageInfoSegment(0, bm.Width, bm.Height)...)
	regionData, err := encodeGenericRegionData(bm)
	if err != nil {
		return nil, err
	}
	out = append(out, encodeSegmentHeader(1, segTypeImmediateLosslessGenericRegion, len(regionData))...)
	out = append(out, regionData...)
	return out, nil
}

const (
	segTypePageInfo                       = 48
	segTypeImmediateGenericRegion         = 38
	segTypeImmediateLosslessGenericRegion = 39
)

func encodeSegmentHeader(segNum uint32, segType byte, dataLen int) []byte {
	var h []byte
	var num [4]byte
	binary.BigEndian.PutUint32(num[:], segNum)
	h = append(h, num[:]...)
	h = append(h, segType&0x3F) // flags: page-association-size=0 (1 byte), not deferred
	h = append(h, 0x00)         // referred-to segment count (top 3 bits=0) and retention flags
	h = append(h, 0x01)         // page association: page 1
	var ln [4]byte
	binary.BigEndian.PutUint32(ln[:], uint32(dataLen))
	h = append(h, ln[:]...)
	return h
}

func encodePageInfoSegment(segNum uint32, width, height int) []byte {
	data := make([]byte, 19)
	binary.BigEndian.PutUint32(data[0:4], uint32(width))
	binary.BigEndian.PutUint32(data[4:8], uint32(height))
	binary.BigEndian.PutUint32(data[8:12], 0)  // X resolution unknown
	binary.BigEndian.PutUint32(data[12:16], 0) // Y resolution unknown
	data[16] = 0x00                            // flags: default pixel value 0 (white)
	data[17] = 0x00                            // striping info
	data[18] = 0x00
	header := encodeSegmentHeader(segNum, segTypePageInfo, len(data))
	return append(header, data...)
}

// int8ToByte converts a signed AT pixel offset to its two's-complement
// byte representation.
func int8ToByte(v int8) byte {
	return byte(v)
}

func encodeGenericRegionData(bm *Bitmap) ([]byte, error) {
	var data []byte

	// Region segment information field (17 bytes).
	info := make([]byte, 17)
	binary.BigEndian.PutUint32(info[0:4], uint32(bm.Width))
	binary.BigEndian.PutUint32(info[4:8], uint32(bm.Height))
	binary.BigEndian.PutUint32(info[8:12], 0)
	binary.BigEndian.PutUint32(info[12:16], 0)
	info[16] = 0x00 // combination operator: OR
	data = append(data, info...)

	// Generic region segment flags: MMR=0 (arithmetic), GBTEMPLATE=0, TPGDON=0.
	data = append(data, 0x00)

	// Default AT pixel offsets for template 0.
	data = append(data, int8ToByte(3), int8ToByte(-1))
	data = append(data, int8ToByte(-3), int8ToByte(-1))
	data = append(data, int8ToByte(2), int8ToByte(-2))
	data = append(data, int8ToByte(-2), int8ToByte(-2))

	coded := encodeGenericBitmapTemplate0(bm)
	data = append(data, coded...)
	return data, nil
}

// encodeGenericBitmapTemplate0 arithmetic-codes bm's pixels using the
// 16-context GBTEMPLATE=0 neighborhood (ITU-T T.88 Figure 7), with the
// default adaptive-template pixel positions.
func encodeGenericBitmapTemplate0(bm *Bitmap) []byte {
	enc := newMQEncoder()
	contexts := make([]cx, 1<<16)

	for y := 0; y < bm.Height; y++ {
		for x := 0; x < bm.Width; x++ {
			ctxVal := genericContextTemplate0(bm, x, y)
			bit := bm.Get(x, y)
			enc.encodeBit(&contexts[ctxVal], bit)
		}
	}
	return enc.flush()
}

// genericContextTemplate0 builds the 16-bit context value from the row
// above, the row two above, and already-coded pixels in the current
// row, in the fixed bit order the template prescribes, using the
// default AT pixel offsets (3,-1), (-3,-1), (2,-2), (-2,-2).
func genericContextTemplate0(bm *Bitmap, x, y int) int {
	ctxVal := 0
	push := func(v int) { ctxVal = (ctxVal << 1) | v }

	push(bm.Get(x-1, y-2))
	push(bm.Get(x, y-2))
	push(bm.Get(x+1, y-2))
	push(bm.Get(x-2, y-1))
	push(bm.Get(x-1, y-1))
	push(bm.Get(x, y-1))
	push(bm.Get(x+1, y-1))
	push(bm.Get(x+2, y-1))
	push(bm.Get(x-4, y))
	push(bm.Get(x-3, y))
	push(bm.Get(x-2, y))
	push(bm.Get(x-1, y))
	push(bm.Get(x+3, y-1))  // AT1 default (3,-1)
	push(bm.Get(x-3, y-1))  // AT2 default (-3,-1)
	push(bm.Get(x+2, y-2))  // AT3 default (2,-2)
	push(bm.Get(x-2, y-2))  // AT4 default (-2,-2)

	return ctxVal
}
