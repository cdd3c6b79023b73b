package mrc

// mqEncoder implements the MQ binary arithmetic encoder defined in
// ITU-T T.88 Annex E (the same coder JBIG2 and JPEG2000 share). State
// transitions use the standard 47-entry Qe probability-estimation
// table; there is no reference Go encoder in the pack to ground this
// on, so it is authored directly from the published algorithm.
type mqEncoder struct {
	out    []byte
	c      uint32
	a      uint32
	ct     int
	b      byte
	bFirst bool
}

type qeEntry struct {
	qe       uint32
	nmps     uint8
	nlps     uint8
	switchFl uint8
}

var qeTable = [47]qeEntry{
	{0x5601, 1, 1, 1}, {0x3401, 2, 6, 0}, {0x1801, 3, 9, 0}, {0x0AC1, 4, 12, 0},
	{0x0521, 5, 29, 0}, {0x0221, 38, 33, 0}, {0x5601, 7, 6, 1}, {0x5401, 8, 14, 0},
	{0x4801, 9, 14, 0}, {0x3801, 10, 14, 0}, {0x3001, 11, 17, 0}, {0x2401, 12, 18, 0},
	{0x1C01, 13, 20, 0}, {0x1601, 29, 21, 0}, {0x5601, 15, 14, 1}, {0x5401, 16, 14, 0},
	{0x5101, 17, 15, 0}, {0x4801, 18, 16, 0}, {0x3801, 19, 17, 0}, {0x3401, 20, 18, 0},
	{0x3001, 21, 19, 0}, {0x2801, 22, 19, 0}, {0x2401, 23, 20, 0}, {0x2201, 24, 21, 0},
	{0x1C01, 25, 22, 0}, {0x1801, 26, 23, 0}, {0x1601, 27, 24, 0}, {0x1401, 28, 25, 0},
	{0x1201, 29, 26, 0}, {0x1101, 30, 27, 0}, {0x0AC1, 31, 28, 0}, {0x09C1, 32, 29, 0},
	{0x08A1, 33, 30, 0}, {0x0521, 34, 31, 0}, {0x0441, 35, 32, 0}, {0x02A1, 36, 33, 0},
	{0x0221, 37, 34, 0}, {0x0141, 38, 35, 0}, {0x0111, 39, 36, 0}, {0x0085, 40, 37, 0},
	{0x0049, 41, 38, 0}, {0x0025, 42, 39, 0}, {0x0015, 43, 40, 0}, {0x0009, 44, 41, 0},
	{0x0005, 45, 42, 0}, {0x0001, 45, 43, 0}, {0x5601, 46, 46, 0},
}

// cx is one adaptive binary arithmetic-coding context: a probability
// state index and its current MPS (more-probable-symbol) value.
type cx struct {
	index uint8
	mps   uint8
}

func newMQEncoder() *mqEncoder {
	return &mqEncoder{a: 0x8000, ct: 12, bFirst: true}
}

func (e *mqEncoder) byteOut() {
	if e.b == 0xFF {
		if (e.c >> 19) > 0xFF800000>>19 { // carry check mirrors spec's BP overflow test
			e.ct = 7
		} else {
			e.emit(e.b)
			e.b = byte(e.c >> 20)
			e.c &= 0xFFFFF
			e.ct = 7
		}
	} else {
		if e.c&0x8000000 != 0 {
			e.b++
			if e.b == 0xFF {
				e.c &= 0x7FFFFFF
				e.emit(e.b)
				e.b = byte(e.c >> 20)
				e.c &= 0xFFFFF
				e.ct = 7
				return
			}
		}
		e.emit(e.b)
		e.b = byte(e.c >> 20)
		e.c &= 0xFFFFF
		e.ct = 8
	}
}

func (e *mqEncoder) emit(b byte) {
	if !e.bFirst {
		e.out = append(e.out, b)
	}
	e.bFirst = false
}

func (e *mqEncoder) encodeBit(ctx *cx, bit int) {
	qe := qeTable[ctx.index]
	if bit == int(ctx.mps) {
		e.a -= qe.qe
		if e.a&0x8000 == 0 {
			if e.a < qe.qe {
				e.a = qe.qe
			} else {
				e.c += e.a
				e.a = qe.qe
			}
			ctx.index = qe.nmps
			e.renorm()
		} else {
			e.c += e.a
		}
	} else {
		if e.a < qe.qe {
			e.c += e.a
			e.a = qe.qe
		} else {
			e.a = qe.qe
		}
		if qe.switchFl == 1 {
			ctx.mps = 1 - ctx.mps
		}
		ctx.index = qe.nlps
		e.renorm()
	}
}

func (e *mqEncoder) renorm() {
	for {
		if e.ct == 0 {
			e.byteOut()
		}
		e.a <<= 1
		e.c <<= 1
		e.ct--
		if e.a&0x8000 != 0 {
			break
		}
	}
}

// flush terminates the bitstream per the MQ-coder's INITENC/FLUSH
// procedure and returns the encoded byte sequence.
func (e *mqEncoder) flush() []byte {
	tmp := e.c + e.a
	e.c |= 0xFFFF
	if e.c >= tmp {
		e.c -= 0x8000
	}
	e.c <<= 7
	e.ct -= 7
	e.byteOut()
	e.c <<= 7
	e.ct -= 7
	e.byteOut()
	if e.b != 0xFF {
		e.emit(e.b)
	}
	return e.out
}
