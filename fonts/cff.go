package fonts

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// rosOperator is the Top DICT operator number for ROS (Registry-Ordering-
// Supplement); its presence marks a CFF program as CID-keyed.
const rosOperator = 1230

// IsCIDKeyedCFF reports whether a bare CFF table (as embedded in an
// OpenType FontFile3) declares itself CID-keyed via a ROS entry in its
// first Top DICT. Only enough of the CFF structure is walked to reach
// that DICT: the Name INDEX is skipped over, never decoded into strings,
// since nothing here needs font names.
func IsCIDKeyedCFF(data []byte) (bool, error) {
	r := bytes.NewReader(data)

	var hdr struct {
		Major, Minor, HdrSize, OffSize uint8
	}
	if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
		return false, err
	}
	if _, err := r.Seek(int64(hdr.HdrSize), io.SeekStart); err != nil {
		return false, err
	}

	if _, err := skipIndex(r); err != nil {
		return false, fmt.Errorf("skip name index: %w", err)
	}

	topDictData, err := readIndex(r)
	if err != nil {
		return false, fmt.Errorf("read top dict index: %w", err)
	}
	if len(topDictData) == 0 {
		return false, nil
	}

	dict, err := parseDictOperators(topDictData[0])
	if err != nil {
		return false, fmt.Errorf("parse top dict: %w", err)
	}
	_, hasROS := dict[rosOperator]
	return hasROS, nil
}

// skipIndex advances r past one CFF INDEX structure without retaining its
// item bytes.
func skipIndex(r *bytes.Reader) (int, error) {
	items, err := readIndex(r)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

func readIndex(r *bytes.Reader) ([][]byte, error) {
	var count uint16
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	offSize, err := r.ReadByte()
	if err != nil {
		return nil, err
	}

	offsets := make([]int, count+1)
	for i := 0; i <= int(count); i++ {
		off, err := readOffset(r, int(offSize))
		if err != nil {
			return nil, err
		}
		offsets[i] = off
	}

	totalSize := offsets[count] - 1 // offsets are 1-based relative to data start

	data := make([]byte, totalSize)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}

	items := make([][]byte, count)
	for i := 0; i < int(count); i++ {
		start := offsets[i] - 1
		end := offsets[i+1] - 1
		if start < 0 || end > len(data) || start > end {
			return nil, fmt.Errorf("invalid index offsets")
		}
		items[i] = data[start:end]
	}

	return items, nil
}

func readOffset(r io.Reader, size int) (int, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[4-size:]); err != nil {
		return 0, err
	}
	return int(binary.BigEndian.Uint32(buf[:])), nil
}

// parseDictOperators decodes a CFF DICT into a map from operator number
// to its operand count; IsCIDKeyedCFF only needs to know an operator was
// present, not the operand values, but the operand bytes still have to
// be walked correctly to find the operator boundaries.
func parseDictOperators(data []byte) (map[int]int, error) {
	dict := make(map[int]int)
	operandCount := 0

	r := bytes.NewReader(data)
	for {
		b, err := r.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch {
		case b <= 21:
			op := int(b)
			if b == 12 {
				b2, err := r.ReadByte()
				if err != nil {
					return nil, err
				}
				op = 1200 + int(b2)
			}
			dict[op] = operandCount
			operandCount = 0
		case b == 28 || b == 29 || (b >= 32 && b <= 254):
			r.UnreadByte()
			if _, err := readInteger(r); err != nil {
				return nil, err
			}
			operandCount++
		case b == 30:
			if err := skipReal(r); err != nil {
				return nil, err
			}
			operandCount++
		default:
			// reserved operand-type byte; no known encoding uses it.
		}
	}
	return dict, nil
}

func skipReal(r *bytes.Reader) error {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return err
		}
		if b&0x0f == 0xf || b>>4 == 0xf {
			return nil
		}
	}
}

func readInteger(r *bytes.Reader) (int, error) {
	b0, err := r.ReadByte()
	if err != nil {
		return 0, err
	}

	switch {
	case b0 >= 32 && b0 <= 246:
		return int(b0) - 139, nil
	case b0 >= 247 && b0 <= 250:
		b1, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		return (int(b0)-247)*256 + int(b1) + 108, nil
	case b0 >= 251 && b0 <= 254:
		b1, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		return -(int(b0)-251)*256 - int(b1) - 108, nil
	case b0 == 28:
		var val int16
		if err := binary.Read(r, binary.BigEndian, &val); err != nil {
			return 0, err
		}
		return int(val), nil
	case b0 == 29:
		var val int32
		if err := binary.Read(r, binary.BigEndian, &val); err != nil {
			return 0, err
		}
		return int(val), nil
	}
	return 0, fmt.Errorf("invalid integer prefix: %d", b0)
}
