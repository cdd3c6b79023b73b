package fonts

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// OpenTypeTable represents an entry in the OpenType table directory.
type OpenTypeTable struct {
	Tag      string
	CheckSum uint32
	Offset   uint32
	Length   uint32
}

// HasOutlines reports whether a FontFile2/FontFile3 program contains glyph
// outlines this package knows how to extract (TrueType glyf contours), and
// whether the program is CFF/CID-keyed. Callers use this to decide between
// the outline-conversion path and the MRC fallback: CFF and Type1 programs
// are detected but not walked for outlines, matching scope of the original
// TrueType-only glyph extractor this package is grounded on.
func HasOutlines(data []byte) (isTrueType, isCFF, isCID bool) {
	tables, err := ParseOpenTypeTableDirectory(data)
	if err != nil {
		return false, false, false
	}
	if cffTable, ok := tables["CFF "]; ok {
		isCFF = true
		if cffData, err := ExtractTable(data, cffTable); err == nil {
			if cid, err := IsCIDKeyedCFF(cffData); err == nil && cid {
				isCID = true
			}
		}
		return false, isCFF, isCID
	}
	_, hasGlyf := tables["glyf"]
	return hasGlyf, false, false
}

// ParseOpenTypeTableDirectory parses the header and table directory of an OpenType/TrueType font.
func ParseOpenTypeTableDirectory(data []byte) (map[string]OpenTypeTable, error) {
	r := bytes.NewReader(data)

	var scalerType uint32
	if err := binary.Read(r, binary.BigEndian, &scalerType); err != nil {
		return nil, err
	}
	// 0x00010000 for TrueType, 'OTTO' for CFF-flavored OpenType; both accepted.

	var numTables uint16
	if err := binary.Read(r, binary.BigEndian, &numTables); err != nil {
		return nil, err
	}
	if _, err := r.Seek(6, io.SeekCurrent); err != nil {
		return nil, err
	}

	tables := make(map[string]OpenTypeTable)
	for i := 0; i < int(numTables); i++ {
		var tag [4]byte
		if _, err := io.ReadFull(r, tag[:]); err != nil {
			return nil, err
		}
		var checkSum, offset, length uint32
		if err := binary.Read(r, binary.BigEndian, &checkSum); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.BigEndian, &offset); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.BigEndian, &length); err != nil {
			return nil, err
		}
		tables[string(tag[:])] = OpenTypeTable{Tag: string(tag[:]), CheckSum: checkSum, Offset: offset, Length: length}
	}
	return tables, nil
}

// ExtractTable returns the raw data of a specific table.
func ExtractTable(data []byte, table OpenTypeTable) ([]byte, error) {
	if int(table.Offset+table.Length) > len(data) {
		return nil, fmt.Errorf("table %s out of bounds", table.Tag)
	}
	return data[table.Offset : table.Offset+table.Length], nil
}
