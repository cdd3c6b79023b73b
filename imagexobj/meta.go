package imagexobj

import (
	"github.com/graylayer/pdfredact/ir/raw"
	"github.com/graylayer/pdfredact/perr"
)

// ReadMeta reads Width, Height, BitsPerComponent (default 8),
// ColorSpace (default "DeviceRGB") and the Filter chain from an image
// XObject's stream dictionary.
func ReadMeta(dict raw.Dictionary) (Meta, []string, error) {
	width, err := dictGetInt(dict, "Width")
	if err != nil {
		return Meta{}, nil, err
	}
	height, err := dictGetInt(dict, "Height")
	if err != nil {
		return Meta{}, nil, err
	}

	bpc := 8
	if _, ok := dict.Get(raw.NameLiteral("BitsPerComponent")); ok {
		bpc, err = dictGetInt(dict, "BitsPerComponent")
		if err != nil {
			return Meta{}, nil, err
		}
	}

	colorSpace := "DeviceRGB"
	if obj, ok := dict.Get(raw.NameLiteral("ColorSpace")); ok {
		if n, ok := obj.(raw.Name); ok {
			colorSpace = n.Value()
		}
	}

	var filterNames []string
	if obj, ok := dict.Get(raw.NameLiteral("Filter")); ok {
		switch v := obj.(type) {
		case raw.Name:
			filterNames = []string{v.Value()}
		case raw.Array:
			for i := 0; i < v.Len(); i++ {
				item, _ := v.Get(i)
				if n, ok := item.(raw.Name); ok {
					filterNames = append(filterNames, n.Value())
				}
			}
		}
	}

	meta := Meta{
		Width: width, Height: height, BitsPerComponent: bpc,
		ColorSpace: colorSpace,
	}
	if len(filterNames) > 0 {
		meta.Filter = filterNames[0]
	}
	return meta, filterNames, nil
}

func dictGetInt(dict raw.Dictionary, key string) (int, error) {
	obj, ok := dict.Get(raw.NameLiteral(key))
	if !ok {
		return 0, perr.ImageXObject(-1, nil, "missing required key %q", key)
	}
	n, ok := obj.(raw.Number)
	if !ok {
		return 0, perr.ImageXObject(-1, nil, "expected integer for %q", key)
	}
	v := n.Float()
	if v < 0 {
		return 0, perr.ImageXObject(-1, nil, "value out of range for %q: %v", key, v)
	}
	return int(v), nil
}
