package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/graylayer/pdfredact/perr"
)

// Store is a filesystem-backed cache keyed by SHA-256 hex string:
// <cache_dir>/<hex_sha256>/ holds metadata.json plus the
// variant-specific files.
type Store struct {
	Dir string
}

func New(dir string) *Store { return &Store{Dir: dir} }

func (s *Store) keyDir(key string) string { return filepath.Join(s.Dir, key) }

// metadata is the JSON shape written to metadata.json: the PageOutput
// tag, dimensions, BBoxes, and color mode.
type metadata struct {
	Tag        Tag          `json:"tag"`
	Width      int          `json:"width,omitempty"`
	Height     int          `json:"height,omitempty"`
	ColorMode  string       `json:"color_mode,omitempty"`
	PageIndex  int          `json:"page_index,omitempty"`
	NumRegions int          `json:"num_regions,omitempty"`
	Regions    []TextRegion `json:"regions,omitempty"`
	Images     []ModifiedImage `json:"images,omitempty"`
}

// Has reports whether key exists in the cache, without reading it.
func (s *Store) Has(key string) bool {
	_, err := os.Stat(s.keyDir(key))
	return err == nil
}

// Get retrieves a previously stored PageOutput. ok is false on a cache
// miss; a genuine I/O error beyond "not found" is returned as a
// CacheError.
func (s *Store) Get(key string) (out *PageOutput, ok bool, err error) {
	dir := s.keyDir(key)
	metaBytes, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, perr.Cache(err, "reading metadata for key %s", key)
	}
	var m metadata
	if err := json.Unmarshal(metaBytes, &m); err != nil {
		return nil, false, perr.Cache(err, "parsing metadata for key %s", key)
	}

	po := &PageOutput{Tag: m.Tag, Width: m.Width, Height: m.Height, ColorMode: m.ColorMode, PageIndex: m.PageIndex, TextRegions: m.Regions, ModifiedImages: m.Images}

	readIfPresent := func(name string) ([]byte, error) {
		p := filepath.Join(dir, name)
		b, err := os.ReadFile(p)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, nil
			}
			return nil, err
		}
		return b, nil
	}

	switch m.Tag {
	case TagOutlines:
		if po.ContentStream, err = readIfPresent("stripped_content.bin"); err != nil {
			return nil, false, perr.Cache(err, "reading content stream for key %s", key)
		}
	case TagTextMasked:
		if po.ContentStream, err = readIfPresent("stripped_content.bin"); err != nil {
			return nil, false, perr.Cache(err, "reading content stream for key %s", key)
		}
		for i := range po.TextRegions {
			name := regionFileName(i)
			if po.TextRegions[i].Jbig2, err = readIfPresent(name); err != nil {
				return nil, false, perr.Cache(err, "reading %s for key %s", name, key)
			}
		}
	case TagMrc:
		if po.MaskJbig2, err = readIfPresent("mask.jbig2"); err != nil {
			return nil, false, perr.Cache(err, "reading mask.jbig2 for key %s", key)
		}
		if po.FgJpeg, err = readIfPresent("foreground.jpg"); err != nil {
			return nil, false, perr.Cache(err, "reading foreground.jpg for key %s", key)
		}
		if po.BgJpeg, err = readIfPresent("background.jpg"); err != nil {
			return nil, false, perr.Cache(err, "reading background.jpg for key %s", key)
		}
	case TagBwMask:
		if po.MaskJbig2, err = readIfPresent("mask.jbig2"); err != nil {
			return nil, false, perr.Cache(err, "reading mask.jbig2 for key %s", key)
		}
	case TagSkip:
		// no payload files; page index is enough to replay a skip.
	}

	for i := range po.ModifiedImages {
		name := imageFileName(po.ModifiedImages[i].Name, po.ModifiedImages[i].Filter)
		data, err := readIfPresent(name)
		if err != nil {
			return nil, false, perr.Cache(err, "reading %s for key %s", name, key)
		}
		po.ModifiedImages[i].Data = data
	}

	return po, true, nil
}

// Put writes a PageOutput to the cache atomically: each file is written
// to a temp path in the same directory and renamed into place, so a
// crash mid-write never leaves a partially-written entry visible to a
// later Get.
func (s *Store) Put(key string, out *PageOutput) error {
	dir := s.keyDir(key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return perr.Cache(err, "creating cache dir for key %s", key)
	}

	write := func(name string, data []byte) error {
		if data == nil {
			return nil
		}
		return atomicWrite(filepath.Join(dir, name), data)
	}

	switch out.Tag {
	case TagOutlines:
		if err := write("stripped_content.bin", out.ContentStream); err != nil {
			return perr.Cache(err, "writing content stream for key %s", key)
		}
	case TagTextMasked:
		if err := write("stripped_content.bin", out.ContentStream); err != nil {
			return perr.Cache(err, "writing content stream for key %s", key)
		}
		for i, r := range out.TextRegions {
			if err := write(regionFileName(i), r.Jbig2); err != nil {
				return perr.Cache(err, "writing region %d for key %s", i, key)
			}
		}
	case TagMrc:
		if err := write("mask.jbig2", out.MaskJbig2); err != nil {
			return err
		}
		if err := write("foreground.jpg", out.FgJpeg); err != nil {
			return err
		}
		if err := write("background.jpg", out.BgJpeg); err != nil {
			return err
		}
	case TagBwMask:
		if err := write("mask.jbig2", out.MaskJbig2); err != nil {
			return err
		}
	case TagSkip:
		// nothing to persist beyond metadata.
	}

	for _, img := range out.ModifiedImages {
		if err := write(imageFileName(img.Name, img.Filter), img.Data); err != nil {
			return perr.Cache(err, "writing image %s for key %s", img.Name, key)
		}
	}

	m := metadata{
		Tag: out.Tag, Width: out.Width, Height: out.Height, ColorMode: out.ColorMode,
		PageIndex: out.PageIndex, NumRegions: len(out.TextRegions), Regions: out.TextRegions, Images: out.ModifiedImages,
	}
	metaBytes, err := json.Marshal(m)
	if err != nil {
		return perr.Cache(err, "encoding metadata for key %s", key)
	}
	if err := atomicWrite(filepath.Join(dir, "metadata.json"), metaBytes); err != nil {
		return perr.Cache(err, "writing metadata for key %s", key)
	}
	return nil
}

func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func regionFileName(i int) string { return "region_" + strconv.Itoa(i) + ".jbig2" }

func imageFileName(name, filter string) string {
	ext := "bin"
	switch filter {
	case "DCTDecode":
		ext = "jpg"
	case "JBIG2Decode":
		ext = "jbig2"
	case "CCITTFaxDecode":
		ext = "ccitt"
	case "FlateDecode":
		ext = "flate"
	}
	return "image_" + name + "." + ext
}
