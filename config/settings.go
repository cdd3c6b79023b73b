package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/graylayer/pdfredact/perr"
	"gopkg.in/yaml.v3"
)

// ColorMode is one of the four page-processing strategies.
type ColorMode string

const (
	ColorRGB       ColorMode = "rgb"
	ColorGrayscale ColorMode = "grayscale"
	ColorBW        ColorMode = "bw"
	ColorSkip      ColorMode = "skip"
)

// Settings is the optional sibling settings file. When PreserveImages
// is true (the default), the image-XObject optimizer re-encode pass is
// skipped; setting it to false lets the optimizer pick a smaller encoding
// at the cost of the original image's exact filter/fidelity.
type Settings struct {
	ColorMode       ColorMode `yaml:"color_mode" validate:"omitempty,oneof=rgb grayscale bw skip"`
	DPI             uint32    `yaml:"dpi" validate:"omitempty,min=1"`
	FgDPI           uint32    `yaml:"fg_dpi" validate:"omitempty,min=1"`
	BgQuality       uint8     `yaml:"bg_quality" validate:"omitempty,min=1,max=100"`
	FgQuality       uint8     `yaml:"fg_quality" validate:"omitempty,min=1,max=100"`
	ParallelWorkers int       `yaml:"parallel_workers" validate:"gte=0"`
	CacheDir        string    `yaml:"cache_dir"`
	PreserveImages  *bool     `yaml:"preserve_images"`
	Linearize       *bool     `yaml:"linearize"`
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() Settings {
	t := true
	return Settings{
		ColorMode:       ColorRGB,
		DPI:             300,
		FgDPI:           100,
		BgQuality:       50,
		FgQuality:       30,
		ParallelWorkers: 0,
		CacheDir:        ".cache",
		PreserveImages:  &t,
		Linearize:       &t,
	}
}

// LoadSettings reads and validates a settings YAML file. A missing file
// is not an error; the caller receives DefaultSettings().
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return Settings{}, perr.ConfigWrap(err, "reading settings file %s", path)
	}
	// Unmarshal into a fresh struct sharing the same defaults so unset
	// YAML keys keep their built-in default rather than zeroing out.
	parsed := s
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return Settings{}, perr.ConfigWrap(err, "parsing settings YAML %s", path)
	}
	if err := validator.New().Struct(&parsed); err != nil {
		return Settings{}, perr.ConfigWrap(err, "validating settings %s", path)
	}
	return parsed, nil
}
