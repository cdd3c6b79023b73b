package config

// EffectiveConfig is the fully resolved per-job configuration: job-level
// fields override settings-file fields, which override built-in
// defaults, collapsed into one struct so the pipeline never has to
// repeat the three-way fallback (grounded on original_source's
// config/merged.rs).
type EffectiveConfig struct {
	DPI             uint32
	FgDPI           uint32
	BgQuality       uint8
	FgQuality       uint8
	ParallelWorkers int
	CacheDir        string
	PreserveImages  bool
	Linearize       bool
	DefaultColor    ColorMode
}

// Resolve merges a Job against Settings (which itself already carries
// built-in defaults for any key missing from the settings file).
func Resolve(job Job, settings Settings) EffectiveConfig {
	ec := EffectiveConfig{
		DPI:             settings.DPI,
		FgDPI:           settings.FgDPI,
		BgQuality:       settings.BgQuality,
		FgQuality:       settings.FgQuality,
		ParallelWorkers: settings.ParallelWorkers,
		CacheDir:        settings.CacheDir,
		PreserveImages:  settings.PreserveImages == nil || *settings.PreserveImages,
		Linearize:       settings.Linearize == nil || *settings.Linearize,
		DefaultColor:    settings.ColorMode,
	}
	if job.DPI != 0 {
		ec.DPI = job.DPI
	}
	if job.BgQuality != 0 {
		ec.BgQuality = job.BgQuality
	}
	if job.FgQuality != 0 {
		ec.FgQuality = job.FgQuality
	}
	if job.ColorMode != "" {
		ec.DefaultColor = job.ColorMode
	}
	if job.Linearize != nil {
		ec.Linearize = *job.Linearize
	}
	if job.PreserveImages != nil {
		ec.PreserveImages = *job.PreserveImages
	}
	if ec.DefaultColor == "" {
		ec.DefaultColor = ColorRGB
	}
	return ec
}

// ColorModeForPage returns the strategy a specific 1-based page number
// uses: an explicit per-list membership wins over the job/settings
// default.
func ColorModeForPage(job Job, ec EffectiveConfig, page int) ColorMode {
	switch {
	case contains(job.SkipPages, page):
		return ColorSkip
	case contains(job.BwPages, page):
		return ColorBW
	case contains(job.GrayscalePages, page):
		return ColorGrayscale
	case contains(job.RgbPages, page):
		return ColorRGB
	default:
		return ec.DefaultColor
	}
}

func contains(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
