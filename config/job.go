package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/graylayer/pdfredact/perr"
	"gopkg.in/yaml.v3"
)

// rawJob mirrors the YAML shape of a single job entry before page lists
// are expanded and validated.
type rawJob struct {
	Input          string        `yaml:"input" validate:"required"`
	Output         string        `yaml:"output" validate:"required"`
	ColorMode      ColorMode     `yaml:"color_mode" validate:"omitempty,oneof=rgb grayscale bw skip"`
	BwPages        []any         `yaml:"bw_pages"`
	GrayscalePages []any         `yaml:"grayscale_pages"`
	RgbPages       []any         `yaml:"rgb_pages"`
	SkipPages      []any         `yaml:"skip_pages"`
	DPI            uint32        `yaml:"dpi" validate:"omitempty,min=1"`
	BgQuality      uint8         `yaml:"bg_quality" validate:"omitempty,min=1,max=100"`
	FgQuality      uint8         `yaml:"fg_quality" validate:"omitempty,min=1,max=100"`
	Linearize      *bool         `yaml:"linearize"`
	PreserveImages *bool         `yaml:"preserve_images"`
}

type rawJobFile struct {
	Jobs []rawJob `yaml:"jobs"`
}

// Job is a fully parsed job entry: page lists expanded, overlap
// checked, ready for merging against Settings.
type Job struct {
	Input          string
	Output         string
	ColorMode      ColorMode
	BwPages        []int
	GrayscalePages []int
	RgbPages       []int
	SkipPages      []int
	DPI            uint32
	BgQuality      uint8
	FgQuality      uint8
	Linearize      *bool
	PreserveImages *bool
}

// LoadJobFile parses and validates a job file, expanding every page
// list and rejecting any page number claimed by more than one list.
func LoadJobFile(path string) ([]Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, perr.ConfigWrap(err, "reading job file %s", path)
	}
	var file rawJobFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, perr.ConfigWrap(err, "parsing job YAML %s", path)
	}
	if len(file.Jobs) == 0 {
		return nil, perr.Config("job file %s declares no jobs", path)
	}

	validate := validator.New()
	jobs := make([]Job, 0, len(file.Jobs))
	for i, rj := range file.Jobs {
		if err := validate.Struct(&rj); err != nil {
			return nil, perr.ConfigWrap(err, "job %d in %s failed validation", i, path)
		}
		job, err := expandJob(rj)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func expandJob(rj rawJob) (Job, error) {
	bw, err := ParsePageList(rj.BwPages)
	if err != nil {
		return Job{}, err
	}
	gray, err := ParsePageList(rj.GrayscalePages)
	if err != nil {
		return Job{}, err
	}
	rgb, err := ParsePageList(rj.RgbPages)
	if err != nil {
		return Job{}, err
	}
	skip, err := ParsePageList(rj.SkipPages)
	if err != nil {
		return Job{}, err
	}
	if err := CheckNoOverlap(map[string][]int{
		"bw_pages": bw, "grayscale_pages": gray, "rgb_pages": rgb, "skip_pages": skip,
	}); err != nil {
		return Job{}, err
	}
	return Job{
		Input: rj.Input, Output: rj.Output, ColorMode: rj.ColorMode,
		BwPages: bw, GrayscalePages: gray, RgbPages: rgb, SkipPages: skip,
		DPI: rj.DPI, BgQuality: rj.BgQuality, FgQuality: rj.FgQuality,
		Linearize: rj.Linearize, PreserveImages: rj.PreserveImages,
	}, nil
}
