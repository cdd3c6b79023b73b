package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/graylayer/pdfredact/cache"
	"github.com/graylayer/pdfredact/config"
	"github.com/graylayer/pdfredact/filters"
	"github.com/graylayer/pdfredact/ir/raw"
	"github.com/graylayer/pdfredact/logging"
	"github.com/graylayer/pdfredact/perr"
	"github.com/graylayer/pdfredact/writer"
)

// defaultLimits caps decompressed stream size and per-filter decode time,
// so a pathological PDF cannot exhaust memory or hang a worker.
func defaultLimits() filters.Limits {
	return filters.Limits{MaxDecompressedSize: 512 << 20, MaxDecodeTime: 30 * time.Second}
}

func newFilterPipeline() *filters.Pipeline {
	return filters.NewPipeline([]filters.Decoder{
		filters.NewFlateDecoder(),
		filters.NewLZWDecoder(),
		filters.NewASCII85Decoder(),
		filters.NewASCIIHexDecoder(),
	}, defaultLimits())
}

// RunJob processes one already-parsed config.Job through to a written
// output PDF. On error it returns without having written a partial
// output file; the caller reports the failure as "ERROR <input>:
// <message>".
func RunJob(ctx context.Context, job config.Job, settings config.Settings, rasterizer Rasterizer, linearizer Linearizer) error {
	ec := config.Resolve(job, settings)

	f, err := os.Open(job.Input)
	if err != nil {
		return perr.IO(err, "opening input %s", job.Input)
	}
	defer f.Close()

	parser := raw.NewParser(raw.ParserConfig{})
	doc, err := parser.Parse(ctx, f)
	if err != nil {
		return perr.PdfRead(-1, err, "parsing %s", job.Input)
	}
	if doc.Encrypted {
		return perr.PdfRead(-1, nil, "%s is encrypted; encrypted input is not supported", job.Input)
	}
	logging.L().Debug("parsed input", "input", job.Input, "title", doc.Metadata.Title, "producer", doc.Metadata.Producer)

	pipe := newFilterPipeline()
	pages, err := CollectPages(ctx, doc, pipe)
	if err != nil {
		return perr.PdfRead(-1, err, "walking page tree of %s", job.Input)
	}

	cacheStore := cache.New(ec.CacheDir)
	deps := Deps{Pipeline: pipe, Cache: cacheStore, Rasterizer: rasterizer, PdfPath: job.Input}

	outputs, err := dispatchPages(ctx, doc, pages, job, ec, deps)
	if err != nil {
		return err
	}

	alloc := writer.NewIDAllocator(doc)
	for i, page := range pages {
		out := outputs[i]
		if err := applyPageOutput(doc, page, alloc, out); err != nil {
			return perr.PdfWrite(i, err, "applying page output for %s", job.Input)
		}
	}
	writer.StampProducer(doc, alloc)

	data, err := writer.Serialize(doc)
	if err != nil {
		return perr.PdfWrite(-1, err, "serializing output for %s", job.Input)
	}

	finalOutput := job.Output
	if ec.Linearize && linearizer != nil {
		tmp := job.Output + ".prelinearize"
		if err := os.WriteFile(tmp, data, 0o644); err != nil {
			return perr.IO(err, "writing pre-linearize temp file for %s", job.Output)
		}
		defer os.Remove(tmp)
		if err := linearizer.Run(ctx, tmp, finalOutput); err != nil {
			logging.L().Warn("linearization failed, writing unlinearized output", "output", job.Output, "err", err)
			if err := os.WriteFile(finalOutput, data, 0o644); err != nil {
				return perr.IO(err, "writing output %s", job.Output)
			}
		}
		return nil
	}

	if dir := filepath.Dir(finalOutput); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return perr.IO(err, "creating output directory for %s", job.Output)
		}
	}
	if err := os.WriteFile(finalOutput, data, 0o644); err != nil {
		return perr.IO(err, "writing output %s", job.Output)
	}
	return nil
}

func applyPageOutput(doc *raw.Document, page PageInfo, alloc *writer.IDAllocator, out *cache.PageOutput) error {
	switch out.Tag {
	case cache.TagOutlines:
		return writer.ApplyOutlines(doc, page.Ref, alloc, out)
	case cache.TagTextMasked:
		return writer.ApplyTextMasked(doc, page.Ref, alloc, out)
	case cache.TagMrc:
		return writer.ApplyMrc(doc, page.Ref, alloc, out, page.MediaBox.URX-page.MediaBox.LLX, page.MediaBox.URY-page.MediaBox.LLY)
	case cache.TagBwMask:
		return writer.ApplyBwMask(doc, page.Ref, alloc, out, page.MediaBox.URX-page.MediaBox.LLX, page.MediaBox.URY-page.MediaBox.LLY)
	case cache.TagSkip:
		return writer.ApplySkip(doc, page.Ref)
	default:
		return fmt.Errorf("pipeline: unknown page output tag %q", out.Tag)
	}
}

// RunJobFile loads path as a job file (and its sibling settings file, if
// present) and runs every job it declares in sequence. A failed job does
// not prevent subsequent jobs from running; callers collect per-job
// errors via the report callback rather than this function aborting.
func RunJobFile(ctx context.Context, path string, rasterizer Rasterizer, linearizer Linearizer, report func(job config.Job, err error)) error {
	jobs, err := config.LoadJobFile(path)
	if err != nil {
		return err
	}
	settings, err := config.LoadSettings(settingsPathFor(path))
	if err != nil {
		return err
	}
	for _, job := range jobs {
		err := RunJob(ctx, job, settings, rasterizer, linearizer)
		report(job, err)
	}
	return nil
}

func settingsPathFor(jobFilePath string) string {
	dir := filepath.Dir(jobFilePath)
	return filepath.Join(dir, "settings.yaml")
}

// RunAll runs every job file in paths, printing one "OK <output>" or
// "ERROR <input>: <message>" line per job to stdout, and returns 0 iff
// every job across every file succeeded, 1 otherwise.
func RunAll(ctx context.Context, paths []string) int {
	rasterizer := PopplerRasterizer{}
	linearizer := QpdfLinearizer{}

	exitCode := 0
	for _, path := range paths {
		err := RunJobFile(ctx, path, rasterizer, linearizer, func(job config.Job, jobErr error) {
			if jobErr != nil {
				exitCode = 1
				fmt.Printf("ERROR %s: %v\n", job.Input, jobErr)
				logging.L().Error("job failed", "input", job.Input, "err", jobErr)
				return
			}
			fmt.Printf("OK %s\n", job.Output)
			logging.L().Info("job succeeded", "input", job.Input, "output", job.Output)
		})
		if err != nil {
			exitCode = 1
			fmt.Printf("ERROR %s: %v\n", path, err)
			logging.L().Error("job file failed to load", "path", path, "err", err)
		}
	}
	return exitCode
}
