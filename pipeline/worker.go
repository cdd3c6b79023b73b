package pipeline

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/graylayer/pdfredact/cache"
	"github.com/graylayer/pdfredact/config"
	"github.com/graylayer/pdfredact/ir/raw"
)

// dispatchPages runs processPage for every page across a bounded worker
// pool (thread count configurable; 0 means one worker per hardware
// thread), and assembles the results in input-page order regardless of
// which worker finished first or last.
func dispatchPages(ctx context.Context, doc *raw.Document, pages []PageInfo, job config.Job, ec config.EffectiveConfig, deps Deps) ([]*cache.PageOutput, error) {
	workers := ec.ParallelWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	sem := semaphore.NewWeighted(int64(workers))

	outputs := make([]*cache.PageOutput, len(pages))
	errs := make([]error, len(pages))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, page := range pages {
		i, page := i, page
		if err := sem.Acquire(groupCtx, 1); err != nil {
			errs[i] = err
			continue
		}
		group.Go(func() error {
			defer sem.Release(1)
			colorMode := config.ColorModeForPage(job, ec, i+1)
			out, err := processPage(groupCtx, doc, page, i, colorMode, ec, deps)
			if err != nil {
				errs[i] = err
				return nil
			}
			outputs[i] = out
			return nil
		})
	}
	group.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return outputs, nil
}
