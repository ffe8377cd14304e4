package pdf2img

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"pdf2img/pkg/pdfrenderer"
)

// runBatches renders pages in consecutive chunks of opts.BatchSize. Pages in
// a chunk render concurrently; chunks run one after another with
// opts.BatchDelay between them. The first failing page aborts the run and no
// partial result is returned.
func runBatches(ctx context.Context, doc pdfrenderer.Document, pages []int, opts Options) ([]PageOutput, error) {
	total := len(pages)
	results := make([]PageOutput, 0, total)
	batches := chunk(pages, opts.BatchSize)

	for i, batch := range batches {
		started := time.Now()
		opts.Logger.Debug("rendering batch", "batch", i+1, "of", len(batches), "pages", batch)

		outputs, err := renderBatch(ctx, doc, batch, opts)
		if err != nil {
			opts.Logger.Debug("batch failed", "batch", i+1, "error", err)
			return nil, err
		}
		results = append(results, outputs...)

		opts.Logger.Debug("batch done", "batch", i+1, "elapsed", time.Since(started))
		if opts.OnProgress != nil {
			opts.OnProgress(BatchProgress{
				Completed: min(len(results), total),
				Total:     total,
				Batch:     outputs,
			})
		}

		if i < len(batches)-1 {
			if err := pace(ctx, opts.BatchDelay); err != nil {
				return nil, err
			}
		}
	}

	return results, nil
}

// renderBatch starts every page before waiting on any of them. Outputs keep
// the order of batch, not completion order.
func renderBatch(ctx context.Context, doc pdfrenderer.Document, batch []int, opts Options) ([]PageOutput, error) {
	outputs := make([]PageOutput, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	for i, index := range batch {
		g.Go(func() error {
			out, err := renderPage(gctx, doc, index, opts)
			if err != nil {
				return err
			}
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

// pace waits d between batches. With d == 0 it only yields the processor.
func pace(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		runtime.Gosched()
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func chunk(pages []int, size int) [][]int {
	if size < 1 {
		size = 1
	}
	var batches [][]int
	for start := 0; start < len(pages); start += size {
		end := min(start+size, len(pages))
		batches = append(batches, pages[start:end])
	}
	return batches
}
