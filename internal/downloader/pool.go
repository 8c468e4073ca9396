package downloader

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"pagegrab/pkg/logger"
	"pagegrab/pkg/models"
)

// ProgressFunc is called once per finished download, from the worker
// goroutine that ran it
type ProgressFunc func(outcome models.DownloadOutcome)

// Pool downloads all references of one page with bounded concurrency
type Pool struct {
	saver       Saver
	concurrency int
	logger      logger.Logger
	onProgress  ProgressFunc
}

// NewPool creates a pool running at most concurrency downloads at a time
func NewPool(saver Saver, concurrency int, log logger.Logger) *Pool {
	if log == nil {
		log = logger.GetLogger()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pool{
		saver:       saver,
		concurrency: concurrency,
		logger:      log.WithField("component", "pool"),
	}
}

// OnProgress registers a callback for finished downloads
func (p *Pool) OnProgress(fn ProgressFunc) {
	p.onProgress = fn
}

// Run saves every reference into dir. The first failure cancels the
// downloads still in flight and stops new ones from starting; Run returns
// only after every started download has finished, with that first failure
// as its error. Outcomes are indexed like refs; entries for downloads that
// never started are zero values.
func (p *Pool) Run(ctx context.Context, refs []models.ImageReference, pageURL, dir string) ([]models.DownloadOutcome, error) {
	outcomes := make([]models.DownloadOutcome, len(refs))
	if len(refs) == 0 {
		return outcomes, nil
	}

	p.logger.DebugWithFields("Starting downloads", map[string]interface{}{
		"count":       len(refs),
		"concurrency": p.concurrency,
		"folder":      dir,
	})

	start := time.Now()
	var completed atomic.Int32
	scheduled := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, ref := range refs {
		// stop scheduling once a sibling has failed
		if gctx.Err() != nil {
			break
		}
		scheduled++
		i, ref := i, ref
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			outcome := p.saver.Save(gctx, ref, pageURL, dir)
			outcomes[i] = outcome
			if p.onProgress != nil {
				p.onProgress(outcome)
			}

			if outcome.Err != nil {
				return fmt.Errorf("download %d of %d: %w", i+1, len(refs), outcome.Err)
			}
			completed.Add(1)
			p.logger.Debug(describe(outcome))
			return nil
		})
	}

	err := g.Wait()
	if err == nil && scheduled < len(refs) {
		err = ctx.Err()
	}

	fields := map[string]interface{}{
		"requested": len(refs),
		"completed": int(completed.Load()),
		"duration":  time.Since(start),
	}
	if err != nil {
		p.logger.WithError(err).ErrorWithFields("Page downloads aborted", fields)
		return outcomes, err
	}
	p.logger.InfoWithFields("Page downloads completed", fields)
	return outcomes, nil
}
