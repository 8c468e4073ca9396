package crawler

import (
	"context"
	"time"

	"pagegrab/internal/downloader"
	"pagegrab/pkg/browser"
	"pagegrab/pkg/extract"
	"pagegrab/pkg/logger"
	"pagegrab/pkg/models"
)

// SessionFactory starts a browser session
type SessionFactory func(ctx context.Context) (browser.Session, error)

// Extractor collects image references from the current page
type Extractor interface {
	Extract(ctx context.Context, page extract.Evaluator, selector string) ([]models.ImageReference, error)
}

// Provisioner maps a page to its folder and creates it
type Provisioner interface {
	Provision(identity string, index int) (string, error)
}

// Observer is told about page and download progress. Methods may be called
// from download worker goroutines.
type Observer interface {
	PageStarted(visit models.PageVisit)
	DownloadFinished(outcome models.DownloadOutcome)
	PageFinished(visit models.PageVisit, err error)
}

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Option configures a Crawler
type Option func(*Crawler)

// WithSessionFactory replaces the Chrome session
func WithSessionFactory(f SessionFactory) Option {
	return func(c *Crawler) {
		c.openSession = f
	}
}

// WithExtractor replaces the link extractor
func WithExtractor(e Extractor) Option {
	return func(c *Crawler) {
		c.extractor = e
	}
}

// WithProvisioner replaces the folder provisioner
func WithProvisioner(p Provisioner) Option {
	return func(c *Crawler) {
		c.provisioner = p
	}
}

// WithSaver replaces the single-image downloader used by the pool
func WithSaver(s downloader.Saver) Option {
	return func(c *Crawler) {
		c.saver = s
	}
}

// WithObserver registers a progress observer
func WithObserver(o Observer) Option {
	return func(c *Crawler) {
		c.observer = o
	}
}

// WithLogger sets the logger
func WithLogger(log logger.Logger) Option {
	return func(c *Crawler) {
		c.logger = log
	}
}

// WithSleep replaces the settle-delay wait
func WithSleep(s SleepFunc) Option {
	return func(c *Crawler) {
		c.sleep = s
	}
}

// sleepContext is the default SleepFunc
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
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

type nopObserver struct{}

func (nopObserver) PageStarted(models.PageVisit)            {}
func (nopObserver) DownloadFinished(models.DownloadOutcome) {}
func (nopObserver) PageFinished(models.PageVisit, error)    {}
