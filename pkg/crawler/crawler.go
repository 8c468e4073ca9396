package crawler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pagegrab/internal/downloader"
	"pagegrab/pkg/browser"
	"pagegrab/pkg/config"
	errs "pagegrab/pkg/errors"
	"pagegrab/pkg/extract"
	"pagegrab/pkg/fetch"
	"pagegrab/pkg/logger"
	"pagegrab/pkg/manifest"
	"pagegrab/pkg/models"
	"pagegrab/pkg/ratelimit"
	"pagegrab/pkg/storage"
)

// Crawler walks a paginated catalog: it saves every matching image of the
// current page into that page's folder, then follows the pagination control,
// until there is no next page or the page limit is reached.
type Crawler struct {
	config      *config.Config
	openSession SessionFactory
	extractor   Extractor
	provisioner Provisioner
	saver       downloader.Saver
	pool        *downloader.Pool
	observer    Observer
	sleep       SleepFunc
	logger      logger.Logger

	mu      sync.Mutex
	session models.CrawlSession
}

// New creates a Crawler for cfg. Collaborators not supplied through options
// are built from cfg: a Chrome session, the HTTP downloader and a folder
// provisioner under cfg.Output.BaseDirectory.
func New(cfg *config.Config, opts ...Option) *Crawler {
	c := &Crawler{
		config: cfg,
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = logger.GetLogger()
	}
	c.logger = c.logger.WithField("component", "crawler")

	if c.openSession == nil {
		c.openSession = chromeSessionFactory(cfg, c.logger)
	}
	if c.extractor == nil {
		c.extractor = extract.New(c.logger)
	}
	if c.provisioner == nil {
		c.provisioner = storage.NewProvisioner(
			cfg.Output.BaseDirectory,
			cfg.Crawl.FolderNaming,
			cfg.Crawl.DefaultFolder,
			cfg.Crawl.FolderPrefix,
			c.logger,
		)
	}
	if c.saver == nil {
		client := fetch.NewClient(cfg.Download.DownloadTimeout, cfg.Browser.UserAgent, c.logger)
		for key, value := range cfg.Download.Headers {
			client.SetHeader(key, value)
		}
		c.saver = downloader.New(client, ratelimit.New(cfg.Download.RequestsPerMinute), c.logger)
	}
	if c.observer == nil {
		c.observer = nopObserver{}
	}

	c.pool = downloader.NewPool(c.saver, cfg.Download.ConcurrentDownloads, c.logger)
	c.pool.OnProgress(c.observer.DownloadFinished)

	c.session = models.CrawlSession{
		CurrentPageURL: cfg.Crawl.StartURL,
		State:          models.StateInit,
		Terminal:       models.TerminalNone,
	}
	return c
}

func chromeSessionFactory(cfg *config.Config, log logger.Logger) SessionFactory {
	return func(ctx context.Context) (browser.Session, error) {
		s, err := browser.NewChromeSession(ctx, browser.Options{
			Headless:  cfg.Browser.Headless,
			ExecPath:  cfg.Browser.ExecPath,
			UserAgent: cfg.Browser.UserAgent,
			Logger:    log,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Session returns a snapshot of the crawl state
func (c *Crawler) Session() models.CrawlSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Crawler) update(fn func(s *models.CrawlSession)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.session)
}

func (c *Crawler) setState(state models.State) {
	c.update(func(s *models.CrawlSession) { s.State = state })
}

// Run performs the crawl. It returns true when the catalog was exhausted or
// the page limit was reached, and otherwise the single error that stopped
// the crawl. The browser session is closed exactly once before Run returns,
// whatever the outcome.
func (c *Crawler) Run(ctx context.Context) (bool, error) {
	cfg := c.config
	c.update(func(s *models.CrawlSession) {
		s.StartedAt = time.Now()
		s.CurrentPageURL = cfg.Crawl.StartURL
	})

	logger.LogComponentStart(c.logger, "crawler", map[string]interface{}{
		"start_url":   cfg.Crawl.StartURL,
		"page_limit":  cfg.Crawl.PageLimit,
		"concurrency": cfg.Download.ConcurrentDownloads,
		"output":      cfg.Output.BaseDirectory,
	})

	session, err := c.openSession(ctx)
	if err != nil {
		return c.finish(false, err)
	}

	ok, err := c.crawl(ctx, session)

	if closeErr := session.Close(); closeErr != nil {
		c.logger.WithError(closeErr).Warn("Failed to close browser session")
	}
	return c.finish(ok, err)
}

func (c *Crawler) finish(ok bool, err error) (bool, error) {
	c.update(func(s *models.CrawlSession) {
		s.State = models.StateTerminated
		s.FinishedAt = time.Now()
		if err != nil {
			s.Terminal = models.TerminalFailure
			s.Err = err
		} else {
			s.Terminal = models.TerminalSuccess
		}
	})

	snapshot := c.Session()
	reason := "completed"
	if err != nil {
		reason = fmt.Sprintf("%s: %v", errs.KindOf(err), err)
	}
	logger.LogComponentStop(c.logger, "crawler", reason)
	c.logger.InfoWithFields("Crawl finished", map[string]interface{}{
		"visited":  snapshot.VisitedCount,
		"success":  err == nil,
		"duration": snapshot.FinishedAt.Sub(snapshot.StartedAt),
	})

	if err != nil {
		return false, err
	}
	return ok, nil
}

func (c *Crawler) crawl(ctx context.Context, session browser.Session) (bool, error) {
	cfg := c.config
	nav := browser.NavigateOptions{
		Timeout:       cfg.Browser.NavigationTimeout,
		WaitCondition: cfg.Browser.WaitCondition,
	}

	c.setState(models.StateNavigating)
	if err := session.Open(ctx, cfg.Crawl.StartURL, nav); err != nil {
		return false, err
	}
	if err := c.sleep(ctx, cfg.Browser.StartSettleDelay); err != nil {
		return false, err
	}

	pageURL := cfg.Crawl.StartURL

	for c.Session().VisitedCount < cfg.Crawl.PageLimit {
		if c.Session().VisitedCount > 0 {
			next, err := c.paginate(ctx, session, nav)
			if err != nil {
				return false, err
			}
			if next == "" {
				c.logger.InfoWithFields("No further page, stopping", map[string]interface{}{
					"last_page": pageURL,
				})
				return true, nil
			}
			pageURL = next
		}

		if err := c.visit(ctx, session, pageURL); err != nil {
			return false, err
		}
	}

	c.logger.InfoWithFields("Page limit reached", map[string]interface{}{
		"page_limit": cfg.Crawl.PageLimit,
	})
	return true, nil
}

// visit saves every image of the page currently loaded in session
func (c *Crawler) visit(ctx context.Context, session browser.Session, pageURL string) error {
	cfg := c.config
	index := c.Session().VisitedCount + 1

	c.update(func(s *models.CrawlSession) {
		s.State = models.StateNavigating
		s.CurrentPageURL = pageURL
	})

	dir, err := c.provisioner.Provision(pageURL, index)
	if err != nil {
		return err
	}
	logger.LogPageStart(c.logger, pageURL, index, dir)

	c.setState(models.StateExtracting)
	refs, err := c.extractor.Extract(ctx, session, cfg.Crawl.ImageSelector)
	if err != nil {
		return err
	}
	if err := c.sleep(ctx, cfg.Browser.ExtractSettleDelay); err != nil {
		return err
	}

	visit := models.PageVisit{
		Identity:      pageURL,
		SequenceIndex: index,
		FolderPath:    dir,
		References:    refs,
	}

	if len(refs) == 0 {
		return errs.New(errs.KindNoLinksFound, fmt.Sprintf("no elements match %q", cfg.Crawl.ImageSelector)).WithURL(pageURL)
	}

	c.setState(models.StateDownloading)
	c.observer.PageStarted(visit)
	outcomes, err := c.pool.Run(ctx, refs, pageURL, dir)
	c.observer.PageFinished(visit, err)
	if err != nil {
		if errs.IsDownloadKind(errs.KindOf(err)) {
			saved := 0
			for _, o := range outcomes {
				if o.Err == nil && o.DestinationPath != "" {
					saved++
				}
			}
			c.logger.WarnWithFields("Page left incomplete", map[string]interface{}{
				"folder":    dir,
				"saved":     saved,
				"requested": len(refs),
			})
		}
		return err
	}

	if cfg.Output.WriteManifest {
		if err := manifest.Write(dir, visit, outcomes); err != nil {
			c.logger.WithError(err).WarnWithFields("Failed to write page manifest", map[string]interface{}{
				"folder": dir,
			})
		} else {
			m := manifest.New(visit, outcomes)
			c.logger.DebugWithFields("Page manifest written", map[string]interface{}{
				"folder": dir,
				"images": len(m.Images),
				"bytes":  m.TotalBytes(),
			})
		}
	}

	c.update(func(s *models.CrawlSession) { s.VisitedCount++ })
	logger.LogCrawlProgress(c.logger, c.Session().VisitedCount, cfg.Crawl.PageLimit)
	return nil
}

// paginate activates the next-page control. It returns the new page URL, or
// "" when the catalog has no further page.
func (c *Crawler) paginate(ctx context.Context, session browser.Session, nav browser.NavigateOptions) (string, error) {
	c.setState(models.StatePaginating)

	result, err := session.Click(ctx, c.config.Crawl.NextPageSelector, nav)
	if err != nil {
		return "", err
	}
	if !result.HasNext() {
		return "", nil
	}

	next := result.URL
	if next == "" {
		if next, err = session.CurrentURL(ctx); err != nil {
			return "", err
		}
	}

	if err := c.sleep(ctx, c.config.Browser.PageSettleDelay); err != nil {
		return "", err
	}
	return next, nil
}
