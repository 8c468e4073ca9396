package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	errs "pagegrab/pkg/errors"
	"pagegrab/pkg/logger"
)

// Options configure the Chrome process
type Options struct {
	Headless  bool
	ExecPath  string
	UserAgent string
	Logger    logger.Logger
}

// ChromeSession is a Session backed by a Chrome instance driven over the
// DevTools protocol
type ChromeSession struct {
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
	logger      logger.Logger

	mu        sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// NewChromeSession starts a browser and opens a blank tab. The browser lives
// until Close is called or ctx is cancelled.
func NewChromeSession(ctx context.Context, opts Options) (*ChromeSession, error) {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	log = log.WithField("component", "browser")

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1280, 960),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			log.Debug(fmt.Sprintf(format, args...))
		}),
	)

	// first Run launches the process
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		allocCancel()
		return nil, errs.Wrap(errs.KindBrowser, err, "failed to start browser")
	}

	log.InfoWithFields("Browser started", map[string]interface{}{
		"headless":  opts.Headless,
		"exec_path": opts.ExecPath,
	})

	return &ChromeSession{
		allocCancel: allocCancel,
		ctx:         tabCtx,
		cancel:      cancel,
		logger:      log,
	}, nil
}

// runContext ties a call to both the tab and the caller's context, bounded by timeout
func (s *ChromeSession) runContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	var runCtx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(s.ctx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(s.ctx)
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

// Open navigates to url
func (s *ChromeSession) Open(ctx context.Context, url string, opts NavigateOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	runCtx, cancel := s.runContext(ctx, opts.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := chromedp.RunResponse(runCtx, chromedp.Navigate(url))
	if err != nil {
		return errs.Wrap(errs.KindNavigation, err, "navigation failed").WithURL(url)
	}
	if err := waitFor(runCtx, opts.WaitCondition); err != nil {
		return errs.Wrap(errs.KindNavigation, err, "page did not settle").WithURL(url)
	}

	s.logResponse(url, resp, time.Since(start))
	if resp != nil && resp.Status >= 400 {
		return errs.New(errs.KindNavigation, fmt.Sprintf("page returned status %d", resp.Status)).WithURL(url)
	}
	return nil
}

// Evaluate runs script in the page
func (s *ChromeSession) Evaluate(ctx context.Context, script string, out interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	runCtx, cancel := s.runContext(ctx, 0)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.Evaluate(script, out)); err != nil {
		return errs.Wrap(errs.KindExtraction, err, "script evaluation failed")
	}
	return nil
}

type controlState struct {
	Found   bool `json:"found"`
	Enabled bool `json:"enabled"`
}

// Click looks up the pagination control and, when it is present and
// enabled, clicks it and waits for the next document
func (s *ChromeSession) Click(ctx context.Context, selector string, opts NavigateOptions) (PaginationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runCtx, cancel := s.runContext(ctx, opts.Timeout)
	defer cancel()

	var state controlState
	if err := chromedp.Run(runCtx, chromedp.Evaluate(controlStateScript(selector), &state)); err != nil {
		return PaginationResult{}, errs.Wrap(errs.KindNavigation, err, "failed to inspect pagination control")
	}

	result := PaginationResult{Found: state.Found}
	if !state.Found || !state.Enabled {
		s.logger.DebugWithFields("Pagination control not activatable", map[string]interface{}{
			"selector": selector,
			"found":    state.Found,
		})
		return result, nil
	}

	var before string
	if err := chromedp.Run(runCtx, chromedp.Location(&before)); err != nil {
		return result, errs.Wrap(errs.KindNavigation, err, "failed to read current URL")
	}

	start := time.Now()
	resp, err := chromedp.RunResponse(runCtx, chromedp.Click(selector, chromedp.ByQuery))
	if err != nil {
		return result, errs.Wrap(errs.KindNavigation, err, "failed to activate pagination control")
	}
	if err := waitFor(runCtx, opts.WaitCondition); err != nil {
		return result, errs.Wrap(errs.KindNavigation, err, "next page did not settle")
	}

	var after string
	if err := chromedp.Run(runCtx, chromedp.Location(&after)); err != nil {
		return result, errs.Wrap(errs.KindNavigation, err, "failed to read current URL")
	}

	s.logResponse(after, resp, time.Since(start))
	result.Activated = true
	result.URL = after

	if after == before {
		s.logger.WarnWithFields("Pagination click did not change the URL", map[string]interface{}{
			"url": after,
		})
	}
	return result, nil
}

// CurrentURL returns the URL of the loaded document
func (s *ChromeSession) CurrentURL(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runCtx, cancel := s.runContext(ctx, 0)
	defer cancel()

	var url string
	if err := chromedp.Run(runCtx, chromedp.Location(&url)); err != nil {
		return "", errs.Wrap(errs.KindBrowser, err, "failed to get URL")
	}
	return url, nil
}

// Close shuts the browser down
func (s *ChromeSession) Close() error {
	s.closeOnce.Do(func() {
		s.logger.Info("Closing browser")
		if err := chromedp.Cancel(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.closeErr = errs.Wrap(errs.KindBrowser, err, "failed to close browser")
		}
		s.cancel()
		s.allocCancel()
	})
	return s.closeErr
}

func (s *ChromeSession) logResponse(url string, resp *network.Response, took time.Duration) {
	fields := map[string]interface{}{
		"url":         url,
		"duration_ms": took.Milliseconds(),
	}
	if resp != nil {
		fields["status"] = resp.Status
		fields["mime_type"] = resp.MimeType
	}
	s.logger.DebugWithFields("Document loaded", fields)
}

// waitFor blocks until the document satisfies the wait condition
func waitFor(ctx context.Context, condition string) error {
	if condition == WaitReady {
		return chromedp.Run(ctx, chromedp.WaitReady("body", chromedp.ByQuery))
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		var state string
		if err := chromedp.Run(ctx, chromedp.Evaluate(`document.readyState`, &state)); err != nil {
			return err
		}
		if state == "complete" {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func controlStateScript(selector string) string {
	quoted, _ := json.Marshal(selector)
	return fmt.Sprintf(`(function (sel) {
  const el = document.querySelector(sel);
  if (!el) {
    return { found: false, enabled: false };
  }
  const disabled = el.disabled === true ||
    el.getAttribute('aria-disabled') === 'true' ||
    el.classList.contains('disabled');
  return { found: true, enabled: !disabled };
})(%s)`, quoted)
}
