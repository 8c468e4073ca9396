package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"pagegrab/pkg/models"
)

// StatusTracker accumulates crawl totals and renders per-page progress bars.
// It is safe for concurrent use by download workers.
type StatusTracker struct {
	mu         sync.Mutex
	out        io.Writer
	enabled    bool
	bar        *progressbar.ProgressBar
	startTime  time.Time
	pages      int
	saved      int
	failed     int
	totalBytes int64
}

// NewStatusTracker creates a tracker. With enabled false nothing is drawn but
// totals are still kept.
func NewStatusTracker(out io.Writer, enabled bool) *StatusTracker {
	if out == nil {
		out = os.Stderr
	}
	return &StatusTracker{
		out:       out,
		enabled:   enabled,
		startTime: time.Now(),
	}
}

// NewProgressBar creates the bar shown while a page's images download
func NewProgressBar(out io.Writer, max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("img"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// PageStarted opens a bar for the page's downloads
func (st *StatusTracker) PageStarted(visit models.PageVisit) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.enabled && len(visit.References) > 0 {
		st.bar = NewProgressBar(st.out, len(visit.References), fmt.Sprintf("page %d", visit.SequenceIndex))
	}
}

// DownloadFinished records one outcome
func (st *StatusTracker) DownloadFinished(outcome models.DownloadOutcome) {
	// siblings cancelled after the first failure are not failures of their own
	if errors.Is(outcome.Err, context.Canceled) {
		return
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if outcome.Err != nil {
		st.failed++
	} else {
		st.saved++
		st.totalBytes += outcome.Bytes
	}
	if st.bar != nil {
		st.bar.Add(1)
	}
}

// PageFinished closes the page's bar
func (st *StatusTracker) PageFinished(visit models.PageVisit, err error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if err == nil {
		st.pages++
	}
	if st.bar != nil {
		st.bar.Finish()
		st.bar = nil
	}
}

// Pages returns the number of pages whose downloads all completed
func (st *StatusTracker) Pages() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.pages
}

// Saved returns the number of images written
func (st *StatusTracker) Saved() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.saved
}

// Failed returns the number of failed downloads
func (st *StatusTracker) Failed() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.failed
}

// GetElapsedTime returns the elapsed time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return time.Since(st.startTime)
}

// GetDownloadRate returns the average download rate (images per minute)
func (st *StatusTracker) GetDownloadRate() float64 {
	elapsed := st.GetElapsedTime().Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(st.Saved()) / elapsed
}

// Summary renders the totals as one line
func (st *StatusTracker) Summary() string {
	st.mu.Lock()
	defer st.mu.Unlock()

	return fmt.Sprintf("%d pages, %d images (%s), %d failed in %s",
		st.pages, st.saved, FormatBytes(st.totalBytes), st.failed,
		time.Since(st.startTime).Round(time.Millisecond))
}

// FormatBytes renders a byte count with a binary unit
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
