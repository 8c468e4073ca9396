package browser

import (
	"context"
	"time"
)

// Wait conditions for navigation
const (
	WaitLoad  = "load"
	WaitReady = "ready"
)

// NavigateOptions bound a navigation or a pagination click
type NavigateOptions struct {
	Timeout       time.Duration
	WaitCondition string
}

// PaginationResult reports what happened when the pagination control was
// looked up. Found is false when no element matches the selector; Activated
// is false when the element exists but is disabled. Either case means there
// is no further page, which is not an error.
type PaginationResult struct {
	Found     bool
	Activated bool
	URL       string
}

// HasNext reports whether the click moved the session to another page
func (r PaginationResult) HasNext() bool {
	return r.Found && r.Activated
}

// Session is a live browser tab the crawl drives
type Session interface {
	// Open navigates to url and waits for the configured condition
	Open(ctx context.Context, url string, opts NavigateOptions) error
	// Evaluate runs script in the page and decodes its JSON result into out.
	// out may be nil when the result is not needed.
	Evaluate(ctx context.Context, script string, out interface{}) error
	// Click activates the element matching selector and waits for navigation
	Click(ctx context.Context, selector string, opts NavigateOptions) (PaginationResult, error)
	// CurrentURL returns the URL of the loaded document
	CurrentURL(ctx context.Context) (string, error)
	// Close shuts the browser down. Calling it more than once is allowed.
	Close() error
}
