// Package ratelimit caps how fast images are fetched.
//
// The crawl downloads every image on a page concurrently. Some hosts throttle
// or ban clients that do that, so download.requests_per_minute can put a
// ceiling on the request rate across all workers. The limit is shared by the
// whole crawl, not per page.
//
// New(0) returns Unlimited, which never blocks. Any positive value returns a
// TokenBucket backed by golang.org/x/time/rate that spreads the requests
// evenly over the minute and allows a burst of the full per-minute budget
// after an idle period.
//
// Usage:
//
//	limiter := ratelimit.New(cfg.Download.RequestsPerMinute)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err // ctx cancelled while waiting
//	}
package ratelimit
