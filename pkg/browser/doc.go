// Package browser defines the browser-session capability the crawler drives
// and implements it on top of chromedp.
//
// A Session is one tab: it can open a URL, evaluate a script in the rendered
// page, click the pagination control, report its current URL and close.
//
// Click does not fail when the control is missing. It returns a
// PaginationResult whose Found and Activated fields tell "no next page"
// apart from a navigation failure, which is still returned as an error of
// kind errors.KindNavigation.
package browser
