// Package fetch retrieves image bytes over HTTP.
//
// The Fetcher interface is the fetch capability the downloader depends on:
// a URL goes in, a status and a streamed body come out. Client implements it
// with net/http, browser-like headers and a per-request timeout.
//
// Any transport failure or non-2xx status is returned as an error of kind
// errors.KindNetwork; there are no retries. A Response is only returned for
// successful statuses and its Body must be closed by the caller.
package fetch
