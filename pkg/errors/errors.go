package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies crawl failures
type Kind string

const (
	KindNoLinksFound Kind = "no_links_found"
	KindNetwork      Kind = "network"
	KindFileWrite    Kind = "file_write"
	KindURLParse     Kind = "url_parse"
	KindNavigation   Kind = "navigation"
	KindIO           Kind = "io"
	KindExtraction   Kind = "extraction"
	KindBrowser      Kind = "browser"
	KindUnknown      Kind = "unknown"
)

// Sentinels for errors.Is checks against a Kind
var (
	ErrNoLinksFound = &Error{Kind: KindNoLinksFound, Message: "no links to save found"}
	ErrNetwork      = &Error{Kind: KindNetwork, Message: "network error"}
	ErrFileWrite    = &Error{Kind: KindFileWrite, Message: "file write error"}
	ErrURLParse     = &Error{Kind: KindURLParse, Message: "url parse error"}
	ErrNavigation   = &Error{Kind: KindNavigation, Message: "navigation error"}
	ErrIO           = &Error{Kind: KindIO, Message: "io error"}
	ErrExtraction   = &Error{Kind: KindExtraction, Message: "extraction error"}
	ErrBrowser      = &Error{Kind: KindBrowser, Message: "browser error"}
)

// Error is a typed crawl error
type Error struct {
	Kind    Kind
	Message string
	URL     string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.URL != "" {
		msg += fmt.Sprintf(" (%s)", e.URL)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so sentinels work with errors.Is
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New creates an error of the given kind
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind around err
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithURL returns a copy of e carrying the offending URL
func (e *Error) WithURL(url string) *Error {
	cp := *e
	cp.URL = url
	return &cp
}

// KindOf returns the kind of the first *Error in err's chain
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsDownloadKind reports whether a kind is one of the per-item download failures
func IsDownloadKind(kind Kind) bool {
	switch kind {
	case KindNetwork, KindFileWrite, KindURLParse:
		return true
	default:
		return false
	}
}
