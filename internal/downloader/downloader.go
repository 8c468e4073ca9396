package downloader

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	errs "pagegrab/pkg/errors"
	"pagegrab/pkg/fetch"
	"pagegrab/pkg/logger"
	"pagegrab/pkg/models"
	"pagegrab/pkg/ratelimit"
	"pagegrab/pkg/storage"
)

// fallbackName is used when neither the alt text nor the URL yields a usable name
const fallbackName = "image"

// Saver saves one image reference into a directory
type Saver interface {
	Save(ctx context.Context, ref models.ImageReference, pageURL, dir string) models.DownloadOutcome
}

// Downloader resolves, fetches and writes single images
type Downloader struct {
	fetcher fetch.Fetcher
	limiter ratelimit.Limiter
	logger  logger.Logger
}

// New creates a Downloader. A nil limiter means no rate limit.
func New(fetcher fetch.Fetcher, limiter ratelimit.Limiter, log logger.Logger) *Downloader {
	if log == nil {
		log = logger.GetLogger()
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	return &Downloader{
		fetcher: fetcher,
		limiter: limiter,
		logger:  log.WithField("component", "downloader"),
	}
}

// Save downloads ref, found on pageURL, into dir. The outcome's Err is nil on
// success and otherwise carries one of errors.KindURLParse, KindNetwork or
// KindFileWrite. A file with the same name in dir is overwritten.
func (d *Downloader) Save(ctx context.Context, ref models.ImageReference, pageURL, dir string) models.DownloadOutcome {
	start := time.Now()
	outcome := models.DownloadOutcome{Reference: ref}

	resolved, err := ResolveURL(ref.SourceURL, pageURL)
	if err != nil {
		outcome.Err = err
		outcome.Duration = time.Since(start)
		logger.LogDownload(d.logger, ref.SourceURL, "", 0, err)
		return outcome
	}
	outcome.ResolvedURL = resolved.String()
	outcome.DestinationPath = filepath.Join(dir, FileName(ref.AltText, resolved))

	outcome.Bytes, outcome.Err = d.transfer(ctx, outcome.ResolvedURL, outcome.DestinationPath)
	outcome.Duration = time.Since(start)

	logger.LogDownload(d.logger, outcome.ResolvedURL, outcome.DestinationPath, outcome.Bytes, outcome.Err)
	return outcome
}

func (d *Downloader) transfer(ctx context.Context, src, dest string) (int64, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return 0, errs.Wrap(errs.KindNetwork, err, "cancelled while waiting for rate limit").WithURL(src)
	}

	resp, err := d.fetcher.Fetch(ctx, src)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body := &trackingReader{r: resp.Body}
	n, err := storage.WriteFile(dest, body)
	if err != nil {
		if body.err != nil {
			// the source broke off, not the disk
			return n, errs.Wrap(errs.KindNetwork, body.err, "failed to read response body").WithURL(src)
		}
		return n, err
	}
	return n, nil
}

// trackingReader remembers the first non-EOF read error
type trackingReader struct {
	r   io.Reader
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF && t.err == nil {
		t.err = err
	}
	return n, err
}

// ResolveURL makes a reference absolute. A reference that carries a scheme is
// used as-is; anything else takes the page's scheme and host, with the
// reference's path rooted at "/". Protocol-relative references keep their
// own host.
func ResolveURL(source, pageURL string) (*url.URL, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, errs.New(errs.KindURLParse, "empty image source")
	}

	ref, err := url.Parse(source)
	if err != nil {
		return nil, errs.Wrap(errs.KindURLParse, err, "malformed image source").WithURL(source)
	}
	if ref.Scheme != "" {
		if !fetchable(ref.Scheme) {
			return nil, errs.New(errs.KindURLParse, fmt.Sprintf("unsupported image scheme %q", ref.Scheme)).WithURL(source)
		}
		if ref.Host == "" {
			return nil, errs.New(errs.KindURLParse, "image source has no host").WithURL(source)
		}
		return ref, nil
	}

	page, err := url.Parse(pageURL)
	if err != nil {
		return nil, errs.Wrap(errs.KindURLParse, err, "malformed page URL").WithURL(pageURL)
	}
	if page.Scheme == "" || page.Host == "" {
		return nil, errs.New(errs.KindURLParse, "page URL is not absolute").WithURL(pageURL)
	}
	if !fetchable(page.Scheme) {
		return nil, errs.New(errs.KindURLParse, fmt.Sprintf("unsupported page scheme %q", page.Scheme)).WithURL(pageURL)
	}

	host := page.Host
	if ref.Host != "" {
		host = ref.Host
	}

	return &url.URL{
		Scheme:   page.Scheme,
		Host:     host,
		Path:     path.Clean("/" + ref.Path),
		RawQuery: ref.RawQuery,
	}, nil
}

func fetchable(scheme string) bool {
	return scheme == "http" || scheme == "https"
}

// FileName computes the on-disk name for an image: the alt text, or else the
// URL's base name, sanitized, followed by the URL path's extension. The query
// string never contributes to the name.
func FileName(altText string, resolved *url.URL) string {
	ext := path.Ext(resolved.Path)
	urlBase := strings.TrimSuffix(path.Base(resolved.Path), ext)

	name := ""
	if altText != "" {
		name = Sanitize(altText)
	}
	if !usable(name) {
		name = Sanitize(urlBase)
	}
	if !usable(name) {
		name = fallbackName
	}

	return name + Sanitize(ext)
}

// Sanitize replaces whitespace with underscores and drops every character
// outside [A-Za-z0-9_.-].
func Sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case unicode.IsSpace(r):
			b.WriteByte('_')
		case r < unicode.MaxASCII && (r == '_' || r == '.' || r == '-' ||
			('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')):
			b.WriteRune(r)
		}
	}
	return b.String()
}

func usable(name string) bool {
	return strings.Trim(name, ".") != ""
}

// describe renders an outcome for debug log lines
func describe(o models.DownloadOutcome) string {
	if o.Err != nil {
		return fmt.Sprintf("%s -> error: %v", o.Reference.SourceURL, o.Err)
	}
	return fmt.Sprintf("%s -> %s (%d bytes)", o.ResolvedURL, o.DestinationPath, o.Bytes)
}
