package extract

import (
	"context"
	"encoding/json"
	"fmt"

	errs "pagegrab/pkg/errors"
	"pagegrab/pkg/logger"
	"pagegrab/pkg/models"
)

// Evaluator runs a script in a rendered page. browser.Session satisfies it.
type Evaluator interface {
	Evaluate(ctx context.Context, script string, out interface{}) error
}

const scrollScript = `window.scrollTo(0, document.body ? document.body.scrollHeight : 0); true`

// LinkExtractor collects image references from a rendered page
type LinkExtractor struct {
	logger logger.Logger
}

// New creates a LinkExtractor
func New(log logger.Logger) *LinkExtractor {
	if log == nil {
		log = logger.GetLogger()
	}
	return &LinkExtractor{logger: log.WithField("component", "extractor")}
}

// Extract scrolls the page to the bottom, so lazily loaded images are in the
// DOM, then returns the src and alt of every element matching selector in
// document order. An empty result is not an error.
func (e *LinkExtractor) Extract(ctx context.Context, page Evaluator, selector string) ([]models.ImageReference, error) {
	if err := page.Evaluate(ctx, scrollScript, nil); err != nil {
		return nil, errs.Wrap(errs.KindExtraction, err, "failed to scroll page")
	}

	var refs []models.ImageReference
	if err := page.Evaluate(ctx, collectScript(selector), &refs); err != nil {
		return nil, errs.Wrap(errs.KindExtraction, err, fmt.Sprintf("failed to collect %q", selector))
	}
	if refs == nil {
		refs = []models.ImageReference{}
	}

	e.logger.DebugWithFields("Image references collected", map[string]interface{}{
		"selector": selector,
		"count":    len(refs),
	})

	return refs, nil
}

// collectScript maps matching elements to ImageReference-shaped objects.
// The selector is embedded as a JSON string literal.
func collectScript(selector string) string {
	quoted, _ := json.Marshal(selector)
	return fmt.Sprintf(`Array.from(document.querySelectorAll(%s)).map(function (el) {
  return {
    source_url: el.getAttribute('src') || '',
    alt_text: el.getAttribute('alt') || ''
  };
})`, quoted)
}
