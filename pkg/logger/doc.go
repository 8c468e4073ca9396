// Package logger provides a structured logging interface for pagegrab.
//
// It wraps zerolog with:
//   - Leveled logging (Debug, Info, Warn, Error, Fatal)
//   - Structured fields via WithField / WithFields / WithError
//   - Colored console output
//   - Optional rotating file output (lumberjack) when logging.file is set
//   - A process-wide logger set by Initialize and read by GetLogger
//
// Components take a Logger in their constructors and fall back to
// GetLogger() when given nil. Tests use NewTestLogger to capture messages
// or NewNopLogger to discard them.
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	log := logger.GetLogger().WithField("component", "crawler")
//	log.InfoWithFields("Visiting page", map[string]interface{}{
//	    "page_url": "http://books.toscrape.com/catalogue/page-2.html",
//	    "page":     2,
//	})
package logger
