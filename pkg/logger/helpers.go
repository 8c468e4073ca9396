package logger

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// LogRequest logs HTTP request information
func LogRequest(log Logger, method, url string, statusCode int, duration float64) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": duration,
	}

	if statusCode >= 200 && statusCode < 300 {
		log.DebugWithFields("HTTP request completed", fields)
	} else if statusCode >= 400 && statusCode < 500 {
		log.WarnWithFields("HTTP request client error", fields)
	} else if statusCode >= 500 {
		log.ErrorWithFields("HTTP request server error", fields)
	}
}

// LogPageStart logs the start of a page visit
func LogPageStart(log Logger, pageURL string, index int, folder string) {
	log.InfoWithFields("Visiting page", map[string]interface{}{
		"page_url": pageURL,
		"page":     index,
		"folder":   folder,
	})
}

// LogDownload logs the result of one image download
func LogDownload(log Logger, sourceURL, destination string, bytes int64, err error) {
	l := log.WithFields(map[string]interface{}{
		"url":         sourceURL,
		"destination": destination,
		"success":     err == nil,
	})

	if err != nil {
		l.WithError(err).Error("Download failed")
		return
	}
	l.WithField("bytes", bytes).Debug("Download completed")
}

// LogCrawlProgress logs how far into the page budget the crawl is
func LogCrawlProgress(log Logger, visited, limit int) {
	percentage := 0.0
	if limit > 0 {
		percentage = float64(visited) / float64(limit) * 100
	}

	log.WithFields(map[string]interface{}{
		"visited":    visited,
		"limit":      limit,
		"percentage": fmt.Sprintf("%.1f%%", percentage),
	}).Debug("Crawl progress")
}

// LogComponentStart logs when a component starts
func LogComponentStart(log Logger, component string, config map[string]interface{}) {
	l := log.WithField("component", component)

	if len(config) > 0 {
		l = l.WithFields(config)
	}

	l.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(log Logger, component string, reason string) {
	log.WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing (useful for testing)
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
