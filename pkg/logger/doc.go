// Package logger builds slog loggers with context extraction and optional
// Sentry reporting.
//
// Extractors inject request-scoped values (such as the request ID) into every
// record written with a context:
//
//	log := logger.New(logger.Config{Level: slog.LevelInfo, Format: logger.FormatJSON},
//		middlewares.RequestIDExtractor(),
//	)
//	log.InfoContext(ctx, "email accepted")
//	// {"level":"INFO","msg":"email accepted","request_id":"01J..."}
//
// NewWithSentry additionally forwards warnings and errors to Sentry when a DSN
// is configured, and falls back to the plain logger otherwise. Call Flush on
// shutdown so buffered events are delivered.
package logger
