// Package middlewares provides HTTP middleware for server.App.
//
// Recommended order for a JSON API:
//
//	server.WithMiddleware(
//		middlewares.CORS(...),         // answer preflight before anything else
//		middlewares.RequestID(),       // correlate logs
//		middlewares.AccessLog(),       // one line per request, with status
//		middlewares.Timeout(30*time.Second),
//		middlewares.Recover(),         // inside Timeout so handler panics are caught
//	)
//
// Recover and Timeout return *PanicError and *TimeoutError; the app's error
// handler decides how to render them.
package middlewares
