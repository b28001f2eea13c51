package middlewares

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/mailrelay/internal/server"
)

// AccessLog writes one log record per request once the handler returns.
// Place it after RequestID so records carry the request ID.
func AccessLog() server.Middleware {
	return func(next server.HandlerFunc) server.HandlerFunc {
		return func(c server.Context) error {
			start := time.Now()
			err := next(c)

			req := c.Request()
			attrs := []any{
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.Int("status", c.Status()),
				slog.Duration("duration", time.Since(start)),
				slog.String("remote_addr", req.RemoteAddr),
			}
			if rw, ok := c.Response().(*server.ResponseWriter); ok {
				attrs = append(attrs, slog.Int64("size", rw.Size()))
			}
			if err != nil {
				attrs = append(attrs, slog.Any("error", err))
			}

			switch status := c.Status(); {
			case err != nil, status >= 500:
				c.LogError("request", attrs...)
			case status >= 400:
				c.LogWarn("request", attrs...)
			default:
				c.LogInfo("request", attrs...)
			}
			return err
		}
	}
}
