package middlewares

import (
	"bytes"
	"context"
	"errors"
	"maps"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/mailrelay/internal/server"
)

// DefaultTimeout is the default request timeout.
const DefaultTimeout = 30 * time.Second

// Timeout bounds request handling. The deadline is attached to the request
// context, so handlers passing c to blocking calls are cancelled with it.
// When the deadline passes first a *TimeoutError is returned.
//
// The handler runs in its own goroutine and writes into a buffer that is
// copied to the client only if it finishes in time. After a timeout its
// writes fail with http.ErrHandlerTimeout.
func Timeout(timeout time.Duration) server.Middleware {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return func(next server.HandlerFunc) server.HandlerFunc {
		return func(c server.Context) error {
			ctx, cancel := context.WithTimeout(c.Context(), timeout)
			defer cancel()

			c.SetContext(ctx)

			tw := &timeoutWriter{header: make(http.Header)}
			inner := server.WithResponse(c, tw)

			done := make(chan error, 1)
			go func() {
				done <- next(inner)
			}()

			select {
			case err := <-done:
				// A handler that gave up on the deadline without answering
				// is reported as a timeout.
				if wrote := tw.flushTo(c.Response()); wrote || err != nil || ctx.Err() == nil {
					return err
				}
			case <-ctx.Done():
				tw.abandon()
			}

			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				c.LogWarn("request timeout", "timeout", timeout.String())
				return &TimeoutError{Duration: timeout}
			}
			return ctx.Err()
		}
	}
}

// timeoutWriter buffers a response until the handler returns.
type timeoutWriter struct {
	header      http.Header
	buf         bytes.Buffer
	code        int
	mu          sync.Mutex
	wroteHeader bool
	timedOut    bool
}

func (tw *timeoutWriter) Header() http.Header { return tw.header }

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut || tw.wroteHeader {
		return
	}
	tw.wroteHeader = true
	tw.code = code
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	if !tw.wroteHeader {
		tw.wroteHeader = true
		tw.code = http.StatusOK
	}
	return tw.buf.Write(b)
}

func (tw *timeoutWriter) abandon() {
	tw.mu.Lock()
	tw.timedOut = true
	tw.mu.Unlock()
}

// flushTo copies the buffered response to w and reports whether a response
// was written. Only called once the handler goroutine has returned.
func (tw *timeoutWriter) flushTo(w http.ResponseWriter) bool {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	maps.Copy(w.Header(), tw.header)
	if !tw.wroteHeader {
		return false
	}
	w.WriteHeader(tw.code)
	_, _ = w.Write(tw.buf.Bytes())
	return true
}
