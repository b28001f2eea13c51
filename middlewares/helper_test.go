package middlewares_test

import (
	"net/http"
	"net/http/httptest"

	"github.com/dmitrymomot/mailrelay/internal/server"
	"github.com/dmitrymomot/mailrelay/middlewares"
)

type funcHandler func(r server.Router)

func (f funcHandler) Routes(r server.Router) { f(r) }

// statusErrorHandler renders middleware errors with recognisable codes.
func statusErrorHandler(c server.Context, err error) error {
	switch {
	case middlewares.IsTimeoutError(err):
		return c.String(http.StatusGatewayTimeout, err.Error())
	case middlewares.IsPanicError(err):
		return c.String(http.StatusInternalServerError, err.Error())
	default:
		return c.String(http.StatusTeapot, err.Error())
	}
}

func newApp(h server.HandlerFunc, opts ...server.Option) *server.App {
	opts = append(opts,
		server.WithErrorHandler(statusErrorHandler),
		server.WithHandlers(funcHandler(func(r server.Router) {
			r.GET("/", h)
			r.POST("/", h)
		})),
	)
	return server.New(opts...)
}

func do(app http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func ok(c server.Context) error {
	return c.String(http.StatusOK, "ok")
}
