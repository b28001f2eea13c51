package server_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailrelay/internal/server"
)

type funcHandler func(r server.Router)

func (f funcHandler) Routes(r server.Router) { f(r) }

func jsonErrorHandler(c server.Context, err error) error {
	if he := server.AsHTTPError(err); he != nil {
		return c.JSON(he.Code, map[string]any{"error": he.Message, "details": he.Details})
	}
	return c.JSON(http.StatusInternalServerError, map[string]any{"error": "internal", "details": nil})
}

func serve(app http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func TestApp_Routing(t *testing.T) {
	t.Parallel()

	app := server.New(
		server.WithHandlers(funcHandler(func(r server.Router) {
			r.GET("/", func(c server.Context) error {
				return c.String(http.StatusOK, "running")
			})
			r.POST("/echo", func(c server.Context) error {
				body, err := c.Body()
				if err != nil {
					return server.ErrBadRequest(err.Error())
				}
				return c.JSON(http.StatusOK, map[string]string{"body": string(body)})
			})
			r.GET("/fail", func(c server.Context) error {
				return server.ErrBadRequest("nope", server.WithDetails("because"))
			})
			r.GET("/boom", func(c server.Context) error {
				return errors.New("boom")
			})
		})),
		server.WithErrorHandler(jsonErrorHandler),
		server.WithNotFoundHandler(func(c server.Context) error {
			return server.ErrNotFound("Not found.")
		}),
		server.WithMethodNotAllowedHandler(func(c server.Context) error {
			return server.ErrMethodNotAllowed("Method not allowed.")
		}),
		server.WithMaxBodyBytes(16),
	)

	t.Run("plain text", func(t *testing.T) {
		t.Parallel()
		rec := serve(app, http.MethodGet, "/", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "running", rec.Body.String())
		require.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	})

	t.Run("body is readable", func(t *testing.T) {
		t.Parallel()
		rec := serve(app, http.MethodPost, "/echo", "hello")
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"body":"hello"}`, rec.Body.String())
	})

	t.Run("body limit", func(t *testing.T) {
		t.Parallel()
		rec := serve(app, http.MethodPost, "/echo", strings.Repeat("x", 64))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "too large")
	})

	t.Run("http error with details", func(t *testing.T) {
		t.Parallel()
		rec := serve(app, http.MethodGet, "/fail", "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.JSONEq(t, `{"error":"nope","details":"because"}`, rec.Body.String())
	})

	t.Run("plain error", func(t *testing.T) {
		t.Parallel()
		rec := serve(app, http.MethodGet, "/boom", "")
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		rec := serve(app, http.MethodGet, "/missing", "")
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.JSONEq(t, `{"error":"Not found.","details":null}`, rec.Body.String())
	})

	t.Run("method not allowed", func(t *testing.T) {
		t.Parallel()
		rec := serve(app, http.MethodGet, "/echo", "")
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestApp_DefaultErrorHandler(t *testing.T) {
	t.Parallel()

	app := server.New(server.WithHandlers(funcHandler(func(r server.Router) {
		r.GET("/", func(c server.Context) error { return errors.New("boom") })
	})))

	rec := serve(app, http.MethodGet, "/", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestApp_Middleware(t *testing.T) {
	t.Parallel()

	var order []string
	mark := func(name string) server.Middleware {
		return func(next server.HandlerFunc) server.HandlerFunc {
			return func(c server.Context) error {
				order = append(order, name)
				return next(c)
			}
		}
	}

	type key struct{}
	app := server.New(
		server.WithMiddleware(mark("global-1"), mark("global-2"), func(next server.HandlerFunc) server.HandlerFunc {
			return func(c server.Context) error {
				c.Set(key{}, "value")
				return next(c)
			}
		}),
		server.WithHandlers(funcHandler(func(r server.Router) {
			r.GET("/", func(c server.Context) error {
				order = append(order, "handler")
				return c.String(http.StatusOK, c.Get(key{}).(string))
			}, mark("route-1"), mark("route-2"))
		})),
	)

	rec := serve(app, http.MethodGet, "/", "")
	require.Equal(t, "value", rec.Body.String())
	require.Equal(t, []string{"global-1", "global-2", "route-1", "route-2", "handler"}, order)
}

func TestApp_MiddlewareError(t *testing.T) {
	t.Parallel()

	app := server.New(
		server.WithMiddleware(func(next server.HandlerFunc) server.HandlerFunc {
			return func(c server.Context) error {
				return server.ErrBadRequest("blocked")
			}
		}),
		server.WithErrorHandler(jsonErrorHandler),
		server.WithHandlers(funcHandler(func(r server.Router) {
			r.GET("/", func(c server.Context) error { return c.NoContent(http.StatusOK) })
		})),
	)

	rec := serve(app, http.MethodGet, "/", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":"blocked","details":null}`, rec.Body.String())
}

func TestApp_SetContext(t *testing.T) {
	t.Parallel()

	app := server.New(
		server.WithMiddleware(func(next server.HandlerFunc) server.HandlerFunc {
			return func(c server.Context) error {
				ctx, cancel := context.WithCancel(c.Context())
				cancel()
				c.SetContext(ctx)
				return next(c)
			}
		}),
		server.WithHandlers(funcHandler(func(r server.Router) {
			r.GET("/", func(c server.Context) error {
				return c.String(http.StatusOK, c.Err().Error())
			})
		})),
	)

	rec := serve(app, http.MethodGet, "/", "")
	require.Equal(t, context.Canceled.Error(), rec.Body.String())
}

func TestWithResponse(t *testing.T) {
	t.Parallel()

	buffered := httptest.NewRecorder()
	app := server.New(
		server.WithHandlers(funcHandler(func(r server.Router) {
			r.GET("/", func(c server.Context) error {
				inner := server.WithResponse(c, buffered)
				if err := inner.String(http.StatusAccepted, "inner"); err != nil {
					return err
				}
				require.True(t, inner.Written())
				require.False(t, c.Written())
				return c.String(http.StatusOK, "outer")
			})
		})),
	)

	rec := serve(app, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "outer", rec.Body.String())
	require.Equal(t, http.StatusAccepted, buffered.Code)
	require.Equal(t, "inner", buffered.Body.String())
}

func TestApp_HealthAndMount(t *testing.T) {
	t.Parallel()

	app := server.New(
		server.WithHealthChecks(
			server.WithReadinessCheck("broken", func(context.Context) error { return errors.New("down") }),
		),
		server.WithMount("/metrics", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("metrics"))
		})),
	)

	require.Equal(t, http.StatusOK, serve(app, http.MethodGet, "/health/live", "").Code)
	require.Equal(t, http.StatusServiceUnavailable, serve(app, http.MethodGet, "/health/ready", "").Code)
	require.Equal(t, "metrics", serve(app, http.MethodGet, "/metrics", "").Body.String())
}
