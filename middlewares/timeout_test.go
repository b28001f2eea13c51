package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailrelay/internal/server"
	"github.com/dmitrymomot/mailrelay/middlewares"
)

func TestTimeout(t *testing.T) {
	t.Parallel()

	t.Run("fast handler", func(t *testing.T) {
		t.Parallel()

		app := newApp(ok, server.WithMiddleware(middlewares.Timeout(time.Second)))
		rec := do(app, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "ok", rec.Body.String())
	})

	t.Run("slow handler", func(t *testing.T) {
		t.Parallel()

		app := newApp(func(c server.Context) error {
			<-c.Done()
			return nil
		}, server.WithMiddleware(middlewares.Timeout(20*time.Millisecond)))

		rec := do(app, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusGatewayTimeout, rec.Code)
		require.Equal(t, "request timeout after 20ms", rec.Body.String())
	})

	t.Run("handler headers are forwarded", func(t *testing.T) {
		t.Parallel()

		app := newApp(func(c server.Context) error {
			c.SetHeader("X-Order", "42")
			return c.JSON(http.StatusCreated, map[string]string{"status": "queued"})
		}, server.WithMiddleware(middlewares.Timeout(time.Second)))

		rec := do(app, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusCreated, rec.Code)
		require.Equal(t, "42", rec.Header().Get("X-Order"))
		require.JSONEq(t, `{"status":"queued"}`, rec.Body.String())
	})

	t.Run("writes after timeout are discarded", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		wrote := make(chan error, 1)
		app := newApp(func(c server.Context) error {
			<-release
			c.SetHeader("X-Late", "1")
			err := c.String(http.StatusOK, "late")
			wrote <- err
			return err
		}, server.WithMiddleware(middlewares.Timeout(20*time.Millisecond)))

		rec := do(app, httptest.NewRequest(http.MethodGet, "/", nil))
		close(release)

		require.ErrorIs(t, <-wrote, http.ErrHandlerTimeout)
		require.Equal(t, http.StatusGatewayTimeout, rec.Code)
		require.Equal(t, "request timeout after 20ms", rec.Body.String())
		require.Empty(t, rec.Header().Get("X-Late"))
	})

	t.Run("deadline reaches handler", func(t *testing.T) {
		t.Parallel()

		app := newApp(func(c server.Context) error {
			_, ok := c.Deadline()
			require.True(t, ok)
			return c.NoContent(http.StatusNoContent)
		}, server.WithMiddleware(middlewares.Timeout(time.Second)))

		rec := do(app, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestTimeout_RecoverInside(t *testing.T) {
	t.Parallel()

	app := newApp(func(c server.Context) error {
		panic("in goroutine")
	}, server.WithMiddleware(middlewares.Timeout(time.Second), middlewares.Recover()))

	rec := do(app, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
