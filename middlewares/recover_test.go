package middlewares_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailrelay/internal/server"
	"github.com/dmitrymomot/mailrelay/middlewares"
)

func TestRecover(t *testing.T) {
	t.Parallel()

	t.Run("panic becomes error", func(t *testing.T) {
		t.Parallel()

		app := newApp(func(c server.Context) error {
			panic("kaboom")
		}, server.WithMiddleware(middlewares.Recover()))

		rec := do(app, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Equal(t, "panic: kaboom", rec.Body.String())
	})

	t.Run("errors pass through", func(t *testing.T) {
		t.Parallel()

		app := newApp(func(c server.Context) error {
			return errors.New("plain")
		}, server.WithMiddleware(middlewares.Recover()))

		rec := do(app, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	})
}

func TestRecover_Stack(t *testing.T) {
	t.Parallel()

	var captured *middlewares.PanicError
	handler := middlewares.Recover(middlewares.WithRecoverStackSize(1024))(func(c server.Context) error {
		panic(errors.New("bad"))
	})
	app := newApp(func(c server.Context) error {
		err := handler(c)
		pe, ok := middlewares.AsPanicError(err)
		require.True(t, ok)
		captured = pe
		return c.NoContent(http.StatusNoContent)
	})

	do(app, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotNil(t, captured)
	require.NotEmpty(t, captured.Stack)
	require.LessOrEqual(t, len(captured.Stack), 1024)

	handler = middlewares.Recover(middlewares.WithRecoverDisablePrintStack())(func(c server.Context) error {
		panic("no stack")
	})
	do(app, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Nil(t, captured.Stack)
}
