package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResponseWriter(t *testing.T) {
	t.Parallel()

	t.Run("write header once", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		rw := NewResponseWriter(w)

		rw.WriteHeader(http.StatusNotFound)
		rw.WriteHeader(http.StatusInternalServerError)

		require.Equal(t, http.StatusNotFound, rw.Status())
		require.Equal(t, http.StatusNotFound, w.Code)
		require.True(t, rw.Written())
	})

	t.Run("write implies 200", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		rw := NewResponseWriter(w)
		require.False(t, rw.Written())

		n, err := rw.Write([]byte("hello"))
		require.NoError(t, err)
		require.Equal(t, 5, n)
		require.Equal(t, int64(5), rw.Size())
		require.Equal(t, http.StatusOK, w.Code)
		require.True(t, rw.Written())
	})

	t.Run("unwrap", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		require.Same(t, w, NewResponseWriter(w).Unwrap())
	})
}
