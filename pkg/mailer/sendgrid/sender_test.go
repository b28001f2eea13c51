package sendgrid_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailrelay/pkg/mailer"
	"github.com/dmitrymomot/mailrelay/pkg/mailer/sendgrid"
)

func testEmail() *mailer.Email {
	from := mailer.Address{Email: "orders@example.com", Name: "Shop"}
	return &mailer.Email{
		From:    from,
		ReplyTo: from,
		To:      []mailer.Address{{Email: "jane@example.com", Name: "Jane"}},
		Subject: "Your order",
		HTML:    "<p>Hi</p>",
		Text:    "Hi",
	}
}

func TestSender_Send(t *testing.T) {
	t.Parallel()

	t.Run("accepted", func(t *testing.T) {
		t.Parallel()

		var payload map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/v3/mail/send", r.URL.Path)
			require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &payload)
			w.WriteHeader(http.StatusAccepted)
		}))
		defer srv.Close()

		s := sendgrid.New(sendgrid.Config{APIKey: "test-key", Host: srv.URL})
		receipt, err := s.Send(context.Background(), testEmail())
		require.NoError(t, err)
		require.Equal(t, http.StatusAccepted, receipt.StatusCode)
		require.Nil(t, receipt.Body)

		require.Equal(t, "Your order", payload["subject"])
		content := payload["content"].([]any)
		require.Len(t, content, 2)
		require.Equal(t, "text/plain", content[0].(map[string]any)["type"])
		require.Equal(t, "text/html", content[1].(map[string]any)["type"])
	})

	t.Run("rejected", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"errors":[{"message":"Invalid recipient","field":"personalizations.0.to"}]}`))
		}))
		defer srv.Close()

		s := sendgrid.New(sendgrid.Config{APIKey: "test-key", Host: srv.URL})
		_, err := s.Send(context.Background(), testEmail())

		var pe *mailer.ProviderError
		require.ErrorAs(t, err, &pe)
		require.Equal(t, http.StatusBadRequest, pe.StatusCode)
		require.Equal(t, "Invalid recipient", pe.Body["message"])
		require.Len(t, pe.Body["errors"], 1)
	})

	t.Run("plain text error body", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("unauthorized"))
		}))
		defer srv.Close()

		s := sendgrid.New(sendgrid.Config{APIKey: "bad", Host: srv.URL})
		_, err := s.Send(context.Background(), testEmail())

		var pe *mailer.ProviderError
		require.ErrorAs(t, err, &pe)
		require.Equal(t, map[string]any{"message": "unauthorized"}, pe.Body)
	})
}
