package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailrelay/internal/handlers"
	"github.com/dmitrymomot/mailrelay/internal/order"
	"github.com/dmitrymomot/mailrelay/internal/server"
	"github.com/dmitrymomot/mailrelay/pkg/mailer"
	"github.com/dmitrymomot/mailrelay/pkg/mailer/mailertest"
)

const validBody = `{"toEmail":"a@b.com","toName":"Alice","subject":"Order",` +
	`"purchaseDetails":[{"name":"Widget","quantity":2,"price":10}],"totalPrice":20}`

func newApp(sender mailer.Sender, policy order.MismatchPolicy, opts ...mailer.GatewayOption) *server.App {
	gateway := mailer.NewGateway(sender, opts...)
	renderer := order.NewRenderer(order.Branding{AppName: "E-Waste App", AccentColor: "#4CAF50", CurrencySymbol: "₹"})

	return server.New(
		server.WithHandlers(
			handlers.NewStatusHandler("E-Waste App Email Service"),
			handlers.NewEmailHandler(gateway, renderer, handlers.EmailConfig{
				SenderEmail:    "no-reply@ewaste.example",
				SenderName:     "E-Waste App Notifications",
				MismatchPolicy: policy,
			}),
		),
		server.WithErrorHandler(handlers.HandleError),
		server.WithNotFoundHandler(handlers.NotFound),
		server.WithMethodNotAllowedHandler(handlers.MethodNotAllowed),
	)
}

func post(app http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestSendConfirmation_Success(t *testing.T) {
	t.Parallel()

	sender := mailertest.NewMockSender("mailersend")
	var sent *mailer.Email
	sender.On("Send", mock.Anything, mock.AnythingOfType("*mailer.Email")).
		Run(func(args mock.Arguments) { sent = args.Get(1).(*mailer.Email) }).
		Return(&mailer.Receipt{StatusCode: 202, Body: map[string]any{"messageId": "abc"}}, nil).
		Once()

	rec := post(newApp(sender, order.MismatchAccept), "/send-confirmation-email", validBody)

	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	require.Equal(t, handlers.MsgQueued, out["message"])
	require.Equal(t, map[string]any{"messageId": "abc"}, out["mailerSendResponse"])

	sender.AssertExpectations(t)
	require.NotNil(t, sent)
	require.Equal(t, mailer.Address{Email: "no-reply@ewaste.example", Name: "E-Waste App Notifications"}, sent.From)
	require.Equal(t, sent.From, sent.ReplyTo)
	require.Equal(t, []mailer.Address{{Email: "a@b.com", Name: "Alice"}}, sent.To)
	require.Equal(t, "Order", sent.Subject)
	require.Contains(t, sent.Text, "- Widget (x2) @ ₹10.00 = ₹20.00")
	require.Contains(t, sent.HTML, "₹20.00")
}

func TestSendConfirmation_ValidationFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"missing toEmail", `{"toName":"Alice","subject":"Order","purchaseDetails":[],"totalPrice":0}`},
		{"missing subject", `{"toEmail":"a@b.com","toName":"Alice","purchaseDetails":[],"totalPrice":0}`},
		{"totalPrice not a number", `{"toEmail":"a@b.com","toName":"Alice","subject":"Order","purchaseDetails":[],"totalPrice":"0"}`},
		{"purchaseDetails missing", `{"toEmail":"a@b.com","toName":"Alice","subject":"Order","totalPrice":0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sender := mailertest.NewMockSender("mailersend")
			rec := post(newApp(sender, order.MismatchAccept), "/send-confirmation-email", tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			out := decode(t, rec)
			require.Equal(t, order.MsgInvalidConfirmation, out["error"])

			var echoed map[string]any
			require.NoError(t, json.Unmarshal([]byte(tt.body), &echoed))
			require.Equal(t, echoed, out["details"])

			sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
		})
	}
}

func TestSendConfirmation_NonJSONBody(t *testing.T) {
	t.Parallel()

	sender := mailertest.NewMockSender("mailersend")
	rec := post(newApp(sender, order.MismatchAccept), "/send-confirmation-email", "toEmail=a@b.com")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	out := decode(t, rec)
	require.Equal(t, "toEmail=a@b.com", out["details"])
}

func TestSendConfirmation_TotalMismatch(t *testing.T) {
	t.Parallel()

	body := `{"toEmail":"a@b.com","toName":"Alice","subject":"Order",` +
		`"purchaseDetails":[{"name":"Widget","quantity":2,"price":10}],"totalPrice":25}`

	t.Run("accept sends with total as given", func(t *testing.T) {
		t.Parallel()

		sender := mailertest.NewMockSender("mailersend")
		sender.On("Send", mock.Anything, mock.MatchedBy(func(e *mailer.Email) bool {
			return strings.Contains(e.Text, "Order Total: ₹25.00")
		})).Return(&mailer.Receipt{StatusCode: 202}, nil).Once()

		rec := post(newApp(sender, order.MismatchAccept), "/send-confirmation-email", body)
		require.Equal(t, http.StatusOK, rec.Code)
		sender.AssertExpectations(t)
	})

	t.Run("reject answers 400", func(t *testing.T) {
		t.Parallel()

		sender := mailertest.NewMockSender("mailersend")
		rec := post(newApp(sender, order.MismatchReject), "/send-confirmation-email", body)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		out := decode(t, rec)
		require.Equal(t, order.MsgTotalMismatch, out["error"])
		require.NotNil(t, out["details"])
		sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})
}

func TestSendConfirmation_ProviderFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		err         error
		wantError   string
		wantDetails any
	}{
		{
			name: "structured body",
			err: &mailer.ProviderError{
				Provider:   "mailersend",
				StatusCode: 422,
				Body: map[string]any{
					"message": "Invalid recipient",
					"errors":  map[string]any{"to": []any{"The to field is invalid."}},
				},
			},
			wantError:   "Invalid recipient",
			wantDetails: map[string]any{"to": []any{"The to field is invalid."}},
		},
		{
			name:        "raw error",
			err:         errors.New("dial tcp: connection refused"),
			wantError:   "dial tcp: connection refused",
			wantDetails: "dial tcp: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sender := mailertest.NewMockSender("mailersend")
			sender.On("Send", mock.Anything, mock.Anything).Return(nil, tt.err).Once()

			rec := post(newApp(sender, order.MismatchAccept), "/send-confirmation-email", validBody)

			require.Equal(t, http.StatusInternalServerError, rec.Code)
			out := decode(t, rec)
			require.Equal(t, tt.wantError, out["error"])
			require.Equal(t, tt.wantDetails, out["details"])
			sender.AssertNumberOfCalls(t, "Send", 1)
		})
	}
}

func TestSendConfirmation_ProviderTimeout(t *testing.T) {
	t.Parallel()

	sender := mailertest.NewMockSender("mailersend")
	sender.On("Send", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(interface{ Done() <-chan struct{} }).Done()
		}).
		Return(nil, errors.New("context deadline exceeded")).Once()

	app := newApp(sender, order.MismatchAccept, mailer.WithTimeout(20*time.Millisecond))
	rec := post(app, "/send-confirmation-email", validBody)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	out := decode(t, rec)
	require.Equal(t, mailer.TimeoutMessage, out["error"])
	require.Equal(t, "no response within 20ms", out["details"])
}

func TestSendEmail(t *testing.T) {
	t.Parallel()

	t.Run("html content is sanitized", func(t *testing.T) {
		t.Parallel()

		sender := mailertest.NewMockSender("mailersend")
		sender.On("Send", mock.Anything, mock.MatchedBy(func(e *mailer.Email) bool {
			return !strings.Contains(e.HTML, "<script") &&
				e.Text == "Hello" &&
				e.To[0] == mailer.Address{Email: "a@b.com", Name: "a@b.com"}
		})).Return(&mailer.Receipt{StatusCode: 202, Body: "queued"}, nil).Once()

		rec := post(newApp(sender, order.MismatchAccept), "/send-email",
			`{"toEmail":"a@b.com","subject":"Hi","htmlContent":"<p>Hello</p><script>x()</script>"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "queued", decode(t, rec)["mailerSendResponse"])
		sender.AssertExpectations(t)
	})

	t.Run("no content", func(t *testing.T) {
		t.Parallel()

		sender := mailertest.NewMockSender("mailersend")
		rec := post(newApp(sender, order.MismatchAccept), "/send-email", `{"toEmail":"a@b.com","subject":"Hi"}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, order.MsgInvalidContent, decode(t, rec)["error"])
		sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})
}

func TestStatusAndFallbacks(t *testing.T) {
	t.Parallel()

	app := newApp(mailertest.NewMockSender("mailersend"), order.MismatchAccept)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "E-Waste App Email Service is running!", rec.Body.String())

	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, handlers.MsgNotFound, decode(t, rec)["error"])

	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/send-confirmation-email", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	out := decode(t, rec)
	require.Equal(t, handlers.MsgMethodNotAllowed, out["error"])
	require.Equal(t, "GET /send-confirmation-email", out["details"])
}
