// Package mailersend delivers mail through the MailerSend API.
package mailersend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/mailersend/mailersend-go"

	"github.com/dmitrymomot/mailrelay/pkg/mailer"
)

const providerName = "mailersend"

// Config holds MailerSend provider configuration.
type Config struct {
	APIKey string `env:"MAILERSEND_API_KEY"`
}

// Option configures the Sender.
type Option func(*Sender)

// WithTransport sets the round tripper used for API calls.
func WithTransport(rt http.RoundTripper) Option {
	return func(s *Sender) {
		if rt != nil {
			s.transport = rt
		}
	}
}

// Sender implements mailer.Sender using the MailerSend API.
type Sender struct {
	client    *mailersend.Mailersend
	transport http.RoundTripper
}

// New creates a new MailerSend sender.
func New(cfg Config, opts ...Option) *Sender {
	s := &Sender{
		client:    mailersend.NewMailersend(cfg.APIKey),
		transport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(s)
	}
	// The SDK drains error bodies and keeps only "message".
	s.client.SetClient(&http.Client{Transport: &captureTransport{next: s.transport}})
	return s
}

// Name implements mailer.Sender.
func (s *Sender) Name() string { return providerName }

// Send implements mailer.Sender.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) (*mailer.Receipt, error) {
	msg := s.client.Email.NewMessage()
	msg.SetFrom(mailersend.From{Name: email.From.Name, Email: email.From.Email})
	msg.SetRecipients(recipients(email.To))
	if !email.ReplyTo.IsZero() {
		msg.SetReplyTo(mailersend.ReplyTo{Name: email.ReplyTo.Name, Email: email.ReplyTo.Email})
	}
	msg.SetSubject(email.Subject)
	msg.SetHTML(email.HTML)
	msg.SetText(email.Text)

	captured := &errorBody{}
	res, err := s.client.Email.Send(context.WithValue(ctx, errorBodyKey{}, captured), msg)
	if err != nil {
		return nil, convertError(err, captured.data)
	}
	if res == nil || res.Response == nil {
		return &mailer.Receipt{}, nil
	}

	// MailerSend answers 202 with an empty body; the message id travels in a header.
	body := map[string]any{}
	if id := res.Header.Get("X-Message-Id"); id != "" {
		body["messageId"] = id
	}
	return &mailer.Receipt{StatusCode: res.StatusCode, Body: body}, nil
}

func recipients(list []mailer.Address) []mailersend.Recipient {
	out := make([]mailersend.Recipient, len(list))
	for i, a := range list {
		out[i] = mailersend.Recipient{Name: a.Name, Email: a.Email}
	}
	return out
}

type errorBodyKey struct{}

// errorBody receives the raw body of a failed API call.
type errorBody struct {
	data []byte
}

// captureTransport copies non-2xx response bodies into the errorBody found in
// the request context and hands the SDK an unread copy.
type captureTransport struct {
	next http.RoundTripper
}

func (t *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil || resp.StatusCode < 300 {
		return resp, err
	}

	slot, ok := req.Context().Value(errorBodyKey{}).(*errorBody)
	if !ok || resp.Body == nil {
		return resp, nil
	}

	data, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}
	slot.data = data
	resp.Body = io.NopCloser(bytes.NewReader(data))
	return resp, nil
}

// convertError maps the SDK's API errors onto mailer.ProviderError, keeping
// the full JSON body when one was captured.
func convertError(err error, raw []byte) error {
	var (
		apiErr  *mailersend.ErrorResponse
		authErr *mailersend.AuthError
	)
	switch {
	case errors.As(err, &authErr):
		apiErr = (*mailersend.ErrorResponse)(authErr)
	case errors.As(err, &apiErr):
	default:
		return fmt.Errorf("mailersend: %w", err)
	}

	body := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &body)
	}
	if _, ok := body["message"]; !ok && apiErr.Message != "" {
		body["message"] = apiErr.Message
	}

	status := 0
	if apiErr.Response != nil {
		status = apiErr.Response.StatusCode
	}
	return &mailer.ProviderError{
		Provider:   providerName,
		StatusCode: status,
		Body:       body,
		Err:        err,
	}
}
