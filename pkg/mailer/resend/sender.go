// Package resend delivers mail through the Resend API.
package resend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/resend/resend-go/v3"

	"github.com/dmitrymomot/mailrelay/pkg/mailer"
)

const providerName = "resend"

// Sender implements mailer.Sender using the Resend API.
type Sender struct {
	client *resend.Client
}

// New creates a new Resend sender.
func New(cfg Config) *Sender {
	client := resend.NewClient(cfg.APIKey)
	if cfg.BaseURL != "" {
		if u, err := url.Parse(cfg.BaseURL); err == nil {
			client.BaseURL = u
		}
	}
	return &Sender{client: client}
}

// Name implements mailer.Sender.
func (s *Sender) Name() string { return providerName }

// Send implements mailer.Sender.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) (*mailer.Receipt, error) {
	req := &resend.SendEmailRequest{
		From:    email.From.String(),
		To:      addresses(email.To),
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
		Headers: email.Headers,
	}
	if !email.ReplyTo.IsZero() {
		req.ReplyTo = email.ReplyTo.String()
	}

	sent, err := s.client.Emails.SendWithContext(ctx, req)
	if err != nil {
		// Resend's SDK flattens API errors into the error text.
		return nil, &mailer.ProviderError{Provider: providerName, Err: err}
	}

	return &mailer.Receipt{StatusCode: http.StatusOK, Body: sent}, nil
}

func addresses(list []mailer.Address) []string {
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = a.String()
	}
	return out
}
