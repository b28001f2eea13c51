// Package sendgrid delivers mail through the SendGrid v3 API.
package sendgrid

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/dmitrymomot/mailrelay/pkg/mailer"
)

const (
	providerName = "sendgrid"
	sendEndpoint = "/v3/mail/send"
)

// Config holds SendGrid provider configuration.
type Config struct {
	APIKey string `env:"SENDGRID_API_KEY"`
	Host   string `env:"SENDGRID_API_HOST" envDefault:"https://api.sendgrid.com"`
}

// Sender implements mailer.Sender using the SendGrid API.
type Sender struct {
	client *sendgrid.Client
}

// New creates a new SendGrid sender.
func New(cfg Config) *Sender {
	client := sendgrid.NewSendClient(cfg.APIKey)
	if cfg.Host != "" {
		client.BaseURL = strings.TrimRight(cfg.Host, "/") + sendEndpoint
	}
	return &Sender{client: client}
}

// Name implements mailer.Sender.
func (s *Sender) Name() string { return providerName }

// Send implements mailer.Sender.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) (*mailer.Receipt, error) {
	msg := mail.NewV3Mail()
	msg.SetFrom(mail.NewEmail(email.From.Name, email.From.Email))
	if !email.ReplyTo.IsZero() {
		msg.SetReplyTo(mail.NewEmail(email.ReplyTo.Name, email.ReplyTo.Email))
	}
	msg.Subject = email.Subject

	p := mail.NewPersonalization()
	for _, to := range email.To {
		p.AddTos(mail.NewEmail(to.Name, to.Email))
	}
	msg.AddPersonalizations(p)

	// SendGrid requires text/plain before text/html.
	if email.Text != "" {
		msg.AddContent(mail.NewContent("text/plain", email.Text))
	}
	if email.HTML != "" {
		msg.AddContent(mail.NewContent("text/html", email.HTML))
	}

	// The client stores the request body on itself, so each send works on a copy.
	client := *s.client
	resp, err := client.SendWithContext(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("sendgrid: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &mailer.ProviderError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			Body:       errorBody(resp.Body),
		}
	}

	var body any
	if strings.TrimSpace(resp.Body) != "" {
		body = decodeBody(resp.Body)
	}
	return &mailer.Receipt{StatusCode: resp.StatusCode, Body: body}, nil
}

// errorBody decodes a SendGrid error payload and lifts the first error
// message to the top-level "message" key.
func errorBody(raw string) map[string]any {
	body, ok := decodeBody(raw).(map[string]any)
	if !ok {
		if strings.TrimSpace(raw) == "" {
			return nil
		}
		return map[string]any{"message": strings.TrimSpace(raw)}
	}

	if _, has := body["message"]; !has {
		if errs, ok := body["errors"].([]any); ok && len(errs) > 0 {
			if first, ok := errs[0].(map[string]any); ok {
				if msg, ok := first["message"].(string); ok {
					body["message"] = msg
				}
			}
		}
	}
	return body
}

func decodeBody(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}
