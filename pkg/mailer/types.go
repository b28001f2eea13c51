package mailer

import (
	"context"
	"fmt"
)

// Address is a mailbox with an optional display name.
type Address struct {
	Email string
	Name  string
}

// String returns "Name <email>" when a name is set, otherwise just the email.
func (a Address) String() string {
	if a.Name == "" {
		return a.Email
	}
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// IsZero reports whether the address has no email.
func (a Address) IsZero() bool { return a.Email == "" }

// Email represents a fully-prepared email message ready for sending.
type Email struct {
	Headers map[string]string
	From    Address
	ReplyTo Address
	Subject string
	HTML    string
	Text    string
	To      []Address
}

// Receipt is what a provider reports for an accepted message.
type Receipt struct {
	Body       any // provider payload, passed to API clients unchanged
	StatusCode int
}

// Sender is the interface that email provider adapters implement.
type Sender interface {
	// Name identifies the provider in logs and metrics.
	Name() string
	// Send submits the message. Provider-side rejections should be
	// reported as *ProviderError.
	Send(ctx context.Context, email *Email) (*Receipt, error)
}
