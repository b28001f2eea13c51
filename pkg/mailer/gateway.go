package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultTimeout bounds a single provider call.
const DefaultTimeout = 15 * time.Second

// SendParams describes one outbound message.
type SendParams struct {
	SenderAddress    string
	SenderName       string
	RecipientAddress string
	RecipientName    string
	Subject          string
	HTML             string
	Text             string
}

// Sent is the provider's acceptance of a message.
type Sent struct {
	ProviderResponse any
	ProviderStatus   int
}

// Gateway submits messages to a Sender and normalizes its failures.
type Gateway struct {
	sender  Sender
	logger  *slog.Logger
	metrics *Metrics
	timeout time.Duration
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithTimeout sets the per-call provider timeout.
func WithTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithLogger sets the logger used for delivery outcomes.
func WithLogger(l *slog.Logger) GatewayOption {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithMetrics records delivery counters and latency.
func WithMetrics(m *Metrics) GatewayOption {
	return func(g *Gateway) {
		g.metrics = m
	}
}

// NewGateway creates a gateway around the given sender.
func NewGateway(sender Sender, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		sender:  sender,
		logger:  slog.New(slog.DiscardHandler),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Provider returns the name of the underlying sender.
func (g *Gateway) Provider() string { return g.sender.Name() }

// Send submits one message with the sender as reply-to address.
// Provider failures are returned as *DeliveryError.
func (g *Gateway) Send(ctx context.Context, p SendParams) (*Sent, error) {
	switch {
	case p.SenderAddress == "":
		return nil, ErrNoSender
	case p.RecipientAddress == "":
		return nil, ErrNoRecipient
	case p.Subject == "":
		return nil, ErrNoSubject
	case p.HTML == "" && p.Text == "":
		return nil, ErrNoContent
	}

	from := Address{Email: p.SenderAddress, Name: p.SenderName}
	email := &Email{
		From:    from,
		ReplyTo: from,
		To:      []Address{{Email: p.RecipientAddress, Name: p.RecipientName}},
		Subject: p.Subject,
		HTML:    p.HTML,
		Text:    p.Text,
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	provider := g.sender.Name()
	start := time.Now()
	receipt, err := g.sender.Send(ctx, email)
	elapsed := time.Since(start)

	if err != nil {
		derr := g.normalize(ctx, err)
		g.metrics.observe(provider, string(derr.Kind), elapsed)
		g.logger.ErrorContext(ctx, "email delivery failed",
			slog.String("provider", provider),
			slog.String("kind", string(derr.Kind)),
			slog.String("message", derr.Message),
			slog.Any("details", derr.Details),
			slog.Duration("elapsed", elapsed),
		)
		return nil, derr
	}

	g.metrics.observe(provider, "sent", elapsed)
	if receipt == nil {
		receipt = &Receipt{}
	}
	g.logger.InfoContext(ctx, "email accepted by provider",
		slog.String("provider", provider),
		slog.Int("status", receipt.StatusCode),
		slog.Duration("elapsed", elapsed),
	)

	return &Sent{
		ProviderStatus:   receipt.StatusCode,
		ProviderResponse: receipt.Body,
	}, nil
}

// normalize turns any sender failure into a *DeliveryError.
// Structured provider bodies win over raw error text, which wins over the
// generic message.
func (g *Gateway) normalize(ctx context.Context, err error) *DeliveryError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &DeliveryError{
			Kind:    KindTimeout,
			Message: TimeoutMessage,
			Details: fmt.Sprintf("no response within %s", g.timeout),
			Err:     err,
		}
	}

	var pe *ProviderError
	if errors.As(err, &pe) && pe.Body != nil {
		msg, _ := pe.Body["message"].(string)
		if msg == "" {
			msg = GenericFailureMessage
		}
		var details any = pe.Body
		if errs, ok := pe.Body["errors"]; ok && errs != nil {
			details = errs
		}
		return &DeliveryError{Kind: KindProvider, Message: msg, Details: details, Err: err}
	}

	kind := KindNetwork
	if pe != nil {
		kind = KindProvider
	}
	if msg := err.Error(); msg != "" {
		return &DeliveryError{Kind: kind, Message: msg, Details: msg, Err: err}
	}
	return &DeliveryError{Kind: kind, Message: GenericFailureMessage, Err: err}
}
