package mailer

import (
	"context"
	"log/slog"
	"net/http"
)

// DryRunSender logs messages instead of delivering them.
type DryRunSender struct {
	logger   *slog.Logger
	provider string
}

// NewDryRunSender returns a sender standing in for the named provider.
func NewDryRunSender(provider string, logger *slog.Logger) *DryRunSender {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DryRunSender{provider: provider, logger: logger}
}

// Name implements Sender.
func (s *DryRunSender) Name() string { return s.provider + "-dry-run" }

// Send implements Sender. It always reports 202 Accepted.
func (s *DryRunSender) Send(ctx context.Context, email *Email) (*Receipt, error) {
	to := make([]string, len(email.To))
	for i, a := range email.To {
		to[i] = a.String()
	}
	s.logger.InfoContext(ctx, "dry-run email send",
		slog.String("provider", s.provider),
		slog.String("from", email.From.String()),
		slog.Any("to", to),
		slog.String("subject", email.Subject),
		slog.Int("html_bytes", len(email.HTML)),
		slog.Int("text_bytes", len(email.Text)),
	)
	return &Receipt{
		StatusCode: http.StatusAccepted,
		Body:       map[string]any{"dryRun": true},
	}, nil
}
