// Package providers builds the configured mailer.Sender.
package providers

import (
	"context"
	"fmt"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/dmitrymomot/mailrelay/internal/config"
	"github.com/dmitrymomot/mailrelay/pkg/mailer"
	"github.com/dmitrymomot/mailrelay/pkg/mailer/mailersend"
	"github.com/dmitrymomot/mailrelay/pkg/mailer/resend"
	"github.com/dmitrymomot/mailrelay/pkg/mailer/sendgrid"
	"github.com/dmitrymomot/mailrelay/pkg/mailer/ses"
)

// New returns the sender selected by cfg.Provider. With cfg.DryRun set the
// provider is only named and nothing leaves the process.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (mailer.Sender, error) {
	if cfg.DryRun {
		log.WarnContext(ctx, "dry run enabled, emails are logged and not sent", slog.String("provider", cfg.Provider))
		return mailer.NewDryRunSender(cfg.Provider, log), nil
	}

	switch cfg.Provider {
	case config.ProviderMailerSend:
		return mailersend.New(cfg.MailerSend), nil
	case config.ProviderResend:
		return resend.New(cfg.Resend), nil
	case config.ProviderSendGrid:
		return sendgrid.New(cfg.SendGrid), nil
	case config.ProviderSES:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return ses.NewFromConfig(awsCfg), nil
	default:
		return nil, fmt.Errorf("%w: unknown email provider %q", config.ErrConfiguration, cfg.Provider)
	}
}
