// Package ses delivers mail through Amazon SES (API v2).
package ses

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/aws/smithy-go"

	"github.com/dmitrymomot/mailrelay/pkg/mailer"
)

const (
	providerName = "ses"
	charset      = "UTF-8"
)

// API is the subset of the SES v2 client used by Sender.
type API interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Sender implements mailer.Sender using Amazon SES.
type Sender struct {
	client API
}

// New creates a sender around an SES client.
func New(client API) *Sender {
	return &Sender{client: client}
}

// NewFromConfig creates a sender from a loaded AWS configuration.
func NewFromConfig(cfg aws.Config) *Sender {
	return New(sesv2.NewFromConfig(cfg))
}

// Name implements mailer.Sender.
func (s *Sender) Name() string { return providerName }

// Send implements mailer.Sender.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) (*mailer.Receipt, error) {
	to := make([]string, len(email.To))
	for i, a := range email.To {
		to[i] = a.String()
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(email.From.String()),
		Destination:      &types.Destination{ToAddresses: to},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: content(email.Subject),
				Body: &types.Body{
					Html: content(email.HTML),
					Text: content(email.Text),
				},
			},
		},
	}
	if !email.ReplyTo.IsZero() {
		input.ReplyToAddresses = []string{email.ReplyTo.String()}
	}

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return nil, convertError(err)
	}

	return &mailer.Receipt{
		StatusCode: http.StatusOK,
		Body:       map[string]any{"messageId": aws.ToString(out.MessageId)},
	}, nil
}

func content(s string) *types.Content {
	if s == "" {
		return nil
	}
	return &types.Content{Data: aws.String(s), Charset: aws.String(charset)}
}

// convertError maps SES API errors onto mailer.ProviderError.
func convertError(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("ses: %w", err)
	}
	return &mailer.ProviderError{
		Provider: providerName,
		Body: map[string]any{
			"message": apiErr.ErrorMessage(),
			"errors": map[string]any{
				"code":  apiErr.ErrorCode(),
				"fault": apiErr.ErrorFault().String(),
			},
		},
		Err: err,
	}
}
