package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrymomot/mailrelay/internal/order"
	"github.com/dmitrymomot/mailrelay/internal/server"
	"github.com/dmitrymomot/mailrelay/pkg/mailer"
)

// MsgQueued is returned when the provider accepted the message.
const MsgQueued = "Email successfully queued."

// Deliverer sends one rendered message.
type Deliverer interface {
	Send(ctx context.Context, p mailer.SendParams) (*mailer.Sent, error)
}

// Renderer turns validated requests into message bodies.
type Renderer interface {
	Confirmation(req *order.ConfirmationRequest) (*order.RenderedMessage, error)
	Content(req *order.ContentRequest) (*order.RenderedMessage, error)
}

// EmailConfig holds the sender identity and the total mismatch policy.
type EmailConfig struct {
	SenderEmail    string
	SenderName     string
	MismatchPolicy order.MismatchPolicy
}

// SuccessResponse is returned with 200 once the provider accepted the email.
type SuccessResponse struct {
	Message          string `json:"message"`
	ProviderResponse any    `json:"mailerSendResponse"`
}

// EmailHandler serves the email endpoints.
type EmailHandler struct {
	gateway  Deliverer
	renderer Renderer
	cfg      EmailConfig
}

// NewEmailHandler creates the email endpoints handler.
func NewEmailHandler(gateway Deliverer, renderer Renderer, cfg EmailConfig) *EmailHandler {
	if cfg.MismatchPolicy == "" {
		cfg.MismatchPolicy = order.MismatchAccept
	}
	return &EmailHandler{gateway: gateway, renderer: renderer, cfg: cfg}
}

// Routes registers the confirmation endpoint and the pre-rendered content
// endpoint kept for older clients.
func (h *EmailHandler) Routes(r server.Router) {
	r.POST("/send-confirmation-email", h.sendConfirmation)
	r.POST("/send-email", h.sendContent)
}

func (h *EmailHandler) sendConfirmation(c server.Context) error {
	body, err := readBody(c)
	if err != nil {
		return err
	}

	req, err := order.DecodeConfirmation(body)
	if err != nil {
		return badRequest(c, body, err)
	}

	c.LogInfo("request fields extracted",
		"to_email", req.ToEmail,
		"subject", req.Subject,
		"items", len(req.Items()),
		"total_price", req.Total().StringFixed(2),
	)
	if len(req.Items()) == 0 {
		c.LogWarn("purchase details are empty")
	}

	if !req.TotalMatches() {
		c.LogWarn("total price does not match line items",
			"total_price", req.Total().StringFixed(2),
			"computed_total", req.ComputedTotal().StringFixed(2),
			"policy", string(h.cfg.MismatchPolicy),
		)
		if err := req.CheckTotal(h.cfg.MismatchPolicy); err != nil {
			return badRequest(c, body, err)
		}
	}
	c.LogInfo("request validated")

	msg, err := h.renderer.Confirmation(req)
	if err != nil {
		c.LogError("render failed", "error", err)
		return server.ErrInternal(MsgRenderFailed, server.WithError(err))
	}

	return h.deliver(c, req.ToEmail, req.ToName, msg)
}

func (h *EmailHandler) sendContent(c server.Context) error {
	body, err := readBody(c)
	if err != nil {
		return err
	}

	req, err := order.DecodeContent(body)
	if err != nil {
		return badRequest(c, body, err)
	}
	c.LogInfo("request fields extracted",
		"to_email", req.ToEmail,
		"subject", req.Subject,
		"has_html", req.HTMLContent != "",
		"has_text", req.TextContent != "",
	)

	msg, err := h.renderer.Content(req)
	if err != nil {
		c.LogError("render failed", "error", err)
		return server.ErrInternal(MsgRenderFailed, server.WithError(err))
	}

	return h.deliver(c, req.ToEmail, req.ToName, msg)
}

func (h *EmailHandler) deliver(c server.Context, toEmail, toName string, msg *order.RenderedMessage) error {
	c.LogInfo("sending email", "to_email", toEmail)

	sent, err := h.gateway.Send(c, mailer.SendParams{
		SenderAddress:    h.cfg.SenderEmail,
		SenderName:       h.cfg.SenderName,
		RecipientAddress: toEmail,
		RecipientName:    toName,
		Subject:          msg.Subject,
		HTML:             msg.HTML,
		Text:             msg.Text,
	})
	if err != nil {
		if derr, ok := mailer.AsDeliveryError(err); ok {
			c.LogError("email send failed", "kind", string(derr.Kind), "error", derr.Message)
			return server.ErrInternal(derr.Message, server.WithDetails(derr.Details), server.WithError(err))
		}
		c.LogError("email send failed", "error", err)
		return server.ErrInternal(mailer.GenericFailureMessage, server.WithDetails(err.Error()), server.WithError(err))
	}

	c.LogInfo("email sent", "provider_status", sent.ProviderStatus)
	return c.JSON(http.StatusOK, SuccessResponse{
		Message:          MsgQueued,
		ProviderResponse: sent.ProviderResponse,
	})
}

func readBody(c server.Context) ([]byte, error) {
	body, err := c.Body()
	if errors.Is(err, server.ErrBodyTooLarge) {
		return nil, server.ErrRequestTooLarge(MsgBodyTooLarge, server.WithError(err))
	}
	if err != nil {
		return nil, server.ErrBadRequest(order.MsgInvalidConfirmation, server.WithError(err))
	}
	return body, nil
}

// badRequest answers 400 and echoes the request body as details.
func badRequest(c server.Context, body []byte, err error) error {
	msg := order.MsgInvalidConfirmation
	if verr, ok := order.AsValidationError(err); ok {
		msg = verr.Message
	}
	c.LogError("request validation failed", "error", err)
	return server.ErrBadRequest(msg, server.WithDetails(echo(body)), server.WithError(err))
}

func echo(body []byte) any {
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	return string(body)
}
