package order

import (
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dmitrymomot/mailrelay/pkg/mailer"
	"github.com/dmitrymomot/mailrelay/pkg/sanitizer"
)

//go:embed templates
var templatesFS embed.FS

const confirmationTemplate = "confirmation"

// Branding holds the deployment-specific parts of the email skeleton.
type Branding struct {
	AppName        string
	AccentColor    string // validated hex colour
	CurrencySymbol string
}

// RenderedMessage is the final subject and bodies handed to the gateway.
type RenderedMessage struct {
	Subject string
	HTML    string
	Text    string
}

// Renderer builds RenderedMessages from requests.
type Renderer struct {
	templates *mailer.Renderer
	branding  Branding
}

// NewRenderer creates a renderer over the embedded templates.
func NewRenderer(branding Branding) *Renderer {
	return &Renderer{
		templates: mailer.NewRenderer(templatesFS, "templates"),
		branding:  branding,
	}
}

type itemView struct {
	Name     string
	Price    string
	Subtotal string
	Quantity int
}

type confirmationView struct {
	AppName     string
	AccentColor htmltemplate.CSS
	ToName      string
	Total       string
	Items       []itemView
}

// Confirmation renders the order confirmation for a validated request.
// totalPrice is shown exactly as sent.
func (r *Renderer) Confirmation(req *ConfirmationRequest) (*RenderedMessage, error) {
	items := req.Items()
	view := confirmationView{
		AppName:     r.branding.AppName,
		AccentColor: htmltemplate.CSS(r.branding.AccentColor),
		ToName:      req.ToName,
		Total:       r.money(req.Total()),
		Items:       make([]itemView, 0, len(items)),
	}
	for _, item := range items {
		view.Items = append(view.Items, itemView{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    r.money(decimal.NewFromFloat(item.Price)),
			Subtotal: r.money(item.Subtotal()),
		})
	}

	out, err := r.templates.Render(confirmationTemplate, view)
	if err != nil {
		return nil, fmt.Errorf("render confirmation: %w", err)
	}
	return &RenderedMessage{Subject: req.Subject, HTML: out.HTML, Text: out.Text}, nil
}

// Content prepares caller-supplied bodies. Text-only content is rendered as
// Markdown, HTML is sanitized, and a missing text part is derived from HTML.
func (r *Renderer) Content(req *ContentRequest) (*RenderedMessage, error) {
	html, text := req.HTMLContent, req.TextContent

	// Blank parts count as missing.
	if strings.TrimSpace(html) == "" {
		converted, err := mailer.MarkdownToHTML(text)
		if err != nil {
			return nil, fmt.Errorf("render content: %w", err)
		}
		html = converted
	}
	html = sanitizer.SanitizeEmailHTML(html)

	if strings.TrimSpace(text) == "" {
		text = sanitizer.StripHTML(html)
	}

	return &RenderedMessage{Subject: req.Subject, HTML: html, Text: text}, nil
}

// Check parses the embedded templates; used as a readiness probe.
func (r *Renderer) Check(context.Context) error {
	return r.templates.Load(confirmationTemplate)
}

func (r *Renderer) money(d decimal.Decimal) string {
	return r.branding.CurrencySymbol + d.StringFixed(2)
}
