// Package mailer delivers transactional email through pluggable providers.
//
// A provider adapter implements Sender. Gateway wraps a Sender with a per-call
// timeout, metrics and error normalization, so callers only ever see a Sent
// receipt or a *DeliveryError carrying a human-readable message and the
// provider's structured details.
//
//	sender := mailersend.New(mailersend.Config{APIKey: key})
//	gw := mailer.NewGateway(sender,
//		mailer.WithTimeout(15*time.Second),
//		mailer.WithLogger(log),
//	)
//
//	sent, err := gw.Send(ctx, mailer.SendParams{
//		SenderAddress:    "orders@example.com",
//		SenderName:       "Shop Notifications",
//		RecipientAddress: "jane@example.com",
//		RecipientName:    "Jane",
//		Subject:          "Your order",
//		HTML:             html,
//		Text:             text,
//	})
//	if derr, ok := mailer.AsDeliveryError(err); ok {
//		// derr.Message, derr.Details
//	}
//
// # Templates
//
// Renderer loads paired templates from an fs.FS: "<name>.html" is parsed with
// html/template and "<name>.txt" with text/template. Either file may start with
// YAML frontmatter; its values are available inside the templates through the
// meta function:
//
//	---
//	Heading: Order Confirmation
//	---
//	<h1>{{meta "Heading"}}</h1>
//
// MarkdownToHTML converts plain text or markdown into an HTML body for
// messages that only come with a text part.
package mailer
