// Package order validates order-confirmation requests and renders them into
// HTML and plain-text email bodies.
//
// Two request shapes are supported. ConfirmationRequest carries purchase line
// items and a total, and is rendered from the embedded confirmation template.
// ContentRequest carries caller-rendered bodies, which are sanitized before
// they are sent.
package order
