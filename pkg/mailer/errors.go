package mailer

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRecipient indicates no recipient was specified.
	ErrNoRecipient = errors.New("email must have at least one recipient")

	// ErrNoSender indicates no sender address was specified.
	ErrNoSender = errors.New("email must have a sender address")

	// ErrNoSubject indicates no subject was provided.
	ErrNoSubject = errors.New("email must have a subject")

	// ErrNoContent indicates neither HTML nor text content was provided.
	ErrNoContent = errors.New("email must have HTML or text content")

	// ErrTemplateNotFound indicates the template file was not found.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrRenderFailed indicates template rendering failed.
	ErrRenderFailed = errors.New("failed to render template")

	// ErrInvalidFrontmatter indicates invalid YAML frontmatter.
	ErrInvalidFrontmatter = errors.New("invalid frontmatter")
)

const (
	// GenericFailureMessage is used when a failure carries no usable message.
	GenericFailureMessage = "Network or internal server error."

	// TimeoutMessage is reported when the provider does not answer in time.
	TimeoutMessage = "Email provider did not respond in time."
)

// FailureKind classifies a delivery failure.
type FailureKind string

const (
	KindProvider FailureKind = "provider" // provider answered with an error
	KindNetwork  FailureKind = "network"  // no usable answer from the provider
	KindTimeout  FailureKind = "timeout"  // provider call exceeded its deadline
)

// ProviderError is returned by provider adapters when the provider answered
// with an error. Body holds the decoded error payload, typically with
// "message" and "errors" keys.
type ProviderError struct {
	Err        error
	Body       map[string]any
	Provider   string
	StatusCode int
}

func (e *ProviderError) Error() string {
	if msg, ok := e.Body["message"].(string); ok && msg != "" {
		return fmt.Sprintf("%s: %s", e.Provider, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s: unexpected status %d", e.Provider, e.StatusCode)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// DeliveryError is the normalized failure returned by Gateway.Send.
// Message is safe to show to API clients; Details carries the provider's
// structured error data or the raw failure text.
type DeliveryError struct {
	Err     error
	Details any
	Kind    FailureKind
	Message string
}

func (e *DeliveryError) Error() string { return e.Message }

func (e *DeliveryError) Unwrap() error { return e.Err }

// AsDeliveryError extracts a *DeliveryError from the error chain.
func AsDeliveryError(err error) (*DeliveryError, bool) {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsTimeout reports whether err is a delivery failure caused by the provider timeout.
func IsTimeout(err error) bool {
	de, ok := AsDeliveryError(err)
	return ok && de.Kind == KindTimeout
}
