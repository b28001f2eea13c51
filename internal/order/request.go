package order

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/shopspring/decimal"
)

// MismatchPolicy decides what happens when totalPrice disagrees with the
// computed line item sum. The total is never corrected.
type MismatchPolicy string

const (
	MismatchAccept MismatchPolicy = "accept"
	MismatchReject MismatchPolicy = "reject"
)

// LineItem is one purchased product.
type LineItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Subtotal returns price × quantity.
func (li LineItem) Subtotal() decimal.Decimal {
	return decimal.NewFromFloat(li.Price).Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// ConfirmationRequest is the body of POST /send-confirmation-email.
// Pointer fields distinguish a missing value from a zero value.
type ConfirmationRequest struct {
	ToEmail         string      `json:"toEmail"`
	ToName          string      `json:"toName"`
	Subject         string      `json:"subject"`
	PurchaseDetails *[]LineItem `json:"purchaseDetails"`
	TotalPrice      *float64    `json:"totalPrice"`
}

// DecodeConfirmation parses and validates a confirmation request body.
func DecodeConfirmation(body []byte) (*ConfirmationRequest, error) {
	var req ConfirmationRequest
	if err := decode(body, &req); err != nil {
		err.Message = MsgInvalidConfirmation
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

// Validate checks required fields and line items.
func (r *ConfirmationRequest) Validate() error {
	invalid := func(field, reason string) error {
		return &ValidationError{Field: field, Reason: reason, Message: MsgInvalidConfirmation}
	}

	if err := validateEmail(r.ToEmail); err != nil {
		err.Message = MsgInvalidConfirmation
		return err
	}
	if strings.TrimSpace(r.ToName) == "" {
		return invalid("toName", "is required")
	}
	if strings.TrimSpace(r.Subject) == "" {
		return invalid("subject", "is required")
	}
	if r.PurchaseDetails == nil {
		return invalid("purchaseDetails", "must be an array")
	}
	for i, item := range *r.PurchaseDetails {
		switch {
		case strings.TrimSpace(item.Name) == "":
			return invalid(fmt.Sprintf("purchaseDetails[%d].name", i), "is required")
		case item.Quantity < 0:
			return invalid(fmt.Sprintf("purchaseDetails[%d].quantity", i), "must not be negative")
		case item.Price < 0:
			return invalid(fmt.Sprintf("purchaseDetails[%d].price", i), "must not be negative")
		}
	}
	if r.TotalPrice == nil {
		return invalid("totalPrice", "must be a number")
	}
	if *r.TotalPrice < 0 {
		return invalid("totalPrice", "must not be negative")
	}
	return nil
}

// Items returns the line items; nil when none were sent.
func (r *ConfirmationRequest) Items() []LineItem {
	if r.PurchaseDetails == nil {
		return nil
	}
	return *r.PurchaseDetails
}

// Total returns totalPrice as sent by the caller.
func (r *ConfirmationRequest) Total() decimal.Decimal {
	if r.TotalPrice == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*r.TotalPrice)
}

// ComputedTotal sums the line item subtotals.
func (r *ConfirmationRequest) ComputedTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range r.Items() {
		sum = sum.Add(item.Subtotal())
	}
	return sum
}

// TotalMatches compares both totals rounded to cents.
func (r *ConfirmationRequest) TotalMatches() bool {
	return r.ComputedTotal().Round(2).Equal(r.Total().Round(2))
}

// CheckTotal applies the mismatch policy. It returns a *ValidationError
// wrapping ErrTotalMismatch only under MismatchReject.
func (r *ConfirmationRequest) CheckTotal(policy MismatchPolicy) error {
	if policy != MismatchReject || r.TotalMatches() {
		return nil
	}
	return &ValidationError{
		Err:     ErrTotalMismatch,
		Field:   "totalPrice",
		Reason:  fmt.Sprintf("expected %s, got %s", r.ComputedTotal().StringFixed(2), r.Total().StringFixed(2)),
		Message: MsgTotalMismatch,
	}
}

// ContentRequest is the body of POST /send-email, carrying pre-rendered content.
type ContentRequest struct {
	ToEmail     string `json:"toEmail"`
	ToName      string `json:"toName"`
	Subject     string `json:"subject"`
	HTMLContent string `json:"htmlContent"`
	TextContent string `json:"textContent"`
}

// DecodeContent parses, normalizes and validates a content request body.
func DecodeContent(body []byte) (*ContentRequest, error) {
	var req ContentRequest
	if err := decode(body, &req); err != nil {
		err.Message = MsgInvalidContent
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

// Normalize defaults toName to toEmail.
func (r *ContentRequest) Normalize() {
	if strings.TrimSpace(r.ToName) == "" {
		r.ToName = r.ToEmail
	}
}

// Validate checks the recipient, subject and that some content is present.
func (r *ContentRequest) Validate() error {
	if err := validateEmail(r.ToEmail); err != nil {
		err.Message = MsgInvalidContent
		return err
	}
	if strings.TrimSpace(r.Subject) == "" {
		return &ValidationError{Field: "subject", Reason: "is required", Message: MsgInvalidContent}
	}
	if strings.TrimSpace(r.HTMLContent) == "" && strings.TrimSpace(r.TextContent) == "" {
		return &ValidationError{Field: "htmlContent", Reason: "htmlContent or textContent is required", Message: MsgInvalidContent}
	}
	return nil
}

// IsEmail reports whether s is a bare email address such as "a@b.com".
func IsEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func validateEmail(s string) *ValidationError {
	if strings.TrimSpace(s) == "" {
		return &ValidationError{Field: "toEmail", Reason: "is required"}
	}
	if !IsEmail(s) {
		return &ValidationError{Field: "toEmail", Reason: "is not a valid email address"}
	}
	return nil
}

func decode(body []byte, v any) *ValidationError {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return &ValidationError{Field: "body", Reason: "is empty"}
	}
	if body[0] != '{' {
		return &ValidationError{Field: "body", Reason: "must be a JSON object"}
	}
	if err := json.Unmarshal(body, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return &ValidationError{Err: err, Field: typeErr.Field, Reason: "must be " + jsonKind(typeErr.Type.Kind().String())}
		}
		return &ValidationError{Err: err, Field: "body", Reason: "is not valid JSON"}
	}
	return nil
}

func jsonKind(goKind string) string {
	switch goKind {
	case "string":
		return "a string"
	case "int":
		return "an integer"
	case "float64":
		return "a number"
	case "slice":
		return "an array"
	case "struct":
		return "an object"
	default:
		return "a " + goKind
	}
}
