package order

import (
	"errors"
	"fmt"
)

// Messages returned to callers for rejected requests.
const (
	MsgInvalidConfirmation = "Missing or invalid required email fields or purchase details."
	MsgInvalidContent      = "Missing or invalid required email fields (toEmail, subject, and htmlContent or textContent)."
	MsgTotalMismatch       = "Total price does not match the sum of line items."
)

// ErrTotalMismatch is reported when totalPrice differs from the line item sum.
var ErrTotalMismatch = errors.New("total price does not match line items")

// ValidationError describes the first invalid field of a request.
type ValidationError struct {
	Err     error
	Field   string
	Reason  string
	Message string // caller-facing message
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// AsValidationError extracts a *ValidationError from err.
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
