package internal

import (
	"errors"
	"fmt"

	"paygate/entity"
)

// ErrSignatureMismatch is returned when an inbound notification fails
// signature verification. It must block every success-path side effect.
var ErrSignatureMismatch = errors.New("signature mismatch")

// ErrMalformedResponse is returned when a response body cannot be parsed
// into the expected envelope or object shape.
var ErrMalformedResponse = errors.New("malformed response")

// ErrPaymentTimeout is returned when a barcode payment is still pending
// after the polling budget is exhausted and the compensating cancel has
// been issued.
var ErrPaymentTimeout = errors.New("payment timed out")

// OperationError carries a non-success result returned by the provider.
type OperationError struct {
	Code    string
	Msg     string
	SubCode string
	SubMsg  string
}

func (e *OperationError) Error() string {
	if e.SubMsg != "" {
		return fmt.Sprintf("gateway operation failed: %s (%s)", e.SubMsg, e.SubCode)
	}
	return fmt.Sprintf("gateway operation failed: code %s %s", e.Code, e.Msg)
}

func isOperationError(err error) bool {
	var opErr *OperationError
	return errors.As(err, &opErr)
}

func isValidationError(err error) bool {
	var valErr *entity.ValidationError
	return errors.As(err, &valErr)
}
