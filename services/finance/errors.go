package finance

import (
	"errors"
	"fmt"
)

// Error codes surfaced to clients on payment and charge failures. The HTTP
// layer maps every one of them to a 400 response.
const (
	CodeInvalidAmount           = "InvalidAmount"
	CodeMissingRequiredFields   = "MissingRequiredFields"
	CodeInvalidDueDate          = "InvalidDueDate"
	CodeChargeNotFound          = "ChargeNotFound"
	CodeAlreadyPaid             = "AlreadyPaid"
	CodePaymentInProgress       = "PaymentInProgress"
	CodeInvalidPaymentSignature = "InvalidPaymentSignature"
	CodePaymentNotFound         = "PaymentNotFound"
	CodeGatewayError            = "GatewayError"
	CodeUnsupportedMethod       = "UnsupportedMethod"
)

// Error is a code-carrying failure of the payment or charge flow.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code, message string) error {
	return &Error{Code: code, Message: message}
}

func errorf(code, format string, args ...interface{}) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the finance error code carried by err, or "" when err is
// not a finance error.
func CodeOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}
