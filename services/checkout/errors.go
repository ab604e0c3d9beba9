package checkout

import (
	"errors"
	"fmt"
)

// Stable error codes surfaced to the API layer.
const (
	CodeSessionNotFound        = "SESSION_NOT_FOUND"
	CodeSessionAlreadyComplete = "SESSION_ALREADY_COMPLETED"
	CodeSessionNotInProgress   = "SESSION_NOT_IN_PROGRESS"
	CodeSessionNotCompleted    = "SESSION_NOT_COMPLETED"
	CodePackageNotFound        = "PACKAGE_NOT_FOUND"
	CodeNoRemainingSessions    = "PACKAGE_NO_REMAINING_SESSIONS"
	CodeProductNotFound        = "PRODUCT_NOT_FOUND"
	CodeInsufficientStock      = "INSUFFICIENT_STOCK"
	CodeInvalidPaymentTotal    = "INVALID_PAYMENT_TOTAL"
	CodeInvalidQuantity        = "INVALID_QUANTITY"
)

// Error is a settlement failure with a stable code.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewError(code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the stable code from err, or "" for plain errors.
func CodeOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
