package payments

import (
	"errors"
	"fmt"
)

const (
	CodeTransactionNotFound = "TRANSACTION_NOT_FOUND"
	CodeAlreadyVoided       = "TRANSACTION_ALREADY_VOIDED"
	CodeInvalidAmount       = "INVALID_AMOUNT"
	CodePurchaseNotFound    = "PURCHASE_NOT_FOUND"
	CodeChargeFailed        = "CARD_CHARGE_FAILED"
)

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

func CodeOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
