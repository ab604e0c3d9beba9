package scheduling

import (
	"errors"
	"fmt"
)

// Stable error codes surfaced to the API layer.
const (
	CodeBabyNotFound         = "BABY_NOT_FOUND"
	CodeParentNotFound       = "PARENT_NOT_FOUND"
	CodeDateClosed           = "DATE_CLOSED"
	CodeOutsideBusinessHours = "OUTSIDE_BUSINESS_HOURS"
	CodeInvalidTime          = "INVALID_TIME"
	CodeTimeSlotFull         = "TIME_SLOT_FULL"
	CodeAppointmentNotFound  = "APPOINTMENT_NOT_FOUND"
	CodeNotScheduled         = "APPOINTMENT_NOT_SCHEDULED"
	CodePendingPayment       = "APPOINTMENT_PENDING_PAYMENT"
	CodeInvalidStatusChange  = "INVALID_STATUS_CHANGE"
	CodeCancelReasonRequired = "CANCEL_REASON_REQUIRED"
	CodeSessionExists        = "SESSION_ALREADY_EXISTS"
	CodeInvalidTherapist     = "INVALID_THERAPIST"
	CodePackageNotFound      = "PACKAGE_NOT_FOUND"
	CodePackageNotForBaby    = "PACKAGE_NOT_FOR_THIS_BABY"
	CodePackageNotForParent  = "PACKAGE_NOT_FOR_THIS_PARENT"
	CodeNoSessionsRemaining  = "NO_SESSIONS_REMAINING"
	CodeInvalidAmount        = "INVALID_AMOUNT"
)

// Error is a booking failure with a stable code the API layer maps to a
// user-facing message.
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
