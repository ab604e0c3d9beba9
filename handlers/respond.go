package handlers

import (
	"net/http"

	"babyspa/services/checkout"
	"babyspa/services/payments"
	"babyspa/services/scheduling"
	"babyspa/utils"

	"github.com/gin-gonic/gin"
)

// statusByCode maps stable service error codes to HTTP statuses. Unknown
// codes fall through to 500.
var statusByCode = map[string]int{
	scheduling.CodeBabyNotFound:         http.StatusNotFound,
	scheduling.CodeParentNotFound:       http.StatusNotFound,
	scheduling.CodeAppointmentNotFound:  http.StatusNotFound,
	scheduling.CodePackageNotFound:      http.StatusNotFound,
	scheduling.CodeDateClosed:           http.StatusUnprocessableEntity,
	scheduling.CodeOutsideBusinessHours: http.StatusUnprocessableEntity,
	scheduling.CodeInvalidTime:          http.StatusBadRequest,
	scheduling.CodeInvalidAmount:        http.StatusBadRequest,
	scheduling.CodeCancelReasonRequired: http.StatusBadRequest,
	scheduling.CodeInvalidTherapist:     http.StatusBadRequest,
	scheduling.CodeTimeSlotFull:         http.StatusConflict,
	scheduling.CodeInvalidStatusChange:  http.StatusConflict,
	scheduling.CodeNotScheduled:         http.StatusConflict,
	scheduling.CodePendingPayment:       http.StatusConflict,
	scheduling.CodeSessionExists:        http.StatusConflict,
	scheduling.CodePackageNotForBaby:    http.StatusConflict,
	scheduling.CodePackageNotForParent:  http.StatusConflict,
	scheduling.CodeNoSessionsRemaining:  http.StatusConflict,

	checkout.CodeSessionNotFound:        http.StatusNotFound,
	checkout.CodeProductNotFound:        http.StatusNotFound,
	checkout.CodeSessionAlreadyComplete: http.StatusConflict,
	checkout.CodeSessionNotInProgress:   http.StatusConflict,
	checkout.CodeSessionNotCompleted:    http.StatusConflict,
	checkout.CodeNoRemainingSessions:    http.StatusConflict,
	checkout.CodeInsufficientStock:      http.StatusConflict,
	checkout.CodeInvalidPaymentTotal:    http.StatusBadRequest,
	checkout.CodeInvalidQuantity:        http.StatusBadRequest,

	payments.CodeTransactionNotFound: http.StatusNotFound,
	payments.CodePurchaseNotFound:    http.StatusNotFound,
	payments.CodeAlreadyVoided:       http.StatusConflict,
	payments.CodeChargeFailed:        http.StatusBadGateway,
}

// respondError maps a service error to the JSON error payload. Errors
// without a stable code are internal.
func respondError(c *gin.Context, err error) {
	code := scheduling.CodeOf(err)
	if code == "" {
		code = checkout.CodeOf(err)
	}
	if code == "" {
		code = payments.CodeOf(err)
	}
	if code == "" {
		utils.JSONError(c, http.StatusInternalServerError, "internal error", err.Error())
		return
	}
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	utils.JSONCodedError(c, status, code, err.Error())
}

// actor returns the acting staff/user id supplied by the API gateway.
func actor(c *gin.Context) string {
	return c.GetHeader("X-Actor-Id")
}

// portalChannel reports whether the request came through the self-service
// portal, which books against the lower capacity ceiling and must pay an
// advance.
func portalChannel(c *gin.Context) bool {
	return c.GetHeader("X-Channel") == "portal"
}
