package handlers

import (
	"net/http"

	ledgerRepo "babyspa/database/repository/ledger"
	"babyspa/services/payments"

	"github.com/gin-gonic/gin"
)

// PaymentHandler exposes ledger endpoints: installments, voids and the
// per-appointment transaction listing.
type PaymentHandler struct {
	Payments payments.Recorder
	Ledger   ledgerRepo.Repository
}

func NewPaymentHandler(p payments.Recorder, ledger ledgerRepo.Repository) *PaymentHandler {
	return &PaymentHandler{Payments: p, Ledger: ledger}
}

// RecordInstallment pays down an installment-plan package purchase.
func (h *PaymentHandler) RecordInstallment(c *gin.Context) {
	var input struct {
		Amount float64 `json:"amount" binding:"required"`
		Method string  `json:"method" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	purchase, txn, err := h.Payments.RecordInstallment(c.Request.Context(),
		c.Param("id"), input.Amount, input.Method, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"purchase": purchase, "transaction": txn})
}

// Void marks a transaction voided and records the paired reversal.
func (h *PaymentHandler) Void(c *gin.Context) {
	reversal, err := h.Payments.Void(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reversal)
}

// ListForAppointment returns the appointment's ledger trail, advances
// included.
func (h *PaymentHandler) ListForAppointment(c *gin.Context) {
	txns, err := h.Ledger.ListForAppointment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txns})
}
